package classifier

import (
	"encoding/json"
	"errors"
	"testing"
)

// TestExtractJSON tests recovery of JSON objects from messy model output.
func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "clean JSON passes through",
			raw:  `{"found": true}`,
			want: `{"found": true}`,
		},
		{
			name: "markdown fence is stripped",
			raw:  "Here you go:\n```json\n{\"found\": true}\n```\nHope that helps!",
			want: `{"found": true}`,
		},
		{
			name: "unterminated fence is tolerated",
			raw:  "```json\n{\"found\": false}",
			want: `{"found": false}`,
		},
		{
			name: "prose around braces is sliced off",
			raw:  `Sure! The answer is {"chosen_url": null, "confidence": 0.1} as requested.`,
			want: `{"chosen_url": null, "confidence": 0.1}`,
		},
		{
			name:    "no JSON at all",
			raw:     "I could not find anything.",
			wantErr: true,
		},
		{
			name:    "empty response",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := extractJSON(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSON) {
					t.Fatalf("expected ErrNoJSON, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestVerdictDecoding verifies the wire shapes the prompts ask for.
func TestVerdictDecoding(t *testing.T) {
	t.Parallel()

	t.Run("embedded verdict", func(t *testing.T) {
		t.Parallel()

		var v EmbeddedVerdict
		raw := `{"found": true, "summary": "Data kept 30 days.", "reasoning": "retention section"}`
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if !v.Found || v.Summary == "" || v.Reasoning == "" {
			t.Errorf("unexpected verdict: %+v", v)
		}
	})

	t.Run("link verdict with null URL", func(t *testing.T) {
		t.Parallel()

		var v LinkVerdict
		raw := `{"chosen_url": null, "reasoning": "none fits", "confidence": 0.0}`
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if v.ChosenURL != "" {
			t.Errorf("null chosen_url should decode to empty string, got %q", v.ChosenURL)
		}
	})
}

// TestTruncate tests the prompt size cap.
func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := truncate("abcdef", 3); got != "abc" {
		t.Errorf("truncate() = %q, want %q", got, "abc")
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("truncate() must not pad, got %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Errorf("zero limit must disable truncation, got %q", got)
	}
}
