package classifier

import (
	"context"

	"github.com/gdprscan/gdprscan/internal/model"
)

// EmbeddedVerdict is the classifier's answer to an embedded check: does the
// supplied page text itself satisfy the target type?
type EmbeddedVerdict struct {
	// Found reports whether the page's own text satisfies the target.
	Found bool `json:"found"`

	// Summary is a short summary of the qualifying content when found.
	Summary string `json:"summary"`

	// Reasoning explains what the classifier based its answer on.
	Reasoning string `json:"reasoning"`

	// Err is set when the call or response parsing failed irrecoverably.
	// The engine treats a non-empty Err identically to Found=false.
	Err string `json:"-"`
}

// LinkVerdict is the classifier's answer to a link selection: which of the
// supplied candidate hrefs most likely leads to the target?
type LinkVerdict struct {
	// ChosenURL is the selected href, or empty when the classifier found
	// no plausible candidate. The engine validates membership against the
	// candidate set; this value is never used raw.
	ChosenURL string `json:"chosen_url"`

	// Reasoning explains the choice.
	Reasoning string `json:"reasoning"`

	// Confidence is the classifier's self-reported confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Err is set when the call or response parsing failed irrecoverably.
	// The engine treats a non-empty Err identically to "no choice".
	Err string `json:"-"`
}

// Classifier is the contract the discovery engine requires from a semantic
// text/URL classifier. Implementations must honor the context deadline and
// must never panic on malformed upstream responses.
type Classifier interface {
	// ClassifyEmbedded reports whether pageText itself contains content
	// satisfying the target type.
	ClassifyEmbedded(ctx context.Context, pageText string, target model.TargetType) EmbeddedVerdict

	// SelectLink picks the most promising href for the target type from
	// candidates. The classifier is instructed to answer only from the
	// supplied list, but callers must still validate the answer.
	SelectLink(ctx context.Context, pageHTML string, target model.TargetType, candidates []string) LinkVerdict
}
