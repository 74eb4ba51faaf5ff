package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/gdprscan/gdprscan/internal/model"
)

// Default tuning for the Ollama classifier.
const (
	// DefaultModel is the model asked for classification. Any JSON-capable
	// instruction model works; llama3 matches the prompts' tone.
	DefaultModel = "llama3"

	// DefaultMaxInput caps the page content included in one prompt.
	// Local models choke on full page HTML well before this limit matters
	// for accuracy.
	DefaultMaxInput = 15000

	// DefaultCallTimeout bounds a single model call. Classifier calls
	// always carry an explicit timeout so a stuck model degrades one
	// protocol run instead of hanging it.
	DefaultCallTimeout = 60 * time.Second
)

// Ollama is the Classifier implementation backed by a local Ollama server
// through langchaingo. Page HTML is converted to markdown before prompting:
// markup noise wastes model context and hurts answer quality.
type Ollama struct {
	llm       *ollama.LLM
	converter *md.Converter
	maxInput  int
	timeout   time.Duration
	logger    *slog.Logger
}

// OllamaOption configures an Ollama classifier.
type OllamaOption func(*Ollama)

// WithMaxInput sets the per-prompt content cap in bytes.
func WithMaxInput(n int) OllamaOption {
	return func(o *Ollama) {
		if n > 0 {
			o.maxInput = n
		}
	}
}

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) OllamaOption {
	return func(o *Ollama) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) OllamaOption {
	return func(o *Ollama) {
		o.logger = logger
	}
}

// NewOllama creates a classifier talking to the Ollama server at serverURL
// using the named model.
func NewOllama(serverURL, modelName string, opts ...OllamaOption) (*Ollama, error) {
	if modelName == "" {
		modelName = DefaultModel
	}

	llm, err := ollama.New(ollama.WithModel(modelName), ollama.WithServerURL(serverURL))
	if err != nil {
		return nil, fmt.Errorf("failed to init ollama: %w", err)
	}

	o := &Ollama{
		llm:       llm,
		converter: md.NewConverter("", true, nil),
		maxInput:  DefaultMaxInput,
		timeout:   DefaultCallTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// ClassifyEmbedded implements Classifier.
func (o *Ollama) ClassifyEmbedded(ctx context.Context, pageText string, target model.TargetType) EmbeddedVerdict {
	prompt := fmt.Sprintf(`You are an expert in GDPR compliance. Decide whether the page text below itself contains a %s.
Only answer "found": true when the text genuinely contains the information, not merely a link or a passing mention of it.

Page text:
---
%s
---

Return a single JSON object with this structure:
{
  "found": <boolean>,
  "summary": <string>,
  "reasoning": <string>
}
If the information is present, summarize it in "summary". If not, set "found" to false and "summary" to an empty string.
In "reasoning" explain which phrases led to your answer, or why nothing qualified.
Return only the JSON object, no introduction or other text.`,
		target.Description(), truncate(pageText, o.maxInput))

	var verdict EmbeddedVerdict
	if err := o.queryJSON(ctx, prompt, &verdict); err != nil {
		o.logger.Debug("embedded classification failed", "target", target.String(), "error", err)
		return EmbeddedVerdict{Err: err.Error()}
	}
	return verdict
}

// SelectLink implements Classifier.
func (o *Ollama) SelectLink(ctx context.Context, pageHTML string, target model.TargetType, candidates []string) LinkVerdict {
	pageContext := pageHTML
	if rendered, err := o.converter.ConvertString(pageHTML); err == nil {
		pageContext = rendered
	} else {
		o.logger.Debug("markdown conversion failed, prompting with raw HTML", "error", err)
	}

	prompt := fmt.Sprintf(`You are an expert web analysis agent. Your task is to pick the URL most likely leading to the %s of this website.
This page is often linked from the footer, but can also be in a cookie banner, "About Us" section, or other legal notices.

STRICT RULE: you must answer with one URL copied verbatim from the candidate list below, or null. Never invent a URL.

Candidate URLs:
%s

Page content for context:
---
%s
---

Return a single JSON object with this structure:
{
  "chosen_url": <string or null>,
  "reasoning": <string>,
  "confidence": <number>
}
In "reasoning" explain which words or hints made you pick that URL, or why none fits.
In "confidence" tell from 0 to 1 how sure you are that the chosen URL is correct.
Return only the JSON object, no introduction or other text.`,
		target.Description(), "- "+strings.Join(candidates, "\n- "), truncate(pageContext, o.maxInput))

	var verdict LinkVerdict
	if err := o.queryJSON(ctx, prompt, &verdict); err != nil {
		o.logger.Debug("link selection failed", "target", target.String(), "error", err)
		return LinkVerdict{Err: err.Error()}
	}
	return verdict
}

// CategorizeCookies asks the model to sort the captured cookies into the
// standard consent categories. The returned map is keyed by category name,
// values are cookie names. An error is returned instead of a degraded
// verdict because cookie categorization is not part of the discovery
// protocol's fallback chain.
func (o *Ollama) CategorizeCookies(ctx context.Context, cookies []model.Cookie) (map[string][]string, error) {
	if len(cookies) == 0 {
		return map[string][]string{}, nil
	}

	list, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are an expert in GDPR cookie compliance. Categorize each cookie below by its name and properties into exactly one of:
- "Strictly Necessary": essential for the website's basic function (e.g. sessions, shopping cart).
- "Functional": remembers user choices (e.g. language, preferences).
- "Analytical": collects data on user behavior to improve the site (e.g. Google Analytics).
- "Marketing": tracks users for advertising and personalization.
- "Uncategorized": no clear purpose can be determined.

Cookies to categorize:
%s

Return a single JSON object mapping each category name to the list of cookie names assigned to it.
Return only the JSON object, no introduction or other text.`, string(list))

	var categorized map[string][]string
	if err := o.queryJSON(ctx, prompt, &categorized); err != nil {
		return nil, err
	}
	return categorized, nil
}

// queryJSON sends one prompt and decodes the JSON object from the response
// into out. The response is cleaned with extractJSON first because models
// wrap JSON in fences or prose despite instructions.
func (o *Ollama) queryJSON(ctx context.Context, prompt string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	raw, err := o.llm.Call(ctx, prompt, llms.WithJSONMode(), llms.WithTemperature(0))
	if err != nil {
		return fmt.Errorf("model call failed: %w", err)
	}

	cleaned, err := extractJSON(raw)
	if err != nil {
		return fmt.Errorf("model returned malformed JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("model returned malformed JSON: %w", err)
	}
	return nil
}
