package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/html-scratchpad/internal/model"
)

// Remote is an optional external classifier, typically a language model.
//
// The contract has exactly two outcomes: a structured result, or an error.
// Implementations own their transport concerns (timeouts, prompt size);
// Classifier performs no retries.
type Remote interface {
	Classify(ctx context.Context, code string) (model.Classification, error)
}

// RemoteFunc adapts a plain function to the Remote interface, the same way
// http.HandlerFunc adapts a function to http.Handler.
type RemoteFunc func(ctx context.Context, code string) (model.Classification, error)

// Classify calls f(ctx, code).
func (f RemoteFunc) Classify(ctx context.Context, code string) (model.Classification, error) {
	return f(ctx, code)
}

// Source records which classifier produced a result.
type Source string

const (
	SourceRemote    Source = "remote"
	SourceHeuristic Source = "heuristic"
)

// ErrInvalidResult is returned by Validate for out-of-enumeration values.
var ErrInvalidResult = errors.New("classifier: invalid classification")

// Validate checks a remote result against the closed enumerations and trims
// its tags to model.MaxTags. The input is not modified.
func Validate(c model.Classification) (model.Classification, error) {
	if !c.Category.Valid() {
		return model.Classification{}, fmt.Errorf("%w: unknown category %q", ErrInvalidResult, c.Category)
	}
	if !c.Difficulty.Valid() {
		return model.Classification{}, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidResult, c.Difficulty)
	}
	tags := make([]string, 0, model.MaxTags)
	for _, t := range c.Tags {
		if len(tags) == model.MaxTags {
			break
		}
		tags = append(tags, t)
	}
	c.Tags = tags
	return c, nil
}

// Classifier prefers the remote classifier and falls back to Heuristic.
//
// A nil Remote is valid: every call then goes straight to the heuristic.
type Classifier struct {
	remote Remote
	logger *slog.Logger
}

// New creates a Classifier. remote may be nil.
func New(remote Remote, logger *slog.Logger) *Classifier {
	return &Classifier{remote: remote, logger: logger}
}

// HasRemote reports whether a remote classifier is configured.
func (c *Classifier) HasRemote() bool {
	return c.remote != nil
}

// Classify never fails.
//
// FALLBACK RULE:
// Any remote failure (transport error, malformed payload, a category or
// difficulty outside the enumeration) discards the remote result ENTIRELY
// and returns Heuristic(code). The failure is logged, not surfaced.
func (c *Classifier) Classify(ctx context.Context, code string) (model.Classification, Source) {
	if c.remote == nil {
		return Heuristic(code), SourceHeuristic
	}

	result, err := c.remote.Classify(ctx, code)
	if err == nil {
		result, err = Validate(result)
	}
	if err != nil {
		c.logger.Warn("remote classification failed, using heuristic",
			slog.String("error", err.Error()),
		)
		return Heuristic(code), SourceHeuristic
	}

	return result, SourceRemote
}

// Outcome is the result of classifying one snippet in a batch.
type Outcome struct {
	SnippetID      string               `json:"snippetId"`
	Classification model.Classification `json:"classification"`
	Source         Source               `json:"source"`
}

// ClassifyAll classifies each snippet in turn, one remote call per snippet.
// A failure on one snippet falls back for that snippet only; the batch never
// aborts. Outcomes are returned in input order.
func (c *Classifier) ClassifyAll(ctx context.Context, snippets []model.Snippet) []Outcome {
	outcomes := make([]Outcome, 0, len(snippets))
	for _, s := range snippets {
		result, source := c.Classify(ctx, s.Code)
		outcomes = append(outcomes, Outcome{
			SnippetID:      s.ID,
			Classification: result,
			Source:         source,
		})
	}
	return outcomes
}
