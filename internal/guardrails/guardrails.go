// Package guardrails provides query and output validation for the
// pipeline. Enabling or disabling guardrails selects one of two strategy
// implementations; the pipeline always calls through the same interface.
package guardrails

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/querra-cli/internal/core/domain"
	"github.com/custodia-labs/querra-cli/internal/core/ports/driven"
)

// Ensure both strategies implement the interface.
var (
	_ driven.Guardrail = (*Checker)(nil)
	_ driven.Guardrail = (*PassThrough)(nil)
)

// Checker is the active guardrail strategy.
type Checker struct {
	maxQueryLength int
	blockedTerms   []string
}

// Option configures the checker.
type Option func(*Checker)

// WithMaxQueryLength sets the query length cap in runes.
func WithMaxQueryLength(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.maxQueryLength = n
		}
	}
}

// WithBlockedTerms sets terms whose presence rejects a query.
// Matching is case-insensitive on whole tokens.
func WithBlockedTerms(terms []string) Option {
	return func(c *Checker) {
		c.blockedTerms = make([]string, 0, len(terms))
		for _, t := range terms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				c.blockedTerms = append(c.blockedTerms, t)
			}
		}
	}
}

// NewChecker creates an active guardrail with the given options.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		maxQueryLength: domain.DefaultMaxQueryLen,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckQuery validates the question before retrieval. It rejects empty
// or whitespace-only input, input over the length cap, and input
// containing a blocked term.
func (c *Checker) CheckQuery(text string) domain.Verdict {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Reject("question is empty")
	}
	if utf8.RuneCountInString(text) > c.maxQueryLength {
		return domain.Reject("question exceeds maximum length")
	}

	if len(c.blockedTerms) > 0 {
		tokens := tokenSet(text)
		for _, term := range c.blockedTerms {
			if _, found := tokens[term]; found {
				return domain.Reject("question contains disallowed content")
			}
		}
	}

	return domain.Allow()
}

// CheckOutput validates the synthesized answer against the chunks it was
// grounded on. An answer sharing no informative token with any retrieved
// chunk fails the groundedness check: the generator produced text the
// retrieval cannot support.
func (c *Checker) CheckOutput(text string, chunks []domain.Chunk) domain.Verdict {
	if strings.TrimSpace(text) == "" {
		return domain.Reject("answer is empty")
	}
	if len(chunks) == 0 {
		// Nothing to ground against; the synthesizer's fallback answer
		// is allowed through.
		return domain.Allow()
	}

	answerTokens := tokenSet(text)
	if len(answerTokens) == 0 {
		return domain.Reject("answer contains no checkable tokens")
	}

	for _, chunk := range chunks {
		for tok := range tokenSet(chunk.Content) {
			if _, found := answerTokens[tok]; found {
				return domain.Allow()
			}
		}
	}

	return domain.Reject("answer is not grounded in the retrieved documents")
}

// PassThrough is the disabled-guardrails strategy: every check passes.
// It exists so that disabling guardrails is a configuration choice, not
// a deleted code path.
type PassThrough struct{}

// NewPassThrough creates the allow-all strategy.
func NewPassThrough() *PassThrough {
	return &PassThrough{}
}

// CheckQuery always allows.
func (*PassThrough) CheckQuery(string) domain.Verdict {
	return domain.Allow()
}

// CheckOutput always allows.
func (*PassThrough) CheckOutput(string, []domain.Chunk) domain.Verdict {
	return domain.Allow()
}

// Select returns the strategy matching the configuration switch.
func Select(enabled bool, opts ...Option) driven.Guardrail {
	if enabled {
		return NewChecker(opts...)
	}
	return NewPassThrough()
}

// tokenSet lowercases the text and splits it into a set of alphanumeric
// tokens. Same splitting policy as the sparse-index tokenizer so that
// groundedness mirrors what retrieval can actually match.
func tokenSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
