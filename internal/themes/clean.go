// Package themes classifies free-text survey answers into the
// hand-curated theme set: keyword matching first, a seeded topic-model
// fallback for unmatched answers, "General" as the last resort.
package themes

import (
	"fmt"
	"strings"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/bbalet/stopwords"
)

// Cleaner normalizes free text into the token form both the keyword
// matcher and the topic model consume.
type Cleaner struct {
	lemmatizer *golem.Lemmatizer
}

// NewCleaner loads the English lemmatizer dictionary.
func NewCleaner() (*Cleaner, error) {
	l, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("failed to load lemmatizer: %w", err)
	}
	return &Cleaner{lemmatizer: l}, nil
}

// Clean lowercases, strips punctuation, removes stopwords, tokenizes,
// lemmatizes, and drops tokens of length <= 2.
func (c *Cleaner) Clean(text string) []string {
	stripped := stopwords.CleanString(text, "en", false)
	fields := strings.Fields(stripped)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		lemma := strings.ToLower(c.lemmatizer.Lemma(f))
		if len(lemma) <= 2 {
			continue
		}
		tokens = append(tokens, lemma)
	}
	return tokens
}

// ExtractResponses keeps the answers worth classifying: trimmed,
// non-empty, and not the placeholder "-".
func ExtractResponses(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, cell := range cells {
		v := strings.TrimSpace(cell)
		if v == "" || v == "-" {
			continue
		}
		out = append(out, v)
	}
	return out
}
