package themes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/ecochat-research/analysis/internal/config"
)

// Assignment is one classified response. Themes holds every matching
// label in theme-table order; it is never empty ("General" is the
// catch-all).
type Assignment struct {
	Original string
	Tokens   []string
	Themes   []string
}

// Classifier assigns theme labels to free-text responses.
type Classifier struct {
	table   *config.ThemeTable
	cleaner *Cleaner
}

// NewClassifier builds a classifier over the given theme table.
func NewClassifier(table *config.ThemeTable) (*Classifier, error) {
	cleaner, err := NewCleaner()
	if err != nil {
		return nil, err
	}
	return &Classifier{table: table, cleaner: cleaner}, nil
}

// Classify labels every response. Keyword matching is purely
// deterministic; the topic-model fallback only runs when at least one
// response matched no theme, and is seeded from the theme table so
// repeated runs assign identically.
func (c *Classifier) Classify(responses []string) ([]Assignment, error) {
	assignments := make([]Assignment, len(responses))
	unmatched := false
	for i, text := range responses {
		tokens := c.cleaner.Clean(text)
		assignments[i] = Assignment{
			Original: text,
			Tokens:   tokens,
			Themes:   c.matchKeywords(tokens),
		}
		if len(assignments[i].Themes) == 0 {
			unmatched = true
		}
	}

	if unmatched {
		if err := c.assignByTopics(assignments); err != nil {
			return nil, err
		}
	}
	for i := range assignments {
		if len(assignments[i].Themes) == 0 {
			assignments[i].Themes = []string{config.GeneralTheme}
		}
	}
	return assignments, nil
}

// matchKeywords returns every theme whose keyword set intersects the
// token set, in table order. Multi-label: a response naming both
// transparency and taxes carries both themes.
func (c *Classifier) matchKeywords(tokens []string) []string {
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}
	var matched []string
	for _, theme := range c.table.Themes {
		for _, kw := range theme.Keywords {
			if tokenSet[strings.ToLower(kw)] {
				matched = append(matched, theme.Name)
				break
			}
		}
	}
	return matched
}

// assignByTopics fits a seeded LDA over the whole cleaned corpus and
// gives each still-unmatched response the first theme whose keyword set
// intersects its dominant topic's top terms.
func (c *Classifier) assignByTopics(assignments []Assignment) error {
	corpus := make([]string, len(assignments))
	for i, a := range assignments {
		corpus[i] = strings.Join(a.Tokens, " ")
	}

	vectoriser := nlp.NewCountVectoriser()
	counts, err := vectoriser.FitTransform(corpus...)
	if err != nil {
		return fmt.Errorf("failed to vectorise corpus: %w", err)
	}

	k := c.table.Topics
	if k > len(corpus) {
		k = len(corpus)
	}
	if k < 1 {
		return nil
	}
	lda := nlp.NewLatentDirichletAllocation(k)
	lda.Iterations = c.table.Iterations
	lda.Processes = 1
	lda.Rnd = rand.New(rand.NewSource(c.table.Seed))
	topicsOverDocs, err := lda.FitTransform(counts)
	if err != nil {
		return fmt.Errorf("failed to fit topic model: %w", err)
	}

	terms := make([]string, len(vectoriser.Vocabulary))
	for word, idx := range vectoriser.Vocabulary {
		terms[idx] = word
	}
	topTerms := topicTopTerms(lda.Components(), terms, c.table.TopTerms)

	rows, _ := topicsOverDocs.Dims()
	for i := range assignments {
		if len(assignments[i].Themes) > 0 {
			continue
		}
		topic, best := 0, topicsOverDocs.At(0, i)
		for t := 1; t < rows; t++ {
			if v := topicsOverDocs.At(t, i); v > best {
				topic, best = t, v
			}
		}
		if theme, ok := c.themeForTerms(topTerms[topic]); ok {
			assignments[i].Themes = []string{theme}
		}
	}
	return nil
}

// topicTopTerms extracts the n highest-weighted terms per topic from
// the words-over-topics matrix, ties broken by term index for
// determinism.
func topicTopTerms(wordsOverTopics mat.Matrix, terms []string, n int) [][]string {
	topics, vocab := wordsOverTopics.Dims()
	out := make([][]string, topics)
	for t := 0; t < topics; t++ {
		idx := make([]int, vocab)
		for i := range idx {
			idx[i] = i
		}
		row := t
		sort.SliceStable(idx, func(a, b int) bool {
			return wordsOverTopics.At(row, idx[a]) > wordsOverTopics.At(row, idx[b])
		})
		limit := n
		if limit > len(idx) {
			limit = len(idx)
		}
		for _, i := range idx[:limit] {
			out[t] = append(out[t], terms[i])
		}
	}
	return out
}

func (c *Classifier) themeForTerms(topicTerms []string) (string, bool) {
	termSet := make(map[string]bool, len(topicTerms))
	for _, t := range topicTerms {
		termSet[t] = true
	}
	for _, theme := range c.table.Themes {
		for _, kw := range theme.Keywords {
			if termSet[strings.ToLower(kw)] {
				return theme.Name, true
			}
		}
	}
	return "", false
}
