package themes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
)

// Keyword is one corpus term with its mean TF-IDF weight.
type Keyword struct {
	Term  string
	Score float64
}

// TopKeywords ranks corpus terms by mean TF-IDF weight across all
// documents, ties broken alphabetically. tokenses holds the cleaned
// token lists, one per response.
func TopKeywords(tokenses [][]string, n int) ([]Keyword, error) {
	docs := make([]string, len(tokenses))
	for i, tokens := range tokenses {
		docs[i] = strings.Join(tokens, " ")
	}
	if len(docs) == 0 {
		return nil, nil
	}

	vectoriser := nlp.NewCountVectoriser()
	counts, err := vectoriser.FitTransform(docs...)
	if err != nil {
		return nil, fmt.Errorf("failed to vectorise corpus: %w", err)
	}
	weights, err := nlp.NewTfidfTransformer().FitTransform(counts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute tf-idf: %w", err)
	}

	terms := make([]string, len(vectoriser.Vocabulary))
	for word, idx := range vectoriser.Vocabulary {
		terms[idx] = word
	}
	rows, cols := weights.Dims()
	keywords := make([]Keyword, 0, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += weights.At(i, j)
		}
		keywords = append(keywords, Keyword{Term: terms[i], Score: sum / float64(cols)})
	}
	sort.SliceStable(keywords, func(a, b int) bool {
		if keywords[a].Score != keywords[b].Score {
			return keywords[a].Score > keywords[b].Score
		}
		return keywords[a].Term < keywords[b].Term
	})
	if n < len(keywords) {
		keywords = keywords[:n]
	}
	return keywords, nil
}
