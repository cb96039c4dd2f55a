package survey

import (
	"strings"
)

// Answers to the primary-reasons question that are dropped rather than
// counted: one-off test entries that never formed a category.
var primaryReasonExclusions = []string{
	"testing", "not yet found", "getting an overview",
}

// primaryReasonGroups folds wording variations of the same usage reason
// into one category. Order matters: the first matching group wins.
var primaryReasonGroups = []struct {
	category   string
	variations []string
}{
	{"Conceptualizing", []string{"conceptualizing", "ideation", "get new ideas/perspective"}},
	{"Research & Learning", []string{"research & learning", "research and learning", "research", "learning"}},
	{"Coding Assistance", []string{"coding assistance", "code assistance", "programming help"}},
	{"Searching For Information", []string{"searching for information", "information search", "finding information"}},
	{"Creative Writing", []string{"creative writing", "content generation"}},
	{"Personal Organization", []string{"personal organization", "task management", "scheduling", "summarizing"}},
	{"Translation", []string{"translation", "data structuring"}},
	{"Entertainment", []string{"entertainment", "casual conversation"}},
	{"Improving Writing", []string{"improving my writing", "writing improvement", "writing enhancement"}},
}

// SplitMultiSelect splits a comma-separated multi-select cell into its
// selected options, trimmed, empties dropped.
func SplitMultiSelect(cell string) []string {
	parts := strings.Split(cell, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// cleanOption strips a trailing parenthetical ("Translation (to English)"
// → "Translation") and leftover punctuation, then title-cases.
func cleanOption(option string) string {
	v := option
	if i := strings.Index(v, "("); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimSpace(strings.Trim(strings.TrimSpace(v), ".,)"))
	return titleCase(v)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// groupPrimaryReason maps one selected option onto its category,
// reporting false for excluded or empty options. Options outside the
// grouping table are kept under their cleaned wording.
func groupPrimaryReason(option string) (string, bool) {
	v := cleanOption(option)
	if v == "" {
		return "", false
	}
	lower := strings.ToLower(v)
	for _, excl := range primaryReasonExclusions {
		if strings.Contains(lower, excl) {
			return "", false
		}
	}
	for _, g := range primaryReasonGroups {
		for _, variation := range g.variations {
			if strings.Contains(lower, variation) {
				return g.category, true
			}
		}
	}
	return v, true
}

// MultiSelectDistribution counts selected options across all respondent
// cells, most frequent first. When groupReasons is set (the
// primary-reasons question) options pass through the exclusion list and
// grouping table; otherwise they are only cleaned and title-cased.
// Percentages computed against this distribution's total are shares of
// selections, not of respondents.
func MultiSelectDistribution(cells []string, groupReasons bool) Distribution {
	counts := make(map[string]int)
	for _, cell := range cells {
		for _, option := range SplitMultiSelect(cell) {
			var label string
			var ok bool
			if groupReasons {
				label, ok = groupPrimaryReason(option)
			} else {
				label, ok = cleanOption(option), cleanOption(option) != ""
			}
			if !ok {
				continue
			}
			counts[label]++
		}
	}
	return sortedByCount(counts)
}
