// Package survey implements the questionnaire pipeline: Likert and
// categorical distributions, multi-select splitting, scale reliability,
// and the per-question artifact generation driven by the question
// catalog.
package survey

import (
	"strconv"
	"strings"
)

// LikertPoints is the scale length of every Likert question in the
// questionnaire.
const LikertPoints = 5

// Full-scale label families. The family for a question is chosen from
// the question wording, mirroring how the answer options were phrased
// in the questionnaire itself.
var (
	concernLabels = [LikertPoints]string{
		"1 - Not at all concerned",
		"2 - Slightly concerned",
		"3 - Moderately concerned",
		"4 - Very concerned",
		"5 - Extremely concerned",
	}
	importanceLabels = [LikertPoints]string{
		"1 - Not at all important",
		"2 - Slightly important",
		"3 - Moderately important",
		"4 - Very important",
		"5 - Extremely important",
	}
	preferenceLabels = [LikertPoints]string{
		"1 - Definitely not",
		"2 - Probably not",
		"3 - Maybe",
		"4 - Probably yes",
		"5 - Definitely yes",
	}
	agreementLabels = [LikertPoints]string{
		"1 - Strongly disagree",
		"2 - Disagree",
		"3 - Neither agree nor disagree",
		"4 - Agree",
		"5 - Strongly agree",
	}
	genericLabels = [LikertPoints]string{"1", "2", "3", "4", "5"}
)

// LikertLabels selects the label family for a question from its
// wording. Precedence follows the original phrasing checks: concern,
// then importance, then preference, then agreement, then plain numbers.
func LikertLabels(question string) [LikertPoints]string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "concerned"):
		return concernLabels
	case strings.Contains(q, "important"):
		return importanceLabels
	case strings.Contains(q, "would you like"),
		strings.Contains(q, "would you prefer"),
		strings.Contains(q, "influence"):
		return preferenceLabels
	case strings.Contains(q, "agree"):
		return agreementLabels
	}
	return genericLabels
}

// ParseLikert reads a 1–5 value from a survey cell. Cells may hold the
// bare number or a "3 - Maybe" style label; anything else (including
// out-of-scale numbers) is a malformed cell and reports false.
func ParseLikert(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if i := strings.IndexAny(s, " -"); i > 0 {
		s = s[:i]
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 || v > LikertPoints {
		return 0, false
	}
	return v, true
}

// ReverseScore maps a raw Likert value to its reverse-scored value on a
// scale with the given number of points. Out-of-range values are
// clamped.
func ReverseScore(raw, points int) int {
	if points < 2 {
		return raw
	}
	if raw < 1 {
		raw = 1
	}
	if raw > points {
		raw = points
	}
	return (points + 1) - raw
}

// LikertDistribution counts responses per scale point for one question
// column. Malformed cells are excluded; reverse-scored items are mapped
// r → (points+1−r) before counting. Zero-count scale points are kept
// here so the full scale stays addressable; chart rendering drops them.
func LikertDistribution(cells []string, question string, reverse bool) Distribution {
	labels := LikertLabels(question)
	counts := make([]int, LikertPoints)
	total := 0
	for _, cell := range cells {
		v, ok := ParseLikert(cell)
		if !ok {
			continue
		}
		if reverse {
			v = ReverseScore(v, LikertPoints)
		}
		counts[v-1]++
		total++
	}
	d := Distribution{Total: total}
	for i, n := range counts {
		d.Entries = append(d.Entries, Entry{Label: labels[i], Count: n})
	}
	return d
}
