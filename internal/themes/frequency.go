package themes

import (
	"sort"

	"github.com/ecochat-research/analysis/internal/config"
)

// ThemeFrequency is one row of the theme frequency table. Percentage is
// the share of classified responses carrying the theme; assignment is
// multi-label, so percentages across themes can sum past 100.
type ThemeFrequency struct {
	Theme       string
	Description string
	Count       int
	Percentage  float64
}

// Frequencies aggregates assignments into the frequency table, most
// frequent theme first, ties keeping first-seen order.
func Frequencies(assignments []Assignment, table *config.ThemeTable) []ThemeFrequency {
	counts := make(map[string]int)
	var seen []string
	for _, a := range assignments {
		for _, theme := range a.Themes {
			if counts[theme] == 0 {
				seen = append(seen, theme)
			}
			counts[theme]++
		}
	}

	descriptions := make(map[string]string, len(table.Themes))
	for _, t := range table.Themes {
		descriptions[t.Name] = t.Description
	}
	descriptions[config.GeneralTheme] = table.GeneralDescription

	total := len(assignments)
	out := make([]ThemeFrequency, 0, len(seen))
	for _, theme := range seen {
		pct := 0.0
		if total > 0 {
			pct = float64(counts[theme]) / float64(total) * 100
		}
		out = append(out, ThemeFrequency{
			Theme:       theme,
			Description: descriptions[theme],
			Count:       counts[theme],
			Percentage:  pct,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ThemeQuotes holds the representative verbatim quotes for one theme:
// the first maxQuotes carrying responses in original order, unranked.
type ThemeQuotes struct {
	Theme  string
	Quotes []string
}

// Quotes selects representative quotes per theme, themes ordered as in
// the frequency table.
func Quotes(assignments []Assignment, frequencies []ThemeFrequency, maxQuotes int) []ThemeQuotes {
	byTheme := make(map[string][]string)
	for _, a := range assignments {
		for _, theme := range a.Themes {
			if len(byTheme[theme]) < maxQuotes {
				byTheme[theme] = append(byTheme[theme], a.Original)
			}
		}
	}
	out := make([]ThemeQuotes, 0, len(frequencies))
	for _, f := range frequencies {
		out = append(out, ThemeQuotes{Theme: f.Theme, Quotes: byTheme[f.Theme]})
	}
	return out
}
