package survey

import (
	"sort"
	"strings"

	"github.com/ecochat-research/analysis/internal/analysis"
	"github.com/ecochat-research/analysis/internal/models"
)

// Entry is one answer option with its response count.
type Entry struct {
	Label string
	Count int
}

// Distribution is the aggregated answer counts for one question. Total
// is the number of counted answers, which for multi-select questions
// exceeds the number of respondents who answered.
type Distribution struct {
	Entries []Entry
	Total   int
}

// Percent returns an entry's share of the distribution total.
func (d Distribution) Percent(e Entry) float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(e.Count) / float64(d.Total) * 100
}

// Top returns the entry with the highest count, first occurrence
// winning ties. False when nothing was counted.
func (d Distribution) Top() (Entry, bool) {
	best := Entry{Count: -1}
	for _, e := range d.Entries {
		if e.Count > best.Count {
			best = e
		}
	}
	return best, best.Count > 0
}

// NonZero returns the distribution without zero-count entries,
// preserving order. Chart rendering uses this; CSV output keeps the
// full scale.
func (d Distribution) NonZero() Distribution {
	out := Distribution{Total: d.Total}
	for _, e := range d.Entries {
		if e.Count > 0 {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// Table renders the distribution as a response/count/percentage table.
func (d Distribution) Table() *models.Table {
	t := &models.Table{Columns: []string{"response", "count", "percentage"}}
	for _, e := range d.Entries {
		t.Rows = append(t.Rows, []string{
			e.Label,
			analysis.FormatStat(float64(e.Count), analysis.StatCount),
			analysis.FormatFloat(d.Percent(e)),
		})
	}
	return t
}

// Series converts the distribution to a chart series.
func (d Distribution) Series() models.Series {
	s := models.Series{}
	for _, e := range d.Entries {
		s.Labels = append(s.Labels, e.Label)
		s.Values = append(s.Values, float64(e.Count))
	}
	return s
}

// CategoricalDistribution counts single-choice answers, most frequent
// first, ties broken alphabetically. Blank cells are excluded.
func CategoricalDistribution(cells []string) Distribution {
	counts := make(map[string]int)
	for _, cell := range cells {
		v := strings.TrimSpace(cell)
		if v == "" {
			continue
		}
		counts[v]++
	}
	return sortedByCount(counts)
}

// Time buckets in their fixed chronological order.
var timeBucketOrder = []string{
	"Less than half an hour",
	"Half - One hour",
	"1 - 2 hours",
	"More than 2 hours",
}

// TimeBucketDistribution counts daily-usage-time answers in the fixed
// bucket order. Uncertain answers ("not sure", "track", "measure") are
// filtered out; answers outside the known buckets are dropped.
func TimeBucketDistribution(cells []string) Distribution {
	counts := make(map[string]int)
	for _, cell := range cells {
		v := strings.TrimSpace(cell)
		if v == "" {
			continue
		}
		lower := strings.ToLower(v)
		if strings.Contains(lower, "not sure") ||
			strings.Contains(lower, "track") ||
			strings.Contains(lower, "measure") {
			continue
		}
		counts[v]++
	}
	d := Distribution{}
	for _, bucket := range timeBucketOrder {
		n := counts[bucket]
		if n == 0 {
			continue
		}
		d.Entries = append(d.Entries, Entry{Label: bucket, Count: n})
		d.Total += n
	}
	return d
}

func sortedByCount(counts map[string]int) Distribution {
	d := Distribution{}
	for label, n := range counts {
		d.Entries = append(d.Entries, Entry{Label: label, Count: n})
		d.Total += n
	}
	sort.SliceStable(d.Entries, func(i, j int) bool {
		if d.Entries[i].Count != d.Entries[j].Count {
			return d.Entries[i].Count > d.Entries[j].Count
		}
		return d.Entries[i].Label < d.Entries[j].Label
	})
	return d
}
