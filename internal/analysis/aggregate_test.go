package analysis

import (
	"math"
	"strconv"
	"testing"

	"github.com/ecochat-research/analysis/internal/models"
)

func normalized(t *testing.T, prompts []models.Prompt) []Record {
	t.Helper()
	records, err := Normalize(prompts)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return records
}

func TestGroupsModeOrder(t *testing.T) {
	records := normalized(t, []models.Prompt{
		makePrompt("p1", "u1", "c1", 2, "2024-11-18T10:00:00Z", 1, 1, 0.1, true),
		makePrompt("p2", "u1", "c1", 0, "2024-11-18T10:01:00Z", 1, 1, 0.1, true),
		makePrompt("p3", "u1", "c1", 9, "2024-11-18T10:02:00Z", 1, 1, 0.1, true),
		makePrompt("p4", "u1", "c1", 1, "2024-11-18T10:03:00Z", 1, 1, 0.1, true),
	})
	groups, err := Groups(records, KeyMode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{ModeEnergyEfficient, ModeBalanced, ModePerformance, ModeUnknown}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, g := range groups {
		if g.Label != want[i] {
			t.Fatalf("group %d = %q, want %q", i, g.Label, want[i])
		}
	}
}

func TestGroupsHourNumericOrder(t *testing.T) {
	records := normalized(t, []models.Prompt{
		makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 1, 1, 0.1, true),
		makePrompt("p2", "u1", "c1", 0, "2024-11-18T02:00:00Z", 1, 1, 0.1, true),
	})
	groups, err := Groups(records, KeyHour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Label != "2" || groups[1].Label != "10" {
		t.Fatalf("hour order = [%s %s], want numeric [2 10]", groups[0].Label, groups[1].Label)
	}
}

func TestGroupsWeekdayOrder(t *testing.T) {
	records := normalized(t, []models.Prompt{
		// 2024-11-17 is a Sunday, 2024-11-18 a Monday.
		makePrompt("p1", "u1", "c1", 0, "2024-11-17T10:00:00Z", 1, 1, 0.1, true),
		makePrompt("p2", "u1", "c1", 0, "2024-11-18T10:00:00Z", 1, 1, 0.1, true),
	})
	groups, err := Groups(records, KeyWeekday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Label != "Monday" || groups[1].Label != "Sunday" {
		t.Fatalf("weekday order = [%s %s], want [Monday Sunday]", groups[0].Label, groups[1].Label)
	}
}

// Three records, one per mode: the efficient mode burns energy on zero
// tokens, the other two produce 15000 tokens per Wh each.
func TestAggregateThreeModeScenario(t *testing.T) {
	records := normalized(t, []models.Prompt{
		makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 0, 0, 500, true),
		makePrompt("p2", "u1", "c1", 1, "2024-11-18T10:01:00Z", 100, 50, 0.01, true),
		makePrompt("p3", "u1", "c1", 2, "2024-11-18T10:02:00Z", 200, 100, 0.02, true),
	})
	table, err := Aggregate(records, KeyMode, []ColumnSpec{
		{Column: ColTotalTokens, Stats: []Stat{StatCount}},
		{Column: ColEnergyPerToken, Stats: []Stat{StatMean}},
		{Column: ColTokensPerWh, Stats: []Stat{StatMean}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(table.Rows))
	}
	wantCols := []string{"mode_name", "total_tokens_count", "energy_per_token_mean", "tokens_per_wh_mean"}
	for i, c := range wantCols {
		if table.Columns[i] != c {
			t.Fatalf("column %d = %q, want %q", i, table.Columns[i], c)
		}
	}
	for _, row := range table.Rows {
		if row[1] != "1" {
			t.Fatalf("mode %q count = %q, want 1", row[0], row[1])
		}
		switch row[0] {
		case ModeEnergyEfficient:
			if row[2] != "" {
				t.Fatalf("energy per token for zero tokens = %q, want empty (undefined)", row[2])
			}
		case ModeBalanced, ModePerformance:
			if row[3] != "15000" {
				t.Fatalf("tokens per Wh for %q = %q, want 15000", row[0], row[3])
			}
		default:
			t.Fatalf("unexpected group %q", row[0])
		}
	}
}

func TestAggregateCountsSumToFiltered(t *testing.T) {
	prompts := []models.Prompt{
		makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 1, 1, 0.1, true),
		makePrompt("p2", "u2", "c2", 1, "2024-11-18T11:00:00Z", 1, 1, 0.1, true),
		makePrompt("p3", "u2", "c2", 1, "2024-11-18T12:00:00Z", 1, 1, 0.1, true),
		makePrompt("p4", "u3", "c3", 2, "2024-11-18T13:00:00Z", 1, 1, 0.1, false),
	}
	records := normalized(t, prompts)
	table, err := Aggregate(records, KeyMode, []ColumnSpec{
		{Column: ColEnergyWh, Stats: []Stat{StatCount}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum := 0
	for _, row := range table.Rows {
		n, err := strconv.Atoi(row[1])
		if err != nil {
			t.Fatalf("count cell %q not an integer", row[1])
		}
		sum += n
	}
	if sum != len(records) {
		t.Fatalf("group counts sum to %d, want %d", sum, len(records))
	}
	if len(records) != 3 {
		t.Fatalf("filtered records = %d, want 3", len(records))
	}
}

func TestAggregateMissingColumn(t *testing.T) {
	records := normalized(t, []models.Prompt{
		makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 1, 1, 0.1, true),
	})
	_, err := Aggregate(records, KeyMode, []ColumnSpec{
		{Column: Column("latency_ms"), Stats: []Stat{StatMean}},
	})
	if err == nil {
		t.Fatalf("expected missing column error")
	}
	ae, ok := AsAnalysisError(err)
	if !ok || ae.Code != ErrorMissingColumn {
		t.Fatalf("error = %v, want missing_column", err)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	table, err := Aggregate(nil, KeyMode, []ColumnSpec{
		{Column: ColEnergyWh, Stats: []Stat{StatMean}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("empty input produced %d rows, want 0", len(table.Rows))
	}
}

func TestDescribeNaNExclusion(t *testing.T) {
	vals := []float64{1, math.NaN(), 3}
	if got := Describe(vals, StatCount); got != 3 {
		t.Fatalf("count = %v, want 3 (records, not defined values)", got)
	}
	if got := Describe(vals, StatMean); got != 2 {
		t.Fatalf("mean = %v, want 2", got)
	}
	if got := Describe(vals, StatMin); got != 1 {
		t.Fatalf("min = %v, want 1", got)
	}
	if got := Describe(vals, StatMax); got != 3 {
		t.Fatalf("max = %v, want 3", got)
	}
	if got := Describe(vals, StatSum); got != 4 {
		t.Fatalf("sum = %v, want 4", got)
	}
	if got := Describe(vals, StatFirst); got != 1 {
		t.Fatalf("first = %v, want 1", got)
	}

	if got := Describe([]float64{2, 4}, StatStd); math.Abs(got-math.Sqrt2) > 1e-12 {
		t.Fatalf("sample std of [2 4] = %v, want sqrt(2)", got)
	}
	if got := Describe([]float64{5}, StatStd); !math.IsNaN(got) {
		t.Fatalf("sample std of one value = %v, want NaN", got)
	}
	if got := Describe([]float64{1, 2, 3, 4}, StatMedian); got != 2.5 {
		t.Fatalf("median = %v, want 2.5", got)
	}

	allNaN := []float64{math.NaN(), math.NaN()}
	if got := Describe(allNaN, StatMean); !math.IsNaN(got) {
		t.Fatalf("mean of all-NaN = %v, want NaN", got)
	}
	if got := Describe(allNaN, StatSum); got != 0 {
		t.Fatalf("sum of all-NaN = %v, want 0", got)
	}
	if got := Describe([]float64{math.NaN(), 7}, StatFirst); got != 7 {
		t.Fatalf("first should skip NaN, got %v", got)
	}
}

func TestDescribeMedian(t *testing.T) {
	cases := []struct {
		name string
		vals []float64
		want float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even midpoint", []float64{1, 2, 3, 4}, 2.5},
		{"even unsorted", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{9}, 9},
		{"even after NaN exclusion", []float64{math.NaN(), 1, 2, 3, 4}, 2.5},
	}
	for _, tc := range cases {
		if got := Describe(tc.vals, StatMedian); got != tc.want {
			t.Errorf("%s: median = %v, want %v", tc.name, got, tc.want)
		}
	}
	if got := Describe(nil, StatMedian); !math.IsNaN(got) {
		t.Errorf("median of empty input = %v, want NaN", got)
	}
}

func TestCorrelations(t *testing.T) {
	records := normalized(t, []models.Prompt{
		makePrompt("p1", "u1", "c1", 0, "2024-11-18T10:00:00Z", 10, 10, 1, true),
		makePrompt("p2", "u1", "c1", 0, "2024-11-18T11:00:00Z", 20, 20, 2, true),
		makePrompt("p3", "u1", "c1", 0, "2024-11-18T12:00:00Z", 30, 30, 3, true),
	})
	matrix, err := Correlations(records, []Column{ColEnergyWh, ColTotalTokens})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matrix[0][0] != 1 || matrix[1][1] != 1 {
		t.Fatalf("diagonal not 1: %v", matrix)
	}
	if math.Abs(matrix[0][1]-1) > 1e-9 {
		t.Fatalf("perfectly correlated columns give r=%v, want 1", matrix[0][1])
	}

	table := CorrelationTable([]Column{ColEnergyWh, ColTotalTokens}, matrix)
	if table.Columns[0] != "" || table.Columns[1] != "energy_wh" {
		t.Fatalf("unexpected correlation header: %v", table.Columns)
	}
	if table.Rows[0][0] != "energy_wh" || table.Rows[0][1] != "1" {
		t.Fatalf("unexpected correlation row: %v", table.Rows[0])
	}
}

func TestMostCommonMode(t *testing.T) {
	records := normalized(t, []models.Prompt{
		makePrompt("p1", "u1", "c1", 2, "2024-11-18T10:00:00Z", 1, 1, 0.1, true),
		makePrompt("p2", "u1", "c1", 1, "2024-11-18T11:00:00Z", 1, 1, 0.1, true),
	})
	// Tie between Balanced and Performance: alphabetical wins.
	if got := MostCommonMode(records); got != ModeBalanced {
		t.Fatalf("most common mode = %q, want %q on tie", got, ModeBalanced)
	}
	if got := MostCommonMode(nil); got != "Unknown" {
		t.Fatalf("most common mode of empty = %q, want Unknown", got)
	}
}

func TestFormatStat(t *testing.T) {
	if got := FormatStat(math.NaN(), StatMean); got != "" {
		t.Fatalf("NaN formats as %q, want empty", got)
	}
	if got := FormatStat(3, StatCount); got != "3" {
		t.Fatalf("count formats as %q, want 3", got)
	}
	if got := FormatStat(0.123456, StatMean); got != "0.1235" {
		t.Fatalf("rounded value = %q, want 0.1235", got)
	}
	if got := FormatStat(15000, StatMean); got != "15000" {
		t.Fatalf("integral value = %q, want 15000", got)
	}
}
