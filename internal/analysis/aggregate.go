package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ecochat-research/analysis/internal/models"
)

// GroupKey is a typed partitioning key. The string value doubles as the
// key column header in rendered tables.
type GroupKey string

const (
	KeyMode         GroupKey = "mode_name"
	KeyUser         GroupKey = "userId"
	KeyConversation GroupKey = "conversationId"
	KeyDay          GroupKey = "day"
	KeyHour         GroupKey = "hour"
	KeyWeekday      GroupKey = "day_of_week"
)

// Column is a typed reference to a numeric field of Record. Requesting
// a column outside this set fails at aggregation setup, not mid-pipeline.
type Column string

const (
	ColInputTokens      Column = "input_tokens"
	ColOutputTokens     Column = "output_tokens"
	ColEnergyWh         Column = "energy_wh"
	ColTotalTokens      Column = "total_tokens"
	ColEnergyPerToken   Column = "energy_per_token"
	ColTokensPerWh      Column = "tokens_per_wh"
	ColInputOutputRatio Column = "input_output_ratio"
	ColOutputInputRatio Column = "output_input_ratio"
	ColResponseLength   Column = "response_length"
	ColHistoryLimit     Column = "history_limit"
)

var columnGetters = map[Column]func(*Record) float64{
	ColInputTokens:      func(r *Record) float64 { return r.InputTokens },
	ColOutputTokens:     func(r *Record) float64 { return r.OutputTokens },
	ColEnergyWh:         func(r *Record) float64 { return r.EnergyWh },
	ColTotalTokens:      func(r *Record) float64 { return r.TotalTokens },
	ColEnergyPerToken:   func(r *Record) float64 { return r.EnergyPerToken },
	ColTokensPerWh:      func(r *Record) float64 { return r.TokensPerWh },
	ColInputOutputRatio: func(r *Record) float64 { return r.InputOutputRatio },
	ColOutputInputRatio: func(r *Record) float64 { return r.OutputInputRatio },
	ColResponseLength:   func(r *Record) float64 { return r.ResponseLength },
	ColHistoryLimit:     func(r *Record) float64 { return float64(r.HistoryLimit) },
}

func columnGetter(col Column) (func(*Record) float64, error) {
	if get, ok := columnGetters[col]; ok {
		return get, nil
	}
	available := make([]string, 0, len(columnGetters))
	for c := range columnGetters {
		available = append(available, string(c))
	}
	sort.Strings(available)
	return nil, NewMissingColumnError(
		fmt.Sprintf("unknown column %q; available: %v", col, available))
}

// Values extracts one column across records, NaN included.
func Values(records []Record, col Column) ([]float64, error) {
	get, err := columnGetter(col)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(records))
	for i := range records {
		vals[i] = get(&records[i])
	}
	return vals, nil
}

// Stat is a per-group statistic. Standard deviation is the sample
// deviation (n-1 denominator).
type Stat string

const (
	StatCount  Stat = "count"
	StatMean   Stat = "mean"
	StatStd    Stat = "std"
	StatMin    Stat = "min"
	StatMax    Stat = "max"
	StatSum    Stat = "sum"
	StatMedian Stat = "median"
	StatFirst  Stat = "first"
)

// Describe computes one statistic over a column of values. Count is the
// number of records; every other statistic excludes NaN values and
// yields NaN itself when no usable value remains (sum yields 0).
func Describe(vals []float64, st Stat) float64 {
	if st == StatCount {
		return float64(len(vals))
	}
	if st == StatFirst {
		for _, v := range vals {
			if !math.IsNaN(v) {
				return v
			}
		}
		return math.NaN()
	}
	clean := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	switch st {
	case StatMean:
		if len(clean) == 0 {
			return math.NaN()
		}
		return stat.Mean(clean, nil)
	case StatStd:
		if len(clean) < 2 {
			return math.NaN()
		}
		return stat.StdDev(clean, nil)
	case StatMin:
		if len(clean) == 0 {
			return math.NaN()
		}
		return floats.Min(clean)
	case StatMax:
		if len(clean) == 0 {
			return math.NaN()
		}
		return floats.Max(clean)
	case StatSum:
		return floats.Sum(clean)
	case StatMedian:
		if len(clean) == 0 {
			return math.NaN()
		}
		sorted := append([]float64(nil), clean...)
		sort.Float64s(sorted)
		// Conventional median: midpoint of the two middle values for an
		// even count.
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2]
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return math.NaN()
}

// Group is one partition of records sharing a key value.
type Group struct {
	Label   string
	Records []Record
}

func groupLabel(r *Record, key GroupKey) (string, error) {
	switch key {
	case KeyMode:
		return r.ModeLabel, nil
	case KeyUser:
		return r.UserID, nil
	case KeyConversation:
		return r.ConversationID, nil
	case KeyDay:
		return r.Day.Format("2006-01-02"), nil
	case KeyHour:
		return strconv.Itoa(r.Hour), nil
	case KeyWeekday:
		return r.Weekday.String(), nil
	}
	return "", NewMissingColumnError(fmt.Sprintf("unknown grouping key %q", key))
}

var weekdayOrder = []string{
	time.Monday.String(), time.Tuesday.String(), time.Wednesday.String(),
	time.Thursday.String(), time.Friday.String(), time.Saturday.String(),
	time.Sunday.String(),
}

func sortGroups(groups []Group, key GroupKey) {
	rank := func(label string) int {
		order := ModeOrder()
		if key == KeyWeekday {
			order = weekdayOrder
		}
		for i, l := range order {
			if l == label {
				return i
			}
		}
		return len(order)
	}
	switch key {
	case KeyMode, KeyWeekday:
		sort.SliceStable(groups, func(i, j int) bool {
			ri, rj := rank(groups[i].Label), rank(groups[j].Label)
			if ri != rj {
				return ri < rj
			}
			return groups[i].Label < groups[j].Label
		})
	case KeyHour:
		sort.SliceStable(groups, func(i, j int) bool {
			hi, _ := strconv.Atoi(groups[i].Label)
			hj, _ := strconv.Atoi(groups[j].Label)
			return hi < hj
		})
	default:
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Label < groups[j].Label
		})
	}
}

// Groups partitions records by key in natural key order: modes in their
// fixed enumerated order, days and hours chronologically, weekdays
// Monday through Sunday, ids ascending. Keys with no records produce no
// group.
func Groups(records []Record, key GroupKey) ([]Group, error) {
	byLabel := make(map[string][]Record)
	order := make([]string, 0)
	for i := range records {
		label, err := groupLabel(&records[i], key)
		if err != nil {
			return nil, err
		}
		if _, seen := byLabel[label]; !seen {
			order = append(order, label)
		}
		byLabel[label] = append(byLabel[label], records[i])
	}
	groups := make([]Group, 0, len(order))
	for _, label := range order {
		groups = append(groups, Group{Label: label, Records: byLabel[label]})
	}
	sortGroups(groups, key)
	return groups, nil
}

// ColumnSpec requests statistics over one column.
type ColumnSpec struct {
	Column Column
	Stats  []Stat
}

// Aggregate produces one row per group with the requested statistics,
// matching the flattened column naming of the source analyses
// ("<column>_<stat>"). Values are rounded to four decimals; undefined
// statistics render as empty cells.
func Aggregate(records []Record, key GroupKey, specs []ColumnSpec) (*models.Table, error) {
	for _, spec := range specs {
		if _, err := columnGetter(spec.Column); err != nil {
			return nil, err
		}
	}
	groups, err := Groups(records, key)
	if err != nil {
		return nil, err
	}

	columns := []string{string(key)}
	for _, spec := range specs {
		for _, st := range spec.Stats {
			columns = append(columns, string(spec.Column)+"_"+string(st))
		}
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := make([]string, 0, len(columns))
		row = append(row, g.Label)
		for _, spec := range specs {
			vals, err := Values(g.Records, spec.Column)
			if err != nil {
				return nil, err
			}
			for _, st := range spec.Stats {
				row = append(row, FormatStat(Describe(vals, st), st))
			}
		}
		rows = append(rows, row)
	}
	return &models.Table{Columns: columns, Rows: rows}, nil
}

// FormatStat renders a statistic for CSV output. Counts are integers;
// everything else is rounded to four decimals with trailing zeros
// trimmed. NaN renders as an empty cell.
func FormatStat(v float64, st Stat) string {
	if math.IsNaN(v) {
		return ""
	}
	if st == StatCount {
		return strconv.Itoa(int(v))
	}
	return FormatFloat(v)
}

// FormatFloat renders a value rounded to four decimals; NaN is empty.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	r := math.Round(v*10000) / 10000
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Correlations computes a Pearson matrix over the given columns using
// pairwise-complete observations.
func Correlations(records []Record, cols []Column) ([][]float64, error) {
	series := make([][]float64, len(cols))
	for i, col := range cols {
		vals, err := Values(records, col)
		if err != nil {
			return nil, err
		}
		series[i] = vals
	}
	matrix := make([][]float64, len(cols))
	for i := range cols {
		matrix[i] = make([]float64, len(cols))
		for j := range cols {
			if i == j {
				matrix[i][j] = 1
				continue
			}
			xs := make([]float64, 0, len(series[i]))
			ys := make([]float64, 0, len(series[i]))
			for k := range series[i] {
				if math.IsNaN(series[i][k]) || math.IsNaN(series[j][k]) {
					continue
				}
				xs = append(xs, series[i][k])
				ys = append(ys, series[j][k])
			}
			if len(xs) < 2 {
				matrix[i][j] = math.NaN()
				continue
			}
			matrix[i][j] = stat.Correlation(xs, ys, nil)
		}
	}
	return matrix, nil
}

// CorrelationTable renders a correlation matrix with the column names on
// both axes.
func CorrelationTable(cols []Column, matrix [][]float64) *models.Table {
	columns := make([]string, 0, len(cols)+1)
	columns = append(columns, "")
	for _, c := range cols {
		columns = append(columns, string(c))
	}
	rows := make([][]string, 0, len(cols))
	for i, c := range cols {
		row := make([]string, 0, len(cols)+1)
		row = append(row, string(c))
		for j := range cols {
			if math.IsNaN(matrix[i][j]) {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(matrix[i][j], 'f', -1, 64))
		}
		rows = append(rows, row)
	}
	return &models.Table{Columns: columns, Rows: rows}
}

// MostCommonMode returns the modal mode label of a group, ties broken
// alphabetically. Empty groups yield "Unknown".
func MostCommonMode(records []Record) string {
	if len(records) == 0 {
		return "Unknown"
	}
	counts := make(map[string]int)
	for i := range records {
		counts[records[i].ModeLabel]++
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	best, bestN := "", -1
	for _, l := range labels {
		if counts[l] > bestN {
			best, bestN = l, counts[l]
		}
	}
	return best
}
