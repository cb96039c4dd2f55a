package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/plot"

	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/models"
	"github.com/ecochat-research/analysis/internal/report"
)

// Columns feeding the performance correlation matrix.
var tradeoffColumns = []Column{
	ColEnergyWh, ColTotalTokens, ColResponseLength, ColEnergyPerToken, ColTokensPerWh,
}

// Tradeoffs runs the performance trade-off analysis: efficiency and
// quality tables, correlation matrix, trade-off summary, the three
// charts, and the narrative report.
func Tradeoffs(records []Record, style *config.Styling, out *report.Output) error {
	rc := newRunContext(records, style, out)
	logger.Log.WithField("records", len(records)).Info("Starting performance trade-off analysis")

	fullStats := []Stat{StatMean, StatStd, StatMin, StatMax}
	efficiencyTable, err := Aggregate(records, KeyMode, []ColumnSpec{
		{Column: ColEnergyWh, Stats: fullStats},
		{Column: ColTotalTokens, Stats: fullStats},
		{Column: ColEnergyPerToken, Stats: fullStats},
		{Column: ColTokensPerWh, Stats: fullStats},
		{Column: ColResponseLength, Stats: fullStats},
		{Column: ColInputTokens, Stats: []Stat{StatMean, StatStd}},
		{Column: ColOutputTokens, Stats: []Stat{StatMean, StatStd}},
	})
	if err != nil {
		return err
	}
	if _, err := out.WriteTable("efficiency_metrics_analysis.csv", efficiencyTable,
		"Per-mode efficiency metrics"); err != nil {
		return err
	}

	qualityStats := []Stat{StatMean, StatStd, StatMin, StatMax, StatMedian}
	qualityTable, err := Aggregate(records, KeyMode, []ColumnSpec{
		{Column: ColResponseLength, Stats: qualityStats},
		{Column: ColOutputTokens, Stats: qualityStats},
	})
	if err != nil {
		return err
	}
	if _, err := out.WriteTable("response_quality_analysis.csv", qualityTable,
		"Per-mode response quality"); err != nil {
		return err
	}

	contextTable, err := Aggregate(records, KeyMode, []ColumnSpec{
		{Column: ColHistoryLimit, Stats: []Stat{StatFirst}},
		{Column: ColTotalTokens, Stats: []Stat{StatMean, StatStd}},
	})
	if err != nil {
		return err
	}
	if _, err := out.WriteTable("context_utilization_analysis.csv", contextTable,
		"Per-mode context utilization"); err != nil {
		return err
	}

	matrix, err := Correlations(records, tradeoffColumns)
	if err != nil {
		return err
	}
	if _, err := out.WriteTable("performance_correlations.csv",
		CorrelationTable(tradeoffColumns, matrix), "Performance metric correlations"); err != nil {
		return err
	}

	profile, err := rc.tradeoffProfile()
	if err != nil {
		return err
	}
	if err := rc.writeTradeoffTable(profile); err != nil {
		return err
	}
	if err := rc.efficiencyComparisonChart(); err != nil {
		return err
	}
	if err := rc.tradeoffScatterChart(); err != nil {
		return err
	}
	if err := rc.performanceProfileChart(profile); err != nil {
		return err
	}
	if err := rc.tradeoffReport(profile, matrix); err != nil {
		return err
	}

	logger.Log.Info("Performance trade-off analysis complete")
	return nil
}

// modeProfile is one mode's trade-off summary row.
type modeProfile struct {
	Mode             string
	TokensPerWh      float64 // energy efficiency
	ResponseLength   float64 // response quality proxy
	TotalTokens      float64 // token efficiency
	EnergyWh         float64
	MeanInputTokens  float64
	MeanOutputTokens float64
}

func (rc *runContext) tradeoffProfile() ([]modeProfile, error) {
	groups, err := Groups(rc.records, KeyMode)
	if err != nil {
		return nil, err
	}
	profiles := make([]modeProfile, 0, len(groups))
	for _, g := range groups {
		p := modeProfile{Mode: g.Label}
		for _, m := range []struct {
			col  Column
			dest *float64
		}{
			{ColTokensPerWh, &p.TokensPerWh},
			{ColResponseLength, &p.ResponseLength},
			{ColTotalTokens, &p.TotalTokens},
			{ColEnergyWh, &p.EnergyWh},
			{ColInputTokens, &p.MeanInputTokens},
			{ColOutputTokens, &p.MeanOutputTokens},
		} {
			vals, err := Values(g.Records, m.col)
			if err != nil {
				return nil, err
			}
			*m.dest = Describe(vals, StatMean)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (rc *runContext) writeTradeoffTable(profiles []modeProfile) error {
	t := &models.Table{Columns: []string{
		"mode_name", "energy_efficiency_tokens_per_wh", "response_quality_mean_length",
		"token_efficiency_mean_tokens", "mean_energy_wh", "mean_output_tokens",
	}}
	for _, p := range profiles {
		t.Rows = append(t.Rows, []string{
			p.Mode,
			FormatFloat(p.TokensPerWh),
			FormatFloat(p.ResponseLength),
			FormatFloat(p.TotalTokens),
			FormatFloat(p.EnergyWh),
			FormatFloat(p.MeanOutputTokens),
		})
	}
	_, err := rc.out.WriteTable("trade_off_analysis.csv", t, "Per-mode trade-off summary")
	return err
}

// sortedModeBars renders one metric per mode as bars sorted ascending
// by value, keeping each mode's palette color attached to its bar.
func (rc *runContext) sortedModeBars(title, ylabel string, col Column, format string) (*plot.Plot, error) {
	s, err := rc.modeStat(col, StatMean)
	if err != nil {
		return nil, err
	}
	type bar struct {
		label string
		value float64
		hex   string
	}
	bars := make([]bar, len(s.Labels))
	for i := range s.Labels {
		hex := rc.style.Colors.Fallback
		if len(rc.style.Colors.Modes) > 0 {
			hex = rc.style.Colors.Modes[i%len(rc.style.Colors.Modes)]
		}
		bars[i] = bar{label: s.Labels[i], value: s.Values[i], hex: hex}
	}
	sort.SliceStable(bars, func(i, j int) bool {
		vi, vj := bars[i].value, bars[j].value
		if math.IsNaN(vi) {
			return false
		}
		if math.IsNaN(vj) {
			return true
		}
		return vi < vj
	})
	sorted := models.Series{}
	colors := make([]string, len(bars))
	for i, b := range bars {
		sorted.Labels = append(sorted.Labels, b.label)
		sorted.Values = append(sorted.Values, b.value)
		colors[i] = b.hex
	}
	return rc.charts.Bars(title, "Chat Mode", ylabel, sorted, report.BarsOptions{
		Colors: colors, ValueFormat: format,
	})
}

func (rc *runContext) efficiencyComparisonChart() error {
	energy, err := rc.sortedModeBars("Energy per Prompt", "Energy (Wh)", ColEnergyWh, "%.3f")
	if err != nil {
		return err
	}
	tokensPerWh, err := rc.sortedModeBars("Tokens per Watt-Hour", "Tokens/Wh", ColTokensPerWh, "%.0f")
	if err != nil {
		return err
	}
	length, err := rc.sortedModeBars("Response Length", "Characters", ColResponseLength, "%.0f")
	if err != nil {
		return err
	}
	perToken, err := rc.sortedModeBars("Energy per Token", "Wh/Token", ColEnergyPerToken, "%.6f")
	if err != nil {
		return err
	}
	grid := [][]*plot.Plot{{energy, tokensPerWh}, {length, perToken}}
	return rc.charts.SaveGrid(grid, rc.style.Figures.Quad,
		"efficiency_comparison.png", "Efficiency comparison panels")
}

func (rc *runContext) tradeoffScatterChart() error {
	series, err := rc.modeScatterSeries(ColEnergyWh, ColResponseLength)
	if err != nil {
		return err
	}
	p, err := rc.charts.Scatter("Energy vs Response Length by Mode",
		"Energy Consumption (Wh)", "Response Length (characters)", series,
		report.ScatterOptions{})
	if err != nil {
		return err
	}
	return rc.charts.Save(p, rc.style.Figures.Single,
		"trade_off_scatter.png", "Energy/response-length trade-off scatter")
}

// performanceProfileChart renders each mode's metrics normalized to
// [0, 1] over the mode maxima as grouped bars, one group per metric.
func (rc *runContext) performanceProfileChart(profiles []modeProfile) error {
	metrics := []struct {
		name string
		get  func(modeProfile) float64
	}{
		{"Energy Efficiency", func(p modeProfile) float64 { return p.TokensPerWh }},
		{"Response Quality", func(p modeProfile) float64 { return p.ResponseLength }},
		{"Token Throughput", func(p modeProfile) float64 { return p.TotalTokens }},
		{"Output Volume", func(p modeProfile) float64 { return p.MeanOutputTokens }},
	}
	cats := make([]string, len(metrics))
	segNames := make([]string, len(profiles))
	segs := make([][]float64, len(profiles))
	for mi, m := range metrics {
		cats[mi] = m.name
		max := 0.0
		for _, p := range profiles {
			if v := m.get(p); !math.IsNaN(v) && v > max {
				max = v
			}
		}
		for pi, p := range profiles {
			if segs[pi] == nil {
				segs[pi] = make([]float64, len(metrics))
				segNames[pi] = p.Mode
			}
			v := m.get(p)
			if math.IsNaN(v) || max == 0 {
				segs[pi][mi] = 0
				continue
			}
			segs[pi][mi] = v / max
		}
	}
	p, err := rc.charts.Grouped("Normalized Performance Profile by Mode",
		"Metric", "Normalized Score (0-1)", cats, segNames, segs, rc.style.Colors.Modes)
	if err != nil {
		return err
	}
	return rc.charts.Save(p, rc.style.Figures.Single,
		"performance_profile_chart.png", "Normalized performance profile")
}

func (rc *runContext) tradeoffReport(profiles []modeProfile, matrix [][]float64) error {
	var b strings.Builder
	b.WriteString("# Performance Trade-off Analysis\n\n")
	b.WriteString("## Per-Mode Profile\n\n")
	for _, p := range profiles {
		fmt.Fprintf(&b, "### %s\n\n", p.Mode)
		fmt.Fprintf(&b, "- Energy efficiency: %s tokens/Wh\n", FormatFloat(p.TokensPerWh))
		fmt.Fprintf(&b, "- Mean response length: %s characters\n", FormatFloat(p.ResponseLength))
		fmt.Fprintf(&b, "- Mean total tokens: %s\n", FormatFloat(p.TotalTokens))
		fmt.Fprintf(&b, "- Mean energy: %s Wh\n\n", FormatFloat(p.EnergyWh))
	}

	b.WriteString("## Correlations\n\n")
	b.WriteString("Pearson coefficients over pairwise-complete observations:\n\n")
	b.WriteString(report.TableMarkdown(CorrelationTable(tradeoffColumns, matrix)))
	b.WriteString("\n")

	_, err := rc.out.WriteReport("trade_off_analysis_report.md", b.String(),
		"Performance trade-off report")
	return err
}
