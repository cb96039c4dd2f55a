package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/models"
	"github.com/ecochat-research/analysis/internal/report"
)

// ModeSavings is one mode's energy summary against the Performance
// baseline.
type ModeSavings struct {
	Mode       string
	Count      int
	MeanEnergy float64
	StdEnergy  float64
	SavingsPct float64 // (perf - mode) / perf * 100; NaN without a baseline
}

// EnergySavings computes per-mode energy statistics and the savings
// percentage relative to the "Performance" mode mean. Without
// Performance records the savings column is undefined.
func EnergySavings(records []Record) ([]ModeSavings, error) {
	groups, err := Groups(records, KeyMode)
	if err != nil {
		return nil, err
	}
	out := make([]ModeSavings, 0, len(groups))
	baseline := math.NaN()
	for _, g := range groups {
		vals, err := Values(g.Records, ColEnergyWh)
		if err != nil {
			return nil, err
		}
		ms := ModeSavings{
			Mode:       g.Label,
			Count:      len(g.Records),
			MeanEnergy: Describe(vals, StatMean),
			StdEnergy:  Describe(vals, StatStd),
		}
		if g.Label == ModePerformance {
			baseline = ms.MeanEnergy
		}
		out = append(out, ms)
	}
	for i := range out {
		if math.IsNaN(baseline) || baseline == 0 {
			out[i].SavingsPct = math.NaN()
			continue
		}
		out[i].SavingsPct = (baseline - out[i].MeanEnergy) / baseline * 100
	}
	return out, nil
}

// KeyInsights runs the summary analysis: energy savings against the
// Performance baseline, the savings and trade-off matrix charts, and
// the insights report.
func KeyInsights(records []Record, style *config.Styling, out *report.Output) error {
	rc := newRunContext(records, style, out)
	logger.Log.WithField("records", len(records)).Info("Starting key insights analysis")

	savings, err := EnergySavings(records)
	if err != nil {
		return err
	}

	t := &models.Table{Columns: []string{
		"mode_name", "prompt_count", "mean_energy_wh", "std_energy_wh", "energy_savings_pct",
	}}
	for _, s := range savings {
		t.Rows = append(t.Rows, []string{
			s.Mode,
			FormatStat(float64(s.Count), StatCount),
			FormatFloat(s.MeanEnergy),
			FormatFloat(s.StdEnergy),
			FormatFloat(s.SavingsPct),
		})
	}
	if _, err := out.WriteTable("energy_savings_summary.csv", t,
		"Energy savings against the Performance baseline"); err != nil {
		return err
	}

	if err := rc.savingsChart(savings); err != nil {
		return err
	}
	if err := rc.tradeoffMatrixChart(); err != nil {
		return err
	}
	if err := rc.insightsReport(savings); err != nil {
		return err
	}

	logger.Log.Info("Key insights analysis complete")
	return nil
}

func (rc *runContext) savingsChart(savings []ModeSavings) error {
	ordered := append([]ModeSavings(nil), savings...)
	sort.SliceStable(ordered, func(i, j int) bool {
		vi, vj := ordered[i].MeanEnergy, ordered[j].MeanEnergy
		if math.IsNaN(vi) {
			return false
		}
		if math.IsNaN(vj) {
			return true
		}
		return vi < vj
	})

	energySeries := models.Series{}
	energyLabels := make([]string, 0, len(ordered))
	savingsSeries := models.Series{}
	colors := make([]string, 0, len(ordered))
	for _, s := range ordered {
		energySeries.Labels = append(energySeries.Labels, s.Mode)
		energySeries.Values = append(energySeries.Values, s.MeanEnergy)
		label := fmt.Sprintf("%.3f Wh", s.MeanEnergy)
		if !math.IsNaN(s.SavingsPct) {
			label = fmt.Sprintf("%.3f Wh (%.1f%% savings)", s.MeanEnergy, s.SavingsPct)
		}
		energyLabels = append(energyLabels, label)

		savingsSeries.Labels = append(savingsSeries.Labels,
			fmt.Sprintf("%s (%d prompts)", s.Mode, s.Count))
		savingsSeries.Values = append(savingsSeries.Values, s.SavingsPct)

		hex := rc.style.Colors.Fallback
		for i, mode := range ModeOrder() {
			if mode == s.Mode && len(rc.style.Colors.Modes) > 0 {
				hex = rc.style.Colors.Modes[i%len(rc.style.Colors.Modes)]
			}
		}
		colors = append(colors, hex)
	}

	left, err := rc.charts.Bars("Mean Energy per Prompt (ascending)",
		"Chat Mode", "Energy (Wh)", energySeries, report.BarsOptions{
			Colors: colors, ValueLabels: energyLabels,
		})
	if err != nil {
		return err
	}
	right, err := rc.charts.Bars("Energy Savings vs Performance Mode",
		"Chat Mode", "Savings (%)", savingsSeries, report.BarsOptions{
			Colors: colors, ValueFormat: "%.1f%%",
		})
	if err != nil {
		return err
	}
	return rc.charts.SaveGrid([][]*plot.Plot{{left, right}}, rc.style.Figures.Dual,
		"energy_savings_visualization.png", "Energy savings panels")
}

func (rc *runContext) tradeoffMatrixChart() error {
	tokenSeries, err := rc.modeScatterSeries(ColEnergyWh, ColTotalTokens)
	if err != nil {
		return err
	}
	tokenPanel, err := rc.charts.Scatter("Energy vs Total Tokens",
		"Energy (Wh)", "Total Tokens", tokenSeries, report.ScatterOptions{Trend: true})
	if err != nil {
		return err
	}

	lengthSeries, err := rc.modeScatterSeries(ColEnergyWh, ColResponseLength)
	if err != nil {
		return err
	}
	lengthPanel, err := rc.charts.Scatter("Energy vs Response Length",
		"Energy (Wh)", "Response Length (characters)", lengthSeries,
		report.ScatterOptions{Trend: true})
	if err != nil {
		return err
	}

	bubblePanel, err := rc.efficiencyBubblePanel()
	if err != nil {
		return err
	}

	matrix, err := Correlations(rc.records, tradeoffColumns)
	if err != nil {
		return err
	}
	names := make([]string, len(tradeoffColumns))
	for i, c := range tradeoffColumns {
		names[i] = string(c)
	}
	heatPanel, err := rc.charts.Heatmap("Metric Correlations", names, matrix)
	if err != nil {
		return err
	}

	grid := [][]*plot.Plot{{tokenPanel, lengthPanel}, {bubblePanel, heatPanel}}
	return rc.charts.SaveGrid(grid, rc.style.Figures.Quad,
		"performance_tradeoff_matrix.png", "Performance trade-off matrix panels")
}

// efficiencyBubblePanel plots per-mode mean energy against mean tokens
// per Wh, glyph size scaled by mean response length.
func (rc *runContext) efficiencyBubblePanel() (*plot.Plot, error) {
	groups, err := Groups(rc.records, KeyMode)
	if err != nil {
		return nil, err
	}
	maxLength := 0.0
	series := make([]report.ScatterSeries, 0, len(groups))
	lengths := make([]float64, len(groups))
	for i, g := range groups {
		vals, err := Values(g.Records, ColResponseLength)
		if err != nil {
			return nil, err
		}
		lengths[i] = Describe(vals, StatMean)
		if !math.IsNaN(lengths[i]) && lengths[i] > maxLength {
			maxLength = lengths[i]
		}
	}
	for i, g := range groups {
		energy, err := Values(g.Records, ColEnergyWh)
		if err != nil {
			return nil, err
		}
		perWh, err := Values(g.Records, ColTokensPerWh)
		if err != nil {
			return nil, err
		}
		size := 0.0
		if maxLength > 0 && !math.IsNaN(lengths[i]) {
			size = lengths[i] / maxLength
		}
		hex := rc.style.Colors.Fallback
		if len(rc.style.Colors.Modes) > 0 {
			hex = rc.style.Colors.Modes[i%len(rc.style.Colors.Modes)]
		}
		series = append(series, report.ScatterSeries{
			Name: g.Label,
			XYs: plotter.XYs{{
				X: Describe(energy, StatMean),
				Y: Describe(perWh, StatMean),
			}},
			Hex:   hex,
			Sizes: []float64{size},
		})
	}
	return rc.charts.Scatter("Efficiency Overview (bubble size: response length)",
		"Mean Energy (Wh)", "Mean Tokens per Wh", series, report.ScatterOptions{})
}

func (rc *runContext) insightsReport(savings []ModeSavings) error {
	var b strings.Builder
	b.WriteString("# Key Insights\n\n")
	b.WriteString("## Energy Savings\n\n")
	b.WriteString("Savings are measured against the Performance mode mean.\n\n")
	for _, s := range savings {
		fmt.Fprintf(&b, "- %s: %s Wh mean over %d prompts",
			s.Mode, FormatFloat(s.MeanEnergy), s.Count)
		if !math.IsNaN(s.SavingsPct) && s.Mode != ModePerformance {
			fmt.Fprintf(&b, " (%s%% savings)", FormatFloat(s.SavingsPct))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n## Reading the Charts\n\n")
	b.WriteString("- `plots/energy_savings_visualization.png` ranks modes by mean energy ")
	b.WriteString("and shows the savings potential of each non-baseline mode.\n")
	b.WriteString("- `plots/performance_tradeoff_matrix.png` relates energy to output ")
	b.WriteString("volume and quality proxies, with the metric correlation matrix.\n")

	_, err := rc.out.WriteReport("key_insights_report.md", b.String(), "Key insights report")
	return err
}
