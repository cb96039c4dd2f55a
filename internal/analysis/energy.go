package analysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/plot"

	"github.com/sirupsen/logrus"

	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/report"
)

// EnergyByMode runs the energy-consumption analysis: per-mode energy
// and token-efficiency tables, the four energy charts, and the
// narrative report.
func EnergyByMode(records []Record, style *config.Styling, out *report.Output) error {
	rc := newRunContext(records, style, out)
	logger.Log.WithField("records", len(records)).Info("Starting energy consumption analysis")

	energyTable, err := Aggregate(records, KeyMode, []ColumnSpec{
		{Column: ColEnergyWh, Stats: []Stat{StatCount, StatMean, StatStd, StatSum}},
		{Column: ColInputTokens, Stats: []Stat{StatMean, StatStd}},
		{Column: ColOutputTokens, Stats: []Stat{StatMean, StatStd}},
	})
	if err != nil {
		return err
	}
	if _, err := out.WriteTable("mode_energy_analysis.csv", energyTable,
		"Per-mode energy statistics"); err != nil {
		return err
	}

	efficiencyTable, err := Aggregate(records, KeyMode, []ColumnSpec{
		{Column: ColTotalTokens, Stats: []Stat{StatMean, StatStd}},
		{Column: ColEnergyPerToken, Stats: []Stat{StatMean, StatStd}},
		{Column: ColOutputInputRatio, Stats: []Stat{StatMean, StatStd}},
	})
	if err != nil {
		return err
	}
	if _, err := out.WriteTable("token_efficiency_analysis.csv", efficiencyTable,
		"Per-mode token efficiency statistics"); err != nil {
		return err
	}

	if err := rc.energyBarChart(); err != nil {
		return err
	}
	if err := rc.tokenEfficiencyChart(); err != nil {
		return err
	}
	if err := rc.tokenScatterChart(); err != nil {
		return err
	}
	if err := rc.energyBoxChart(); err != nil {
		return err
	}
	if err := rc.energyReport(); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"artifacts": len(out.Files()),
	}).Info("Energy consumption analysis complete")
	return nil
}

func (rc *runContext) energyBarChart() error {
	mean, err := rc.modeStat(ColEnergyWh, StatMean)
	if err != nil {
		return err
	}
	p, err := rc.charts.Bars("Average Energy Consumption by Mode",
		"Chat Mode", "Energy Consumption (Wh)", mean, report.BarsOptions{
			Colors:      rc.style.Colors.Modes,
			ValueFormat: "%.3f Wh",
		})
	if err != nil {
		return err
	}
	return rc.charts.Save(p, rc.style.Figures.Single,
		"energy_consumption_by_mode.png", "Mean energy per prompt by mode")
}

func (rc *runContext) tokenEfficiencyChart() error {
	tokens, err := rc.modeStat(ColTotalTokens, StatMean)
	if err != nil {
		return err
	}
	perToken, err := rc.modeStat(ColEnergyPerToken, StatMean)
	if err != nil {
		return err
	}
	left, err := rc.charts.Bars("Average Total Tokens per Prompt",
		"Chat Mode", "Total Tokens", tokens, report.BarsOptions{
			Colors:      rc.style.Colors.Modes,
			ValueFormat: "%.0f",
		})
	if err != nil {
		return err
	}
	right, err := rc.charts.Bars("Average Energy per Token",
		"Chat Mode", "Energy per Token (Wh)", perToken, report.BarsOptions{
			Colors:      rc.style.Colors.Modes,
			ValueFormat: "%.6f",
		})
	if err != nil {
		return err
	}
	return rc.charts.SaveGrid([][]*plot.Plot{{left, right}}, rc.style.Figures.Dual,
		"token_efficiency_comparison.png", "Token efficiency comparison by mode")
}

func (rc *runContext) tokenScatterChart() error {
	series, err := rc.modeScatterSeries(ColInputTokens, ColOutputTokens)
	if err != nil {
		return err
	}
	p, err := rc.charts.Scatter("Input vs Output Tokens by Mode",
		"Input Tokens", "Output Tokens", series, report.ScatterOptions{Identity: true})
	if err != nil {
		return err
	}
	return rc.charts.Save(p, rc.style.Figures.Single,
		"input_output_token_scatter.png", "Input/output token scatter by mode")
}

func (rc *runContext) energyBoxChart() error {
	labels, values, err := rc.modeValues(ColEnergyWh)
	if err != nil {
		return err
	}
	p, err := rc.charts.Boxes("Energy Consumption Distribution by Mode",
		"Energy Consumption (Wh)", labels, values, rc.style.Colors.Modes)
	if err != nil {
		return err
	}
	return rc.charts.Save(p, rc.style.Figures.Single,
		"energy_distribution_by_mode.png", "Energy distribution box plot by mode")
}

func (rc *runContext) energyReport() error {
	energy, err := Values(rc.records, ColEnergyWh)
	if err != nil {
		return err
	}
	groups, err := Groups(rc.records, KeyMode)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Energy Consumption Analysis\n\n")
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- Prompts analyzed: %d\n", len(rc.records))
	fmt.Fprintf(&b, "- Total energy consumed: %s Wh\n", FormatFloat(Describe(energy, StatSum)))
	fmt.Fprintf(&b, "- Average energy per prompt: %s Wh\n\n", FormatFloat(Describe(energy, StatMean)))

	b.WriteString("## Per-Mode Results\n\n")
	for _, g := range groups {
		vals, err := Values(g.Records, ColEnergyWh)
		if err != nil {
			return err
		}
		perToken, err := Values(g.Records, ColEnergyPerToken)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "### %s\n\n", g.Label)
		fmt.Fprintf(&b, "- Prompts: %d\n", len(g.Records))
		fmt.Fprintf(&b, "- Mean energy: %s Wh (std %s)\n",
			FormatFloat(Describe(vals, StatMean)), FormatFloat(Describe(vals, StatStd)))
		fmt.Fprintf(&b, "- Mean energy per token: %s Wh\n\n",
			FormatFloat(Describe(perToken, StatMean)))
	}

	b.WriteString("## Methodology\n\n")
	b.WriteString("Only sent prompts enter the aggregation. Undefined derived metrics ")
	b.WriteString("(zero-token or zero-energy prompts) are excluded from means and render ")
	b.WriteString("as empty cells. Standard deviations are sample deviations (n-1).\n\n")
	b.WriteString("## Files\n\n")
	b.WriteString("- `data/mode_energy_analysis.csv`\n")
	b.WriteString("- `data/token_efficiency_analysis.csv`\n")
	b.WriteString("- `plots/energy_consumption_by_mode.png`\n")
	b.WriteString("- `plots/token_efficiency_comparison.png`\n")
	b.WriteString("- `plots/input_output_token_scatter.png`\n")
	b.WriteString("- `plots/energy_distribution_by_mode.png`\n")

	_, err = rc.out.WriteReport("energy_analysis_report.md", b.String(), "Energy analysis report")
	return err
}
