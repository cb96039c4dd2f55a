package analysis

import (
	"gonum.org/v1/plot/plotter"

	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/models"
	"github.com/ecochat-research/analysis/internal/report"
)

// runContext bundles what every experiment analyzer needs. Each
// analyzer call builds its own context; nothing is shared across runs.
type runContext struct {
	records []Record
	style   *config.Styling
	out     *report.Output
	charts  *report.Charts
}

func newRunContext(records []Record, style *config.Styling, out *report.Output) *runContext {
	return &runContext{
		records: records,
		style:   style,
		out:     out,
		charts:  report.NewCharts(style, out),
	}
}

// modeStat computes one statistic per mode group, modes in fixed order.
func (rc *runContext) modeStat(col Column, st Stat) (models.Series, error) {
	groups, err := Groups(rc.records, KeyMode)
	if err != nil {
		return models.Series{}, err
	}
	s := models.Series{}
	for _, g := range groups {
		vals, err := Values(g.Records, col)
		if err != nil {
			return models.Series{}, err
		}
		s.Labels = append(s.Labels, g.Label)
		s.Values = append(s.Values, Describe(vals, st))
	}
	return s, nil
}

// modeValues extracts one column per mode group for distribution
// charts.
func (rc *runContext) modeValues(col Column) ([]string, [][]float64, error) {
	groups, err := Groups(rc.records, KeyMode)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, 0, len(groups))
	values := make([][]float64, 0, len(groups))
	for _, g := range groups {
		vals, err := Values(g.Records, col)
		if err != nil {
			return nil, nil, err
		}
		labels = append(labels, g.Label)
		values = append(values, vals)
	}
	return labels, values, nil
}

// columnXYs pairs two columns as scatter points. NaN pairs stay in; the
// renderer skips them for trend fitting.
func columnXYs(records []Record, x, y Column) (plotter.XYs, error) {
	xs, err := Values(records, x)
	if err != nil {
		return nil, err
	}
	ys, err := Values(records, y)
	if err != nil {
		return nil, err
	}
	out := make(plotter.XYs, len(xs))
	for i := range xs {
		out[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	return out, nil
}

// modeScatterSeries builds one scatter series per mode over two
// columns, colored from the mode palette.
func (rc *runContext) modeScatterSeries(x, y Column) ([]report.ScatterSeries, error) {
	groups, err := Groups(rc.records, KeyMode)
	if err != nil {
		return nil, err
	}
	series := make([]report.ScatterSeries, 0, len(groups))
	for i, g := range groups {
		xys, err := columnXYs(g.Records, x, y)
		if err != nil {
			return nil, err
		}
		hex := rc.style.Colors.Fallback
		if len(rc.style.Colors.Modes) > 0 {
			hex = rc.style.Colors.Modes[i%len(rc.style.Colors.Modes)]
		}
		series = append(series, report.ScatterSeries{Name: g.Label, XYs: xys, Hex: hex})
	}
	return series, nil
}
