package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/plot/plotter"

	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/models"
	"github.com/ecochat-research/analysis/internal/report"
)

// DayShares holds the per-day mode usage percentages. Shares[m][d] is
// mode Modes[m]'s percentage of day Days[d]'s prompts; each day column
// sums to 100.
type DayShares struct {
	Days   []int // 1-based day indexes since experiment start
	Modes  []string
	Shares [][]float64
}

// DailyShares computes per-day mode percentages over the known modes in
// fixed order. Days appear in chronological order; days without prompts
// produce no column.
func DailyShares(records []Record) DayShares {
	counts := make(map[int]map[string]int)
	for i := range records {
		day := records[i].DayIndex
		if counts[day] == nil {
			counts[day] = make(map[string]int)
		}
		counts[day][records[i].ModeLabel]++
	}
	days := make([]int, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Ints(days)

	modes := ModeOrder()
	shares := make([][]float64, len(modes))
	for m := range modes {
		shares[m] = make([]float64, len(days))
	}
	for di, d := range days {
		total := 0
		for _, n := range counts[d] {
			total += n
		}
		if total == 0 {
			continue
		}
		for m, mode := range modes {
			shares[m][di] = float64(counts[d][mode]) / float64(total) * 100
		}
	}
	return DayShares{Days: days, Modes: modes, Shares: shares}
}

// singleModeDay reports whether one mode holds all of the day's
// prompts. Such days are treated as session artifacts and dropped from
// the share charts.
func (ds DayShares) singleModeDay(di int) bool {
	for m := range ds.Modes {
		if ds.Shares[m][di] >= 100 {
			return true
		}
	}
	return false
}

// MultiModeDays returns the shares restricted to days where at least
// two modes were used.
func (ds DayShares) MultiModeDays() DayShares {
	out := DayShares{Modes: ds.Modes, Shares: make([][]float64, len(ds.Modes))}
	for di := range ds.Days {
		if ds.singleModeDay(di) {
			continue
		}
		out.Days = append(out.Days, ds.Days[di])
		for m := range ds.Modes {
			out.Shares[m] = append(out.Shares[m], ds.Shares[m][di])
		}
	}
	return out
}

// DailyUsage runs the daily usage-share analysis: the percentage table,
// the stacked-bar and trend charts, and the narrative report.
func DailyUsage(records []Record, style *config.Styling, out *report.Output) error {
	rc := newRunContext(records, style, out)
	logger.Log.WithField("records", len(records)).Info("Starting daily usage analysis")

	shares := DailyShares(records)

	t := &models.Table{Columns: append([]string{"day"}, shares.Modes...)}
	for di, d := range shares.Days {
		row := []string{strconv.Itoa(d)}
		for m := range shares.Modes {
			row = append(row, FormatFloat(shares.Shares[m][di]))
		}
		t.Rows = append(t.Rows, row)
	}
	if _, err := out.WriteTable("daily_usage_percentages.csv", t,
		"Daily mode usage percentages"); err != nil {
		return err
	}

	chartDays := shares.MultiModeDays()
	if len(chartDays.Days) > 0 {
		if err := rc.dailyStackedChart(chartDays); err != nil {
			return err
		}
		if err := rc.dailyTrendChart(chartDays); err != nil {
			return err
		}
	} else {
		logger.Log.Warn("No multi-mode days, skipping daily usage charts")
	}

	if err := rc.dailyUsageReport(shares); err != nil {
		return err
	}
	logger.Log.Info("Daily usage analysis complete")
	return nil
}

func (rc *runContext) dailyStackedChart(shares DayShares) error {
	cats := make([]string, len(shares.Days))
	for i, d := range shares.Days {
		cats[i] = strconv.Itoa(d)
	}
	p, err := rc.charts.Stacked("Daily Mode Usage Shares",
		"Day of Experiment", "Percentage of Prompts (%)",
		cats, shares.Modes, shares.Shares, report.StackedOptions{
			Colors:  rc.style.Colors.Blues,
			ShowPct: true,
		})
	if err != nil {
		return err
	}
	return rc.charts.Save(p, rc.style.Figures.Single,
		"daily_usage_stacked_bars.png", "Daily mode usage stacked bars")
}

func (rc *runContext) dailyTrendChart(shares DayShares) error {
	series := make([]report.LineSeries, 0, len(shares.Modes))
	for m, mode := range shares.Modes {
		xys := make(plotter.XYs, len(shares.Days))
		for di, d := range shares.Days {
			xys[di] = plotter.XY{X: float64(d), Y: shares.Shares[m][di]}
		}
		hex := rc.style.Colors.Fallback
		if len(rc.style.Colors.Modes) > 0 {
			hex = rc.style.Colors.Modes[m%len(rc.style.Colors.Modes)]
		}
		series = append(series, report.LineSeries{Name: mode, XYs: xys, Hex: hex})
	}
	p, err := rc.charts.Lines("Daily Mode Usage Trends",
		"Day of Experiment", "Percentage of Prompts (%)", series)
	if err != nil {
		return err
	}
	return rc.charts.Save(p, rc.style.Figures.Single,
		"daily_usage_trends.png", "Daily mode usage trend lines")
}

func (rc *runContext) dailyUsageReport(shares DayShares) error {
	var b strings.Builder
	b.WriteString("# Daily Usage Analysis\n\n")
	fmt.Fprintf(&b, "Experiment days with prompts: %d\n\n", len(shares.Days))

	b.WriteString("## Average Mode Shares\n\n")
	for m, mode := range shares.Modes {
		sum := 0.0
		for _, v := range shares.Shares[m] {
			sum += v
		}
		avg := 0.0
		if len(shares.Days) > 0 {
			avg = sum / float64(len(shares.Days))
		}
		fmt.Fprintf(&b, "- %s: %s%%\n", mode, FormatFloat(avg))
	}
	b.WriteString("\n## First-to-Last Day Trends\n\n")
	if n := len(shares.Days); n > 1 {
		for m, mode := range shares.Modes {
			first, last := shares.Shares[m][0], shares.Shares[m][n-1]
			direction := "stable"
			switch {
			case last > first:
				direction = "rising"
			case last < first:
				direction = "falling"
			}
			fmt.Fprintf(&b, "- %s: %s%% -> %s%% (%s)\n",
				mode, FormatFloat(first), FormatFloat(last), direction)
		}
	}

	_, err := rc.out.WriteReport("daily_usage_report.md", b.String(), "Daily usage report")
	return err
}
