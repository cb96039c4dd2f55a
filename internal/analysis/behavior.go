package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/sirupsen/logrus"

	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/models"
	"github.com/ecochat-research/analysis/internal/report"
)

// UserBehavior runs the behavior analysis: mode switching per user,
// temporal usage patterns, conversation patterns, the three panel
// grids, and the narrative report.
func UserBehavior(records []Record, style *config.Styling, out *report.Output) error {
	rc := newRunContext(records, style, out)
	logger.Log.WithField("records", len(records)).Info("Starting user behavior analysis")

	users := UserBehaviorStats(records)
	conversations := ConversationStatsFrom(records)

	if err := rc.writeUserTable(users); err != nil {
		return err
	}
	if err := rc.writeTemporalTables(); err != nil {
		return err
	}
	if err := rc.writeConversationTable(conversations); err != nil {
		return err
	}
	if err := rc.modeSwitchingChart(users); err != nil {
		return err
	}
	if err := rc.temporalChart(); err != nil {
		return err
	}
	if err := rc.conversationChart(conversations); err != nil {
		return err
	}
	if err := rc.behaviorReport(users, conversations); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"users":         len(users),
		"conversations": len(conversations),
	}).Info("User behavior analysis complete")
	return nil
}

func (rc *runContext) writeUserTable(users []UserStats) error {
	t := &models.Table{Columns: []string{
		"userId", "total_prompts", "modes_used", "mode_switches", "mode_entropy",
	}}
	for _, u := range users {
		t.Rows = append(t.Rows, []string{
			u.UserID,
			strconv.Itoa(u.TotalPrompts),
			strconv.Itoa(u.ModesUsed),
			strconv.Itoa(u.Switches),
			FormatFloat(u.Entropy),
		})
	}
	_, err := rc.out.WriteTable("user_mode_switching_analysis.csv", t,
		"Per-user mode switching and diversity")
	return err
}

func (rc *runContext) writeTemporalTables() error {
	daily, err := Aggregate(rc.records, KeyDay, []ColumnSpec{
		{Column: ColEnergyWh, Stats: []Stat{StatCount, StatSum}},
		{Column: ColTotalTokens, Stats: []Stat{StatSum}},
	})
	if err != nil {
		return err
	}
	if _, err := rc.out.WriteTable("daily_usage_patterns.csv", daily,
		"Daily prompt counts, energy, tokens"); err != nil {
		return err
	}

	for _, spec := range []struct {
		key  GroupKey
		file string
		desc string
	}{
		{KeyHour, "hourly_usage_patterns.csv", "Hourly usage patterns"},
		{KeyWeekday, "day_of_week_patterns.csv", "Day-of-week usage patterns"},
	} {
		groups, err := Groups(rc.records, spec.key)
		if err != nil {
			return err
		}
		t := &models.Table{Columns: []string{
			string(spec.key), "prompt_count", "mean_energy_wh", "most_common_mode",
		}}
		for _, g := range groups {
			energy, err := Values(g.Records, ColEnergyWh)
			if err != nil {
				return err
			}
			t.Rows = append(t.Rows, []string{
				g.Label,
				strconv.Itoa(len(g.Records)),
				FormatFloat(Describe(energy, StatMean)),
				MostCommonMode(g.Records),
			})
		}
		if _, err := rc.out.WriteTable(spec.file, t, spec.desc); err != nil {
			return err
		}
	}
	return nil
}

func (rc *runContext) writeConversationTable(conversations []ConversationStats) error {
	t := &models.Table{Columns: []string{
		"conversationId", "userId", "first_mode", "prompt_count",
		"total_energy_wh", "total_tokens", "start", "end",
		"duration_minutes", "energy_per_prompt", "tokens_per_prompt",
	}}
	for _, c := range conversations {
		t.Rows = append(t.Rows, []string{
			c.ConversationID,
			c.UserID,
			c.FirstMode,
			strconv.Itoa(c.Prompts),
			FormatFloat(c.TotalEnergy),
			FormatFloat(c.TotalTokens),
			c.Start.Format("2006-01-02 15:04:05"),
			c.End.Format("2006-01-02 15:04:05"),
			FormatFloat(c.DurationMinutes),
			FormatFloat(c.EnergyPerPrompt),
			FormatFloat(c.TokensPerPrompt),
		})
	}
	_, err := rc.out.WriteTable("conversation_patterns_analysis.csv", t,
		"Per-conversation aggregates")
	return err
}

func (rc *runContext) modeSwitchingChart(users []UserStats) error {
	switches := make([]float64, len(users))
	entropies := make([]float64, len(users))
	scatter := make(plotter.XYs, len(users))
	modesUsed := make(map[int]int)
	for i, u := range users {
		switches[i] = float64(u.Switches)
		entropies[i] = float64(u.Entropy)
		scatter[i] = plotter.XY{X: float64(u.TotalPrompts), Y: float64(u.Switches)}
		modesUsed[u.ModesUsed]++
	}

	highlight := rc.style.Colors.Highlight
	switchHist, err := rc.charts.Histogram("Mode Switches per User", "Switches", switches, 10, highlight)
	if err != nil {
		return err
	}
	entropyHist, err := rc.charts.Histogram("Mode Diversity (Entropy) per User", "Entropy (bits)", entropies, 10, highlight)
	if err != nil {
		return err
	}
	scatterPanel, err := rc.charts.Scatter("Prompts vs Mode Switches",
		"Total Prompts", "Mode Switches",
		[]report.ScatterSeries{{XYs: scatter, Hex: highlight}},
		report.ScatterOptions{Trend: true})
	if err != nil {
		return err
	}

	usedSeries := models.Series{}
	counts := make([]int, 0, len(modesUsed))
	for n := range modesUsed {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	for _, n := range counts {
		usedSeries.Labels = append(usedSeries.Labels, strconv.Itoa(n))
		usedSeries.Values = append(usedSeries.Values, float64(modesUsed[n]))
	}
	usedPanel, err := rc.charts.Bars("Distinct Modes Used", "Modes Used", "Users",
		usedSeries, report.BarsOptions{Colors: rc.style.Colors.Blues, ValueFormat: "%.0f"})
	if err != nil {
		return err
	}

	grid := [][]*plot.Plot{{switchHist, entropyHist}, {scatterPanel, usedPanel}}
	return rc.charts.SaveGrid(grid, rc.style.Figures.Quad,
		"mode_switching_patterns.png", "Mode switching pattern panels")
}

func (rc *runContext) temporalChart() error {
	days, err := Groups(rc.records, KeyDay)
	if err != nil {
		return err
	}
	dailyCounts := make(plotter.XYs, len(days))
	dailyEnergy := make(plotter.XYs, len(days))
	for i, g := range days {
		energy, err := Values(g.Records, ColEnergyWh)
		if err != nil {
			return err
		}
		dailyCounts[i] = plotter.XY{X: float64(i + 1), Y: float64(len(g.Records))}
		dailyEnergy[i] = plotter.XY{X: float64(i + 1), Y: Describe(energy, StatSum)}
	}

	highlight := rc.style.Colors.Highlight
	countsPanel, err := rc.charts.Lines("Daily Prompt Counts", "Day", "Prompts",
		[]report.LineSeries{{XYs: dailyCounts, Hex: highlight}})
	if err != nil {
		return err
	}
	energyPanel, err := rc.charts.Lines("Daily Energy Consumption", "Day", "Energy (Wh)",
		[]report.LineSeries{{XYs: dailyEnergy, Hex: highlight}})
	if err != nil {
		return err
	}

	hourPanel, err := rc.countBars(KeyHour, "Prompts by Hour of Day", "Hour")
	if err != nil {
		return err
	}
	weekdayPanel, err := rc.countBars(KeyWeekday, "Prompts by Day of Week", "Day of Week")
	if err != nil {
		return err
	}

	grid := [][]*plot.Plot{{countsPanel, hourPanel}, {weekdayPanel, energyPanel}}
	return rc.charts.SaveGrid(grid, rc.style.Figures.Quad,
		"temporal_usage_patterns.png", "Temporal usage pattern panels")
}

func (rc *runContext) countBars(key GroupKey, title, xlabel string) (*plot.Plot, error) {
	groups, err := Groups(rc.records, key)
	if err != nil {
		return nil, err
	}
	s := models.Series{}
	for _, g := range groups {
		s.Labels = append(s.Labels, g.Label)
		s.Values = append(s.Values, float64(len(g.Records)))
	}
	return rc.charts.Bars(title, xlabel, "Prompts", s, report.BarsOptions{
		Colors: rc.style.Colors.Blues, ValueFormat: "%.0f",
	})
}

func (rc *runContext) conversationChart(conversations []ConversationStats) error {
	durations := make([]float64, len(conversations))
	promptCounts := make([]float64, len(conversations))
	for i, c := range conversations {
		durations[i] = c.DurationMinutes
		promptCounts[i] = float64(c.Prompts)
	}

	highlight := rc.style.Colors.Highlight
	durationHist, err := rc.charts.Histogram("Conversation Duration", "Duration (minutes)", durations, 10, highlight)
	if err != nil {
		return err
	}
	promptsHist, err := rc.charts.Histogram("Prompts per Conversation", "Prompts", promptCounts, 10, highlight)
	if err != nil {
		return err
	}

	energyPanel, err := rc.conversationModeBars(conversations, "Energy per Prompt by Mode",
		"Energy (Wh)", func(c ConversationStats) float64 { return c.EnergyPerPrompt })
	if err != nil {
		return err
	}
	tokensPanel, err := rc.conversationModeBars(conversations, "Tokens per Prompt by Mode",
		"Tokens", func(c ConversationStats) float64 { return c.TokensPerPrompt })
	if err != nil {
		return err
	}

	grid := [][]*plot.Plot{{durationHist, promptsHist}, {energyPanel, tokensPanel}}
	return rc.charts.SaveGrid(grid, rc.style.Figures.Quad,
		"conversation_analysis.png", "Conversation pattern panels")
}

// conversationModeBars averages a conversation metric per first mode,
// modes in fixed order.
func (rc *runContext) conversationModeBars(conversations []ConversationStats, title, ylabel string, metric func(ConversationStats) float64) (*plot.Plot, error) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, c := range conversations {
		sums[c.FirstMode] += metric(c)
		counts[c.FirstMode]++
	}
	s := models.Series{}
	for _, mode := range ModeOrder() {
		if counts[mode] == 0 {
			continue
		}
		s.Labels = append(s.Labels, mode)
		s.Values = append(s.Values, sums[mode]/float64(counts[mode]))
	}
	return rc.charts.Bars(title, "First Mode", ylabel, s, report.BarsOptions{
		Colors: rc.style.Colors.Modes, ValueFormat: "%.2f",
	})
}

func (rc *runContext) behaviorReport(users []UserStats, conversations []ConversationStats) error {
	var totalSwitches, totalEntropy float64
	maxSwitches := 0
	for _, u := range users {
		totalSwitches += float64(u.Switches)
		totalEntropy += u.Entropy
		if u.Switches > maxSwitches {
			maxSwitches = u.Switches
		}
	}

	hours, err := Groups(rc.records, KeyHour)
	if err != nil {
		return err
	}
	peakHour, peakCount := "", 0
	for _, g := range hours {
		if len(g.Records) > peakCount {
			peakHour, peakCount = g.Label, len(g.Records)
		}
	}
	days, err := Groups(rc.records, KeyDay)
	if err != nil {
		return err
	}
	topDay, topCount := "", 0
	for _, g := range days {
		if len(g.Records) > topCount {
			topDay, topCount = g.Label, len(g.Records)
		}
	}

	var longest, shortest *ConversationStats
	for i := range conversations {
		c := &conversations[i]
		if longest == nil || c.DurationMinutes > longest.DurationMinutes {
			longest = c
		}
		if shortest == nil || c.DurationMinutes < shortest.DurationMinutes {
			shortest = c
		}
	}

	var b strings.Builder
	b.WriteString("# User Behavior Analysis\n\n")
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- Users: %d\n", len(users))
	fmt.Fprintf(&b, "- Conversations: %d\n", len(conversations))
	fmt.Fprintf(&b, "- Prompts: %d\n", len(rc.records))
	fmt.Fprintf(&b, "- Experiment span: %d day(s)\n\n", len(days))

	b.WriteString("## Mode Switching\n\n")
	if len(users) > 0 {
		fmt.Fprintf(&b, "- Average mode switches per user: %s\n",
			FormatFloat(totalSwitches/float64(len(users))))
		fmt.Fprintf(&b, "- Average mode diversity (entropy): %s bits\n",
			FormatFloat(totalEntropy/float64(len(users))))
		fmt.Fprintf(&b, "- Most active mode switcher: %d switches\n\n", maxSwitches)
	}

	b.WriteString("## Temporal Patterns\n\n")
	if peakHour != "" {
		fmt.Fprintf(&b, "- Peak hour: %s:00 (%d prompts)\n", peakHour, peakCount)
	}
	if topDay != "" {
		fmt.Fprintf(&b, "- Most active day: %s (%d prompts)\n\n", topDay, topCount)
	}

	b.WriteString("## Conversations\n\n")
	if longest != nil && shortest != nil {
		fmt.Fprintf(&b, "- Longest conversation: %s minutes (%d prompts)\n",
			FormatFloat(longest.DurationMinutes), longest.Prompts)
		fmt.Fprintf(&b, "- Shortest conversation: %s minutes (%d prompts)\n",
			FormatFloat(shortest.DurationMinutes), shortest.Prompts)
	}

	_, err = rc.out.WriteReport("user_behavior_report.md", b.String(), "User behavior report")
	return err
}
