package survey

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ecochat-research/analysis/internal/analysis"
	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/models"
	"github.com/ecochat-research/analysis/internal/report"
)

// Analyzer runs the survey pipeline: one distribution CSV and chart per
// catalog question, the combined preference chart, scale reliability,
// and the summary report.
type Analyzer struct {
	table   *models.SurveyTable
	catalog *config.Survey
	style   *config.Styling
	out     *report.Output
	charts  *report.Charts
}

// NewAnalyzer wires a loaded survey table to its question catalog and
// output destination.
func NewAnalyzer(table *models.SurveyTable, catalog *config.Survey, style *config.Styling, out *report.Output) *Analyzer {
	return &Analyzer{
		table:   table,
		catalog: catalog,
		style:   style,
		out:     out,
		charts:  report.NewCharts(style, out),
	}
}

// Run produces every survey artifact. Free-text questions are left to
// the theme pipeline.
func (a *Analyzer) Run() error {
	logger.Log.WithField("respondents", a.table.Respondents()).Info("Starting survey analysis")

	type questionResult struct {
		question config.Question
		dist     Distribution
	}
	var results []questionResult
	for _, q := range a.catalog.Questions {
		if q.Kind == config.KindFreeText {
			continue
		}
		dist, err := a.distribution(q)
		if err != nil {
			return err
		}
		if err := a.writeQuestion(q, dist); err != nil {
			return err
		}
		results = append(results, questionResult{question: q, dist: dist})
	}

	for _, combined := range a.catalog.Combined {
		if err := a.writeCombined(combined); err != nil {
			return err
		}
	}
	if err := a.writeReliability(); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Survey Summary\n\n")
	fmt.Fprintf(&b, "Respondents: %d\n\n", a.table.Respondents())
	for _, r := range results {
		fmt.Fprintf(&b, "## %s\n\n", r.question.Title)
		fmt.Fprintf(&b, "- Responses counted: %d\n", r.dist.Total)
		if top, ok := r.dist.Top(); ok {
			fmt.Fprintf(&b, "- Top answer: %s (%d, %s%%)\n",
				top.Label, top.Count, analysis.FormatFloat(r.dist.Percent(top)))
		}
		b.WriteString("\n")
	}
	if _, err := a.out.WriteReport("survey_summary.md", b.String(), "Survey summary report"); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"questions": len(results),
		"artifacts": len(a.out.Files()),
	}).Info("Survey analysis complete")
	return nil
}

func (a *Analyzer) distribution(q config.Question) (Distribution, error) {
	cells, ok := a.table.Column(q.Column)
	if !ok {
		return Distribution{}, analysis.NewMissingColumnError(fmt.Sprintf(
			"survey question %q: column %q not found; available: %v",
			q.Key, q.Column, a.table.Headers))
	}
	switch q.Kind {
	case config.KindLikert:
		return LikertDistribution(cells, q.Column, q.ReverseScored), nil
	case config.KindMultiSelect:
		return MultiSelectDistribution(cells, q.Key == "primary_reasons"), nil
	case config.KindTimeBucket:
		return TimeBucketDistribution(cells), nil
	default:
		return CategoricalDistribution(cells), nil
	}
}

func (a *Analyzer) writeQuestion(q config.Question, dist Distribution) error {
	if _, err := a.out.WriteTable(q.Key+"_distribution.csv", dist.Table(),
		q.Title+" distribution"); err != nil {
		return err
	}

	chart := dist.NonZero()
	s := chart.Series()
	labels := make([]string, len(s.Values))
	for i, e := range chart.Entries {
		labels[i] = fmt.Sprintf("%d (%s%%)", e.Count, analysis.FormatFloat(chart.Percent(e)))
	}
	title := fmt.Sprintf("%s\n%d responses", q.Title, chart.Total)
	p, err := a.charts.Bars(title, "Number of Responses", "", s, report.BarsOptions{
		Horizontal:  true,
		Colors:      []string{a.style.Colors.Highlight},
		ValueLabels: labels,
	})
	if err != nil {
		return err
	}
	path := q.Category + "/" + q.Key + ".png"
	if err := a.charts.Save(p, a.style.Figures.Single, path, q.Title); err != nil {
		return err
	}

	if q.Stacked {
		return a.writeStacked(q, chart)
	}
	return nil
}

// writeStacked renders a multi-select distribution as one 100%-stacked
// horizontal bar, segment per option.
func (a *Analyzer) writeStacked(q config.Question, dist Distribution) error {
	segNames := make([]string, len(dist.Entries))
	segs := make([][]float64, len(dist.Entries))
	for i, e := range dist.Entries {
		segNames[i] = e.Label
		segs[i] = []float64{dist.Percent(e)}
	}
	p, err := a.charts.Stacked(q.Title+" (share of selections)",
		"Percentage of Selections (%)", "", []string{""}, segNames, segs,
		report.StackedOptions{
			Horizontal: true,
			Colors:     a.style.Colors.Blues,
			ShowPct:    true,
		})
	if err != nil {
		return err
	}
	path := q.Category + "/" + q.Key + "_stacked.png"
	return a.charts.Save(p, a.style.Figures.Single, path, q.Title+" stacked shares")
}

// writeCombined renders several Likert questions sharing a scale as one
// stacked comparison chart, percentage segments per question.
func (a *Analyzer) writeCombined(combined config.CombinedChart) error {
	var cats []string
	segNames := make([]string, 0, len(combined.Questions))
	segs := make([][]float64, 0, len(combined.Questions))
	for _, ref := range combined.Questions {
		q, ok := a.catalog.ByKey(ref.Key)
		if !ok {
			return analysis.NewMissingColumnError(fmt.Sprintf(
				"combined chart %q references unknown question %q", combined.Key, ref.Key))
		}
		dist, err := a.distribution(q)
		if err != nil {
			return err
		}
		if cats == nil {
			labels := LikertLabels(q.Column)
			cats = labels[:]
		}
		pcts := make([]float64, len(dist.Entries))
		for i, e := range dist.Entries {
			pcts[i] = dist.Percent(e)
		}
		segNames = append(segNames, ref.Title)
		segs = append(segs, pcts)
	}
	p, err := a.charts.Stacked(combined.Title, "Percentage of Responses (%)", "",
		cats, segNames, segs, report.StackedOptions{
			Horizontal: true,
			Colors:     a.style.Colors.Scientific,
			ShowPct:    true,
		})
	if err != nil {
		return err
	}
	path := "environmental/" + combined.Key + ".png"
	return a.charts.Save(p, a.style.Figures.Quad, path, combined.Title)
}

func (a *Analyzer) writeReliability() error {
	if len(a.catalog.Reliability) == 0 {
		return nil
	}
	t := &models.Table{Columns: []string{"scale", "items", "respondents", "cronbach_alpha"}}
	for _, rel := range a.catalog.Reliability {
		itemCells := make([][]string, 0, len(rel.Keys))
		reverse := make([]bool, 0, len(rel.Keys))
		for _, key := range rel.Keys {
			q, ok := a.catalog.ByKey(key)
			if !ok {
				return analysis.NewMissingColumnError(fmt.Sprintf(
					"reliability scale %q references unknown question %q", rel.Name, key))
			}
			cells, ok := a.table.Column(q.Column)
			if !ok {
				return analysis.NewMissingColumnError(fmt.Sprintf(
					"reliability scale %q: column %q not found", rel.Name, q.Column))
			}
			itemCells = append(itemCells, cells)
			reverse = append(reverse, q.ReverseScored)
		}
		matrix := AlphaMatrix(itemCells, reverse)
		alpha := CronbachAlpha(matrix)
		t.Rows = append(t.Rows, []string{
			rel.Name,
			analysis.FormatStat(float64(len(rel.Keys)), analysis.StatCount),
			analysis.FormatStat(float64(len(matrix)), analysis.StatCount),
			analysis.FormatFloat(alpha),
		})
	}
	_, err := a.out.WriteTable("likert_reliability.csv", t, "Likert scale reliability")
	return err
}
