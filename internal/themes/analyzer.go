package themes

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"

	"github.com/ecochat-research/analysis/internal/analysis"
	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/logger"
	"github.com/ecochat-research/analysis/internal/models"
	"github.com/ecochat-research/analysis/internal/report"
)

// Analyzer runs the theme pipeline over the sustainability free-text
// question: classification, frequency table, quotes, keyword list,
// chart, and report.
type Analyzer struct {
	table   *models.SurveyTable
	catalog *config.Survey
	themes  *config.ThemeTable
	style   *config.Styling
	out     *report.Output
	charts  *report.Charts
}

// NewAnalyzer wires the survey table and theme configuration to an
// output destination.
func NewAnalyzer(table *models.SurveyTable, catalog *config.Survey, themes *config.ThemeTable, style *config.Styling, out *report.Output) *Analyzer {
	return &Analyzer{
		table:   table,
		catalog: catalog,
		themes:  themes,
		style:   style,
		out:     out,
		charts:  report.NewCharts(style, out),
	}
}

var reportTemplate = template.Must(template.New("themes").Funcs(template.FuncMap{
	"pct":  func(v float64) string { return analysis.FormatFloat(v) },
	"cell": escapeCell,
}).Parse(`# Sustainability Optimization Themes

{{.Responses}} free-text responses classified into {{len .Frequencies}} themes.
Assignment is multi-label: percentages are shares of responses and can sum past 100.

## Theme Frequency Table

| Theme | Description | Count | % |
|-------|-------------|-------|---|
{{range .Frequencies}}| {{cell .Theme}} | {{cell .Description}} | {{.Count}} | {{pct .Percentage}}% |
{{end}}
## Representative Quotes

| Theme | Quote |
|-------|-------|
{{range .Quotes}}{{$theme := .Theme}}{{range .Quotes}}| {{cell $theme}} | {{cell .}} |
{{end}}{{end}}
## Top TF-IDF Keywords

{{range .Keywords}}- {{.Term}}: {{pct .Score}}
{{end}}`))

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

// Run produces every theme artifact. A survey without classifiable
// responses logs a warning and produces nothing.
func (a *Analyzer) Run() error {
	q, ok := a.catalog.FreeTextQuestion()
	if !ok {
		return analysis.NewMissingColumnError("question catalog declares no free-text question")
	}
	cells, ok := a.table.Column(q.Column)
	if !ok {
		return analysis.NewMissingColumnError(fmt.Sprintf(
			"theme question %q: column %q not found; available: %v",
			q.Key, q.Column, a.table.Headers))
	}
	responses := ExtractResponses(cells)
	logger.Log.WithField("responses", len(responses)).Info("Starting theme analysis")
	if len(responses) == 0 {
		logger.Log.Warn("No classifiable free-text responses, skipping theme analysis")
		return nil
	}

	classifier, err := NewClassifier(a.themes)
	if err != nil {
		return err
	}
	assignments, err := classifier.Classify(responses)
	if err != nil {
		return err
	}

	frequencies := Frequencies(assignments, a.themes)
	quotes := Quotes(assignments, frequencies, a.themes.MaxQuotes)
	tokenses := make([][]string, len(assignments))
	for i, asg := range assignments {
		tokenses[i] = asg.Tokens
	}
	keywords, err := TopKeywords(tokenses, a.themes.TopTerms)
	if err != nil {
		return err
	}

	if err := a.writeFrequencyTable(frequencies); err != nil {
		return err
	}
	if err := a.writeQuotesTable(quotes); err != nil {
		return err
	}
	if err := a.writeChart(frequencies, len(responses)); err != nil {
		return err
	}
	if err := a.writeReport(frequencies, quotes, keywords, len(responses)); err != nil {
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"themes":    len(frequencies),
		"responses": len(responses),
	}).Info("Theme analysis complete")
	return nil
}

func (a *Analyzer) writeFrequencyTable(frequencies []ThemeFrequency) error {
	t := &models.Table{Columns: []string{"theme", "count", "percentage", "description"}}
	for _, f := range frequencies {
		t.Rows = append(t.Rows, []string{
			f.Theme,
			analysis.FormatStat(float64(f.Count), analysis.StatCount),
			analysis.FormatFloat(f.Percentage),
			f.Description,
		})
	}
	_, err := a.out.WriteTable("sustainability_themes_frequency.csv", t, "Theme frequency table")
	return err
}

func (a *Analyzer) writeQuotesTable(quotes []ThemeQuotes) error {
	t := &models.Table{Columns: []string{"theme", "quote"}}
	for _, tq := range quotes {
		for _, quote := range tq.Quotes {
			t.Rows = append(t.Rows, []string{tq.Theme, quote})
		}
	}
	_, err := a.out.WriteTable("sustainability_themes_quotes.csv", t, "Representative quotes per theme")
	return err
}

func (a *Analyzer) writeChart(frequencies []ThemeFrequency, responses int) error {
	s := models.Series{}
	for _, f := range frequencies {
		s.Labels = append(s.Labels, f.Theme)
		s.Values = append(s.Values, f.Percentage)
	}
	title := fmt.Sprintf("Distribution of Sustainability Optimization Themes\n(N=%d responses)", responses)
	p, err := a.charts.Bars(title, "Sustainability Optimization Themes",
		"Percentage of Responses (%)", s, report.BarsOptions{
			Colors:      []string{a.style.Colors.Fallback},
			ValueFormat: "%.1f%%",
		})
	if err != nil {
		return err
	}
	return a.charts.Save(p, a.style.Figures.Single,
		"themes/sustainability_themes_chart.png", "Theme frequency chart")
}

func (a *Analyzer) writeReport(frequencies []ThemeFrequency, quotes []ThemeQuotes, keywords []Keyword, responses int) error {
	var b strings.Builder
	err := reportTemplate.Execute(&b, struct {
		Responses   int
		Frequencies []ThemeFrequency
		Quotes      []ThemeQuotes
		Keywords    []Keyword
	}{responses, frequencies, quotes, keywords})
	if err != nil {
		return fmt.Errorf("failed to render themes report: %w", err)
	}
	_, err = a.out.WriteReport("sustainability_themes_report.md", b.String(), "Theme analysis report")
	return err
}
