//go:build integration

package integration_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecochat-research/analysis/internal/analysis"
	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/dataset"
	"github.com/ecochat-research/analysis/internal/report"
	"github.com/ecochat-research/analysis/internal/survey"
	"github.com/ecochat-research/analysis/internal/themes"
)

const promptsJSON = `[
	{"id":"p1","userId":"u1","conversationId":"c1","chatMode":0,
	 "sentAt":"2024-11-18T09:00:00Z","createdAt":"2024-11-18T09:00:00Z",
	 "usage":{"numberOfInputTokens":120,"numberOfOutputTokens":80,"usageInWh":0.4},
	 "responseText":"short answer","isSent":true,"historyLimit":5},
	{"id":"p2","userId":"u1","conversationId":"c1","chatMode":1,
	 "sentAt":"2024-11-18T09:10:00Z","createdAt":"2024-11-18T09:10:00Z",
	 "usage":{"numberOfInputTokens":200,"numberOfOutputTokens":150,"usageInWh":0.9},
	 "responseText":"a noticeably longer answer","isSent":true,"historyLimit":5},
	{"id":"p3","userId":"u2","conversationId":"c2","chatMode":2,
	 "sentAt":"2024-11-19T14:30:00Z","createdAt":"2024-11-19T14:30:00Z",
	 "usage":{"numberOfInputTokens":300,"numberOfOutputTokens":250,"usageInWh":2.1},
	 "responseText":"the most detailed answer of all","isSent":true,"historyLimit":10},
	{"id":"p4","userId":"u2","conversationId":"c2","chatMode":2,
	 "sentAt":"2024-11-19T14:45:00Z","createdAt":"2024-11-19T14:45:00Z",
	 "usage":{"numberOfInputTokens":"oops","numberOfOutputTokens":100,"usageInWh":1.5},
	 "responseText":"another answer","isSent":true,"historyLimit":10}
]`

const surveyCSV = "Which age group do you belong to?," +
	"How concerned are you about the environmental impact of technology?," +
	"Would you prefer a chatbot with a smaller carbon footprint?," +
	"How could chatbots be used more sustainably?\n" +
	"25-34,4,5,More transparency about energy use per conversation\n" +
	"35-44,3,4,A carbon tax for AI providers would help\n" +
	"25-34,5,5,xylophone marmalade\n"

func testCatalog() *config.Survey {
	return &config.Survey{
		Questions: []config.Question{
			{
				Key:      "age_distribution",
				Column:   "Which age group do you belong to?",
				Title:    "Age Distribution",
				Kind:     config.KindCategorical,
				Category: "demographics",
			},
			{
				Key:      "concern_level",
				Column:   "How concerned are you about the environmental impact of technology?",
				Title:    "Environmental Concern",
				Kind:     config.KindLikert,
				Category: "environmental",
			},
			{
				Key:      "eco_friendly_preference",
				Column:   "Would you prefer a chatbot with a smaller carbon footprint?",
				Title:    "Eco-Friendly Preference",
				Kind:     config.KindLikert,
				Category: "environmental",
			},
			{
				Key:      "sustainability_ideas",
				Column:   "How could chatbots be used more sustainably?",
				Title:    "Sustainability Ideas",
				Kind:     config.KindFreeText,
				Category: "themes",
			},
		},
		Combined: []config.CombinedChart{
			{
				Key:   "environmental_preferences_combined",
				Title: "Environmental Preferences Comparison",
				Questions: []config.CombinedQuestion{
					{Key: "concern_level", Title: "Concern"},
					{Key: "eco_friendly_preference", Title: "Preference"},
				},
			},
		},
		Reliability: []config.Reliability{
			{Name: "environmental", Keys: []string{"concern_level", "eco_friendly_preference"}},
		},
	}
}

func TestFullPipeline(t *testing.T) {
	inputDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inputDir, dataset.PromptsFile), []byte(promptsJSON), 0o644); err != nil {
		t.Fatalf("write prompts: %v", err)
	}
	surveyPath := filepath.Join(inputDir, "survey.csv")
	if err := os.WriteFile(surveyPath, []byte(surveyCSV), 0o644); err != nil {
		t.Fatalf("write survey: %v", err)
	}

	outRoot := t.TempDir()
	style := config.DefaultStyling()
	out := report.NewOutput(outRoot)

	ex, err := dataset.NewLoader(inputDir).Load()
	if err != nil {
		t.Fatalf("load experiment: %v", err)
	}
	records, err := analysis.Normalize(ex.Prompts)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("normalized %d records, want 4", len(records))
	}

	analyzers := []func([]analysis.Record, *config.Styling, *report.Output) error{
		analysis.EnergyByMode,
		analysis.UserBehavior,
		analysis.Tradeoffs,
		analysis.DailyUsage,
		analysis.KeyInsights,
	}
	for _, run := range analyzers {
		if err := run(records, style, out); err != nil {
			t.Fatalf("experiment analyzer: %v", err)
		}
	}

	table, err := dataset.LoadSurveyTable(surveyPath)
	if err != nil {
		t.Fatalf("load survey: %v", err)
	}
	catalog := testCatalog()
	if err := survey.NewAnalyzer(table, catalog, style, out).Run(); err != nil {
		t.Fatalf("survey pipeline: %v", err)
	}
	if err := themes.NewAnalyzer(table, catalog, config.DefaultThemeTable(), style, out).Run(); err != nil {
		t.Fatalf("theme pipeline: %v", err)
	}
	if _, err := out.WriteManifest(); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	wantFiles := []string{
		"data/mode_energy_analysis.csv",
		"data/token_efficiency_analysis.csv",
		"data/user_mode_switching_analysis.csv",
		"data/daily_usage_percentages.csv",
		"data/energy_savings_summary.csv",
		"data/age_distribution_distribution.csv",
		"data/likert_reliability.csv",
		"data/sustainability_themes_frequency.csv",
		"data/sustainability_themes_quotes.csv",
		"plots/energy_consumption_by_mode.png",
		"plots/mode_switching_patterns.png",
		"plots/performance_tradeoff_matrix.png",
		"plots/daily_usage_stacked_bars.png",
		"plots/demographics/age_distribution.png",
		"plots/environmental/environmental_preferences_combined.png",
		"plots/themes/sustainability_themes_chart.png",
		"reports/energy_analysis_report.md",
		"reports/survey_summary.md",
		"reports/sustainability_themes_report.md",
		"reports/generation_metadata.json",
	}
	for _, rel := range wantFiles {
		if _, err := os.Stat(filepath.Join(outRoot, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing artifact %s: %v", rel, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(outRoot, "reports", "generation_metadata.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest report.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if manifest.RunID != out.RunID() {
		t.Fatalf("manifest run id = %q, want %q", manifest.RunID, out.RunID())
	}
	// Every artifact except the manifest itself is tracked.
	if len(manifest.Files) < len(wantFiles)-1 {
		t.Fatalf("manifest lists %d files, want at least %d", len(manifest.Files), len(wantFiles)-1)
	}
}
