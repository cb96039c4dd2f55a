package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadStylingDefaults(t *testing.T) {
	cfg, err := LoadStyling("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.DPI != 300 {
		t.Fatalf("default dpi = %d, want 300", cfg.Output.DPI)
	}
	if len(cfg.Colors.Modes) != 3 {
		t.Fatalf("default mode palette has %d colors, want 3", len(cfg.Colors.Modes))
	}

	cfg, err = LoadStyling(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if cfg.Figures.Quad.Width != 32 {
		t.Fatalf("quad width = %v, want 32", cfg.Figures.Quad.Width)
	}
}

func TestLoadStylingOverride(t *testing.T) {
	path := writeTemp(t, "styles.yaml", "output:\n  dpi: 96\n")
	cfg, err := LoadStyling(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Output.DPI != 96 {
		t.Fatalf("dpi = %d, want overridden 96", cfg.Output.DPI)
	}
	// Untouched sections keep their defaults.
	if cfg.Font.Sizes.Title != 56 {
		t.Fatalf("title size = %v, want default 56", cfg.Font.Sizes.Title)
	}
}

func TestLoadStylingParseFailure(t *testing.T) {
	path := writeTemp(t, "styles.yaml", "output: [not: a: map\n")
	if _, err := LoadStyling(path); err == nil {
		t.Fatalf("expected parse error for malformed styling file")
	}
}

func TestDefaultSurveyCatalog(t *testing.T) {
	s := DefaultSurvey()
	if len(s.Questions) != 16 {
		t.Fatalf("catalog has %d questions, want 16", len(s.Questions))
	}
	q, ok := s.ByKey("concern_level")
	if !ok {
		t.Fatalf("concern_level missing from catalog")
	}
	if q.Kind != KindLikert {
		t.Fatalf("concern_level kind = %q, want likert", q.Kind)
	}
	if _, ok := s.FreeTextQuestion(); !ok {
		t.Fatalf("catalog has no free-text question")
	}
	for _, cc := range s.Combined {
		for _, cq := range cc.Questions {
			if _, ok := s.ByKey(cq.Key); !ok {
				t.Fatalf("combined chart %q references unknown question %q", cc.Key, cq.Key)
			}
		}
	}
	for _, r := range s.Reliability {
		if len(r.Keys) < 2 {
			t.Fatalf("reliability battery %q has fewer than 2 items", r.Name)
		}
		for _, k := range r.Keys {
			q, ok := s.ByKey(k)
			if !ok {
				t.Fatalf("reliability battery %q references unknown question %q", r.Name, k)
			}
			if q.Kind != KindLikert {
				t.Fatalf("reliability item %q is %q, want likert", k, q.Kind)
			}
		}
	}
}

func TestLoadSurvey(t *testing.T) {
	path := writeTemp(t, "questions.yaml", `
questions:
  - key: mood
    column: "How do you feel?"
    title: Mood
    kind: likert
    category: wellbeing
`)
	s, err := LoadSurvey(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Questions) != 1 || s.Questions[0].Key != "mood" {
		t.Fatalf("unexpected catalog: %+v", s.Questions)
	}

	empty := writeTemp(t, "empty.yaml", "questions: []\n")
	if _, err := LoadSurvey(empty); err == nil {
		t.Fatalf("expected error for catalog with no questions")
	}

	bad := writeTemp(t, "bad.yaml", "questions: {oops\n")
	if _, err := LoadSurvey(bad); err == nil {
		t.Fatalf("expected parse error for malformed catalog")
	}
}

func TestDefaultThemeTable(t *testing.T) {
	tt := DefaultThemeTable()
	if len(tt.Themes) != 8 {
		t.Fatalf("theme table has %d themes, want 8", len(tt.Themes))
	}
	if tt.Seed != 42 || tt.Topics != 8 {
		t.Fatalf("topic settings = seed %d topics %d, want 42/8", tt.Seed, tt.Topics)
	}
	found := false
	for _, th := range tt.Themes {
		if th.Name != "Awareness/Transparency" {
			continue
		}
		found = true
		hasKeyword := false
		for _, kw := range th.Keywords {
			if kw == "transparency" {
				hasKeyword = true
			}
		}
		if !hasKeyword {
			t.Fatalf("Awareness/Transparency lost its transparency keyword")
		}
	}
	if !found {
		t.Fatalf("Awareness/Transparency theme missing")
	}
}

func TestLoadThemeTable(t *testing.T) {
	path := writeTemp(t, "themes.yaml", `
themes:
  - name: Hardware
    keywords: [gpu, chip]
    description: Hardware-level efficiency.
seed: 7
`)
	tt, err := LoadThemeTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tt.Themes) != 1 || tt.Themes[0].Name != "Hardware" {
		t.Fatalf("unexpected themes: %+v", tt.Themes)
	}
	if tt.Seed != 7 {
		t.Fatalf("seed = %d, want overridden 7", tt.Seed)
	}
	if tt.MaxQuotes != 3 {
		t.Fatalf("max quotes = %d, want default 3 preserved", tt.MaxQuotes)
	}

	bad := writeTemp(t, "bad.yaml", "themes: [}\n")
	if _, err := LoadThemeTable(bad); err == nil {
		t.Fatalf("expected parse error for malformed theme table")
	}
}
