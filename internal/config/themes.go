package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme is one hand-curated label with the keyword set that assigns it.
type Theme struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Description string   `yaml:"description"`
}

// ThemeTable is the single data-driven table behind both theme
// classification and reporting, plus the topic-model settings used by
// the fallback path.
type ThemeTable struct {
	Themes             []Theme `yaml:"themes"`
	GeneralDescription string  `yaml:"general_description"`
	Topics             int     `yaml:"topics"`
	Seed               uint64  `yaml:"seed"`
	Iterations         int     `yaml:"iterations"`
	TopTerms           int     `yaml:"top_terms"`
	MaxQuotes          int     `yaml:"max_quotes"`
}

// GeneralTheme is the catch-all label for responses matching no theme.
const GeneralTheme = "General"

// DefaultThemeTable returns the built-in theme table.
func DefaultThemeTable() *ThemeTable {
	return &ThemeTable{
		Themes: []Theme{
			{
				Name:        "Awareness/Transparency",
				Keywords:    []string{"transparency", "awareness", "information", "disclosure", "visible", "show"},
				Description: "Focus on making environmental impact visible and transparent to users.",
			},
			{
				Name:        "Policy/Tax/Offsets",
				Keywords:    []string{"tax", "policy", "offset", "fee", "regulation", "government", "carbon"},
				Description: "Policy-based solutions including taxation, carbon offsets, and regulatory approaches.",
			},
			{
				Name:        "Model/Algorithm Efficiency",
				Keywords:    []string{"algorithm", "model", "efficiency", "optimization", "sparse", "moe", "reinforcement"},
				Description: "Technical improvements to AI models and algorithms for better energy efficiency.",
			},
			{
				Name:        "Infrastructure/Green Energy",
				Keywords:    []string{"infrastructure", "green", "energy", "data", "centre", "center", "cooling", "renewable"},
				Description: "Infrastructure improvements including green energy and efficient data centers.",
			},
			{
				Name:        "Usage Scope/Limitations",
				Keywords:    []string{"limit", "entertainment", "meaningful", "purpose", "scope", "restrict", "boundary"},
				Description: "Limiting AI usage to meaningful purposes and avoiding unnecessary applications.",
			},
			{
				Name:        "Pricing/Responsibility",
				Keywords:    []string{"pricing", "cost", "responsibility", "customer", "provider", "service", "charge"},
				Description: "Economic mechanisms and responsibility sharing between providers and users.",
			},
			{
				Name:        "Alternative Solutions",
				Keywords:    []string{"alternative", "google", "search", "tool", "deepl", "replace", "substitute"},
				Description: "Using alternative, more efficient tools instead of heavy AI models.",
			},
			{
				Name:        "Bias/Social Impact",
				Keywords:    []string{"bias", "social", "training", "data", "influence", "individual", "dimension"},
				Description: "Addressing AI bias and broader social sustainability implications.",
			},
		},
		GeneralDescription: "General sustainability considerations",
		Topics:             8,
		Seed:               42,
		Iterations:         100,
		TopTerms:           10,
		MaxQuotes:          3,
	}
}

// LoadThemeTable reads a theme table. An empty path or a missing file
// yields the defaults; a present but unparsable file is an error.
func LoadThemeTable(path string) (*ThemeTable, error) {
	if path == "" {
		return DefaultThemeTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultThemeTable(), nil
		}
		return nil, fmt.Errorf("failed to read theme table: %w", err)
	}
	cfg := DefaultThemeTable()
	cfg.Themes = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse theme table: %w", err)
	}
	if len(cfg.Themes) == 0 {
		return nil, fmt.Errorf("theme table %s declares no themes", path)
	}
	return cfg, nil
}
