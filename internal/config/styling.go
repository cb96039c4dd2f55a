// Package config holds the run configuration for the analysis pipelines:
// chart styling, the survey question catalog, and the theme table. Each
// loader falls back to built-in defaults when no file is present; a file
// that exists but fails to parse is an error the caller must treat as
// fatal before writing any output.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Styling is the chart cosmetics configuration.
type Styling struct {
	Font    FontConfig   `yaml:"font"`
	Colors  ColorConfig  `yaml:"colors"`
	Figures FigureConfig `yaml:"figures"`
	Output  OutputConfig `yaml:"output"`
}

// FontConfig contains font family and per-element sizes in points.
type FontConfig struct {
	Family string    `yaml:"family"`
	Sizes  FontSizes `yaml:"sizes"`
}

// FontSizes are points at the configured output DPI.
type FontSizes struct {
	Title     float64 `yaml:"title"`
	AxisLabel float64 `yaml:"axis_label"`
	TickLabel float64 `yaml:"tick_label"`
	Legend    float64 `yaml:"legend"`
	Value     float64 `yaml:"value"`
}

// ColorConfig holds the named palettes. Values are #RRGGBB strings.
type ColorConfig struct {
	Modes      []string `yaml:"modes"`
	Blues      []string `yaml:"blues"`
	LightBlues []string `yaml:"light_blues"`
	Scientific []string `yaml:"scientific"`
	Highlight  string   `yaml:"highlight"`
	Fallback   string   `yaml:"fallback"`
}

// FigureConfig holds preset figure dimensions in inches.
type FigureConfig struct {
	Single FigureSize `yaml:"single"`
	Dual   FigureSize `yaml:"dual"`
	Quad   FigureSize `yaml:"quad"`
}

type FigureSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// OutputConfig holds raster output settings. StackedLabelMinPct is the
// smallest stacked segment that still gets an in-bar label;
// BarValueLabelOffset places bar value labels, as a percentage of the
// value axis range above the bar top.
type OutputConfig struct {
	DPI                 int     `yaml:"dpi"`
	Background          string  `yaml:"background"`
	StackedLabelMinPct  float64 `yaml:"stacked_label_min_pct"`
	BarValueLabelOffset float64 `yaml:"bar_value_label_offset"`
}

// DefaultStyling returns the built-in styling used when no file is given.
func DefaultStyling() *Styling {
	return &Styling{
		Font: FontConfig{
			Family: "Liberation Serif",
			Sizes: FontSizes{
				Title:     56,
				AxisLabel: 52,
				TickLabel: 35,
				Legend:    36,
				Value:     30,
			},
		},
		Colors: ColorConfig{
			Modes:      []string{"#2E8B57", "#FFD700", "#DC143C"},
			Blues:      []string{"#42A5F5", "#1976D2", "#0D47A1"},
			Scientific: []string{"#1f77b4", "#ff7f0e", "#2ca02c"},
			Highlight:  "#2E86C1",
			Fallback:   "#1f77b4",
		},
		Figures: FigureConfig{
			Single: FigureSize{Width: 16, Height: 12},
			Dual:   FigureSize{Width: 32, Height: 12},
			Quad:   FigureSize{Width: 32, Height: 24},
		},
		Output: OutputConfig{
			DPI:                 300,
			Background:          "#FFFFFF",
			StackedLabelMinPct:  15,
			BarValueLabelOffset: 2,
		},
	}
}

// LoadStyling reads a styling file. An empty path or a missing file
// yields the defaults; a present but unparsable file is an error.
func LoadStyling(path string) (*Styling, error) {
	if path == "" {
		return DefaultStyling(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultStyling(), nil
		}
		return nil, fmt.Errorf("failed to read styling file: %w", err)
	}
	cfg := DefaultStyling()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse styling file: %w", err)
	}
	return cfg, nil
}
