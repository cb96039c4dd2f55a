package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ecochat-research/analysis/internal/config"
	"github.com/ecochat-research/analysis/internal/models"
)

func fixedClock() time.Time {
	return time.Date(2025, 4, 1, 12, 30, 0, 0, time.UTC)
}

func TestOutputWriteTableAndManifest(t *testing.T) {
	root := t.TempDir()
	out := NewOutputAt(root, fixedClock)

	if out.Version() != "20250401_123000" {
		t.Fatalf("version = %q, want fixed-clock version", out.Version())
	}

	table := &models.Table{
		Columns: []string{"mode_name", "mean_energy_wh"},
		Rows: [][]string{
			{"Balanced", "1.250"},
			{"Performance", ""},
		},
	}
	path, err := out.WriteTable("mode_energy_analysis.csv", table, "per-mode energy")
	if err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	got := string(data)
	if !strings.HasPrefix(got, "mode_name,mean_energy_wh\n") {
		t.Fatalf("csv header missing: %q", got)
	}
	if !strings.Contains(got, "Performance,\n") {
		t.Fatalf("empty cell should stay empty in csv: %q", got)
	}

	if _, err := out.WriteReport("summary.md", "# Summary\n", "run summary"); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	manifestPath, err := out.WriteManifest()
	if err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(m.Files) != 2 {
		t.Fatalf("manifest lists %d files, want 2", len(m.Files))
	}
	if m.Files[0].Path != "data/mode_energy_analysis.csv" {
		t.Fatalf("manifest path = %q, want relative data path", m.Files[0].Path)
	}
	if m.Files[1].Type != "report" {
		t.Fatalf("manifest type = %q, want report", m.Files[1].Type)
	}
	if m.RunID != out.RunID() || len(m.RunID) != 8 {
		t.Fatalf("manifest run id = %q, want 8-char run id %q", m.RunID, out.RunID())
	}

	counts := out.Summary()
	if counts["data"] != 1 || counts["report"] != 1 {
		t.Fatalf("summary = %v, want one data and one report artifact", counts)
	}
}

func TestOutputNestedPlotPath(t *testing.T) {
	root := t.TempDir()
	out := NewOutputAt(root, fixedClock)

	path, err := out.PlotPath("environmental/env_concern.png")
	if err != nil {
		t.Fatalf("PlotPath: %v", err)
	}
	want := filepath.Join(root, "plots", "environmental", "env_concern.png")
	if path != want {
		t.Fatalf("plot path = %q, want %q", path, want)
	}
	if fi, err := os.Stat(filepath.Dir(path)); err != nil || !fi.IsDir() {
		t.Fatalf("parent directory not created: %v", err)
	}
}

func TestChartsSaveRendersPNG(t *testing.T) {
	root := t.TempDir()
	out := NewOutputAt(root, fixedClock)
	style := config.DefaultStyling()
	charts := NewCharts(style, out)

	p, err := charts.Bars("Energy by Mode", "Mode", "Wh", models.Series{
		Labels: []string{"Energy Efficient", "Balanced", "Performance"},
		Values: []float64{0.5, 1.2, 2.4},
	}, BarsOptions{ValueFormat: "%.1f"})
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if err := charts.Save(p, style.Figures.Single, "energy.png", "test chart"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "plots", "energy.png"))
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("output is not a png (%d bytes)", len(data))
	}

	files := out.Files()
	if len(files) != 1 || files[0].Type != "plot" {
		t.Fatalf("files = %+v, want one tracked plot", files)
	}
}

func TestMarkdownTable(t *testing.T) {
	got := MarkdownTable([]string{"a", "b"}, [][]string{{"1", "2"}})
	want := "| a | b |\n| --- | --- |\n| 1 | 2 |\n"
	if got != want {
		t.Fatalf("markdown table = %q, want %q", got, want)
	}
}
