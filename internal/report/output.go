// Package report renders analysis results to disk: CSV tables, PNG
// charts, Markdown reports, and the generation manifest. Every artifact
// is produced at a deterministic relative path under one output root;
// parent directories are created on demand.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/ecochat-research/analysis/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileRecord is one produced artifact in the run manifest.
type FileRecord struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Manifest is the generation metadata written alongside the reports.
type Manifest struct {
	GeneratedAt string       `json:"generated_at"`
	Version     string       `json:"version"`
	RunID       string       `json:"run_id"`
	Files       []FileRecord `json:"files_created"`
}

// Output owns one output root for one run. Construct a fresh value per
// pipeline run; it is never shared package state, so runs with different
// roots can coexist in one process.
type Output struct {
	root    string
	now     func() time.Time
	version string
	runID   string
	files   []FileRecord
}

// NewOutput returns an output manager rooted at root.
func NewOutput(root string) *Output {
	return NewOutputAt(root, time.Now)
}

// NewOutputAt injects the clock used for the version string and file
// timestamps.
func NewOutputAt(root string, now func() time.Time) *Output {
	return &Output{
		root:    root,
		now:     now,
		version: now().Format("20060102_150405"),
		runID:   shortID(8),
	}
}

func shortID(n int) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Version is the run version string, fixed at construction time.
func (o *Output) Version() string { return o.version }

// RunID identifies this run in the manifest.
func (o *Output) RunID() string { return o.runID }

// Root returns the output root directory.
func (o *Output) Root() string { return o.root }

// PlotPath resolves a path under plots/, creating parent directories.
func (o *Output) PlotPath(subpath string) (string, error) { return o.ensure("plots", subpath) }

// DataPath resolves a path under data/, creating parent directories.
func (o *Output) DataPath(subpath string) (string, error) { return o.ensure("data", subpath) }

// ReportPath resolves a path under reports/, creating parent directories.
func (o *Output) ReportPath(subpath string) (string, error) { return o.ensure("reports", subpath) }

func (o *Output) ensure(kind, subpath string) (string, error) {
	path := filepath.Join(o.root, kind, filepath.FromSlash(subpath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory for %s: %w", subpath, err)
	}
	return path, nil
}

// Track records a produced artifact for the manifest.
func (o *Output) Track(path, kind, description string) {
	rel, err := filepath.Rel(o.root, path)
	if err != nil {
		rel = path
	}
	o.files = append(o.files, FileRecord{
		Path:        filepath.ToSlash(rel),
		Type:        kind,
		Description: description,
		CreatedAt:   o.now().Format(time.RFC3339),
	})
}

// Files returns the tracked artifacts in creation order.
func (o *Output) Files() []FileRecord {
	out := make([]FileRecord, len(o.files))
	copy(out, o.files)
	return out
}

// Summary returns artifact counts by type.
func (o *Output) Summary() map[string]int {
	counts := make(map[string]int)
	for _, f := range o.files {
		counts[f.Type]++
	}
	return counts
}

// WriteTable encodes a table as CSV under data/ and tracks it.
func (o *Output) WriteTable(subpath string, t *models.Table, description string) (string, error) {
	data, err := MarshalTable(t)
	if err != nil {
		return "", err
	}
	path, err := o.DataPath(subpath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", subpath, err)
	}
	o.Track(path, "data", description)
	return path, nil
}

// WriteReport writes a Markdown report under reports/ and tracks it.
func (o *Output) WriteReport(subpath, content, description string) (string, error) {
	path, err := o.ReportPath(subpath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", subpath, err)
	}
	o.Track(path, "report", description)
	return path, nil
}

// WriteManifest writes reports/generation_metadata.json listing every
// artifact produced by this run.
func (o *Output) WriteManifest() (string, error) {
	path, err := o.ReportPath("generation_metadata.json")
	if err != nil {
		return "", err
	}
	m := Manifest{
		GeneratedAt: o.now().Format(time.RFC3339),
		Version:     o.version,
		RunID:       o.runID,
		Files:       o.files,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
