package headless

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testSummary() *ExecutionSummary {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &ExecutionSummary{
		Name:      "checkout",
		Status:    statusPartialSuccess,
		Error:     "1 of 2 steps failed",
		StartTime: start,
		EndTime:   start.Add(3 * time.Second),
		Duration:  3 * time.Second,
		Steps: []StepResult{
			{Index: 1, Name: "open", Kind: StepGoto, URL: "https://shop.test/"},
			{Index: 2, Name: "expect cart", Kind: StepExpectURL, Error: "url mismatch"},
		},
		Pages:   []PageSummary{{ID: "p1", URL: "https://shop.test/", Active: true}},
		Metrics: ExecutionMetrics{StepsRun: 2, StepsFailed: 1, Navigations: 1},
	}
}

func TestArtifactWriter_WriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewArtifactWriter(dir, ArtifactConfig{Enabled: true, JSON: true, Markdown: true, Metrics: true})

	if err := w.WriteAll(testSummary()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "execution.json"))
	if err != nil {
		t.Fatalf("execution.json: %v", err)
	}
	var decoded ExecutionSummary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("execution.json is not valid JSON: %v", err)
	}
	if decoded.Name != "checkout" || len(decoded.Steps) != 2 {
		t.Errorf("decoded summary = %+v", decoded)
	}

	md, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	if err != nil {
		t.Fatalf("summary.md: %v", err)
	}
	for _, want := range []string{"**Script:** checkout", "✅ 1. **open**", "❌ 2. **expect cart**", "Error: url mismatch", "`p1` https://shop.test/ (active)", "**Steps Failed:** 1"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("summary.md missing %q", want)
		}
	}

	metrics, err := os.ReadFile(filepath.Join(dir, "metrics.json"))
	if err != nil {
		t.Fatalf("metrics.json: %v", err)
	}
	if !strings.Contains(string(metrics), `"steps_failed": 1`) {
		t.Errorf("metrics.json = %s", metrics)
	}
}

func TestArtifactWriter_Flags(t *testing.T) {
	dir := t.TempDir()

	disabled := NewArtifactWriter(filepath.Join(dir, "off"), ArtifactConfig{Enabled: false, JSON: true})
	if err := disabled.WriteAll(testSummary()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "off")); !os.IsNotExist(err) {
		t.Error("disabled writer created its output directory")
	}

	onlyMetrics := NewArtifactWriter(dir, ArtifactConfig{Enabled: true, Metrics: true})
	if err := onlyMetrics.WriteAll(testSummary()); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "metrics.json")); err != nil {
		t.Errorf("metrics.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "execution.json")); !os.IsNotExist(err) {
		t.Error("execution.json written although JSON is off")
	}
}

func TestArtifactWriter_WriteFile(t *testing.T) {
	dir := t.TempDir()
	w := NewArtifactWriter(dir, ArtifactConfig{Enabled: true})

	path, err := w.WriteFile("shots/home.png", []byte("png"))
	if err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if path != filepath.Join(dir, "shots", "home.png") {
		t.Errorf("WriteFile() path = %q", path)
	}

	abs := filepath.Join(t.TempDir(), "page.pdf")
	path, err = w.WriteFile(abs, []byte("%PDF"))
	if err != nil {
		t.Fatalf("WriteFile(abs) error = %v", err)
	}
	if path != abs {
		t.Errorf("WriteFile(abs) path = %q, want %q", path, abs)
	}
}

func TestCountPDFPages_Invalid(t *testing.T) {
	if _, err := CountPDFPages([]byte("not a pdf")); err == nil {
		t.Error("CountPDFPages() error = nil for invalid input")
	}
}
