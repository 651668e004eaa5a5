package headless

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ArtifactWriter handles writing execution artifacts
type ArtifactWriter struct {
	outputDir string
	config    ArtifactConfig
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string, config ArtifactConfig) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
		config:    config,
	}
}

// OutputDir returns the directory artifacts are written to
func (w *ArtifactWriter) OutputDir() string { return w.outputDir }

// WriteAll writes all configured artifact formats
func (w *ArtifactWriter) WriteAll(summary *ExecutionSummary) error {
	if !w.config.Enabled {
		return nil
	}

	// Ensure output directory exists
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if w.config.JSON {
		if err := w.WriteExecutionJSON(summary); err != nil {
			return fmt.Errorf("failed to write execution JSON: %w", err)
		}
	}

	if w.config.Markdown {
		if err := w.WriteSummaryMarkdown(summary); err != nil {
			return fmt.Errorf("failed to write summary markdown: %w", err)
		}
	}

	if w.config.Metrics {
		if err := w.WriteMetricsJSON(summary); err != nil {
			return fmt.Errorf("failed to write metrics JSON: %w", err)
		}
	}

	return nil
}

// WriteFile writes a step output such as a screenshot under the output
// directory and returns its path. Absolute names are used as given.
func (w *ArtifactWriter) WriteFile(name string, data []byte) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.outputDir, name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// WriteExecutionJSON writes the full execution summary as JSON
func (w *ArtifactWriter) WriteExecutionJSON(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "execution.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write execution JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "summary.md")

	var md strings.Builder

	// Header
	md.WriteString("# Pagehand Script Summary\n\n")
	md.WriteString(fmt.Sprintf("**Script:** %s\n\n", summary.Name))
	md.WriteString(fmt.Sprintf("**Status:** %s\n\n", summary.Status))
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration))

	// Result
	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		md.WriteString(fmt.Sprintf("❌ **Error:** %s\n\n", summary.Error))
	} else {
		md.WriteString("✅ **Success**\n\n")
	}

	// Steps
	if len(summary.Steps) > 0 {
		md.WriteString("## Steps\n\n")
		for _, step := range summary.Steps {
			status := "✅"
			if step.Error != "" {
				status = "❌"
			}
			md.WriteString(fmt.Sprintf("%s %d. **%s** (%s, %s)\n", status, step.Index, step.Name, step.Kind, step.Duration.Round(time.Millisecond)))
			if step.URL != "" {
				md.WriteString(fmt.Sprintf("   URL: %s\n", step.URL))
			}
			if step.Artifact != "" {
				md.WriteString(fmt.Sprintf("   Artifact: `%s`\n", step.Artifact))
			}
			if step.Error != "" {
				md.WriteString(fmt.Sprintf("   Error: %s\n", step.Error))
			}
		}
		md.WriteString("\n")
	}

	// Tabs
	if len(summary.Pages) > 0 {
		md.WriteString("## Tabs\n\n")
		for _, page := range summary.Pages {
			marker := ""
			if page.Active {
				marker = " (active)"
			}
			md.WriteString(fmt.Sprintf("- `%s` %s%s\n", page.ID, page.URL, marker))
		}
		md.WriteString("\n")
	}

	// Metrics
	md.WriteString("## Metrics\n\n")
	md.WriteString(fmt.Sprintf("- **Steps Run:** %d\n", summary.Metrics.StepsRun))
	md.WriteString(fmt.Sprintf("- **Steps Failed:** %d\n", summary.Metrics.StepsFailed))
	md.WriteString(fmt.Sprintf("- **Actions:** %d\n", summary.Metrics.Actions))
	md.WriteString(fmt.Sprintf("- **Navigations:** %d\n", summary.Metrics.Navigations))
	md.WriteString(fmt.Sprintf("- **Tabs Opened:** %d\n", summary.Metrics.PagesOpened))
	md.WriteString(fmt.Sprintf("- **Screenshots:** %d\n", summary.Metrics.Screenshots))
	md.WriteString(fmt.Sprintf("- **PDF Pages:** %d\n", summary.Metrics.PDFPages))

	// Write file
	if writeErr := os.WriteFile(path, []byte(md.String()), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}

	return nil
}

// WriteMetricsJSON writes execution metrics as JSON
func (w *ArtifactWriter) WriteMetricsJSON(summary *ExecutionSummary) error {
	path := filepath.Join(w.outputDir, "metrics.json")

	data, err := json.MarshalIndent(summary.Metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write metrics JSON: %w", writeErr)
	}

	return nil
}

// CountPDFPages validates a rendered PDF and returns its page count.
func CountPDFPages(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}

// ExecutionSummary contains a complete summary of a script run
type ExecutionSummary struct {
	Name       string           `json:"name"`
	Status     string           `json:"status"`
	Error      string           `json:"error,omitempty"`
	StartTime  time.Time        `json:"start_time"`
	EndTime    time.Time        `json:"end_time"`
	Duration   time.Duration    `json:"duration"`
	Steps      []StepResult     `json:"steps"`
	Pages      []PageSummary    `json:"pages,omitempty"`
	VisitedURL []string         `json:"visited_urls,omitempty"`
	Artifacts  []string         `json:"artifacts,omitempty"`
	Metrics    ExecutionMetrics `json:"metrics"`
}

// StepResult records the outcome of one step
type StepResult struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Kind     StepKind      `json:"kind"`
	Duration time.Duration `json:"duration"`
	URL      string        `json:"url,omitempty"`
	Artifact string        `json:"artifact,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// PageSummary describes a tab open at the end of the run
type PageSummary struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Active bool   `json:"active"`
}

// ExecutionMetrics contains execution metrics
type ExecutionMetrics struct {
	StepsRun    int `json:"steps_run"`
	StepsFailed int `json:"steps_failed"`
	Actions     int `json:"actions"`
	Navigations int `json:"navigations"`
	PagesOpened int `json:"pages_opened"`
	Screenshots int `json:"screenshots"`
	PDFPages    int `json:"pdf_pages"`
}
