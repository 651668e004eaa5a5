package headless

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LogLevel represents the logging verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only critical information (errors, warnings, final summary)
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows standard execution progress (default)
	LogLevelNormal
	// LogLevelVerbose shows detailed execution information
	LogLevelVerbose
	// LogLevelDebug shows all internal details for debugging
	LogLevelDebug
)

var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	mintGreen   = lipgloss.Color("#A8E6CF")
	skyBlue     = lipgloss.Color("#A0D2EB")
	amber       = lipgloss.Color("#FFD59E")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

type loggerStyles struct {
	header  lipgloss.Style
	section lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
}

func newLoggerStyles(r *lipgloss.Renderer) loggerStyles {
	return loggerStyles{
		header:  r.NewStyle().Foreground(brightWhite).Bold(true),
		section: r.NewStyle().Foreground(skyBlue),
		step:    r.NewStyle().Foreground(skyBlue).Bold(true),
		success: r.NewStyle().Foreground(mintGreen).Bold(true),
		info:    r.NewStyle().Foreground(salmonPink),
		warning: r.NewStyle().Foreground(amber),
		err:     r.NewStyle().Foreground(salmonPink).Bold(true),
		muted:   r.NewStyle().Foreground(mutedGray),
	}
}

// Logger prints run progress for a person watching a terminal or CI log
type Logger struct {
	level  LogLevel
	writer io.Writer
	styles loggerStyles

	// Execution state
	startTime time.Time
	stepCount int
}

// NewLogger creates a new logger writing to stdout
func NewLogger(level LogLevel) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a logger writing to w. Colors are dropped when w is
// not a terminal.
func NewLoggerTo(w io.Writer, level LogLevel) *Logger {
	return &Logger{
		level:     level,
		writer:    w,
		styles:    newLoggerStyles(lipgloss.NewRenderer(w)),
		startTime: time.Now(),
	}
}

func (l *Logger) line(style lipgloss.Style, s string) {
	fmt.Fprintln(l.writer, style.Render(s))
}

// Header prints a prominent header message
func (l *Logger) Header(message string) {
	if l.level >= LogLevelNormal {
		rule := strings.Repeat("=", 70)
		fmt.Fprintln(l.writer)
		l.line(l.styles.header, rule)
		l.line(l.styles.header, "  "+message)
		l.line(l.styles.header, rule)
	}
}

// Section prints a section divider
func (l *Logger) Section(title string) {
	if l.level >= LogLevelNormal {
		fmt.Fprintln(l.writer)
		l.line(l.styles.section, "▶ "+title)
		l.line(l.styles.muted, strings.Repeat("─", 50))
	}
}

// Step prints a numbered step in the execution
func (l *Logger) Step(message string) {
	if l.level >= LogLevelNormal {
		l.stepCount++
		l.line(l.styles.step, fmt.Sprintf("[%d] %s", l.stepCount, message))
	}
}

// Successf prints a success message with checkmark
func (l *Logger) Successf(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		l.line(l.styles.success, "✓ "+fmt.Sprintf(format, args...))
	}
}

// Infof prints an informational message
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= LogLevelNormal {
		l.line(l.styles.info, fmt.Sprintf(format, args...))
	}
}

// Warningf prints a warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.line(l.styles.warning, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints an error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.line(l.styles.err, "✗ Error: "+fmt.Sprintf(format, args...))
}

// Verbosef prints detailed information (only in verbose mode)
func (l *Logger) Verbosef(format string, args ...interface{}) {
	if l.level >= LogLevelVerbose {
		l.line(l.styles.muted, "→ "+fmt.Sprintf(format, args...))
	}
}

// Debugf prints debug information (only in debug mode)
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LogLevelDebug {
		l.line(l.styles.muted, "[DEBUG] "+fmt.Sprintf(format, args...))
	}
}

// Action logs an act step with formatting based on verbosity
func (l *Logger) Action(method, path string, args []string) {
	switch l.level {
	case LogLevelQuiet:
	case LogLevelNormal:
		l.line(l.styles.muted, fmt.Sprintf("  • %s %s", method, path))
	case LogLevelVerbose, LogLevelDebug:
		l.line(l.styles.section, fmt.Sprintf("  🖱 %s %s %q", method, path, args))
	}
}

// PageEvent logs a tab being opened or switched to
func (l *Logger) PageEvent(verb, id, url string) {
	if l.level >= LogLevelNormal {
		l.line(l.styles.info, fmt.Sprintf("  🗂 %s %s (%s)", verb, id, url))
	}
}

// Artifact logs a file written by a step
func (l *Logger) Artifact(path string, bytes int) {
	if l.level >= LogLevelNormal {
		l.line(l.styles.success, fmt.Sprintf("  📎 Wrote %s (%s bytes)", path, formatNumber(bytes)))
	}
}

// Summary prints a final execution summary
func (l *Logger) Summary(summary *ExecutionSummary) {
	l.printSummaryHeader()
	l.printStatus(summary.Status)
	l.printNameAndDuration(summary)
	l.printMetrics(summary)
	l.printSteps(summary)
	l.printError(summary)
	l.printSummaryFooter()
}

func (l *Logger) printSummaryHeader() {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(l.writer)
	l.line(l.styles.header, rule)
	l.line(l.styles.header, "  SCRIPT SUMMARY")
	l.line(l.styles.header, rule)
}

func (l *Logger) printStatus(status string) {
	var rendered string
	switch status {
	case statusSuccess:
		rendered = l.styles.success.Render("✓ SUCCESS")
	case statusPartialSuccess:
		rendered = l.styles.warning.Render("⚠ PARTIAL SUCCESS")
	case statusFailed:
		rendered = l.styles.err.Render("✗ FAILED")
	default:
		rendered = status
	}
	fmt.Fprintf(l.writer, "  Status: %s\n", rendered)
}

func (l *Logger) printNameAndDuration(summary *ExecutionSummary) {
	fmt.Fprintf(l.writer, "  Script: %s\n", summary.Name)
	fmt.Fprintf(l.writer, "  Duration: %s\n", summary.Duration.Round(time.Millisecond))
}

func (l *Logger) printMetrics(summary *ExecutionSummary) {
	m := summary.Metrics
	fmt.Fprintf(l.writer, "\n  📊 Metrics:\n")
	fmt.Fprintf(l.writer, "    Steps: %d run, %d failed\n", m.StepsRun, m.StepsFailed)
	fmt.Fprintf(l.writer, "    Actions: %d\n", m.Actions)
	fmt.Fprintf(l.writer, "    Navigations: %d\n", m.Navigations)
	if m.PagesOpened > 0 {
		fmt.Fprintf(l.writer, "    Tabs opened: %d\n", m.PagesOpened)
	}
	if m.Screenshots > 0 {
		fmt.Fprintf(l.writer, "    Screenshots: %d\n", m.Screenshots)
	}
	if m.PDFPages > 0 {
		fmt.Fprintf(l.writer, "    PDF pages: %s\n", formatNumber(m.PDFPages))
	}
}

func (l *Logger) printSteps(summary *ExecutionSummary) {
	if l.level < LogLevelVerbose || len(summary.Steps) == 0 {
		return
	}

	fmt.Fprintf(l.writer, "\n  🧭 Steps:\n")
	for _, step := range summary.Steps {
		if step.Error == "" {
			l.line(l.styles.success, fmt.Sprintf("    ✓ %d. %s", step.Index, step.Name))
			continue
		}
		l.line(l.styles.err, fmt.Sprintf("    ✗ %d. %s", step.Index, step.Name))
		l.line(l.styles.muted, "      "+step.Error)
	}
}

func (l *Logger) printError(summary *ExecutionSummary) {
	if summary.Error == "" {
		return
	}

	fmt.Fprintln(l.writer)
	l.line(l.styles.err, "  Error Details:")
	l.line(l.styles.info, "    "+summary.Error)
}

func (l *Logger) printSummaryFooter() {
	l.line(l.styles.header, strings.Repeat("=", 70))
	fmt.Fprintln(l.writer)
}

// parseLogLevel converts a string log level to LogLevel type
func parseLogLevel(level string) LogLevel {
	switch level {
	case "quiet":
		return LogLevelQuiet
	case "normal":
		return LogLevelNormal
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}

// formatNumber formats large numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%d,%03d", n/1000, n%1000)
	}
	return fmt.Sprintf("%d,%03d,%03d", n/1000000, (n/1000)%1000, n%1000)
}
