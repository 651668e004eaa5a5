package headless

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/logging"
	"github.com/entrhq/pagehand/pkg/types"
)

const (
	statusRunning        = "running"
	statusSuccess        = "success"
	statusFailed         = "failed"
	statusPartialSuccess = "partial_success"
)

// Executor runs a browser script against one session
type Executor struct {
	manager        *browser.SessionManager
	config         *Config
	constraintMgr  *ConstraintManager
	artifactWriter *ArtifactWriter
	logger         *Logger
	sink           logging.Sink
	onEvent        func(*types.Event)
	baseDir        string

	// Execution state
	session   *browser.Session
	startTime time.Time
	summary   *ExecutionSummary
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger replaces the stdout progress logger.
func WithLogger(l *Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithEventHandler receives every event the run emits, in order.
func WithEventHandler(fn func(*types.Event)) Option {
	return func(e *Executor) { e.onEvent = fn }
}

// WithBaseDir resolves the artifact directory against dir.
func WithBaseDir(dir string) Option {
	return func(e *Executor) { e.baseDir = dir }
}

// WithSink sends structured log lines to sink.
func WithSink(sink logging.Sink) Option {
	return func(e *Executor) { e.sink = logging.OrNop(sink) }
}

// NewExecutor creates a new script executor
func NewExecutor(manager *browser.SessionManager, config *Config, opts ...Option) (*Executor, error) {
	if manager == nil {
		return nil, errors.New("session manager is required")
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	constraintMgr, err := NewConstraintManager(config.Constraints)
	if err != nil {
		return nil, fmt.Errorf("failed to create constraint manager: %w", err)
	}

	e := &Executor{
		manager:       manager,
		config:        config,
		constraintMgr: constraintMgr,
		sink:          logging.NopSink,
		summary: &ExecutionSummary{
			Name:   config.Name,
			Status: statusRunning,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = NewLogger(parseLogLevel(config.Logging.Verbosity))
	}

	outputDir := config.Artifacts.OutputDir
	if e.baseDir != "" && !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(e.baseDir, outputDir)
	}
	e.artifactWriter = NewArtifactWriter(outputDir, config.Artifacts)

	return e, nil
}

// Summary returns the run summary. It is complete once Run returns.
func (e *Executor) Summary() *ExecutionSummary { return e.summary }

// Run executes the script
func (e *Executor) Run(ctx context.Context) error {
	e.startTime = time.Now()
	e.summary.StartTime = e.startTime

	e.logger.Header(fmt.Sprintf("Pagehand: %s", e.config.Name))
	e.log(logging.LevelInfo, "starting script", map[string]any{"script": e.config.Name, "steps": len(e.config.Steps)})

	if err := e.manager.Initialize(); err != nil {
		return e.fail(fmt.Errorf("failed to initialize browser: %w", err))
	}

	name := "script-" + uuid.NewString()[:8]
	session, err := e.manager.StartSession(name, e.sessionOptions())
	if err != nil {
		return e.fail(fmt.Errorf("failed to start session: %w", err))
	}
	e.session = session
	e.emit(types.NewSessionStartEvent(name))
	defer func() {
		if closeErr := e.manager.CloseSession(name); closeErr != nil {
			e.logger.Warningf("failed to close session: %v", closeErr)
		}
		e.emit(types.NewSessionEndEvent(name))
	}()

	execCtx := ctx
	if e.config.Constraints.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, e.config.Constraints.Timeout)
		defer cancel()
	}

	e.logger.Section("Steps")
	failed := false
	for i, step := range e.steps() {
		if err := e.checkConstraints(execCtx); err != nil {
			return e.fail(err)
		}

		result, err := e.runStep(execCtx, i+1, step)
		e.summary.Steps = append(e.summary.Steps, result)
		e.summary.Metrics.StepsRun++
		if err == nil {
			continue
		}

		e.summary.Metrics.StepsFailed++
		var violation *ConstraintViolation
		if errors.As(err, &violation) || !e.config.ContinueOnError || execCtx.Err() != nil {
			return e.fail(fmt.Errorf("step %d (%s): %w", i+1, result.Name, err))
		}
		failed = true
	}

	if failed {
		e.summary.Status = statusPartialSuccess
		e.summary.Error = fmt.Sprintf("%d of %d steps failed", e.summary.Metrics.StepsFailed, e.summary.Metrics.StepsRun)
	} else {
		e.summary.Status = statusSuccess
	}
	return e.finalize()
}

// steps returns the script's steps with the start URL as the first one.
func (e *Executor) steps() []Step {
	if e.config.StartURL == "" {
		return e.config.Steps
	}
	steps := make([]Step, 0, len(e.config.Steps)+1)
	steps = append(steps, Step{Name: "open start url", Goto: e.config.StartURL})
	return append(steps, e.config.Steps...)
}

func (e *Executor) sessionOptions() browser.SessionOptions {
	opts := browser.OptionsFromConfig()
	b := e.config.Browser
	if b.Headless != nil {
		opts.Headless = *b.Headless
	}
	if b.Width > 0 || b.Height > 0 {
		vp := browser.Viewport{Width: browser.DefaultViewportWidth, Height: browser.DefaultViewportHeight}
		if opts.Viewport != nil {
			vp = *opts.Viewport
		}
		if b.Width > 0 {
			vp.Width = b.Width
		}
		if b.Height > 0 {
			vp.Height = b.Height
		}
		opts.Viewport = &vp
	}
	if b.Channel != "" {
		opts.Channel = b.Channel
	}
	if b.Timeout > 0 {
		opts.Timeout = b.Timeout
	}
	return opts
}

func (e *Executor) checkConstraints(ctx context.Context) error {
	if err := e.constraintMgr.CheckTimeout(); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ConstraintViolation{
			Type:    ViolationTimeout,
			Message: fmt.Sprintf("execution timeout exceeded (%v)", e.config.Constraints.Timeout),
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("execution canceled: %w", err)
	}
	return e.constraintMgr.RecordStep()
}

// runStep runs one step and reports it through the logger and events.
func (e *Executor) runStep(ctx context.Context, index int, step Step) (StepResult, error) {
	kind, _ := step.Kind()
	result := StepResult{Index: index, Name: step.Label(), Kind: kind}

	e.logger.Step(result.Name)
	e.emit(types.NewStepStartEvent(index, string(kind)))

	start := time.Now()
	err := e.dispatch(ctx, step, &result)
	result.Duration = time.Since(start)
	result.URL = e.session.CurrentURL()

	if err != nil {
		result.Error = err.Error()
		e.logger.Errorf("%s", err)
		e.emit(types.NewStepFailedEvent(index, string(kind), result.Duration, err))
		e.log(logging.LevelError, "step failed", map[string]any{"step": index, "kind": string(kind), "error": err.Error()})
		return result, err
	}

	e.logger.Successf("%s (%s)", result.Name, result.Duration.Round(time.Millisecond))
	e.emit(types.NewStepCompleteEvent(index, string(kind), result.Duration))
	e.log(logging.LevelDebug, "step complete", map[string]any{"step": index, "kind": string(kind), "url": result.URL})
	return result, nil
}

func (e *Executor) dispatch(ctx context.Context, step Step, result *StepResult) error {
	kind, err := step.Kind()
	if err != nil {
		return err
	}

	switch kind {
	case StepGoto:
		return e.runGoto(ctx, step)
	case StepAct:
		return e.runAct(ctx, step.Act)
	case StepExpectURL:
		return e.runExpectURL(step.ExpectURL)
	case StepScreenshot:
		return e.runScreenshot(step, result)
	case StepPDF:
		return e.runPDF(step, result)
	case StepSwitchPage:
		return e.runSwitchPage(*step.SwitchPage)
	default:
		return fmt.Errorf("unsupported step kind %q", kind)
	}
}

func (e *Executor) runGoto(ctx context.Context, step Step) error {
	if err := e.constraintMgr.ValidateURL(step.Goto); err != nil {
		return err
	}

	from := e.session.CurrentURL()
	e.logger.Verbosef("navigating to %s", step.Goto)
	to, err := e.session.Navigate(ctx, step.Goto, browser.NavigateOptions{WaitUntil: step.WaitUntil})
	if err != nil {
		return err
	}
	e.summary.Metrics.Navigations++
	e.emit(types.NewNavigationEvent(e.activeID(), from, to))
	return nil
}

func (e *Executor) runAct(ctx context.Context, req *types.ActionRequest) error {
	if err := e.constraintMgr.ValidateMethod(req.Method); err != nil {
		return err
	}

	e.logger.Action(req.Method, req.Path, req.Args)
	e.emit(types.NewActionResolveEvent(req))
	res, err := e.session.Act(ctx, *req)
	e.emit(types.NewActionResultEvent(req, err))
	if err != nil {
		return err
	}
	e.summary.Metrics.Actions++

	if res.URLAfter != res.URLBefore {
		e.summary.Metrics.Navigations++
		e.emit(types.NewNavigationEvent(string(res.PageID), res.URLBefore, res.URLAfter))
		if err := e.constraintMgr.ValidateURL(res.URLAfter); err != nil {
			return err
		}
	}
	if res.SwitchedPage() {
		url := e.session.CurrentURL()
		e.summary.Metrics.PagesOpened++
		e.logger.PageEvent("Opened", string(res.ActivePageID), url)
		e.emit(types.NewPageOpenedEvent(string(res.ActivePageID), url))
		if err := e.constraintMgr.ValidateURL(url); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) runExpectURL(pattern string) error {
	url := e.session.CurrentURL()
	ok, err := MatchURL(pattern, url)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("url %q does not match %q", url, pattern)
	}
	return nil
}

func (e *Executor) runScreenshot(step Step, result *StepResult) error {
	data, err := e.session.Screenshot(step.FullPage)
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	path, err := e.writeArtifact(step.Screenshot, data)
	if err != nil {
		return err
	}
	result.Artifact = path
	e.summary.Metrics.Screenshots++
	return nil
}

func (e *Executor) runPDF(step Step, result *StepResult) error {
	data, err := e.session.PDF()
	if err != nil {
		return err
	}
	path, err := e.writeArtifact(step.PDF, data)
	if err != nil {
		return err
	}
	result.Artifact = path

	pages, err := CountPDFPages(data)
	if err != nil {
		e.logger.Warningf("could not read page count of %s: %v", path, err)
		return nil
	}
	e.summary.Metrics.PDFPages += pages
	e.logger.Verbosef("%s has %d pages", path, pages)
	return nil
}

func (e *Executor) runSwitchPage(index int) error {
	pages := e.session.Pages()
	if index < 0 {
		index = len(pages) + index
	}
	if index < 0 || index >= len(pages) {
		return fmt.Errorf("no tab at index %d (%d open)", index, len(pages))
	}

	info, err := e.session.SwitchPage(pages[index].ID)
	if err != nil {
		return err
	}
	e.logger.PageEvent("Switched to", string(info.ID), info.URL)
	e.emit(types.NewPageSwitchedEvent(string(info.ID), info.URL))
	return nil
}

func (e *Executor) writeArtifact(name string, data []byte) (string, error) {
	path, err := e.artifactWriter.WriteFile(name, data)
	if err != nil {
		return "", err
	}
	e.summary.Artifacts = append(e.summary.Artifacts, path)
	e.logger.Artifact(path, len(data))
	e.emit(types.NewArtifactEvent(path))
	return path, nil
}

func (e *Executor) activeID() string {
	id, err := e.session.Active().ID()
	if err != nil {
		return ""
	}
	return string(id)
}

func (e *Executor) emit(event *types.Event) {
	if e.onEvent != nil {
		e.onEvent(event)
	}
}

func (e *Executor) log(level int, msg string, aux map[string]any) {
	e.sink.Log(logging.LogLine{Category: "script", Message: msg, Level: level, Auxiliary: aux})
}

// finalize completes the execution and generates artifacts
func (e *Executor) finalize() error {
	e.summary.EndTime = time.Now()
	e.summary.Duration = e.summary.EndTime.Sub(e.startTime)
	e.summary.VisitedURL = e.constraintMgr.GetCurrentState().VisitedURLs

	if e.session != nil {
		for _, p := range e.session.Pages() {
			e.summary.Pages = append(e.summary.Pages, PageSummary{
				ID:     string(p.ID),
				URL:    p.URL,
				Title:  p.Title,
				Active: p.Active,
			})
		}
	}

	if err := e.artifactWriter.WriteAll(e.summary); err != nil {
		e.logger.Warningf("failed to write artifacts: %v", err)
	} else if e.config.Artifacts.Enabled {
		e.logger.Verbosef("artifacts written to %s", e.artifactWriter.OutputDir())
	}

	e.logger.Summary(e.summary)
	e.log(logging.LevelInfo, "script finished", map[string]any{"status": e.summary.Status, "duration": e.summary.Duration.String()})

	if e.summary.Status == statusFailed {
		return fmt.Errorf("execution failed: %s", e.summary.Error)
	}
	return nil
}

// fail marks the execution as failed and returns an error
func (e *Executor) fail(err error) error {
	e.summary.Status = statusFailed
	e.summary.Error = err.Error()
	e.emit(types.NewErrorEvent(err))
	return e.finalize()
}
