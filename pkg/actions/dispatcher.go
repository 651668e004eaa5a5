package actions

import (
	"context"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/frames"
	"github.com/entrhq/pagehand/pkg/locator"
	"github.com/entrhq/pagehand/pkg/logging"
)

// Default timeouts.
const (
	DefaultClickTimeout  = 3500 * time.Millisecond
	DefaultNewTabWait    = 1500 * time.Millisecond
	DefaultSettleTimeout = 30 * time.Second
	DefaultSelectTimeout = 5 * time.Second
	DefaultChunkTimeout  = 10 * time.Second
	// DefaultGenericTimeout bounds locator operations reached by name.
	DefaultGenericTimeout = 30 * time.Second
)

// Options configures a Dispatcher. Zero fields take the defaults.
type Options struct {
	ClickTimeout   time.Duration
	NewTabWait     time.Duration
	SettleTimeout  time.Duration
	SelectTimeout  time.Duration
	ChunkTimeout   time.Duration
	GenericTimeout time.Duration

	// Settler waits for the DOM to go quiet after navigating actions. Nil
	// uses a QuietWindowSettler.
	Settler SettleWaiter
}

func (o Options) withDefaults() Options {
	def := func(v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	def(&o.ClickTimeout, DefaultClickTimeout)
	def(&o.NewTabWait, DefaultNewTabWait)
	def(&o.SettleTimeout, DefaultSettleTimeout)
	def(&o.SelectTimeout, DefaultSelectTimeout)
	def(&o.ChunkTimeout, DefaultChunkTimeout)
	def(&o.GenericTimeout, DefaultGenericTimeout)
	if o.Settler == nil {
		o.Settler = NewQuietWindowSettler(0)
	}
	return o
}

// CallContext carries what an action needs beyond the element.
type CallContext struct {
	// Page is the tab the element was resolved in. Press uses its keyboard
	// and the navigation check compares its URL.
	Page *frames.Page
	// Tracker, when set, lets click and press notice tabs they open.
	Tracker *frames.Tracker
	// Path overrides the handle's path in logs and errors.
	Path string
	// SettleTimeout overrides Options.SettleTimeout for this call.
	SettleTimeout time.Duration
}

// Dispatcher runs named methods against resolved elements.
type Dispatcher struct {
	opts Options
	sink logging.Sink
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts Options, sink logging.Sink) *Dispatcher {
	return &Dispatcher{opts: opts.withDefaults(), sink: logging.OrNop(sink)}
}

// Options returns the effective options.
func (d *Dispatcher) Options() Options { return d.opts }

// Execute runs method with args against h. Click failures are *ClickError;
// every other failure is a *CommandError.
func (d *Dispatcher) Execute(ctx context.Context, h *locator.Handle, method string, args []string, cc CallContext) error {
	path := cc.Path
	if path == "" && h != nil {
		path = h.Path
	}
	if h == nil || h.Locator == nil {
		return commandError(method, path, ErrNoHandle)
	}
	if err := ctx.Err(); err != nil {
		return commandError(method, path, err)
	}

	m := ParseMethod(method)
	switch m.Kind {
	case MethodScrollIntoView:
		return d.wrap(m, path, d.scrollIntoView(ctx, h, path))
	case MethodScrollTo:
		return d.wrap(m, path, d.scrollToPercent(ctx, h, path, args))
	case MethodNextChunk:
		return d.wrap(m, path, d.scrollChunk(ctx, h, path, 1))
	case MethodPrevChunk:
		return d.wrap(m, path, d.scrollChunk(ctx, h, path, -1))
	case MethodFill:
		return d.wrap(m, path, d.fill(h, path, args))
	case MethodSelectOption:
		return d.wrap(m, path, d.selectOption(ctx, h, path, args))
	case MethodPress:
		return d.wrap(m, path, d.press(ctx, h, path, args, cc))
	case MethodClick:
		return d.click(ctx, h, path, args, cc)
	default:
		return d.wrap(m, path, d.generic(ctx, h, m.Name, path, args))
	}
}

func (d *Dispatcher) wrap(m Method, path string, err error) error {
	if err == nil {
		return nil
	}
	return commandError(m.Name, path, err)
}

func (d *Dispatcher) fill(h *locator.Handle, path string, args []string) error {
	force := playwright.LocatorFillOptions{Force: playwright.Bool(true)}
	if err := h.Locator.Fill("", force); err != nil {
		d.logAction(logging.LevelInfo, "error filling element", map[string]any{"path": path, "error": err.Error()})
		return err
	}
	if err := h.Locator.Fill(argAt(args, 0, ""), force); err != nil {
		d.logAction(logging.LevelInfo, "error filling element", map[string]any{"path": path, "error": err.Error()})
		return err
	}
	return nil
}

func (d *Dispatcher) selectOption(ctx context.Context, h *locator.Handle, path string, args []string) error {
	label := argAt(args, 0, "")
	_, err := h.Locator.SelectOption(
		playwright.SelectOptionValues{Labels: &[]string{label}},
		playwright.LocatorSelectOptionOptions{Timeout: millis(budget(ctx, d.opts.SelectTimeout))},
	)
	if err != nil {
		d.logAction(logging.LevelError, "error selecting option", map[string]any{"path": path, "label": label, "error": err.Error()})
		return err
	}
	return nil
}

func (d *Dispatcher) press(ctx context.Context, h *locator.Handle, path string, args []string, cc CallContext) error {
	key := argAt(args, 0, "")
	watch, initialURL := d.beforeNavigation(cc)
	if watch != nil {
		defer watch.Stop()
	}

	var err error
	if cc.Page != nil {
		err = cc.Page.Native().Keyboard().Press(key)
	} else {
		err = h.Locator.Press(key, playwright.LocatorPressOptions{Timeout: millis(budget(ctx, d.opts.GenericTimeout))})
	}
	if err != nil {
		d.logAction(logging.LevelInfo, "error pressing key", map[string]any{"key": key, "error": err.Error()})
		return err
	}

	d.afterNavigation(ctx, "press", path, cc, watch, initialURL)
	return nil
}

func (d *Dispatcher) generic(ctx context.Context, h *locator.Handle, name, path string, args []string) error {
	op, ok := genericOps[name]
	if !ok {
		d.logAction(logging.LevelInfo, "unsupported method", map[string]any{"path": path, "method": name})
		return ErrUnknownMethod
	}

	d.logAction(logging.LevelDebug, "performing method", map[string]any{"path": path, "method": name, "args": args})
	if err := op(h.Locator, args, millis(budget(ctx, d.opts.GenericTimeout))); err != nil {
		d.logAction(logging.LevelInfo, "error performing method", map[string]any{"path": path, "method": name, "args": args, "error": err.Error()})
		return err
	}
	return nil
}

func (d *Dispatcher) logAction(level int, msg string, aux map[string]any) {
	d.sink.Log(logging.LogLine{Category: "action", Message: msg, Level: level, Auxiliary: aux})
}
