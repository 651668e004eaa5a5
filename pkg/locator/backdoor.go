package locator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/logging"
)

// Backdoor installs the closed-shadow-root recorder into browser contexts.
// Each context gets the init script at most once.
type Backdoor struct {
	mu        sync.Mutex
	installed map[playwright.BrowserContext]struct{}
	sink      logging.Sink
}

// NewBackdoor creates an installer.
func NewBackdoor(sink logging.Sink) *Backdoor {
	return &Backdoor{
		installed: make(map[playwright.BrowserContext]struct{}),
		sink:      logging.OrNop(sink),
	}
}

// Install registers the init script on bc unless it already has it. Pages
// that are already open also get the script evaluated; closed roots attached
// before that point stay unreachable.
func (b *Backdoor) Install(bc playwright.BrowserContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.installed[bc]; ok {
		return nil
	}

	script := backdoorScript
	if err := bc.AddInitScript(playwright.Script{Content: &script}); err != nil {
		return fmt.Errorf("failed to add shadow root init script: %w", err)
	}
	b.installed[bc] = struct{}{}

	for _, p := range bc.Pages() {
		if _, err := p.Evaluate(backdoorScript); err != nil {
			b.sink.Log(logging.LogLine{
				Category:  "locator",
				Message:   "could not inject shadow root recorder into open page",
				Level:     logging.LevelInfo,
				Auxiliary: map[string]any{"url": p.URL(), "error": err.Error()},
			})
		}
	}
	return nil
}

// Forget drops bookkeeping for a closed context.
func (b *Backdoor) Forget(bc playwright.BrowserContext) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.installed, bc)
}

var (
	enginesMu  sync.Mutex
	registered = make(map[playwright.Selectors]struct{})
)

// RegisterSelectorEngine registers the marker selector engine with a
// Playwright instance's selectors. Repeated calls are no-ops.
func RegisterSelectorEngine(sel playwright.Selectors) error {
	enginesMu.Lock()
	defer enginesMu.Unlock()

	if _, ok := registered[sel]; ok {
		return nil
	}

	script := selectorEngineScript
	if err := sel.Register(SelectorEngine, playwright.Script{Content: &script}); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return fmt.Errorf("failed to register %s selector engine: %w", SelectorEngine, err)
		}
	}
	registered[sel] = struct{}{}
	return nil
}
