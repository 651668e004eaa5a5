package browser

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagehand/pkg/locator"
)

// Launcher starts browsers for the session manager.
type Launcher interface {
	// Launch starts a browser and returns it with a fresh context.
	Launch(opts SessionOptions) (playwright.Browser, playwright.BrowserContext, error)
	// Stop releases the launcher's driver.
	Stop() error
}

// playwrightLauncher drives Chromium through a Playwright driver process.
type playwrightLauncher struct {
	pw *playwright.Playwright
}

// newPlaywrightLauncher installs the driver if needed, starts it and
// registers the marker selector engine before any context exists.
func newPlaywrightLauncher() (*playwrightLauncher, error) {
	// Keep driver output off the terminal.
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	if err := locator.RegisterSelectorEngine(pw.Selectors); err != nil {
		_ = pw.Stop()
		return nil, err
	}
	return &playwrightLauncher{pw: pw}, nil
}

func (l *playwrightLauncher) Launch(opts SessionOptions) (playwright.Browser, playwright.BrowserContext, error) {
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.Channel != "" {
		launchOpts.Channel = playwright.String(opts.Channel)
	}
	browser, err := l.pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.Viewport != nil {
		contextOpts.Viewport = &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		}
	}
	bc, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		return nil, nil, fmt.Errorf("failed to create context: %w", err)
	}
	if opts.Timeout > 0 {
		bc.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}
	return browser, bc, nil
}

func (l *playwrightLauncher) Stop() error {
	if err := l.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}
