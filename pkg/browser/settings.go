package browser

import (
	"github.com/entrhq/pagehand/pkg/actions"
	"github.com/entrhq/pagehand/pkg/config"
	"github.com/entrhq/pagehand/pkg/locator"
)

// Settings holds the tuning knobs handed to each session's locator and
// dispatcher.
type Settings struct {
	Shadow  locator.ShadowOptions
	Actions actions.Options
}

// SettingsFromConfig reads the locator and actions sections of the global
// configuration. Missing sections leave the package defaults in place.
func SettingsFromConfig() Settings {
	var s Settings
	if sec := config.GetLocator(); sec != nil {
		s.Shadow.Timeout, s.Shadow.Interval = sec.Polling()
	}
	if sec := config.GetActions(); sec != nil {
		t := sec.Timeouts()
		s.Actions.ClickTimeout = t.Click
		s.Actions.NewTabWait = t.NewTab
		s.Actions.SettleTimeout = t.Settle
		s.Actions.SelectTimeout = t.Select
		s.Actions.ChunkTimeout = t.Chunk
	}
	return s
}

// OptionsFromConfig returns session options from the browser section of the
// global configuration, or the defaults when it is not loaded.
func OptionsFromConfig() SessionOptions {
	sec := config.GetBrowser()
	if sec == nil {
		return SessionOptions{
			Headless: true,
			Viewport: &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
			Timeout:  DefaultTimeout,
		}
	}
	b := sec.Snapshot()
	return SessionOptions{
		Headless: b.Headless,
		Viewport: &Viewport{Width: b.ViewportWidth, Height: b.ViewportHeight},
		Timeout:  b.DefaultTimeout,
		Channel:  b.Channel,
	}
}

// MaxSessionsFromConfig returns the configured session limit.
func MaxSessionsFromConfig() int {
	if sec := config.GetBrowser(); sec != nil {
		if n := sec.Snapshot().MaxSessions; n > 0 {
			return n
		}
	}
	return DefaultMaxSessions
}
