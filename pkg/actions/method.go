package actions

import (
	"fmt"
	"strconv"

	"github.com/playwright-community/playwright-go"
)

// MethodKind is one of the dispatcher's handled operations.
type MethodKind int

const (
	MethodGeneric MethodKind = iota
	MethodScrollIntoView
	MethodScrollTo
	MethodFill
	MethodPress
	MethodClick
	MethodNextChunk
	MethodPrevChunk
	MethodSelectOption
)

var methodKindNames = map[MethodKind]string{
	MethodGeneric:        "generic",
	MethodScrollIntoView: "scrollIntoView",
	MethodScrollTo:       "scrollTo",
	MethodFill:           "fill",
	MethodPress:          "press",
	MethodClick:          "click",
	MethodNextChunk:      "nextChunk",
	MethodPrevChunk:      "prevChunk",
	MethodSelectOption:   "selectOptionFromDropdown",
}

func (k MethodKind) String() string {
	if s, ok := methodKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("MethodKind(%d)", int(k))
}

// Method is a parsed method name. Name keeps the caller's spelling.
type Method struct {
	Kind MethodKind
	Name string
}

var methodAliases = map[string]MethodKind{
	"scrollIntoView":           MethodScrollIntoView,
	"scrollTo":                 MethodScrollTo,
	"scroll":                   MethodScrollTo,
	"mouse.wheel":              MethodScrollTo,
	"fill":                     MethodFill,
	"type":                     MethodFill,
	"press":                    MethodPress,
	"click":                    MethodClick,
	"nextChunk":                MethodNextChunk,
	"prevChunk":                MethodPrevChunk,
	"selectOptionFromDropdown": MethodSelectOption,
}

// ParseMethod maps a method name to its handler. Names outside the handled
// set parse as MethodGeneric; whether they are supported is decided when
// they run.
func ParseMethod(name string) Method {
	if k, ok := methodAliases[name]; ok {
		return Method{Kind: k, Name: name}
	}
	return Method{Kind: MethodGeneric, Name: name}
}

// Supported reports whether Execute can run a method with this name.
func Supported(name string) bool {
	if _, ok := methodAliases[name]; ok {
		return true
	}
	_, ok := genericOps[name]
	return ok
}

// MethodNames lists every name Execute accepts.
func MethodNames() []string {
	names := make([]string, 0, len(methodAliases)+len(genericOps))
	for n := range methodAliases {
		names = append(names, n)
	}
	for n := range genericOps {
		names = append(names, n)
	}
	return names
}

// genericOp runs a locator operation. timeout is in milliseconds.
type genericOp func(l playwright.Locator, args []string, timeout *float64) error

// genericOps are the argument-taking locator operations reachable by name.
var genericOps = map[string]genericOp{
	"hover": func(l playwright.Locator, _ []string, t *float64) error {
		return l.Hover(playwright.LocatorHoverOptions{Timeout: t})
	},
	"dblclick": func(l playwright.Locator, _ []string, t *float64) error {
		return l.Dblclick(playwright.LocatorDblclickOptions{Timeout: t})
	},
	"check": func(l playwright.Locator, _ []string, t *float64) error {
		return l.Check(playwright.LocatorCheckOptions{Timeout: t})
	},
	"uncheck": func(l playwright.Locator, _ []string, t *float64) error {
		return l.Uncheck(playwright.LocatorUncheckOptions{Timeout: t})
	},
	"focus": func(l playwright.Locator, _ []string, t *float64) error {
		return l.Focus(playwright.LocatorFocusOptions{Timeout: t})
	},
	"blur": func(l playwright.Locator, _ []string, t *float64) error {
		return l.Blur(playwright.LocatorBlurOptions{Timeout: t})
	},
	"clear": func(l playwright.Locator, _ []string, t *float64) error {
		return l.Clear(playwright.LocatorClearOptions{Timeout: t})
	},
	"tap": func(l playwright.Locator, _ []string, t *float64) error {
		return l.Tap(playwright.LocatorTapOptions{Timeout: t})
	},
	"highlight": func(l playwright.Locator, _ []string, _ *float64) error {
		return l.Highlight()
	},
	"pressSequentially": func(l playwright.Locator, args []string, t *float64) error {
		return l.PressSequentially(argAt(args, 0, ""), playwright.LocatorPressSequentiallyOptions{Timeout: t})
	},
	"scrollIntoViewIfNeeded": func(l playwright.Locator, _ []string, t *float64) error {
		return l.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{Timeout: t})
	},
	"selectText": func(l playwright.Locator, _ []string, t *float64) error {
		return l.SelectText(playwright.LocatorSelectTextOptions{Timeout: t})
	},
	"setChecked": func(l playwright.Locator, args []string, t *float64) error {
		checked, err := strconv.ParseBool(argAt(args, 0, "true"))
		if err != nil {
			return fmt.Errorf("setChecked expects a boolean argument: %w", err)
		}
		return l.SetChecked(checked, playwright.LocatorSetCheckedOptions{Timeout: t})
	},
	"dispatchEvent": func(l playwright.Locator, args []string, t *float64) error {
		typ := argAt(args, 0, "")
		if typ == "" {
			return fmt.Errorf("dispatchEvent expects an event type")
		}
		return l.DispatchEvent(typ, nil, playwright.LocatorDispatchEventOptions{Timeout: t})
	},
}

func argAt(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}
