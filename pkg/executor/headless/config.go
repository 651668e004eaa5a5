package headless

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/pagehand/pkg/types"
)

// Config represents a browser script run in headless mode
type Config struct {
	// Script name, used in reports
	Name string `yaml:"name" json:"name"`

	// URL the first tab is navigated to before any step runs
	StartURL string `yaml:"start_url" json:"start_url"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Steps run in order
	Steps []Step `yaml:"steps" json:"steps"`

	// Safety constraints
	Constraints ConstraintConfig `yaml:"constraints" json:"constraints"`

	// Keep running after a failed step; the run ends as partial_success
	ContinueOnError bool `yaml:"continue_on_error" json:"continue_on_error"`

	// Artifacts configuration
	Artifacts ArtifactConfig `yaml:"artifacts" json:"artifacts"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig overrides the session options from the global configuration
type BrowserConfig struct {
	Headless *bool         `yaml:"headless" json:"headless,omitempty"`
	Width    int           `yaml:"width" json:"width,omitempty"`
	Height   int           `yaml:"height" json:"height,omitempty"`
	Channel  string        `yaml:"channel" json:"channel,omitempty"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout,omitempty"`
}

// StepKind names what a step does
type StepKind string

const (
	StepGoto       StepKind = "goto"
	StepAct        StepKind = "act"
	StepExpectURL  StepKind = "expect_url"
	StepScreenshot StepKind = "screenshot"
	StepPDF        StepKind = "pdf"
	StepSwitchPage StepKind = "switch_page"
)

// Step is one entry of a script. Exactly one of the kind fields is set.
type Step struct {
	Name string `yaml:"name" json:"name,omitempty"`

	// goto
	Goto      string `yaml:"goto" json:"goto,omitempty"`
	WaitUntil string `yaml:"wait_until" json:"wait_until,omitempty"`

	// act
	Act *types.ActionRequest `yaml:"act" json:"act,omitempty"`

	// expect_url is a glob the active tab's URL must match
	ExpectURL string `yaml:"expect_url" json:"expect_url,omitempty"`

	// screenshot and pdf take a file path relative to the artifact directory
	Screenshot string `yaml:"screenshot" json:"screenshot,omitempty"`
	FullPage   bool   `yaml:"full_page" json:"full_page,omitempty"`
	PDF        string `yaml:"pdf" json:"pdf,omitempty"`

	// switch_page takes a tab index in open order; -1 selects the newest tab
	SwitchPage *int `yaml:"switch_page" json:"switch_page,omitempty"`
}

// Kind returns the step's kind, or an error when zero or several kinds are set.
func (s Step) Kind() (StepKind, error) {
	var kinds []StepKind
	if s.Goto != "" {
		kinds = append(kinds, StepGoto)
	}
	if s.Act != nil {
		kinds = append(kinds, StepAct)
	}
	if s.ExpectURL != "" {
		kinds = append(kinds, StepExpectURL)
	}
	if s.Screenshot != "" {
		kinds = append(kinds, StepScreenshot)
	}
	if s.PDF != "" {
		kinds = append(kinds, StepPDF)
	}
	if s.SwitchPage != nil {
		kinds = append(kinds, StepSwitchPage)
	}
	switch len(kinds) {
	case 0:
		return "", errors.New("step has no action")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("step sets several actions: %v", kinds)
	}
}

// Label returns the step name, or its kind when unnamed.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	kind, err := s.Kind()
	if err != nil {
		return "invalid"
	}
	return string(kind)
}

// ConstraintConfig defines safety constraints for a script run
type ConstraintConfig struct {
	// Methods act steps may call; empty allows all
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`

	// URL globs navigation must match; denied patterns win
	AllowedURLs []string `yaml:"allowed_urls" json:"allowed_urls"`
	DeniedURLs  []string `yaml:"denied_urls" json:"denied_urls"`

	// Resource limits
	MaxSteps int           `yaml:"max_steps" json:"max_steps"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// ArtifactConfig defines artifact generation configuration
type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`

	// Individual format flags
	JSON     bool `yaml:"json" json:"json"`
	Markdown bool `yaml:"markdown" json:"markdown"`
	Metrics  bool `yaml:"metrics" json:"metrics"`
}

// LoadConfig reads a script from path, starting from DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML script. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Steps) == 0 && c.StartURL == "" {
		return fmt.Errorf("script needs a start_url or at least one step")
	}

	for i, step := range c.Steps {
		kind, err := step.Kind()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if kind == StepAct {
			if err := step.Act.Validate(); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}

	if c.Browser.Width < 0 || c.Browser.Height < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}

	// Validate constraints
	if c.Constraints.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	if c.Constraints.MaxSteps < 0 {
		return fmt.Errorf("max_steps cannot be negative")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	// Validate log level
	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Name: "browser script",
		Constraints: ConstraintConfig{
			MaxSteps: 200,
			Timeout:  5 * time.Minute,
		},
		Artifacts: ArtifactConfig{
			Enabled:   true,
			OutputDir: ".pagehand/artifacts",
			JSON:      true,
			Markdown:  true,
			Metrics:   true,
		},
	}
}
