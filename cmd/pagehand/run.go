package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/pagehand/pkg/executor/headless"
	"github.com/entrhq/pagehand/pkg/types"
)

type runFlags struct {
	outputDir       string
	verbosity       string
	headed          bool
	continueOnError bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run a browser script",
		Long: `Run a YAML browser script: a start URL and steps (goto, act, expect_url,
screenshot, pdf, switch_page) executed against one browser session.
Reports are written to the artifact directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "artifact directory (overrides the script)")
	cmd.Flags().StringVar(&f.verbosity, "verbosity", "", "quiet, normal, verbose or debug (overrides the script)")
	cmd.Flags().BoolVar(&f.headed, "headed", false, "show the browser window")
	cmd.Flags().BoolVar(&f.continueOnError, "continue-on-error", false, "keep going after a failed step")
	return cmd
}

func runScript(cmd *cobra.Command, path string, f *runFlags) error {
	cfg, err := headless.LoadConfig(path)
	if err != nil {
		return err
	}

	// CLI flags override the script
	if f.outputDir != "" {
		cfg.Artifacts.OutputDir = f.outputDir
	}
	if f.verbosity != "" {
		cfg.Logging.Verbosity = f.verbosity
	}
	if f.headed {
		off := false
		cfg.Browser.Headless = &off
	}
	if f.continueOnError {
		cfg.ContinueOnError = true
	}

	manager := newManager()
	defer shutdown(manager)

	executor, err := headless.NewExecutor(manager, cfg,
		headless.WithSink(logger),
		headless.WithEventHandler(func(e *types.Event) {
			logger.Debugf("event %s %v", e.Type, e.Metadata)
		}),
	)
	if err != nil {
		return err
	}

	if err := executor.Run(cmd.Context()); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}
