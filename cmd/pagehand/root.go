package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/entrhq/pagehand/pkg/browser"
	appconfig "github.com/entrhq/pagehand/pkg/config"
	"github.com/entrhq/pagehand/pkg/logging"
)

const version = "0.1.0" // Version of the pagehand CLI

var (
	cfgFile  string
	logLevel string
	// logger is set up by the root command before any subcommand runs.
	logger = logging.Nop("pagehand")
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pagehand",
		Short: "pagehand drives a browser by structural element paths",
		Long: `pagehand drives Chromium through Playwright using structural paths that
cross iframe and shadow DOM boundaries, e.g.

  /html/body/div[2]/iframe/html/body//button

Quick start:
  pagehand paths https://example.com        # List interactive element paths
  pagehand run script.yaml                  # Run a browser script
  pagehand tools                            # Show the agent tool catalogue
  pagehand serve                            # Answer <tool> calls on stdin

Settings are read from ~/.pagehand/config.yaml (override with --config) and
PAGEHAND_* environment variables.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = logging.Shutdown() },
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "settings file (default ~/.pagehand/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "file log level: debug, info, warn or error")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	root.SetVersionTemplate(`pagehand v{{.Version}}` + "\n")

	root.AddCommand(
		newRunCmd(),
		newPathsCmd(),
		newToolsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// setup binds environment variables, loads the settings store and opens the
// session log.
func setup(cmd *cobra.Command, _ []string) error {
	viper.SetEnvPrefix("PAGEHAND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := appconfig.Initialize(viper.GetString("config")); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	if err := logging.SetLevel(viper.GetString("log_level")); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	l, err := logging.NewLogger(cmd.Name())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	logger = l
	logger.Infof("pagehand v%s starting %s", version, cmd.CommandPath())
	return nil
}

// newManager builds a session manager from the loaded settings.
func newManager() *browser.SessionManager {
	m := browser.NewSessionManager()
	m.SetSettings(browser.SettingsFromConfig())
	m.SetMaxSessions(browser.MaxSessionsFromConfig())
	m.SetSink(logger)
	return m
}

// shutdown closes every session and stops the driver if it was started.
func shutdown(m *browser.SessionManager) {
	if err := m.Shutdown(); err != nil && !errors.Is(err, browser.ErrNotInitialized) {
		logger.Warnf("browser shutdown: %v", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pagehand v%s\n", version)
		},
	}
}
