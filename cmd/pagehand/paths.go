package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/locator"
)

type pathsFlags struct {
	filter    string
	limit     int
	waitUntil string
	jsonOut   bool
	headed    bool
}

func newPathsCmd() *cobra.Command {
	f := &pathsFlags{}
	cmd := &cobra.Command{
		Use:   "paths <url>",
		Short: "List structural paths of a page's interactive elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPaths(cmd, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", "only elements whose tag or text contains this (case-insensitive)")
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "maximum number of paths to print (0 for all)")
	cmd.Flags().StringVar(&f.waitUntil, "wait-until", "load", "navigation wait state: load, domcontentloaded, networkidle or commit")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print JSON instead of text")
	cmd.Flags().BoolVar(&f.headed, "headed", false, "show the browser window")
	return cmd
}

func listPaths(cmd *cobra.Command, url string, f *pathsFlags) error {
	manager := newManager()
	defer shutdown(manager)

	if err := manager.Initialize(); err != nil {
		return err
	}
	opts := browser.OptionsFromConfig()
	if f.headed {
		opts.Headless = false
	}
	s, err := manager.StartSession("paths", opts)
	if err != nil {
		return err
	}

	if _, err := s.Navigate(cmd.Context(), url, browser.NavigateOptions{WaitUntil: f.waitUntil}); err != nil {
		return err
	}
	paths, err := s.Paths()
	if err != nil {
		return err
	}
	logger.Infof("found %d interactive elements on %s", len(paths), url)

	paths = filterPaths(paths, f.filter, f.limit)
	if f.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(paths)
	}
	writePaths(cmd.OutOrStdout(), paths)
	return nil
}

func filterPaths(paths []locator.ElementPath, filter string, limit int) []locator.ElementPath {
	filter = strings.ToLower(filter)
	out := make([]locator.ElementPath, 0, len(paths))
	for _, p := range paths {
		if filter != "" && !strings.Contains(strings.ToLower(p.Tag), filter) && !strings.Contains(strings.ToLower(p.Text), filter) {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func writePaths(w io.Writer, paths []locator.ElementPath) {
	for _, p := range paths {
		shadow := ""
		if p.Shadow {
			shadow = " [shadow]"
		}
		fmt.Fprintf(w, "%-8s %q%s\n         %s\n", p.Tag, p.Text, shadow, p.Path)
	}
}
