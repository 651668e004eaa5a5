package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/security/workspace"
	"github.com/entrhq/pagehand/pkg/tools"
	browsertools "github.com/entrhq/pagehand/pkg/tools/browser"
)

func newToolsCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the browser tool catalogue offered by serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := browsertools.NewToolRegistry(browser.NewSessionManager(), nil).RegisterTools()
			if jsonOut {
				return writeToolSchemas(cmd.OutOrStdout(), all)
			}
			writeToolList(cmd.OutOrStdout(), all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print names, descriptions and input schemas as JSON")
	return cmd
}

// newToolRegistry wires every browser tool to manager. Screenshots land
// below guard's directory.
func newToolRegistry(manager *browser.SessionManager, guard *workspace.Guard) *tools.Registry {
	return tools.NewRegistry(browsertools.NewToolRegistry(manager, guard).RegisterTools()...)
}

func writeToolList(w io.Writer, all []tools.Tool) {
	for _, t := range all {
		fmt.Fprintf(w, "%s\n  %s\n\n", t.Name(), t.Description())
	}
}

type toolSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

func writeToolSchemas(w io.Writer, all []tools.Tool) error {
	out := make([]toolSchema, 0, len(all))
	for _, t := range all {
		out = append(out, toolSchema{Name: t.Name(), Description: t.Description(), InputSchema: t.Schema()})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
