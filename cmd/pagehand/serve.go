package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/pagehand/pkg/browser"
	"github.com/entrhq/pagehand/pkg/security/workspace"
	"github.com/entrhq/pagehand/pkg/tools"
)

func newServeCmd() *cobra.Command {
	var (
		outputDir   string
		idleTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer XML tool calls read from stdin",
		Long: `serve reads <tool>...</tool> blocks from stdin, runs the named browser tool
and writes a <tool_result> block to stdout for each. Browser sessions live
until closed with close_browser_session or until stdin ends. Screenshot
paths are resolved inside the output directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			guard, err := workspace.NewGuard(outputDir)
			if err != nil {
				return err
			}
			logger.Infof("writing tool output below %s", guard.Root())

			manager := newManager()
			defer shutdown(manager)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if idleTimeout > 0 {
				manager.SetIdleTimeout(idleTimeout)
				go reapIdleSessions(ctx, manager, idleTimeout/4)
			}
			return serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), newToolRegistry(manager, guard))
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory screenshots are confined to")
	cmd.Flags().DurationVar(&idleTimeout, "idle-timeout", browser.DefaultIdleTimeout, "close sessions unused for this long (0 keeps them open)")
	return cmd
}

// reapIdleSessions closes idle sessions every interval until ctx ends.
func reapIdleSessions(ctx context.Context, manager *browser.SessionManager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.CleanupIdleSessions(); err != nil {
				logger.Warnf("closing idle sessions: %v", err)
			}
		}
	}
}

// serve runs tool calls from r until r ends or ctx is canceled. A call that
// fails is reported in its result; only I/O errors end the loop.
func serve(ctx context.Context, r io.Reader, w io.Writer, registry *tools.Registry) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var pending strings.Builder
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			pending.WriteString(line)
			pending.WriteString("\n")
			for tools.HasToolCall(pending.String()) {
				tc, rest, err := tools.ParseToolCall(pending.String())
				if err != nil {
					// drop the malformed block so the loop moves on
					rest = strings.SplitN(pending.String(), "</tool>", 2)[1]
				}
				pending.Reset()
				pending.WriteString(rest)
				if err := writeResult(w, handleCall(ctx, registry, tc, err)); err != nil {
					return err
				}
			}
		}
	}
}

type toolResult struct {
	XMLName  xml.Name `xml:"tool_result"`
	ToolName string   `xml:"tool_name,omitempty"`
	Status   string   `xml:"status"`
	Result   string   `xml:"result"`
	Metadata string   `xml:"metadata,omitempty"`
}

func handleCall(ctx context.Context, registry *tools.Registry, tc *tools.ToolCall, parseErr error) toolResult {
	if parseErr != nil {
		logger.Warnf("bad tool call: %v", parseErr)
		return toolResult{Status: "error", Result: parseErr.Error()}
	}

	logger.Infof("tool call %s", tc.ToolName)
	out, meta, err := registry.Call(ctx, tc)
	if err != nil {
		logger.Warnf("tool %s failed: %v", tc.ToolName, err)
		return toolResult{ToolName: tc.ToolName, Status: "error", Result: err.Error()}
	}

	res := toolResult{ToolName: tc.ToolName, Status: "ok", Result: out}
	if len(meta) > 0 {
		data, err := json.Marshal(meta)
		if err == nil {
			res.Metadata = string(data)
		}
	}
	return res
}

func writeResult(w io.Writer, res toolResult) error {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode tool result: %w", err)
	}
	buf.WriteString("\n")
	_, err := w.Write(buf.Bytes())
	return err
}
