package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/tools/gmail_tools"
)

func newToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Run read-only Gmail operations from the command line",
	}
	cmd.AddCommand(newToolListCmd())
	cmd.AddCommand(newToolCallCmd())
	return cmd
}

func newToolListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available Gmail operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeToolList(cmd.OutOrStdout(), gmail_tools.Tools())
		},
	}
}

func writeToolList(out io.Writer, tools []gmail_tools.Tool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tARGUMENTS")
	for _, t := range tools {
		params := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			name := p.Name
			if p.Required {
				name += "*"
			}
			params = append(params, name)
		}
		fmt.Fprintf(w, "%s\t%s\n", t.Name, strings.Join(params, " "))
	}
	return w.Flush()
}

func newToolCallCmd() *cobra.Command {
	var argPairs []string

	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: "Invoke one Gmail operation and print its result envelope",
		Example: `  inboxagent tool call get_current_datetime
  inboxagent tool call search_emails --arg query="is:unread" --arg max_results=5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := parseToolArgs(argPairs)
			if err != nil {
				return err
			}
			return runToolCall(cmd, args[0], toolArgs)
		},
	}

	cmd.Flags().StringArrayVar(&argPairs, "arg", nil, "Tool argument as key=value (repeatable)")

	return cmd
}

// parseToolArgs turns key=value pairs into tool arguments. Values stay
// strings; numeric parameters are converted by the tool.
func parseToolArgs(pairs []string) (gmail_tools.Args, error) {
	args := gmail_tools.Args{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		args[key] = value
	}
	return args, nil
}

func runToolCall(cmd *cobra.Command, name string, args gmail_tools.Args) error {
	if _, ok := gmail_tools.Lookup(name); !ok {
		return fmt.Errorf("unknown tool %q, run 'inboxagent tool list'", name)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := newRuntime(ctx, cmd, runtimeOptions{logWriter: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer rt.close(context.Background())

	env := rt.toolbox().Call(ctx, instrumentation.SourceCLI, name, args)
	return writeEnvelope(cmd.OutOrStdout(), name, env)
}

// writeEnvelope prints env as indented JSON and fails on error envelopes.
func writeEnvelope(out io.Writer, name string, env gmail_tools.Envelope) error {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(out, string(b))
	if env.Status == gmail_tools.StatusError {
		return fmt.Errorf("%s failed: %s", name, env.ErrorMessage)
	}
	return nil
}
