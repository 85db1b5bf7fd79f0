package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/agents"
)

func newAgentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect the agent catalog and request routing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			reg := agents.NewDefaultRegistry(agents.Models{Root: cfg.AgentModelsRoot})
			return writeAgentList(cmd.OutOrStdout(), reg.All())
		},
	}
	cmd.AddCommand(newAgentsShowCmd())
	cmd.AddCommand(newAgentsRouteCmd())
	return cmd
}

func writeAgentList(out io.Writer, list []agents.Agent) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODEL\tTOOLS\tDESCRIPTION")
	for _, a := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.Name, a.Model, len(a.Tools), a.Description)
	}
	return w.Flush()
}

func newAgentsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print one agent declaration as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			reg := agents.NewDefaultRegistry(agents.Models{Root: cfg.AgentModelsRoot})
			a, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown agent %q", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), a)
		},
	}
}

func newAgentsRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "route <request>",
		Short:   "Show which agent and tool a request is routed to",
		Example: `  inboxagent agents route "emails from alice@example.com"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, err := newRuntime(ctx, cmd, runtimeOptions{offline: true, logWriter: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer rt.close(context.Background())

			req := rt.classifier().Route(ctx, strings.Join(args, " "))
			return writeJSON(cmd.OutOrStdout(), req)
		},
	}
}

func writeJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
