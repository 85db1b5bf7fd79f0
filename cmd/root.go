package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxagent application
var rootCmd = &cobra.Command{
	Use:   "inboxagent",
	Short: "Read-only Gmail assistant for AI agents",
	Long: `inboxagent gives AI assistants read-only access to a Gmail mailbox.

It can run as:
  - A realtime web bridge that answers requests over server-sent events (default)
  - An MCP (Model Context Protocol) server exposing Gmail tools and agent prompts
  - A CLI that runs single Gmail operations`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// Persistent flags shared by every command.
var (
	envFile   string
	logFormat string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxagent version %s\n" .Version}}`)

	// If no subcommand is provided, start the web bridge
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "web")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging. Can also use DEBUG env var.")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file to load (default: ENV_PATH or ./.env)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newWebCmd())
	rootCmd.AddCommand(newToolCmd())
	rootCmd.AddCommand(newAgentsCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
