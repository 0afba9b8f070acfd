// Package cli provides the command-line interface for chatlog.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatlog/internal/cli/commands"
	"github.com/ccollicutt/chatlog/internal/cli/plugins"
	"github.com/ccollicutt/chatlog/internal/logging"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	loadDotEnv(".env")

	rootCmd := NewRootCommand()

	// Check if the first argument might be a plugin command
	if len(os.Args) > 1 {
		potentialCommand := os.Args[1]
		if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
			if !isBuiltinCommand(rootCmd, potentialCommand) {
				if pluginPath, err := plugins.FindPlugin(potentialCommand); err == nil {
					return plugins.Execute(context.Background(), pluginPath, os.Args[2:])
				}
				// Not found: fall through so Cobra reports the unknown command.
			}
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if len(os.Args) > 1 {
			potentialCommand := os.Args[1]
			if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
				if !isBuiltinCommand(rootCmd, potentialCommand) {
					_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(potentialCommand))
					return 2
				}
			}
		}
		// SilenceErrors prevents Cobra from printing this.
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration, input or runtime error
	}
	return commands.ExitCode
}

// loadDotEnv loads CHATLOG_* settings from a .env file if one exists.
// Variables already set in the environment win.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: reading %s: %v\n", path, err)
	}
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	rootCmd := &cobra.Command{
		Use:   "chatlog",
		Short: "Parse exported chat transcripts into records",
		Long: `chatlog turns exported chat transcripts into timestamped, attributed records.

A transcript is a plain-text export where each message starts with a header
line such as:

  25/11/2023 9:20 p. m. - Ana: Hola a todos

Lines without a header continue the previous message. chatlog resolves every
line to a (timestamp, author, message) record, cleans attachment names and
drops system notices.

Use 'chatlog detect' to find the header format of an unknown export and
'chatlog diagnose' when a transcript parses badly.

PLUGINS:
  chatlog supports plugins for extended functionality. Plugins are standalone
  binaries named chatlog-<command> that are automatically discovered and invoked.

  Plugin locations (searched in order):
    1. $CHATLOG_PLUGIN_DIR
    2. Same directory as the chatlog binary
    3. ~/.chatlog/plugins/
    4. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch logFormat {
			case "text", "json":
			default:
				return fmt.Errorf("invalid --log-format %q (must be text or json)", logFormat)
			}
			logging.Init(cmd.ErrOrStderr(), logFormat == "json", logging.ParseLevel(logLevel))
			slog.Debug("starting", "command", cmd.Name(), "version", commands.Version)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("CHATLOG_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", envOr("CHATLOG_LOG_FORMAT", "text"), "Log format on stderr (text|json)")

	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
