package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatlog/pkg/config"
	"github.com/ccollicutt/chatlog/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a chatlog configuration file without parsing transcripts.

Checks:
  - YAML or TOML syntax
  - Header pattern is a valid, anchored regex
  - Timestamp layout and timezone
  - Webhook URLs and triggers
  - Transcript file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Header pattern: %s\n", cfg.Locale.HeaderPattern)
	fmt.Fprintf(w, "  Layout:         %s\n", cfg.Locale.Layout)
	fmt.Fprintf(w, "  Timezone:       %s\n", cfg.Locale.Location())
	fmt.Fprintf(w, "  Meridiem:       %d substitution(s)\n", len(cfg.Locale.Meridiem))
	fmt.Fprintf(w, "  Media:          %s\n", strings.Join(cfg.Cleaning.MediaExtensions, ", "))
	fmt.Fprintf(w, "  Strip suffix:   %t\n", cfg.Cleaning.StripAuthorSuffixEnabled())
	fmt.Fprintf(w, "  Output:         %s\n", cfg.Output.Format)

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "\nWebhooks:\n")
		for i, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}
			fmt.Fprintf(w, "  %d. [%s] %s\n", i+1, wh.Trigger, name)
		}
	}

	if len(cfg.Transcripts) == 0 {
		fmt.Fprintf(w, "\nNo transcripts configured (pass them to parse as arguments)\n")
		return nil
	}

	// Missing transcripts are warnings only.
	files, err := parser.ExpandGlobs(cfg.Transcripts)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: %v\n", err)
	} else {
		fmt.Fprintf(w, "\nTranscripts matched: %d\n", len(files))
		for _, f := range files {
			if _, err := os.Stat(f); err != nil {
				fmt.Fprintf(w, "  - %s (missing)\n", f)
				continue
			}
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	return nil
}
