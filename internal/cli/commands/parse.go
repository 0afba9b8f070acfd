package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ccollicutt/chatlog/internal/watch"
	"github.com/ccollicutt/chatlog/pkg/config"
	"github.com/ccollicutt/chatlog/pkg/output"
	"github.com/ccollicutt/chatlog/pkg/parser"
	"github.com/ccollicutt/chatlog/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	ConfigFile string
	Output     string
	Layout     string
	Timezone   string
	Width      int
	Verbose    bool
	Quiet      bool

	Watch    bool
	Debounce time.Duration

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [transcript...]",
		Short: "Parse chat transcripts into records",
		Long: `Parse exported chat transcripts into timestamped, attributed records.

Each header line starts a message; the lines after it continue that message
and inherit its timestamp and author. Lines before the first header and lines
under system notices are dropped.

Transcripts come from the arguments and from the config file's transcripts
list. Glob patterns are expanded. Several transcripts are merged in
timestamp order.

Exit codes:
  0 - At least one record parsed
  1 - No records parsed
  2 - Configuration, input or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Config file (YAML, or TOML with a .toml extension)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output format (text|json|csv); defaults to the config's output.format")
	cmd.Flags().StringVar(&opts.Layout, "layout", "", "Override the timestamp layout (Go time layout)")
	cmd.Flags().StringVar(&opts.Timezone, "timezone", "", "Interpret timestamps in this IANA timezone")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Truncate text output to this many columns (0 = terminal width, -1 = never)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show source locations and parse counters")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no records")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-parse whenever a transcript changes")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "How long changes must settle before re-parsing")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnRecords), "When to fire webhook (on_records|always|never)")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	cfg, err := loadParseConfig(ctx, opts)
	if err != nil {
		return err
	}

	patterns := append(append([]string{}, cfg.Transcripts...), args...)
	if len(patterns) == 0 {
		return errors.New("no transcripts given (pass files as arguments or set transcripts in the config)")
	}

	files, err := parser.ExpandGlobs(patterns)
	if err != nil {
		return fmt.Errorf("expanding transcripts: %w", err)
	}

	parserOpts := cfg.ParserOptions()
	parserOpts.Logger = slog.Default()
	p, err := parser.NewWithOptions(parserOpts)
	if err != nil {
		return fmt.Errorf("creating parser: %w", err)
	}

	formatName := opts.Output
	if formatName == "" {
		formatName = string(cfg.Output.Format)
	}
	formatter, err := createFormatter(formatName, opts, out)
	if err != nil {
		return err
	}

	run := func(ctx context.Context) error {
		report, err := parseTranscripts(ctx, p, files, opts.ConfigFile)
		if err != nil {
			return err
		}
		if err := formatter.Format(ctx, report, out); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}
		sendWebhooks(ctx, cfg, opts, report, errOut)

		ExitCode = 0
		if !report.HasRecords() {
			ExitCode = 1
		}
		return nil
	}

	if err := run(ctx); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	return watchTranscripts(ctx, files, opts, errOut, run)
}

// loadParseConfig loads the config file (or defaults) and applies flag overrides.
func loadParseConfig(ctx context.Context, opts *ParseOptions) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.Layout == "" && opts.Timezone == "" {
		return cfg, nil
	}
	if opts.Layout != "" {
		cfg.Locale.Layout = opts.Layout
	}
	if opts.Timezone != "" {
		cfg.Locale.Timezone = opts.Timezone
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// parseTranscripts parses every file and merges the records in timestamp order.
func parseTranscripts(ctx context.Context, p *parser.Parser, files []string, configFile string) (*output.Report, error) {
	start := time.Now()

	fileSources := make([]*parser.FileSource, len(files))
	sources := make([]parser.RecordSource, len(files))
	for i, file := range files {
		fileSources[i] = parser.NewFileSource(p, file)
		sources[i] = fileSources[i]
	}

	var source parser.RecordSource
	if len(sources) == 1 {
		source = sources[0]
	} else {
		source = parser.NewMergedSource(sources...)
	}
	defer source.Close()

	var records []parser.Record
	for {
		rec, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	results := make([]*parser.Result, 0, len(fileSources))
	for _, fs := range fileSources {
		results = append(results, fs.Result())
	}

	return output.NewReport(records, results, configFile, start, time.Now()), nil
}

func createFormatter(name string, opts *ParseOptions, out io.Writer) (output.Formatter, error) {
	width := opts.Width
	if width == 0 {
		width = terminalWidth(out)
	}
	if width < 0 {
		width = 0
	}

	return output.NewFormatter(name, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		Width:   width,
	})
}

// terminalWidth returns the column count when out is a terminal, else 0.
func terminalWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// watchTranscripts re-runs run after every settled change until interrupted.
func watchTranscripts(ctx context.Context, files []string, opts *ParseOptions, errOut io.Writer, run func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(files, watch.WithDebounce(opts.Debounce), watch.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(errOut, "Watching %d transcript(s) for changes (Ctrl+C to stop)\n", len(files))

	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		slog.Info("re-parsing", "changed", changed)
		if err := run(ctx); err != nil {
			// Parse errors are reported and watching continues.
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		return nil
	})
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are logged to errOut but don't fail the parse.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *ParseOptions, report *output.Report, errOut io.Writer) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !webhook.ShouldFire(wh.Trigger, report.HasRecords()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:         wh.URL,
			Token:       wh.Token,
			Timeout:     wh.Timeout,
			SummaryOnly: opts.Quiet,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			fmt.Fprintf(errOut, "Webhook %s: sent (%d, %s)\n", name, resp.StatusCode, resp.Duration)
		} else {
			fmt.Fprintf(errOut, "Webhook %s: failed (%v)\n", name, resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ParseOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnRecords
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
