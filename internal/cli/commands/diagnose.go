package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatlog/pkg/config"
	"github.com/ccollicutt/chatlog/pkg/detector"
	"github.com/ccollicutt/chatlog/pkg/parser"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	ConfigFile string
	Verbose    bool
}

// Check statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <transcript>",
		Short: "Diagnose why a transcript parses badly",
		Long: `Diagnose common problems parsing a transcript.

This command checks:
- Config file syntax, or that the built-in defaults are valid
- Transcript existence and readability
- How many lines the header pattern recognizes
- Whether every header timestamp fits the layout
- How many lines end up dropped

When no header is recognized the transcript is run through locale
detection and the best profile is suggested.

Example:
  chatlog diagnose chat.txt
  chatlog diagnose -c chatlog.yaml -v chat.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, args[0], opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Config file (defaults are used when omitted)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, transcript string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	cfg, result := checkConfig(ctx, opts.ConfigFile)
	results = append(results, result)
	if result.Status == StatusError {
		return results
	}

	result = checkTranscriptExists(transcript)
	results = append(results, result)
	if result.Status == StatusError {
		return results
	}

	results = append(results, checkTranscriptParse(ctx, cfg, transcript, opts)...)
	results = append(results, checkWebhooks(cfg, opts)...)

	return results
}

func checkConfig(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config",
	}

	if path == "" {
		cfg, err := config.LoadOrDefault(ctx, "")
		if err != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("Default configuration is invalid: %v", err)
			result.Suggests = []string{"Check CHATLOG_* environment variables"}
			return nil, result
		}
		result.Status = StatusOK
		result.Message = "Using built-in defaults"
		result.Details = localeDetails(cfg)
		return cfg, result
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'chatlog detect <transcript> --write-config chatlog.yaml' to generate a starter config",
		}
		return nil, result
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return nil, result
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return nil, result
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{"Check YAML syntax - ensure proper indentation (use spaces, not tabs)"}
		case strings.Contains(err.Error(), "toml"):
			result.Suggests = []string{"Check TOML syntax - strings must be quoted"}
		}
		return nil, result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Loaded: %s", path)
	result.Details = localeDetails(cfg)
	return cfg, result
}

func localeDetails(cfg *config.Config) []string {
	return []string{
		fmt.Sprintf("Header pattern: %s", cfg.Locale.HeaderPattern),
		fmt.Sprintf("Layout: %s", cfg.Locale.Layout),
		fmt.Sprintf("Timezone: %s", cfg.Locale.Location()),
	}
}

func checkTranscriptExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Transcript",
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusError
		result.Message = fmt.Sprintf("Transcript not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access transcript: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
	case info.Size() == 0:
		result.Status = StatusError
		result.Message = "Transcript is empty (0 bytes)"
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	}
	return result
}

func checkTranscriptParse(ctx context.Context, cfg *config.Config, transcript string, opts *DiagnoseOptions) []DiagnosticResult {
	p, err := parser.NewWithOptions(cfg.ParserOptions())
	if err != nil {
		return []DiagnosticResult{{
			Check:   "Parser",
			Status:  StatusError,
			Message: fmt.Sprintf("Cannot build parser: %v", err),
		}}
	}

	result := DiagnosticResult{
		Check: "Timestamps",
	}

	parsed, err := p.ParseFile(ctx, transcript)
	if err != nil {
		var malformed *parser.MalformedTimestampError
		if !errors.As(err, &malformed) {
			result.Status = StatusError
			result.Message = fmt.Sprintf("Cannot parse transcript: %v", err)
			return []DiagnosticResult{result}
		}
		result.Status = StatusError
		result.Message = fmt.Sprintf("Header on line %d does not fit the layout", malformed.LineNum)
		result.Details = []string{
			fmt.Sprintf("Timestamp: %q", malformed.Text),
			fmt.Sprintf("Layout: %s", malformed.Layout),
		}
		result.Suggests = []string{
			"Check whether the export is day-first or month-first",
			"Use --layout or locale.layout to set the matching Go time layout",
		}
		return []DiagnosticResult{result}
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("All %d header timestamps parsed", parsed.Stats.Headers)

	results := []DiagnosticResult{checkHeaderCoverage(ctx, parsed.Stats, transcript, opts)}
	if parsed.Stats.Headers > 0 {
		if opts.Verbose && len(parsed.Records) > 0 {
			first, last := parsed.Records[0], parsed.Records[len(parsed.Records)-1]
			result.Details = []string{
				fmt.Sprintf("First: %s (%s)", first.Timestamp.Format(time.RFC3339), first.Author),
				fmt.Sprintf("Last:  %s (%s)", last.Timestamp.Format(time.RFC3339), last.Author),
			}
		}
		results = append(results, result)
	}
	results = append(results, checkDropped(parsed.Stats))

	return results
}

func checkHeaderCoverage(ctx context.Context, stats parser.Stats, transcript string, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Header Pattern",
	}

	if stats.Headers > 0 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Matches %d/%d lines", stats.Headers, stats.Lines)
		if opts.Verbose {
			result.Details = []string{fmt.Sprintf("Continuation lines: %d", stats.Continuations)}
		}
		return result
	}

	result.Status = StatusError
	result.Message = "Header pattern matches no lines in transcript"
	result.Suggests = []string{
		"The transcript was probably exported with a different locale",
		"Use 'chatlog detect " + transcript + "' to find the correct pattern",
	}

	d := detector.New()
	det, err := d.DetectFromFile(ctx, transcript)
	if err == nil && det.HasMatch() {
		best := det.BestMatch()
		result.Suggests = append(result.Suggests,
			fmt.Sprintf("Detected profile: %s", best.Profile.Name),
			fmt.Sprintf("Suggested header_pattern: %s", best.Profile.HeaderPattern),
			fmt.Sprintf("Suggested layout: %s", best.Profile.Layout),
		)
	}
	return result
}

func checkDropped(stats parser.Stats) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Dropped Lines",
	}

	switch {
	case stats.Dropped == 0:
		result.Status = StatusOK
		result.Message = "No lines dropped"
	case stats.Lines > 0 && stats.Dropped*2 > stats.Lines:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d/%d lines dropped", stats.Dropped, stats.Lines)
		result.Suggests = []string{
			"Lines before the first header and under system notices are dropped",
			"A header pattern that misses most headers also drops their continuations",
		}
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d/%d lines dropped (system notices)", stats.Dropped, stats.Lines)
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== chatlog Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before parsing.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nTranscript parses but has warnings.")
	default:
		fmt.Fprintln(w, "\nTranscript looks good!")
	}
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  StatusOK,
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		if wh.Token == "" {
			result.Details = []string{"Token: none"}
		} else {
			result.Details = []string{"Token: configured"}
		}
		if opts.Verbose {
			result.Details = append(result.Details,
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout))
		}
		results = append(results, result)

		if opts.Verbose {
			conn := checkWebhookConnectivity(wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST (deliveries can still succeed)",
			"Check authentication if using a token",
		}
	}

	return result
}
