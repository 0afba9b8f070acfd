package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatlog/pkg/detector"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <transcript>",
		Short: "Detect the exporter locale of a transcript",
		Long: `Sample a transcript and identify how its header lines are written.

Each built-in profile pairs a header pattern with a timestamp layout and
meridiem substitutions. The profile that parses the most header lines wins.
When no sampled date has a day above 12 the day/month order cannot be
confirmed and a note says so.

Optionally generates a starter config file with --write-config.

Example:
  chatlog detect chat.txt
  chatlog detect --all -o json chat.txt
  chatlog detect -w chatlog.yaml chat.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", 200, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all matching profiles, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	transcript := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if _, err := os.Stat(transcript); os.IsNotExist(err) {
		return fmt.Errorf("transcript not found: %s", transcript)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, transcript)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(result, transcript, opts.WriteConfig, out); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(result, transcript, opts, out)
	case "text", "":
		return outputDetectText(result, transcript, opts, out)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
}

func outputDetectText(result *detector.DetectionResult, transcript string, opts *DetectOptions, w io.Writer) error {
	fmt.Fprintln(w, "=== Transcript Locale Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", transcript)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Header lines: %d\n", result.HeaderLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No exporter profile matched.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: Check the first header line manually and set locale.header_pattern")
		fmt.Fprintln(w, "and locale.layout in a config file.")
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Profile: %s\n", best.Profile.Name)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines are headers)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample header:\n  %s\n", best.SampleLine)
	fmt.Fprintf(w, "Parsed as: %s\n", best.ParsedTime.Format("2006-01-02 15:04"))
	fmt.Fprintln(w)

	if result.AmbiguityNote != "" {
		fmt.Fprintf(w, "WARNING: %s\n", result.AmbiguityNote)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(w)
	fmt.Fprint(w, localeSnippet(best.Profile))
	fmt.Fprintln(w)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative profiles detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Profile.Name, m.Confidence*100)
			fmt.Fprintf(w, "   header_pattern: '%s'\n", m.Profile.HeaderPattern)
			fmt.Fprintf(w, "   layout: \"%s\"\n", m.Profile.Layout)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// localeSnippet renders the locale section of a config for profile.
func localeSnippet(p *detector.Profile) string {
	var b strings.Builder
	b.WriteString("locale:\n")
	fmt.Fprintf(&b, "  header_pattern: '%s'\n", p.HeaderPattern)
	fmt.Fprintf(&b, "  layout: \"%s\"\n", p.Layout)
	if len(p.Meridiem) == 0 {
		b.WriteString("  meridiem: []\n")
	} else {
		b.WriteString("  meridiem:\n")
		for _, m := range p.Meridiem {
			fmt.Fprintf(&b, "    - from: \"%s\"\n      to: \"%s\"\n", m.From, m.To)
		}
	}
	return b.String()
}

// JSONMatch represents a profile match in JSON output.
type JSONMatch struct {
	Name          string  `json:"name"`
	HeaderPattern string  `json:"header_pattern"`
	Layout        string  `json:"layout"`
	DayFirst      bool    `json:"day_first"`
	Confidence    float64 `json:"confidence"`
	MatchCount    int     `json:"match_count"`
	SampleLine    string  `json:"sample_line"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File          string      `json:"file"`
	Matches       []JSONMatch `json:"matches"`
	SampledLines  int         `json:"sampled_lines"`
	HeaderLines   int         `json:"header_lines"`
	AmbiguityNote string      `json:"ambiguity_note,omitempty"`
}

func outputDetectJSON(result *detector.DetectionResult, transcript string, opts *DetectOptions, w io.Writer) error {
	out := JSONOutput{
		File:          transcript,
		SampledLines:  result.SampledLines,
		HeaderLines:   result.HeaderLines,
		AmbiguityNote: result.AmbiguityNote,
		Matches:       make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:          m.Profile.Name,
			HeaderPattern: m.Profile.HeaderPattern,
			Layout:        m.Profile.Layout,
			DayFirst:      m.Profile.DayFirst,
			Confidence:    m.Confidence,
			MatchCount:    m.MatchCount,
			SampleLine:    m.SampleLine,
		})
	}

	data, err := sonic.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeStarterConfig generates a starter config file with the detected profile.
func writeStarterConfig(result *detector.DetectionResult, transcript, configPath string, w io.Writer) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no exporter profile detected")
	}

	content := generateStarterConfig(transcript, result.BestMatch())

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(transcript string, match *detector.ProfileMatch) string {
	absTranscript := transcript
	if abs, err := filepath.Abs(transcript); err == nil {
		absTranscript = abs
	}

	return fmt.Sprintf(`# chatlog configuration
# Generated by: chatlog detect
# Detected profile: %s (%.0f%% of sampled lines are headers)

transcripts:
  - %s
  # Add more exports or use globs:
  # - ~/exports/*.txt

%s  # timezone: "America/Bogota"
  attachment_markers:
    - " (archivo adjunto)"
    - " (attached file)"

cleaning:
  media_extensions: [webp, jpg, mp3]
  strip_author_suffix: true

output:
  format: text

# webhooks:
#   - name: archive
#     url: "https://example.com/hooks/chatlog"
#     token: "${CHATLOG_WEBHOOK_TOKEN}"
#     trigger: on_records
`, match.Profile.Name, match.Confidence*100,
		absTranscript,
		localeSnippet(match.Profile))
}
