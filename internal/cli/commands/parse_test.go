package commands

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ccollicutt/chatlog/pkg/config"
	"github.com/ccollicutt/chatlog/pkg/output"
	"github.com/ccollicutt/chatlog/pkg/parser"
	"github.com/ccollicutt/chatlog/pkg/webhook"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "..", "testdata", "transcripts", name)
}

// executeParse runs the parse command and returns stdout and stderr.
func executeParse(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	ExitCode = 0

	var stdout, stderr bytes.Buffer
	cmd := NewParseCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

type jsonReport struct {
	Summary output.Summary
	Records []parser.Record
}

func decodeReport(t *testing.T, out string) jsonReport {
	t.Helper()
	var report jsonReport
	if err := sonic.UnmarshalString(out, &report); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, out)
	}
	return report
}

func TestNewParseCommand(t *testing.T) {
	cmd := NewParseCommand()

	if cmd.Use != "parse [transcript...]" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	flags := []string{
		"config", "output", "layout", "timezone", "width", "verbose", "quiet",
		"watch", "debounce", "webhook-url", "webhook-token", "webhook-trigger",
	}
	for _, flag := range flags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}

	if got := cmd.Flags().Lookup("webhook-trigger").DefValue; got != "on_records" {
		t.Errorf("Expected webhook-trigger default on_records, got %s", got)
	}
}

func TestRunParse_Text(t *testing.T) {
	out, _, err := executeParse(t, fixture("spanish_dotted.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", ExitCode)
	}

	checks := []string{
		"=== Chat Transcript ===",
		"[2023-11-25 09:20] Ana",
		"Hola a todos",
		"IMG-20231125-WA0001.jpg",
		"Summary: 7 records from 1 transcript(s)",
	}
	for _, check := range checks {
		if !strings.Contains(out, check) {
			t.Errorf("Output missing %q:\n%s", check, out)
		}
	}
	if strings.Contains(out, "cifrados") {
		t.Error("System notice should not be emitted as a record")
	}
}

func TestRunParse_JSON(t *testing.T) {
	out, _, err := executeParse(t, "-o", "json", fixture("spanish_dotted.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report := decodeReport(t, out)
	if len(report.Records) != 7 {
		t.Fatalf("Expected 7 records, got %d", len(report.Records))
	}

	first := report.Records[0]
	want := time.Date(2023, time.November, 25, 9, 20, 0, 0, time.UTC)
	if !first.Timestamp.Equal(want) {
		t.Errorf("Expected first timestamp %v, got %v", want, first.Timestamp)
	}
	if first.Author != "Ana" {
		t.Errorf("Expected author Ana, got %q", first.Author)
	}

	second := report.Records[1]
	if second.Message != "¿Listos para el viaje?" || second.Author != "Ana" || !second.Timestamp.Equal(want) {
		t.Errorf("Continuation did not inherit header: %+v", second)
	}

	last := report.Records[6]
	if last.Author != "Carla" || last.Message != "STK-20231126-WA0003.webp" {
		t.Errorf("Unexpected last record: %+v", last)
	}
	if last.Timestamp.Hour() != 22 {
		t.Errorf("Expected p.m. header at hour 22, got %d", last.Timestamp.Hour())
	}

	if report.Summary.Dropped != 2 {
		t.Errorf("Expected 2 dropped lines, got %d", report.Summary.Dropped)
	}
}

func TestRunParse_CRLFMatchesLF(t *testing.T) {
	lf, _, err := executeParse(t, "-o", "csv", fixture("spanish_dotted.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	crlf, _, err := executeParse(t, "-o", "csv", fixture("spanish_crlf.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if lf != crlf {
		t.Errorf("CRLF output differs from LF output:\n%s\n---\n%s", lf, crlf)
	}
}

func TestRunParse_NoRecords(t *testing.T) {
	out, _, err := executeParse(t, fixture("us_ampm.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ExitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", ExitCode)
	}
	if !strings.Contains(out, "No records found") {
		t.Errorf("Expected no records message:\n%s", out)
	}
}

func TestRunParse_MalformedTimestamp(t *testing.T) {
	_, _, err := executeParse(t, fixture("malformed.txt"))
	if err == nil {
		t.Fatal("Expected error for malformed timestamp")
	}
	if !errors.Is(err, parser.ErrMalformedTimestamp) {
		t.Errorf("Expected ErrMalformedTimestamp, got %v", err)
	}

	var malformed *parser.MalformedTimestampError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedTimestampError, got %T", err)
	}
	if malformed.LineNum != 2 {
		t.Errorf("Expected line 2, got %d", malformed.LineNum)
	}
}

func TestRunParse_ConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "us.toml")
	content := `transcripts = ["` + filepath.ToSlash(fixture("us_ampm.txt")) + `"]

[locale]
header_pattern = '^\d+/\d+/\d+, \d+:\d+\s[AP]M\s* -'
layout = "1/2/06, 3:04 PM"
meridiem = []
attachment_markers = [" (attached file)"]

[output]
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	out, _, err := executeParse(t, "-c", configPath)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report := decodeReport(t, out)
	if len(report.Records) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(report.Records))
	}
	if report.Records[1].Message != "Ready for the trip?" || report.Records[1].Author != "Ann" {
		t.Errorf("Unexpected continuation record: %+v", report.Records[1])
	}
	if report.Records[2].Message != "IMG-20231125-WA0001.jpg" {
		t.Errorf("Attachment marker not removed: %q", report.Records[2].Message)
	}
	if report.Records[2].Timestamp.Hour() != 22 {
		t.Errorf("Expected hour 22, got %d", report.Records[2].Timestamp.Hour())
	}
}

func TestRunParse_Timezone(t *testing.T) {
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Fatalf("Failed to load timezone: %v", err)
	}

	out, _, err := executeParse(t, "-o", "json", "--timezone", "America/Bogota", fixture("spanish_dotted.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report := decodeReport(t, out)
	want := time.Date(2023, time.November, 25, 9, 20, 0, 0, loc)
	if !report.Records[0].Timestamp.Equal(want) {
		t.Errorf("Expected %v, got %v", want, report.Records[0].Timestamp)
	}
}

func TestRunParse_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad timezone", []string{"--timezone", "Mars/Olympus", fixture("spanish_dotted.txt")}, "invalid flags"},
		{"bad layout", []string{"--layout", "2006", fixture("spanish_dotted.txt")}, "invalid flags"},
		{"bad format", []string{"-o", "xml", fixture("spanish_dotted.txt")}, "xml"},
		{"no transcripts", []string{}, "no transcripts"},
		{"missing transcript", []string{"/nonexistent/chat.txt"}, "chat.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeParse(t, tt.args...)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunParse_MergesTranscripts(t *testing.T) {
	extra := filepath.Join(t.TempDir(), "extra.txt")
	content := "25/11/2023 9:21 a.m. - Zoe: intercalado\n26/11/2023 8:00 a.m. - Zoe: madrugada\n"
	if err := os.WriteFile(extra, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write transcript: %v", err)
	}

	out, _, err := executeParse(t, "-o", "json", fixture("spanish_dotted.txt"), extra)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report := decodeReport(t, out)
	if len(report.Records) != 9 {
		t.Fatalf("Expected 9 records, got %d", len(report.Records))
	}
	if report.Summary.Transcripts != 2 {
		t.Errorf("Expected 2 transcripts, got %d", report.Summary.Transcripts)
	}
	for i := 1; i < len(report.Records); i++ {
		if report.Records[i].Timestamp.Before(report.Records[i-1].Timestamp) {
			t.Errorf("Record %d out of order: %v before %v", i, report.Records[i].Timestamp, report.Records[i-1].Timestamp)
		}
	}
}

func TestRunParse_Webhook(t *testing.T) {
	var calls atomic.Int32
	var payload webhook.Payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(body, &payload)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, stderr, err := executeParse(t, "-q",
		"--webhook-url", server.URL,
		"--webhook-token", "secret",
		fixture("spanish_dotted.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if calls.Load() != 1 {
		t.Fatalf("Expected 1 webhook call, got %d", calls.Load())
	}
	if payload.Event != webhook.EventParsed {
		t.Errorf("Expected event %s, got %s", webhook.EventParsed, payload.Event)
	}
	if payload.Summary.Records != 7 {
		t.Errorf("Expected 7 records in summary, got %d", payload.Summary.Records)
	}
	if len(payload.Records) != 0 {
		t.Error("Quiet mode should send the summary only")
	}
	if !strings.Contains(stderr, "Webhook cli: sent") {
		t.Errorf("Expected delivery message, got %q", stderr)
	}
}

func TestRunParse_WebhookSkippedWithoutRecords(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	_, _, err := executeParse(t, "--webhook-url", server.URL, fixture("us_ampm.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("on_records webhook fired without records")
	}

	_, _, err = executeParse(t, "--webhook-url", server.URL, "--webhook-trigger", "always", fixture("us_ampm.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected always webhook to fire once, got %d", calls.Load())
	}
}

func TestCollectWebhooks(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Webhooks = []config.WebhookConfig{
		{Name: "archive", URL: "https://example.com/hook", Trigger: config.WebhookTriggerAlways},
	}

	got := collectWebhooks(cfg, &ParseOptions{})
	if len(got) != 1 {
		t.Fatalf("Expected 1 webhook, got %d", len(got))
	}

	got = collectWebhooks(cfg, &ParseOptions{WebhookURL: "https://example.com/cli", WebhookToken: "tok"})
	if len(got) != 2 {
		t.Fatalf("Expected 2 webhooks, got %d", len(got))
	}
	cli := got[1]
	if cli.Name != "cli" || cli.Token != "tok" {
		t.Errorf("Unexpected CLI webhook: %+v", cli)
	}
	if cli.Trigger != config.WebhookTriggerOnRecords {
		t.Errorf("Expected default trigger on_records, got %s", cli.Trigger)
	}
	if cli.Timeout != config.DefaultWebhookTimeout {
		t.Errorf("Expected default timeout, got %s", cli.Timeout)
	}
}

func TestCreateFormatter(t *testing.T) {
	var buf bytes.Buffer

	for _, name := range []string{"text", "json", "csv"} {
		f, err := createFormatter(name, &ParseOptions{}, &buf)
		if err != nil {
			t.Errorf("createFormatter(%s): %v", name, err)
			continue
		}
		if f.Name() != name {
			t.Errorf("Expected formatter %s, got %s", name, f.Name())
		}
	}

	if _, err := createFormatter("yaml", &ParseOptions{}, &buf); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestTerminalWidth_NonTerminal(t *testing.T) {
	if got := terminalWidth(&bytes.Buffer{}); got != 0 {
		t.Errorf("Expected 0 for non-terminal writer, got %d", got)
	}
}
