package test

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getProjectRoot returns the project root directory based on this test file's location.
func getProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	// Go up one level from test/ to project root
	return filepath.Dir(filepath.Dir(filename))
}

// collectTestFiles returns every _test.go file the go tool would build.
func collectTestFiles(t *testing.T) []string {
	t.Helper()
	testFiles := []string{}

	err := filepath.Walk(getProjectRoot(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// The go tool ignores hidden, underscore and testdata directories.
		if info.IsDir() {
			name := info.Name()
			if path != getProjectRoot() && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(path, "_test.go") && !strings.HasSuffix(path, "quality_test.go") {
			testFiles = append(testFiles, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk directory: %v", err)
	}

	return testFiles
}

// TestNoSkippedTests ensures no test files contain t.Skip() calls.
// Skipped tests hide failures - tests should either pass or fail, never skip.
func TestNoSkippedTests(t *testing.T) {
	forbiddenPatterns := []string{
		"t.Skip(",
		"t.Skipf(",
		"t.SkipNow(",
		"testing.Short()",
	}

	violations := []string{}

	for _, testFile := range collectTestFiles(t) {
		// Integration tests legitimately skip when the external service is not enabled.
		if strings.HasSuffix(testFile, "integration_test.go") {
			continue
		}

		f, err := os.Open(testFile)
		if err != nil {
			t.Fatalf("Failed to open %s: %v", testFile, err)
		}

		scanner := bufio.NewScanner(f)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()

			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "//") {
				continue
			}

			for _, pattern := range forbiddenPatterns {
				if strings.Contains(line, pattern) {
					violations = append(violations,
						fmt.Sprintf("%s:%d: contains forbidden pattern '%s'", testFile, lineNum, pattern))
				}
			}
		}
		f.Close()

		if err := scanner.Err(); err != nil {
			t.Fatalf("Error scanning %s: %v", testFile, err)
		}
	}

	if len(violations) > 0 {
		t.Errorf("Found %d test skip violation(s):\n", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
		t.Error("\nTests should not be skipped. Either:")
		t.Error("  1. Fix the issue causing the skip")
		t.Error("  2. Use t.Fatalf() if a required resource is missing")
		t.Error("  3. Remove the test if it's no longer relevant")
	}
}

// TestEveryPackageHasTests ensures each package with Go source has a test file.
func TestEveryPackageHasTests(t *testing.T) {
	tested := map[string]bool{}
	for _, f := range collectTestFiles(t) {
		tested[filepath.Dir(f)] = true
	}

	if len(tested) == 0 {
		t.Fatal("No test files found - something is wrong with test discovery")
	}

	root := getProjectRoot()
	for _, dir := range []string{
		"pkg/parser", "pkg/config", "pkg/detector", "pkg/output", "pkg/webhook",
		"internal/logging", "internal/watch", "internal/cli", "internal/cli/commands", "internal/cli/plugins",
	} {
		if !tested[filepath.Join(root, filepath.FromSlash(dir))] {
			t.Errorf("Package %s has no tests", dir)
		}
	}

	t.Logf("Found tests in %d packages", len(tested))
}
