package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func runLintCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Reset flag state between runs, the package-level vars persist.
	lintFormat = "text"
	lintNoColor = true

	var out bytes.Buffer
	cmd := lintCmd
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := runLint(cmd, args[len(args)-1:])
	return out.String(), err
}

func TestLintCleanManifest(t *testing.T) {
	path := writeManifest(t, "streamlit==1.32.0\npandas==2.2.0\n\n# install with pip\n")

	out, err := runLintCommand(t, path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "2 requirement(s)") {
		t.Errorf("expected requirement count in output, got %q", out)
	}
	if !strings.Contains(out, "no problems found") {
		t.Errorf("expected clean report, got %q", out)
	}
}

func TestLintDuplicateFails(t *testing.T) {
	path := writeManifest(t, "streamlit==1.32.0\npandas==2.2.0\nStreamlit==1.31.0\n")

	out, err := runLintCommand(t, path)
	if err == nil {
		t.Fatal("expected error for duplicate pin")
	}
	if !strings.Contains(out, "duplicate") {
		t.Errorf("expected duplicate finding in output, got %q", out)
	}
	if !strings.Contains(out, ":3:") {
		t.Errorf("expected finding on line 3, got %q", out)
	}
}

func TestLintJSONFormat(t *testing.T) {
	path := writeManifest(t, "requests==2.31.0\nflask==not-a-version\n")

	lintFormat = "json"
	lintNoColor = true
	var out bytes.Buffer
	lintCmd.SetOut(&out)
	lintCmd.SetErr(&out)

	err := runLint(lintCmd, []string{path})
	if err == nil {
		t.Fatal("expected error for invalid version")
	}

	var report lintReport
	if jsonErr := json.Unmarshal(out.Bytes(), &report); jsonErr != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", jsonErr, out.String())
	}
	if len(report.Requirements) != 2 {
		t.Errorf("expected 2 requirements, got %d", len(report.Requirements))
	}
	if len(report.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(report.Findings))
	}
	if report.Findings[0].Rule != "version-syntax" {
		t.Errorf("expected version-syntax finding, got %s", report.Findings[0].Rule)
	}
	if !report.HasErrors {
		t.Error("expected HasErrors to be true")
	}
}

func TestLintMissingFile(t *testing.T) {
	_, err := runLintCommand(t, filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseLogLevelFlags(t *testing.T) {
	defaultLevel, pkgs, err := parseLogLevelFlags([]string{"debug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if defaultLevel != "debug" || len(pkgs) != 0 {
		t.Errorf("expected plain default level, got %q %v", defaultLevel, pkgs)
	}

	defaultLevel, pkgs, err = parseLogLevelFlags([]string{"default=warn", "collector=debug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if defaultLevel != "warn" || pkgs["collector"] != "debug" {
		t.Errorf("expected per-package levels, got %q %v", defaultLevel, pkgs)
	}

	if _, _, err := parseLogLevelFlags([]string{"loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestParseLogLevelEnvOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL_SOURCE_MANAGER", "debug")

	_, pkgs, err := parseLogLevelFlags([]string{"info"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkgs["source.manager"] != "debug" {
		t.Errorf("expected env-derived package level, got %v", pkgs)
	}

	// CLI flag wins over the environment.
	_, pkgs, err = parseLogLevelFlags([]string{"source.manager=warn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkgs["source.manager"] != "warn" {
		t.Errorf("expected CLI flag to override env, got %v", pkgs)
	}
}
