package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apppkg "github.com/hyperifyio/scriptdecode/internal/app"
)

// Smoke test: run decodes a file and writes the report.
func TestRun_DecodesFileToReport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "completion.txt")
	out := filepath.Join(dir, "report.json")
	raw := `{"data":{"scriptTitle":"Tides","script":"The moon pulls.","scriptDuration":30}}`
	if err := os.WriteFile(in, []byte(raw), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := apppkg.Config{InputPath: in, OutputPath: out}
	if err := run(cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), `"scriptTitle": "Tides"`) {
		t.Fatalf("unexpected report:\n%s", b)
	}
}

// Exit code policy conditions surface as ErrNothingRecovered from run().
func TestRun_HTMLInput_NothingRecovered(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "completion.txt")
	out := filepath.Join(dir, "report.json")
	if err := os.WriteFile(in, []byte("<html><body>Bad Gateway</body></html>"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	err := run(apppkg.Config{InputPath: in, OutputPath: out})
	if !errors.Is(err, apppkg.ErrNothingRecovered) {
		t.Fatalf("expected ErrNothingRecovered, got %v", err)
	}
	if _, statErr := os.Stat(out); statErr != nil {
		t.Fatalf("report should still be written: %v", statErr)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	if err := run(apppkg.Config{}); err == nil {
		t.Fatal("expected init error for empty config")
	}
	if err := run(apppkg.Config{Topic: "owls"}); err == nil {
		t.Fatal("expected init error without a model")
	}
}
