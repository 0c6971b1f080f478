package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func captureRunner(t *testing.T) *GenerateConfig {
	t.Helper()
	cfg := &GenerateConfig{}
	generateRunner = func(ctx context.Context, c *GenerateConfig) error {
		*cfg = *c
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })
	return cfg
}

func TestGenerateConfigFromFlags(t *testing.T) {
	captured := captureRunner(t)

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"--verbose",
		"generate",
		"--input", "spec.yaml",
		"--out", "./build",
		"--format", "javascript",
		"--client", "fetch",
		"--package-name", "pkg",
		"--api-key-env", "MY_TOKEN",
		"--examples=false",
		"--tests",
		"--dry-run",
		"--force",
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Input != "spec.yaml" {
		t.Errorf("input: got %q", captured.Input)
	}
	if captured.Out != "./build" {
		t.Errorf("out: got %q", captured.Out)
	}
	if captured.Format != "javascript" {
		t.Errorf("format: got %q", captured.Format)
	}
	if captured.Client != "fetch" {
		t.Errorf("client: got %q", captured.Client)
	}
	if captured.PackageName != "pkg" {
		t.Errorf("package name: got %q", captured.PackageName)
	}
	if captured.APIKeyEnv != "MY_TOKEN" {
		t.Errorf("api key env: got %q", captured.APIKeyEnv)
	}
	if captured.Examples {
		t.Errorf("expected examples disabled")
	}
	if !captured.Tests || !captured.DryRun || !captured.Force || !captured.Verbose {
		t.Errorf("bool flags: got %+v", captured)
	}
}

func TestGenerateConfigDefaults(t *testing.T) {
	captured := captureRunner(t)

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Format != "typescript" {
		t.Errorf("default format: got %q", captured.Format)
	}
	if captured.Client != "axios" {
		t.Errorf("default client: got %q", captured.Client)
	}
	if captured.APIKeyEnv != "API_KEY" {
		t.Errorf("default api key env: got %q", captured.APIKeyEnv)
	}
	if !captured.Examples {
		t.Errorf("examples should default to true")
	}
	if captured.Tests || captured.DryRun || captured.Force || captured.Verbose {
		t.Errorf("bool defaults: got %+v", captured)
	}
}

func TestGenerateConfigFromFile(t *testing.T) {
	captured := captureRunner(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	contents := `input: file-spec.yaml
out: ./from-file
format: javascript
client: fetch
package-name: file-pkg
apiKeyEnv: FILE_TOKEN
examples: false
tests: true
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	// Flags still win over file values.
	root.SetArgs([]string{"--config", path, "generate", "--client", "axios"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if captured.Input != "file-spec.yaml" || captured.Out != "./from-file" {
		t.Errorf("file values: got %+v", captured)
	}
	if captured.Format != "javascript" {
		t.Errorf("format: got %q", captured.Format)
	}
	if captured.Client != "axios" {
		t.Errorf("flag should override file: got %q", captured.Client)
	}
	if captured.PackageName != "file-pkg" || captured.APIKeyEnv != "FILE_TOKEN" {
		t.Errorf("file values: got %+v", captured)
	}
	if captured.Examples || !captured.Tests {
		t.Errorf("bool file values: got %+v", captured)
	}
}

func TestGenerateConfigFileUnknownField(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("bogus: true\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", path, "generate"})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for unknown config field")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %T: %v", err, err)
	}
}

func TestGenerateRejectsBadEnums(t *testing.T) {
	t.Parallel()
	cases := [][]string{
		{"generate", "--format", "cobol"},
		{"generate", "--client", "soap"},
	}
	for _, args := range cases {
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(args)

		err := root.Execute()
		if err == nil {
			t.Fatalf("args %v: expected error", args)
		}
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("args %v: expected usage error, got %v", args, err)
		}
	}
}
