package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesSampleConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "clapikit.yaml")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("init execute: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "clapikit configuration (YAML)") || !strings.Contains(s, "# spec:") {
		t.Fatalf("unexpected config contents: %s", s)
	}
	if !strings.Contains(out.String(), "Wrote sample config to") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestInit_TOMLSample(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "clapikit.toml")

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("init execute: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), `# spec = "./openapi.yaml"`) {
		t.Fatalf("expected TOML sample, got: %s", data)
	}
}

func TestInit_ExistingWithoutForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("prewrite: %v", err)
	}

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path})

	err := root.Execute()
	if err == nil {
		t.Fatalf("expected error for existing file without --force")
	}
	if _, ok := err.(usageError); !ok {
		t.Fatalf("expected usage error, got %T: %v", err, err)
	}

	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"init", "--out", path, "--force"})
	if err := root.Execute(); err != nil {
		t.Fatalf("init --force: %v", err)
	}
}

func TestInit_SampleLoadsAsConfig(t *testing.T) {
	captured := captureRunner(t, &listRunner)

	for _, name := range []string{"clapikit.yaml", "clapikit.toml"} {
		path := filepath.Join(t.TempDir(), name)
		if err := execute(t, "init", "--out", path); err != nil {
			t.Fatalf("%s: init: %v", name, err)
		}
		if err := execute(t, "--config", path, "--spec", "openapi.yaml"); err != nil {
			t.Fatalf("%s: load sample: %v", name, err)
		}
		cfg := *captured
		if cfg.Output != "structured" || cfg.Timeout != 0 || cfg.Server != "" {
			t.Fatalf("%s: unexpected config: %+v", name, cfg)
		}
	}
}
