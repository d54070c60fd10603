package cli

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/sastforge/internal/config"
	"github.com/ppiankov/sastforge/internal/remediate"
	"github.com/ppiankov/sastforge/internal/tool"
	"github.com/ppiankov/sastforge/internal/workspace"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "sastforge dev") {
		t.Errorf("output = %q", out)
	}
}

func TestScanCmd_RequiresURL(t *testing.T) {
	if _, err := execute(t, "scan"); err == nil {
		t.Fatal("expected error without repo URL")
	}
}

func TestScanCmd_UnsupportedTool(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yml")
	_, err := execute(t, "--config", cfgPath, "scan", "-t", "trivy", "https://example.com/repo.git")
	var unsupported *tool.UnsupportedToolError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected *UnsupportedToolError, got %v", err)
	}
}

func TestScanCmd_AliasAndBadFormat(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yml")
	_, err := execute(t, "--config", cfgPath, "repo_url", "--format", "xml", "https://example.com/repo.git")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestScanCmd_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(cfgPath, []byte("tool: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := execute(t, "--config", cfgPath, "scan", "https://example.com/repo.git")
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestApplySettings_Precedence(t *testing.T) {
	scanTimeout := 5 * time.Minute
	cfg := &config.Settings{
		Tool:        "semgrep",
		Format:      "json",
		ScanTimeout: &scanTimeout,
		CloneDepth:  1,
		Remediation: &config.RemediationConfig{
			Endpoint: "http://from-config/generate",
			Timeout:  10 * time.Second,
			Model:    "codellama",
		},
	}

	t.Run("config fills defaults", func(t *testing.T) {
		cmd := newScanCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		opts := scanOptions{tool: "bandit", format: "text", endpoint: remediate.DefaultEndpoint, timeout: remediate.DefaultTimeout}
		applySettings(cmd, &opts, cfg)

		if opts.tool != "semgrep" || opts.format != "json" {
			t.Errorf("tool/format = %q/%q", opts.tool, opts.format)
		}
		if opts.scanTimeout != 5*time.Minute || opts.depth != 1 {
			t.Errorf("scanTimeout/depth = %v/%d", opts.scanTimeout, opts.depth)
		}
		if opts.endpoint != "http://from-config/generate" || opts.timeout != 10*time.Second {
			t.Errorf("endpoint/timeout = %q/%v", opts.endpoint, opts.timeout)
		}
		if opts.remediation.Model != "codellama" {
			t.Errorf("model = %q", opts.remediation.Model)
		}
	})

	t.Run("flags win", func(t *testing.T) {
		cmd := newScanCmd()
		if err := cmd.ParseFlags([]string{"-t", "bandit", "--endpoint", "http://flag/generate"}); err != nil {
			t.Fatal(err)
		}
		opts := scanOptions{tool: "bandit", format: "text", endpoint: "http://flag/generate"}
		applySettings(cmd, &opts, cfg)

		if opts.tool != "bandit" {
			t.Errorf("tool = %q, want flag value", opts.tool)
		}
		if opts.endpoint != "http://flag/generate" {
			t.Errorf("endpoint = %q, want flag value", opts.endpoint)
		}
		if opts.format != "json" {
			t.Errorf("format = %q, want config value", opts.format)
		}
	})
}

func TestSupportedTools(t *testing.T) {
	if got := supportedTools(); got != "bandit, semgrep" {
		t.Errorf("supportedTools() = %q", got)
	}
}

func TestScanCmd_AcquisitionFailureWritesNoReport(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "missing.yml")
	missingRepo := filepath.Join(dir, "does-not-exist")

	t.Run("no file created", func(t *testing.T) {
		out := filepath.Join(dir, "report.sarif")
		_, err := execute(t, "--config", cfgPath, "scan", "--format", "sarif", "-o", out, missingRepo)
		var acqErr *workspace.AcquisitionError
		if !errors.As(err, &acqErr) {
			t.Fatalf("expected *AcquisitionError, got %v", err)
		}
		if _, err := os.Stat(out); !os.IsNotExist(err) {
			t.Errorf("report file exists after acquisition failure: %v", err)
		}
	})

	t.Run("previous report kept", func(t *testing.T) {
		out := filepath.Join(dir, "previous.json")
		if err := os.WriteFile(out, []byte(`{"entries":[]}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := execute(t, "--config", cfgPath, "scan", "--format", "json", "-o", out, missingRepo); err == nil {
			t.Fatal("expected error")
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != `{"entries":[]}` {
			t.Errorf("previous report modified: %q", data)
		}
	})
}

func TestScanCmd_BadFormatWritesNoReport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.txt")
	_, err := execute(t, "--config", filepath.Join(dir, "missing.yml"), "scan", "--format", "xml", "-o", out, "https://example.com/repo.git")
	if err == nil {
		t.Fatal("expected unknown format error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("report file exists after format error: %v", err)
	}
}

func TestApplySettings_ZeroScanTimeoutFromConfig(t *testing.T) {
	zero := time.Duration(0)
	cmd := newScanCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	opts := scanOptions{scanTimeout: defaultScanTimeout}
	applySettings(cmd, &opts, &config.Settings{ScanTimeout: &zero})
	if opts.scanTimeout != 0 {
		t.Errorf("scanTimeout = %v, want 0 (unbounded)", opts.scanTimeout)
	}

	opts = scanOptions{scanTimeout: defaultScanTimeout}
	applySettings(cmd, &opts, &config.Settings{})
	if opts.scanTimeout != defaultScanTimeout {
		t.Errorf("scanTimeout = %v, want default when unset", opts.scanTimeout)
	}
}
