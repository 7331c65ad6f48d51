// Package e2e provides testing infrastructure for end-to-end CLI tests.
// It includes a test harness for running CLI commands, fixture management,
// and utilities for setting up isolated test environments.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauern/snipconv/internal/cli"
	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/ui"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Stderr contains the captured standard error, including log records.
	Stderr string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t       *testing.T
	homeDir string
	env     map[string]string
}

// envKeys are cleared for every harness so the host environment cannot leak
// into a run.
var envKeys = []string{
	"NO_COLOR",
	"SNIPCONV_RECURSIVE",
	"SNIPCONV_LAYOUT",
	"SNIPCONV_EXTENSION",
	"SNIPCONV_DOMAIN",
	"SNIPCONV_OUTPUT_COLOR",
}

// NewHarness creates a new E2E test harness with an isolated HOME and
// XDG_CONFIG_HOME.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	homeDir := t.TempDir()

	h := &Harness{
		t:       t,
		homeDir: homeDir,
		env:     make(map[string]string),
	}

	h.SetEnv("HOME", homeDir)
	h.SetEnv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
	for _, key := range envKeys {
		h.UnsetEnv(key)
	}

	t.Cleanup(func() {
		logging.SetDefault(logging.New(logging.DefaultOptions()))
		ui.EnableColors()
	})

	return h
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.env[key] = value
	h.t.Setenv(key, value)
}

// UnsetEnv removes an environment variable for the rest of the test.
func (h *Harness) UnsetEnv(key string) {
	h.t.Helper()
	delete(h.env, key)
	// Setenv registers the restore; Unsetenv then removes the value.
	h.t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// ConfigDir returns the snipconv configuration directory inside the
// isolated home.
func (h *Harness) ConfigDir() string {
	return filepath.Join(h.homeDir, ".config", "snipconv")
}

// Run executes a CLI command with the given arguments and captures stdout
// and stderr.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	// Prepend "snipconv" as the program name if not provided
	if len(args) == 0 || args[0] != "snipconv" {
		args = append([]string{"snipconv"}, args...)
	}

	oldStdout, oldStderr := os.Stdout, os.Stderr
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stderr pipe: %v", err)
	}
	os.Stdout, os.Stderr = stdoutW, stderrW

	// Read both pipes concurrently to avoid pipe buffer deadlock.
	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutDone := drain(&stdoutBuf, stdoutR)
	stderrDone := drain(&stderrBuf, stderrR)

	cmdErr := cli.Run(context.Background(), args)

	// Restore and close writers to signal EOF to the readers
	os.Stdout, os.Stderr = oldStdout, oldStderr
	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	if err := stderrW.Close(); err != nil {
		h.t.Fatalf("failed to close stderr pipe writer: %v", err)
	}

	if err := <-stdoutDone; err != nil {
		h.t.Fatalf("failed to read captured stdout: %v", err)
	}
	if err := <-stderrDone; err != nil {
		h.t.Fatalf("failed to read captured stderr: %v", err)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}

func drain(buf *bytes.Buffer, r *os.File) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(buf, r)
		_ = r.Close()
		done <- err
	}()
	return done
}
