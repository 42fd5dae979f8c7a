//go:build !integration

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func writeConfig(t *testing.T, dir, logPath string) string {
	t.Helper()
	for _, k := range []string{"API_URL", "LAMBDA_URL", "SOLVE_BASE_URL", "LOG_FILE", "METRICS_ADDR"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(dir, "config.yaml")
	body := "endpoints:\n  chat_url: http://127.0.0.1:1/chat\nlog:\n  level: info\n  file: " + logPath + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "buddy.log")
	cfgPath := writeConfig(t, dir, logPath)

	t.Run("ui failure is logged before exiting", func(t *testing.T) {
		code := run(context.Background(), []string{"-config", cfgPath}, func(tea.Model) error {
			return errors.New("no terminal")
		})
		if code != 1 {
			t.Fatalf("code = %d, want 1", code)
		}
		b, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), "ui stopped") || !strings.Contains(string(b), "no terminal") {
			t.Fatalf("log file missing the failure:\n%s", b)
		}
	})

	t.Run("killed program is a clean exit", func(t *testing.T) {
		code := run(context.Background(), []string{"-config", cfgPath}, func(tea.Model) error {
			return tea.ErrProgramKilled
		})
		if code != 0 {
			t.Fatalf("code = %d, want 0", code)
		}
	})

	t.Run("missing chat url", func(t *testing.T) {
		called := false
		code := run(context.Background(), []string{"-config", filepath.Join(dir, "absent.yaml")}, func(tea.Model) error {
			called = true
			return nil
		})
		if code != 1 || called {
			t.Fatalf("code = %d, ui started = %v", code, called)
		}
	})

	t.Run("bad flag", func(t *testing.T) {
		if code := run(context.Background(), []string{"-nope"}, nil); code != 2 {
			t.Fatalf("code = %d, want 2", code)
		}
	})
}
