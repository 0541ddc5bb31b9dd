package github

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// stubGhCLI installs a fake gh binary as the only thing on PATH.
func stubGhCLI(t *testing.T, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses a shell script gh stub")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gh"), []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write gh stub: %v", err)
	}
	t.Setenv("PATH", dir)
}

func TestResolveAuthToken(t *testing.T) {
	t.Run("explicit flag wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveAuthToken(context.Background(), " flag-token ")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "flag-token" || src != TokenSourceFlag {
			t.Fatalf("got (%q, %q), want (%q, %q)", tok, src, "flag-token", TokenSourceFlag)
		}
	})

	t.Run("env token next", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "env-token" || src != TokenSourceEnv {
			t.Fatalf("got (%q, %q), want (%q, %q)", tok, src, "env-token", TokenSourceEnv)
		}
	})

	t.Run("gh cli last", func(t *testing.T) {
		stubGhCLI(t, "echo gh-token\n")
		t.Setenv("GITHUB_TOKEN", "")

		tok, src, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "gh-token" || src != TokenSourceGhCLI {
			t.Fatalf("got (%q, %q), want (%q, %q)", tok, src, "gh-token", TokenSourceGhCLI)
		}
	})

	t.Run("no source yields empty token, no error", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "" || src != "" {
			t.Fatalf("got (%q, %q), want empty", tok, src)
		}
	})

	t.Run("multi-line gh output rejected", func(t *testing.T) {
		stubGhCLI(t, "printf 'line1\\nline2\\n'\n")
		t.Setenv("GITHUB_TOKEN", "")

		if _, _, err := ResolveAuthToken(context.Background(), ""); err == nil {
			t.Fatalf("expected an error for multi-line gh output")
		}
	})

	t.Run("gh failure treated as no token", func(t *testing.T) {
		stubGhCLI(t, "echo 'not logged in' >&2\nexit 1\n")
		t.Setenv("GITHUB_TOKEN", "")

		tok, _, err := ResolveAuthToken(context.Background(), "")
		if err != nil {
			t.Fatalf("ResolveAuthToken error: %v", err)
		}
		if tok != "" {
			t.Fatalf("got token %q, want empty", tok)
		}
	})

	t.Run("canceled context propagates", func(t *testing.T) {
		stubGhCLI(t, "echo gh-token\n")
		t.Setenv("GITHUB_TOKEN", "")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := ResolveAuthToken(ctx, "")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	})
}
