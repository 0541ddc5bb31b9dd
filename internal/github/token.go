package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

// TokenSource names where a resolved token came from, for logging.
type TokenSource string

const (
	TokenSourceFlag  TokenSource = "--github-token"
	TokenSourceEnv   TokenSource = "env:GITHUB_TOKEN"
	TokenSourceGhCLI TokenSource = "gh auth token"
)

// ghCLITimeout bounds the `gh auth token` call so a broken gh config or
// credential helper doesn't hang releases.
const ghCLITimeout = 5 * time.Second

// ResolveAuthToken resolves a GitHub access token: the explicit value first,
// then the GITHUB_TOKEN environment variable, then a logged-in GitHub CLI.
// An empty token with a nil error means no source had one. The token itself
// is never logged or echoed.
func ResolveAuthToken(ctx context.Context, explicit string) (string, TokenSource, error) {
	if tok := strings.TrimSpace(explicit); tok != "" {
		return tok, TokenSourceFlag, nil
	}
	if tok := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); tok != "" {
		return tok, TokenSourceEnv, nil
	}
	tok, err := tokenFromGhCLI(ctx)
	if err != nil {
		return "", "", err
	}
	if tok != "" {
		return tok, TokenSourceGhCLI, nil
	}
	return "", "", nil
}

func tokenFromGhCLI(ctx context.Context) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", nil
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ghCLITimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "gh", "auth", "token", "-h", "github.com")
	cmd.Env = append(envWithout("GH_PAGER"), "GH_PAGER=cat")
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// gh present but not logged in (or otherwise failing) means no
		// token. The raw output is dropped: it can reference auth state.
		return "", nil
	}

	tok := strings.TrimSpace(string(out))
	if tok == "" {
		return "", nil
	}
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", errors.New("gh auth token returned something that is not a token")
	}
	return tok, nil
}

func envWithout(key string) []string {
	env := os.Environ()
	kept := env[:0]
	prefix := key + "="
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
