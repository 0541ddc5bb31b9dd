// Package github talks to the GitHub API for release asset publishing and
// resolves the access token to do it with.
package github

import (
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// Client wraps the go-github client used for release lookups and asset
// uploads.
type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type clientConfig struct {
	verbose bool
}

type Option func(*clientConfig)

// WithVerbose logs every API request and response through logrus at debug
// level.
func WithVerbose(enabled bool) Option {
	return func(c *clientConfig) {
		c.verbose = enabled
	}
}

// apiLogTransport emits one debug line per request and one per response,
// with latency. The Authorization header is never logged.
type apiLogTransport struct {
	base http.RoundTripper
}

func (t *apiLogTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	logrus.Debugf("github api: %s %s", req.Method, req.URL)
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		logrus.Debugf("github api: error after %s: %v", dur, err)
		return resp, err
	}
	logrus.Debugf("github api: %d %s (%s)", resp.StatusCode, http.StatusText(resp.StatusCode), dur)
	return resp, nil
}

// NewClient builds an API client. An empty token yields an unauthenticated
// client (enough for dry-run checks against public repositories).
func NewClient(token string, opts ...Option) *Client {
	var cfg clientConfig
	for _, apply := range opts {
		if apply != nil {
			apply(&cfg)
		}
	}

	transport := http.DefaultTransport
	if cfg.verbose {
		transport = &apiLogTransport{base: transport}
	}
	if token != "" {
		source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: source, Base: transport}
	}
	hc := &http.Client{Transport: transport}

	return &Client{
		Client: github.NewClient(hc),
		HTTP:   hc,
	}
}
