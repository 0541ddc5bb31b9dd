// Package osgeo uploads plugin archives to the official QGIS plugin
// repository (plugins.qgis.org) through its XML-RPC endpoint.
package osgeo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/kolo/xmlrpc"
	"github.com/sirupsen/logrus"
)

// uploadMethod is the remote procedure accepting the archive bytes.
const uploadMethod = "plugin.upload"

// requestTimeout bounds the upload. Archives are a few megabytes at most.
const requestTimeout = 5 * time.Minute

// ErrUploadRejected is returned when the repository refuses the archive
// (validation fault on the server side).
var ErrUploadRejected = errors.New("plugin repository rejected the upload")

// Client talks to one plugin repository endpoint with HTTP Basic credentials.
type Client struct {
	rpc      *xmlrpc.Client
	endpoint string
}

// basicAuthTransport injects the credentials into every request. Keeping them
// out of the endpoint URL keeps them out of error messages and logs.
type basicAuthTransport struct {
	base     http.RoundTripper
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(req)
}

// NewClient builds a client for endpoint. The OSGEO username and password are
// required by plugins.qgis.org.
func NewClient(endpoint, username, password string) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upload endpoint: %q", redact(endpoint))
	}
	if username == "" || password == "" {
		return nil, errors.New("OSGEO username and password are required for uploading")
	}
	// Credentials given inside the URL are replaced by the Basic auth
	// transport; drop them so they cannot leak.
	u.User = nil

	rpc, err := xmlrpc.NewClient(u.String(), &basicAuthTransport{
		base:     http.DefaultTransport,
		username: username,
		password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("create xmlrpc client: %w", err)
	}
	return &Client{rpc: rpc, endpoint: u.String()}, nil
}

// UploadPlugin sends the archive at path and returns the repository's plugin
// and version identifiers.
func (c *Client) UploadPlugin(ctx context.Context, path string) (pluginID, versionID int, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read archive: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	logrus.Infof("osgeo: uploading %s to %s", path, redact(c.endpoint))

	done := make(chan struct{})
	var reply []any
	var callErr error
	go func() {
		defer close(done)
		// The archive travels as a single XML-RPC base64 parameter.
		callErr = c.rpc.Call(uploadMethod, []any{xmlrpc.Base64(base64.StdEncoding.EncodeToString(raw))}, &reply)
	}()

	select {
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	case <-time.After(requestTimeout):
		return 0, 0, fmt.Errorf("%s: upload timed out after %s", redact(c.endpoint), requestTimeout)
	case <-done:
	}

	if callErr != nil {
		var fault xmlrpc.FaultError
		if errors.As(callErr, &fault) {
			return 0, 0, fmt.Errorf("%w: %s (code %d)", ErrUploadRejected, fault.String, fault.Code)
		}
		return 0, 0, fmt.Errorf("upload to %s: %w", redact(c.endpoint), callErr)
	}

	if len(reply) < 2 {
		return 0, 0, fmt.Errorf("unexpected %s response: %v", uploadMethod, reply)
	}
	return toInt(reply[0]), toInt(reply[1]), nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// redact strips any userinfo from a URL before it reaches a log line or error
// message.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.User = nil
	return u.String()
}
