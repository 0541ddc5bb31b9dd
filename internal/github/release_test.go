package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

// newTestClient points a client at a stub GitHub API server.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-token")
	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	c.Client.BaseURL = base
	c.Client.UploadURL = base
	return c
}

func TestReleaseByTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/plugin/releases/tags/1.2.3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 77, "tag_name": "1.2.3"}`)
	})
	c := newTestClient(t, mux)

	rel, err := c.ReleaseByTag(context.Background(), "acme", "plugin", "1.2.3")
	if err != nil {
		t.Fatalf("ReleaseByTag returned error: %v", err)
	}
	if rel.GetID() != 77 {
		t.Fatalf("release ID = %d, want 77", rel.GetID())
	}
}

func TestReleaseByTag_NotFound(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.ReleaseByTag(context.Background(), "acme", "plugin", "9.9.9")
	if !errors.Is(err, ErrReleaseNotFound) {
		t.Fatalf("error = %v, want ErrReleaseNotFound", err)
	}
}

func TestUploadReleaseAsset_ReplacesExisting(t *testing.T) {
	var deleted, uploaded bool
	var uploadedName string

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/plugin/releases/77/assets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `[{"id": 5, "name": "plugin.1.2.3.zip"}]`)
		case http.MethodPost:
			uploaded = true
			uploadedName = r.URL.Query().Get("name")
			fmt.Fprint(w, `{"id": 6, "name": "plugin.1.2.3.zip", "browser_download_url": "https://example.org/plugin.1.2.3.zip"}`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/repos/acme/plugin/releases/assets/5", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux)

	path := filepath.Join(t.TempDir(), "plugin.1.2.3.zip")
	if err := os.WriteFile(path, []byte("zip-bytes"), 0o644); err != nil {
		t.Fatalf("write asset fixture: %v", err)
	}

	url, err := c.UploadReleaseAsset(context.Background(), "acme", "plugin", 77, path, "")
	if err != nil {
		t.Fatalf("UploadReleaseAsset returned error: %v", err)
	}
	if !deleted {
		t.Fatalf("existing asset with the same name was not deleted")
	}
	if !uploaded {
		t.Fatalf("asset was not uploaded")
	}
	if uploadedName != "plugin.1.2.3.zip" {
		t.Fatalf("uploaded name = %q, want plugin.1.2.3.zip", uploadedName)
	}
	if url != "https://example.org/plugin.1.2.3.zip" {
		t.Fatalf("download url = %q", url)
	}
}
