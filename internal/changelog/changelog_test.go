package changelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixture = `# Changelog

All notable changes to this project are documented in this file.

## Unreleased

- Work in progress, never part of a release note

## 10.1.0-beta1 - 2021-09-01

- This is the latest documented version in this changelog
- The changelog module is tested against these lines
- Be careful modifying this file

## 10.1.0-alpha1 - 2021-08-31

- This is a version with a prerelease in this changelog

## [10.0.1] - 2020-12-31

- End of year version

## [10.0.0](https://example.org/releases/10.0.0) - 2020-11-08

- A
- B
- C

### Fixed

- Nested subsection stays attached to its version

## 9.10.1 - 2020-10-25

- D
- E
- F

## v0.1.1 - 2020-01-02

* Tag with a "v" prefix to check the regular expression
* Previous version

## 0.1.0 - 2019-12-31

* Very old version
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "CHANGELOG.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParse_CollectsReleasedVersionsOnly(t *testing.T) {
	cl, err := Parse(writeFixture(t, fixture))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if cl.Empty() {
		t.Fatalf("expected non-empty changelog")
	}
	// The Unreleased section must not count.
	if got, want := cl.Len(), 7; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
}

func TestFind(t *testing.T) {
	cl, err := Parse(writeFixture(t, fixture))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	tests := []struct {
		tag  string
		want string
	}{
		{
			tag: "10.1.0-beta1",
			want: "- This is the latest documented version in this changelog\n" +
				"- The changelog module is tested against these lines\n" +
				"- Be careful modifying this file",
		},
		{tag: "10.0.1", want: "- End of year version"},
		{
			tag: "10.0.0",
			want: "- A\n- B\n- C\n\n### Fixed\n\n" +
				"- Nested subsection stays attached to its version",
		},
		{tag: "9.10.1", want: "- D\n- E\n- F"},
		{
			tag: "v0.1.1",
			want: "* Tag with a \"v\" prefix to check the regular expression\n" +
				"* Previous version",
		},
		{tag: "0.1.0", want: "* Very old version"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			note, ok := cl.Find(tt.tag)
			if !ok {
				t.Fatalf("Find(%q) not found", tt.tag)
			}
			if got := note.Text(); got != tt.want {
				t.Fatalf("Find(%q).Text() = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}

	if _, ok := cl.Find("0.0.0"); ok {
		t.Fatalf("Find(0.0.0) should not match any version")
	}
}

func TestFind_Latest(t *testing.T) {
	cl, err := Parse(writeFixture(t, fixture))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	note, ok := cl.Find(Latest)
	if !ok {
		t.Fatalf("Find(latest) not found")
	}
	if got, want := note.Version(), "10.1.0-beta1"; got != want {
		t.Fatalf("latest version = %q, want %q", got, want)
	}
	if !note.IsPrerelease() {
		t.Fatalf("expected latest to be a prerelease")
	}
	if got, want := note.Date, "2021-09-01"; got != want {
		t.Fatalf("latest date = %q, want %q", got, want)
	}

	viaLatest, ok := cl.LatestNote()
	if !ok || viaLatest.Version() != note.Version() {
		t.Fatalf("LatestNote() = %v/%v, want %v", viaLatest, ok, note)
	}
}

func TestFormatLastItems(t *testing.T) {
	cl, err := Parse(writeFixture(t, fixture))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	out := cl.FormatLastItems(3)
	if !strings.HasPrefix(out, "\nVersion 10.1.0-beta1:\n") {
		t.Fatalf("unexpected prefix: %q", out)
	}
	if got, want := strings.Count(out, "Version "), 3; got != want {
		t.Fatalf("entry count = %d, want %d", got, want)
	}
	if strings.Contains(out, "10.0.0") {
		t.Fatalf("entry past the cutoff leaked into output: %q", out)
	}
	if !strings.Contains(out, "- End of year version") {
		t.Fatalf("expected third entry body in output: %q", out)
	}

	if got := cl.FormatLastItems(0); got != "" {
		t.Fatalf("FormatLastItems(0) = %q, want empty", got)
	}
}

func TestParse_EmptyChangelog(t *testing.T) {
	cl, err := Parse(writeFixture(t, "# Changelog\n\n## Unreleased\n\n- nothing released yet\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !cl.Empty() {
		t.Fatalf("expected empty changelog, got %d entries", cl.Len())
	}
	if got := cl.FormatLastItems(3); got != "" {
		t.Fatalf("FormatLastItems on empty changelog = %q, want empty", got)
	}
	if _, ok := cl.Find(Latest); ok {
		t.Fatalf("Find(latest) on empty changelog should report not found")
	}
}

func TestParse_MissingFile(t *testing.T) {
	if _, err := Parse(filepath.Join(t.TempDir(), "CHANGELOG.md")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
