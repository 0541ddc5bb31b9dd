// Package changelog parses changelog files following the
// keep-a-changelog convention (https://keepachangelog.com/en/1.0.0/).
//
// Only released sections are collected: a heading must carry a version and a
// date ("## [1.2.3] - 2024-01-31"). "Unreleased" sections are ignored.
package changelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Latest selects the newest version described in the changelog (the first
// section, by convention).
const Latest = "latest"

// headingRe matches a released version heading. Versions may be wrapped in
// square brackets, carry a "v" prefix, a SemVer prerelease and build metadata,
// and an optional markdown link. The date is the 10-character tail of the
// heading (e.g. 2024-01-31 or 2024/01/31).
var headingRe = regexp.MustCompile(
	`^##\s*\[?(v?0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
		`(?:\+[0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*)?` +
		`\]?(?:\(.*?\))?\s*-\s*([\d/-]{10})\s*$`)

// VersionNote is one released section of a changelog.
type VersionNote struct {
	Major      string
	Minor      string
	Patch      string
	Prerelease string
	Date       string

	raw string
}

// Version returns the version string as written in the heading, prerelease
// included ("1.2.3", "v0.1.1", "10.1.0-beta1").
func (n VersionNote) Version() string {
	if n.Prerelease != "" {
		return fmt.Sprintf("%s.%s.%s-%s", n.Major, n.Minor, n.Patch, n.Prerelease)
	}
	return fmt.Sprintf("%s.%s.%s", n.Major, n.Minor, n.Patch)
}

// IsPrerelease reports whether the heading carried a prerelease suffix.
func (n VersionNote) IsPrerelease() bool {
	return n.Prerelease != ""
}

// Text returns the section body with surrounding blank lines removed.
func (n VersionNote) Text() string {
	return strings.TrimSpace(n.raw)
}

// Changelog holds the released sections of a changelog file, newest first.
type Changelog struct {
	notes []VersionNote
}

// Parse reads and parses a changelog file.
func Parse(path string) (*Changelog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open changelog: %w", err)
	}
	defer f.Close()

	cl, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse changelog %s: %w", path, err)
	}
	return cl, nil
}

func parse(r io.Reader) (*Changelog, error) {
	var (
		notes   []VersionNote
		current *VersionNote
		body    strings.Builder
	)

	flush := func() {
		if current == nil {
			return
		}
		current.raw = body.String()
		notes = append(notes, *current)
		current = nil
		body.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "##") && !strings.HasPrefix(line, "###") {
			flush()
			if m := headingRe.FindStringSubmatch(line); m != nil {
				current = &VersionNote{
					Major:      m[1],
					Minor:      m[2],
					Patch:      m[3],
					Prerelease: m[4],
					Date:       m[5],
				}
			}
			// Headings without a version+date (e.g. "## Unreleased")
			// start a section that is not collected.
			continue
		}
		if current != nil {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return &Changelog{notes: notes}, nil
}

// Empty reports whether no released section was found.
func (c *Changelog) Empty() bool {
	return len(c.notes) == 0
}

// Len returns the number of released sections.
func (c *Changelog) Len() int {
	return len(c.notes)
}

// Find returns the note for the given version string, or the newest note when
// tag is Latest. The match is against the version exactly as written in the
// heading.
func (c *Changelog) Find(tag string) (VersionNote, bool) {
	if c.Empty() {
		return VersionNote{}, false
	}
	if tag == Latest {
		return c.notes[0], true
	}
	for _, n := range c.notes {
		if n.Version() == tag {
			return n, true
		}
	}
	return VersionNote{}, false
}

// LatestNote returns the newest released note.
func (c *Changelog) LatestNote() (VersionNote, bool) {
	return c.Find(Latest)
}

// FormatLastItems renders the newest count sections in the form embedded into
// metadata.txt:
//
//	Version 1.2.3:
//	- change
//	- change
//
// An empty changelog renders as the empty string.
func (c *Changelog) FormatLastItems(count int) string {
	if c.Empty() || count <= 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString("\n")
	for i, n := range c.notes {
		if i >= count {
			break
		}
		fmt.Fprintf(&out, "Version %s:\n", n.Version())
		if text := n.Text(); text != "" {
			out.WriteString(text)
		}
		out.WriteString("\n\n")
	}
	return out.String()
}
