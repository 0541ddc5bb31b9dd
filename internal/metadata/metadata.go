// Package metadata reads and rewrites the QGIS plugin manifest (metadata.txt).
//
// The manifest is an INI file with a single [general] section. Key casing
// matters to QGIS (qgisMinimumVersion), so parsing is case-preserving, and
// rewrites keep unknown keys and the original key order intact.
package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// FileName is the manifest file name inside the plugin source directory.
const FileName = "metadata.txt"

const sectionGeneral = "general"

// Plugin is the parsed [general] section of metadata.txt.
type Plugin struct {
	// Name is the plugin display name. Required.
	Name string

	// QgisMinimumVersion is the lowest QGIS version the plugin supports
	// ("3.2"). Required by the official repository.
	QgisMinimumVersion string

	// QgisMaximumVersion caps the supported QGIS versions. Optional; the
	// repository index defaults it to 3.99.
	QgisMaximumVersion string

	Author      string
	Email       string
	Description string
	About       string

	// Icon is a path relative to the plugin source directory.
	Icon string

	// Tags is the comma-separated tags key, split and trimmed.
	Tags []string

	Experimental bool
	Deprecated   bool

	// Homepage is mandatory for publishing on plugins.qgis.org.
	Homepage   string
	Tracker    string
	Repository string
	Category   string
}

// Path returns the manifest path for a plugin source directory.
func Path(pluginDir string) string {
	return filepath.Join(pluginDir, FileName)
}

// Read parses the manifest of the plugin rooted at pluginDir.
func Read(pluginDir string) (*Plugin, error) {
	return ReadFile(Path(pluginDir))
}

// ReadFile parses a manifest file.
func ReadFile(path string) (*Plugin, error) {
	f, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	sec := f.Section(sectionGeneral)

	p := &Plugin{
		Name:               sec.Key("name").String(),
		QgisMinimumVersion: sec.Key("qgisMinimumVersion").String(),
		QgisMaximumVersion: sec.Key("qgisMaximumVersion").String(),
		Author:             sec.Key("author").String(),
		Email:              sec.Key("email").String(),
		Description:        sec.Key("description").String(),
		About:              sec.Key("about").String(),
		Icon:               sec.Key("icon").String(),
		Tags:               SplitTags(sec.Key("tags").String()),
		Experimental:       sec.Key("experimental").MustBool(false),
		Deprecated:         sec.Key("deprecated").MustBool(false),
		Homepage:           sec.Key("homepage").String(),
		Tracker:            sec.Key("tracker").String(),
		Repository:         sec.Key("repository").String(),
		Category:           sec.Key("category").String(),
	}
	return p, nil
}

// SplitTags splits the comma-separated tags value, dropping empty entries.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}

// Defaults supplies values for manifest fields the plugin author left empty,
// typically sourced from the pyproject.toml [project] table.
type Defaults struct {
	Description string
	Author      string
	Email       string
	Tags        []string
	Homepage    string
	Tracker     string
	Repository  string
}

// FillMissing sets every empty field of p that has a non-empty default.
// Fields already set in metadata.txt always win.
func (p *Plugin) FillMissing(d Defaults) {
	if p.Description == "" {
		p.Description = d.Description
	}
	if p.Author == "" {
		p.Author = d.Author
	}
	if p.Email == "" {
		p.Email = d.Email
	}
	if len(p.Tags) == 0 {
		p.Tags = d.Tags
	}
	if p.Homepage == "" {
		p.Homepage = d.Homepage
	}
	if p.Tracker == "" {
		p.Tracker = d.Tracker
	}
	if p.Repository == "" {
		p.Repository = d.Repository
	}
}

// Stamp is the release information written into the staged manifest before it
// is archived.
type Stamp struct {
	// Version is the release version as it should appear in metadata.txt.
	Version string

	// CommitNumber is the number of commits reachable from HEAD.
	CommitNumber int

	// CommitSHA is the HEAD commit hash.
	CommitSHA string

	// DateTime is the packaging time; written as UTC `2006-01-02T15:04:05Z`.
	DateTime time.Time

	// Experimental marks prerelease builds.
	Experimental bool

	// Changelog is the rendered changelog excerpt. When empty, any existing
	// changelog key is removed instead.
	Changelog string
}

// Write rewrites the manifest at path with the merged plugin fields and the
// release stamp. Keys that are not managed here keep their value and position;
// managed keys are updated in place or appended.
func Write(path string, p *Plugin, st Stamp) error {
	f, err := loadFile(path)
	if err != nil {
		return err
	}
	sec := f.Section(sectionGeneral)

	set := func(key, value string) {
		sec.Key(key).SetValue(value)
	}

	set("description", p.Description)
	set("author", p.Author)
	set("email", p.Email)
	set("tags", strings.Join(p.Tags, ","))
	set("homepage", p.Homepage)
	set("repository", p.Repository)
	set("tracker", p.Tracker)

	set("version", st.Version)
	set("commitNumber", fmt.Sprintf("%d", st.CommitNumber))
	set("commitSha1", st.CommitSHA)
	set("dateTime", st.DateTime.UTC().Format("2006-01-02T15:04:05Z"))
	set("experimental", formatBool(st.Experimental))

	if st.Changelog != "" {
		set("changelog", strings.TrimRight(st.Changelog, "\n"))
	} else {
		sec.DeleteKey("changelog")
	}

	return save(f, path)
}

// save renders the manifest in the configparser dialect QGIS reads: keys in
// their original order, multi-line values continued on tab-indented lines.
// ini.v1's own writer wraps multi-line values in triple quotes, which QGIS
// does not understand.
func save(f *ini.File, path string) error {
	var b strings.Builder
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", sec.Name())
		for _, k := range sec.Keys() {
			fmt.Fprintf(&b, "%s = %s\n", k.Name(), strings.ReplaceAll(k.Value(), "\n", "\n\t"))
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// formatBool renders booleans the way QGIS expects them in metadata.txt.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func loadFile(path string) (*ini.File, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		// QGIS manifests may carry multi-line values (about, changelog)
		// indented under their key.
		AllowPythonMultilineValues: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	if _, err := f.GetSection(sectionGeneral); err != nil {
		return nil, fmt.Errorf("manifest %s: missing [general] section", path)
	}
	return f, nil
}
