// Package config loads and validates the packaging parameters.
//
// Parameters live next to the plugin source, in one of (first hit wins):
//
//  1. pyproject.toml, table [tool.qgis-plugin-ci]
//  2. qgis-plugin-ci.toml
//  3. .qgis-plugin-ci.toml
//  4. .qgis-plugin-ci (YAML, legacy)
//  5. .qgis-plugin-ci.yml (YAML, legacy)
//
// A pyproject.toml without the [tool.qgis-plugin-ci] table does not stop the
// search. When the parameters come from pyproject.toml, its [project] table is
// also captured so manifest fields left empty can be filled from it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultUploadURL is the official QGIS plugin repository XML-RPC endpoint.
const DefaultUploadURL = "https://plugins.qgis.org:443/plugins/RPC2/"

// DefaultChangelogFile is the changelog file name used when none is configured.
const DefaultChangelogFile = "CHANGELOG.md"

// candidateFiles is the discovery order, relative to the working directory.
var candidateFiles = []string{
	"pyproject.toml",
	"qgis-plugin-ci.toml",
	".qgis-plugin-ci.toml",
	".qgis-plugin-ci",
	".qgis-plugin-ci.yml",
}

type Parameters struct {
	// PluginSource is the plugin source directory, relative to the repository
	// root. Required.
	PluginSource string `toml:"plugin_source" yaml:"plugin_source"`

	// GithubOrganizationSlug is the GitHub account owning the repository.
	// Used to build release download URLs for plugins.xml.
	GithubOrganizationSlug string `toml:"github_organization_slug" yaml:"github_organization_slug"`

	// ProjectSlug is the repository name. Used together with
	// GithubOrganizationSlug for release download URLs.
	ProjectSlug string `toml:"project_slug" yaml:"project_slug"`

	// ChangelogFile is the changelog path relative to the repository root
	// (default: CHANGELOG.md).
	ChangelogFile string `toml:"changelog_file" yaml:"changelog_file"`

	// ChangelogMaxEntries caps how many changelog entries are embedded into
	// metadata.txt at packaging time. Must be > 0 (default: 3).
	ChangelogMaxEntries int `toml:"changelog_number_of_entries" yaml:"changelog_number_of_entries"`

	// CreateDate is the plugin creation date (YYYY-MM-DD), written into
	// plugins.xml. Optional.
	CreateDate string `toml:"create_date" yaml:"create_date"`

	// UploadURL is the XML-RPC endpoint archives are uploaded to when OSGEO
	// credentials are given (default: the official plugins.qgis.org endpoint).
	UploadURL string `toml:"upload_url" yaml:"upload_url"`

	// Check configures the external tools the check command runs.
	Check Check `toml:"check" yaml:"check"`

	// Project holds the pyproject.toml [project] metadata when the parameters
	// were discovered there. Nil otherwise.
	Project *ProjectMetadata `toml:"-" yaml:"-"`
}

// Check lists the external tool invocations for the check command, grouped by
// purpose. Each entry is one argv vector, e.g. ["ruff", "check", "."].
type Check struct {
	Lint [][]string `toml:"lint" yaml:"lint"`
	Test [][]string `toml:"test" yaml:"test"`
}

// ProjectMetadata is the subset of the pyproject.toml [project] table used to
// fill manifest fields left empty.
type ProjectMetadata struct {
	Description string          `toml:"description"`
	Keywords    []string        `toml:"keywords"`
	Authors     []projectAuthor `toml:"authors"`
	URLs        projectURLs     `toml:"urls"`
}

type projectAuthor struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type projectURLs struct {
	Homepage   string `toml:"homepage"`
	Tracker    string `toml:"tracker"`
	Repository string `toml:"repository"`
}

// Author returns the first declared author, or empty strings.
func (m *ProjectMetadata) Author() (name, email string) {
	if m == nil || len(m.Authors) == 0 {
		return "", ""
	}
	return m.Authors[0].Name, m.Authors[0].Email
}

// pyproject maps the parts of pyproject.toml this tool reads.
type pyproject struct {
	Tool struct {
		QgisPluginCI *Parameters `toml:"qgis-plugin-ci"`
	} `toml:"tool"`
	Project *ProjectMetadata `toml:"project"`
}

func New() *Parameters {
	return &Parameters{
		ChangelogFile:       DefaultChangelogFile,
		ChangelogMaxEntries: 3,
		UploadURL:           DefaultUploadURL,
	}
}

// Discover searches dir for a configuration file in the documented order and
// loads the first match. The returned source is the file the parameters came
// from, relative to dir.
func Discover(dir string) (*Parameters, string, error) {
	for _, name := range candidateFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		p, ok, err := loadFile(path, name)
		if err != nil {
			return nil, "", err
		}
		if !ok {
			// pyproject.toml without [tool.qgis-plugin-ci]; keep looking.
			logrus.Debugf("config: %s has no [tool.qgis-plugin-ci] table, skipping", name)
			continue
		}
		logrus.Debugf("config: loaded parameters from %s", name)
		return p, name, nil
	}
	return nil, "", fmt.Errorf(
		"no configuration found in %s (expected one of: %s)",
		dir, strings.Join(candidateFiles, ", "))
}

// Load reads parameters from an explicit configuration file.
func Load(path string) (*Parameters, error) {
	p, ok, err := loadFile(path, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: missing [tool.qgis-plugin-ci] table", path)
	}
	return p, nil
}

func loadFile(path, name string) (*Parameters, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read config %s: %w", path, err)
	}

	p := New()
	switch {
	case name == "pyproject.toml":
		var py pyproject
		if err := toml.Unmarshal(raw, &py); err != nil {
			return nil, false, fmt.Errorf("parse %s: %w", path, err)
		}
		if py.Tool.QgisPluginCI == nil {
			return nil, false, nil
		}
		merge(p, py.Tool.QgisPluginCI)
		p.Project = py.Project
	case strings.HasSuffix(name, ".toml"):
		loaded := &Parameters{}
		if err := toml.Unmarshal(raw, loaded); err != nil {
			return nil, false, fmt.Errorf("parse %s: %w", path, err)
		}
		merge(p, loaded)
	default:
		loaded := &Parameters{}
		if err := yaml.Unmarshal(raw, loaded); err != nil {
			return nil, false, fmt.Errorf("parse %s: %w", path, err)
		}
		merge(p, loaded)
	}
	return p, true, nil
}

// merge overlays non-zero loaded values onto the defaults.
func merge(dst, src *Parameters) {
	if src.PluginSource != "" {
		dst.PluginSource = src.PluginSource
	}
	if src.GithubOrganizationSlug != "" {
		dst.GithubOrganizationSlug = src.GithubOrganizationSlug
	}
	if src.ProjectSlug != "" {
		dst.ProjectSlug = src.ProjectSlug
	}
	if src.ChangelogFile != "" {
		dst.ChangelogFile = src.ChangelogFile
	}
	if src.ChangelogMaxEntries != 0 {
		dst.ChangelogMaxEntries = src.ChangelogMaxEntries
	}
	if src.CreateDate != "" {
		dst.CreateDate = src.CreateDate
	}
	if src.UploadURL != "" {
		dst.UploadURL = src.UploadURL
	}
	dst.Check = src.Check
}

func (p *Parameters) Validate() error {
	p.PluginSource = strings.TrimSpace(p.PluginSource)
	if p.PluginSource == "" {
		return errors.New("plugin_source must be set to the plugin source directory")
	}
	p.PluginSource = filepath.Clean(p.PluginSource)
	if p.PluginSource == "." || filepath.IsAbs(p.PluginSource) || strings.HasPrefix(p.PluginSource, "..") {
		return fmt.Errorf("plugin_source must be a relative path inside the repository, got %q", p.PluginSource)
	}

	if p.ChangelogMaxEntries <= 0 {
		return fmt.Errorf("changelog_number_of_entries must be > 0, got %d", p.ChangelogMaxEntries)
	}

	if p.UploadURL != "" {
		u, err := url.Parse(p.UploadURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("upload_url is not a valid URL: %q", p.UploadURL)
		}
	}

	if p.CreateDate != "" {
		if _, err := time.Parse("2006-01-02", p.CreateDate); err != nil {
			return fmt.Errorf("create_date must be YYYY-MM-DD, got %q", p.CreateDate)
		}
	}

	for _, group := range []struct {
		name  string
		argvs [][]string
	}{
		{"check.lint", p.Check.Lint},
		{"check.test", p.Check.Test},
	} {
		for i, argv := range group.argvs {
			if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
				return fmt.Errorf("%s entry %d must name a command", group.name, i+1)
			}
		}
	}

	return nil
}

// PluginPath returns the plugin source directory joined to the repository
// root.
func (p *Parameters) PluginPath(repoRoot string) string {
	return filepath.Join(repoRoot, p.PluginSource)
}

// ChangelogPath returns the changelog path joined to the repository root.
func (p *Parameters) ChangelogPath(repoRoot string) string {
	return filepath.Join(repoRoot, p.ChangelogFile)
}

// PluginSlug derives the archive top-level directory from the plugin name.
// Dashes become underscores so the directory stays a valid Python module name.
func PluginSlug(name string) string {
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}
