// Package pluginrepo renders the plugins.xml index consumed by QGIS when a
// plugin is served from a custom repository (or attached to a GitHub release).
package pluginrepo

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"qgispluginci/internal/metadata"
)

// FileName is the index file name QGIS expects.
const FileName = "plugins.xml"

// defaultQgisMaximumVersion is what the official repository assumes when a
// plugin does not cap its supported QGIS versions.
const defaultQgisMaximumVersion = "3.99"

type index struct {
	XMLName xml.Name `xml:"plugins"`
	Plugins []Entry  `xml:"pyqgis_plugin"`
}

// Entry is one pyqgis_plugin element of the index.
type Entry struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr"`

	Description        string `xml:"description"`
	About              string `xml:"about"`
	BodyVersion        string `xml:"version"`
	Trusted            bool   `xml:"trusted"`
	QgisMinimumVersion string `xml:"qgis_minimum_version"`
	QgisMaximumVersion string `xml:"qgis_maximum_version"`
	Homepage           string `xml:"homepage"`
	FileName           string `xml:"file_name"`
	Icon               string `xml:"icon"`
	AuthorName         string `xml:"author_name"`
	DownloadURL        string `xml:"download_url"`
	UploadedBy         string `xml:"uploaded_by"`
	CreateDate         string `xml:"create_date"`
	UpdateDate         string `xml:"update_date"`
	Experimental       bool   `xml:"experimental"`
	Deprecated         bool   `xml:"deprecated"`
	Tracker            string `xml:"tracker"`
	Repository         string `xml:"repository"`
	Tags               string `xml:"tags"`
}

// NewEntry maps a stamped manifest to an index entry.
func NewEntry(p *metadata.Plugin, version, fileName, downloadURL, createDate, updateDate string) Entry {
	maxVersion := p.QgisMaximumVersion
	if maxVersion == "" {
		maxVersion = defaultQgisMaximumVersion
	}
	return Entry{
		Name:               p.Name,
		Version:            version,
		BodyVersion:        version,
		Description:        p.Description,
		About:              p.About,
		QgisMinimumVersion: p.QgisMinimumVersion,
		QgisMaximumVersion: maxVersion,
		Homepage:           p.Homepage,
		FileName:           fileName,
		Icon:               p.Icon,
		AuthorName:         p.Author,
		DownloadURL:        downloadURL,
		UploadedBy:         p.Author,
		CreateDate:         createDate,
		UpdateDate:         updateDate,
		Experimental:       p.Experimental,
		Deprecated:         p.Deprecated,
		Tracker:            p.Tracker,
		Repository:         p.Repository,
		Tags:               strings.Join(p.Tags, ","),
	}
}

// Render writes the index document for the given entries.
func Render(w io.Writer, entries ...Entry) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("render %s: %w", FileName, err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(index{Plugins: entries}); err != nil {
		return fmt.Errorf("render %s: %w", FileName, err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("render %s: %w", FileName, err)
	}
	return nil
}

// WriteFile renders the index to path.
func WriteFile(path string, entries ...Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", FileName, err)
	}
	if err := Render(f, entries...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// GitHubDownloadURL builds the asset download URL of a GitHub release.
func GitHubDownloadURL(org, project, tag, fileName string) string {
	return fmt.Sprintf("https://github.com/%s/%s/releases/download/%s/%s", org, project, tag, fileName)
}

// CustomDownloadURL appends the archive name to an alternate repository base
// URL.
func CustomDownloadURL(baseURL, fileName string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + fileName
}
