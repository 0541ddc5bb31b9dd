// Package release orchestrates a plugin release: resolve the version, run the
// blocking manifest validation, build the archive, generate the repository
// index, and publish to GitHub and/or plugins.qgis.org.
package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"qgispluginci/internal/changelog"
	"qgispluginci/internal/config"
	"qgispluginci/internal/gitexec"
	"qgispluginci/internal/packager"
	"qgispluginci/internal/pluginrepo"
	"qgispluginci/internal/validate"
)

var (
	// ErrNoChangelog is returned when a "latest" version cannot be resolved
	// because the changelog file is missing or has no released section.
	ErrNoChangelog = errors.New("no changelog entries found")

	// ErrVersionNotFound is returned when the requested version is not a
	// valid version string.
	ErrVersionNotFound = errors.New("release version not found")
)

// VersionInfo is a resolved release version with its packaging side-data.
type VersionInfo struct {
	// Version as it is stamped into metadata.txt and the archive name.
	Version string

	// Experimental is true for prerelease versions.
	Experimental bool

	// Excerpt is the changelog excerpt embedded into metadata.txt. Empty
	// when no changelog is available.
	Excerpt string
}

// ResolveVersion turns the CLI version argument (a SemVer string or the
// "latest" sentinel) into a concrete version, reading the changelog when
// needed. A missing changelog only fails the "latest" sentinel; explicit
// versions degrade to a warning and an empty excerpt.
func ResolveVersion(repoRoot string, params *config.Parameters, raw string) (VersionInfo, error) {
	var cl *changelog.Changelog
	path := params.ChangelogPath(repoRoot)
	if _, err := os.Stat(path); err == nil {
		cl, err = changelog.Parse(path)
		if err != nil {
			return VersionInfo{}, err
		}
	}

	var info VersionInfo
	if raw == changelog.Latest {
		if cl == nil || cl.Empty() {
			return VersionInfo{}, fmt.Errorf("%w: cannot resolve %q without %s", ErrNoChangelog, raw, params.ChangelogFile)
		}
		note, _ := cl.LatestNote()
		info.Version = note.Version()
		info.Experimental = note.IsPrerelease()
	} else {
		v, err := semver.StrictNewVersion(trimV(raw))
		if err != nil {
			return VersionInfo{}, fmt.Errorf("%w: %q is not a valid SemVer version (or %q)", ErrVersionNotFound, raw, changelog.Latest)
		}
		info.Version = raw
		info.Experimental = v.Prerelease() != ""
	}

	if cl == nil || cl.Empty() {
		logrus.Warnf("release: no changelog entries in %s, packaging without release notes", params.ChangelogFile)
		return info, nil
	}
	info.Excerpt = cl.FormatLastItems(params.ChangelogMaxEntries)
	return info, nil
}

func trimV(raw string) string {
	if len(raw) > 1 && raw[0] == 'v' {
		return raw[1:]
	}
	return raw
}

// GitHubPublisher is the subset of the GitHub client a release needs.
type GitHubPublisher interface {
	ReleaseID(ctx context.Context, owner, repo, tag string) (int64, error)
	UploadReleaseAsset(ctx context.Context, owner, repo string, releaseID int64, path, name string) (string, error)
}

// OsgeoUploader uploads an archive to the official plugin repository.
type OsgeoUploader interface {
	UploadPlugin(ctx context.Context, path string) (pluginID, versionID int, err error)
}

// Options drives one release (or plain packaging) run.
type Options struct {
	Params *config.Parameters

	// VersionArg is the raw CLI argument: SemVer or "latest".
	VersionArg string

	// GitTag is the GitHub release tag. Empty defaults to the resolved
	// version.
	GitTag string

	// PluginRepoURL is an alternate repository base URL for plugins.xml
	// download links. Setting it implies index generation.
	PluginRepoURL string

	// CreatePluginRepo generates plugins.xml (and uploads it as a release
	// asset when publishing to GitHub).
	CreatePluginRepo bool

	AllowUncommitted bool

	// DryRun builds everything locally and suppresses every upload.
	DryRun bool
}

// Result summarizes what a run produced.
type Result struct {
	Version      string
	ArchivePath  string
	ArchiveSize  int64
	IndexPath    string
	AssetURLs    []string
	OsgeoPlugin  int
	OsgeoVersion int
}

// Runner carries the run's collaborators. GitHub and Osgeo are nil when the
// respective publishing target is not requested.
type Runner struct {
	Git    *gitexec.Git
	GitHub GitHubPublisher
	Osgeo  OsgeoUploader
}

// Package validates the manifest, resolves the version and builds the
// archive (plus plugins.xml when requested). It is the whole of the package
// command and the first half of the release command.
func (r *Runner) Package(ctx context.Context, opts Options) (*Result, error) {
	params := opts.Params
	repoRoot, err := r.Git.TopLevel(ctx)
	if err != nil {
		return nil, err
	}

	target := validate.NewTarget(repoRoot, params)
	if err := validate.RunBlocking(ctx, target); err != nil {
		return nil, err
	}

	info, err := ResolveVersion(repoRoot, params, opts.VersionArg)
	if err != nil {
		return nil, err
	}

	archivePath, err := packager.Build(ctx, r.Git, packager.Options{
		RepoRoot:         repoRoot,
		Params:           params,
		Plugin:           target.Plugin,
		Version:          info.Version,
		Experimental:     info.Experimental,
		ChangelogExcerpt: info.Excerpt,
		AllowUncommitted: opts.AllowUncommitted,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Version: info.Version, ArchivePath: archivePath}
	if fi, err := os.Stat(archivePath); err == nil {
		res.ArchiveSize = fi.Size()
	}

	if opts.CreatePluginRepo || opts.PluginRepoURL != "" {
		indexPath, err := r.writeIndex(target, opts, info, filepath.Base(archivePath), filepath.Dir(archivePath))
		if err != nil {
			return nil, err
		}
		res.IndexPath = indexPath
	}
	return res, nil
}

func (r *Runner) writeIndex(target validate.Target, opts Options, info VersionInfo, zipName, dir string) (string, error) {
	params := opts.Params
	tag := opts.GitTag
	if tag == "" {
		tag = info.Version
	}

	var downloadURL string
	if opts.PluginRepoURL != "" {
		downloadURL = pluginrepo.CustomDownloadURL(opts.PluginRepoURL, zipName)
	} else {
		if params.GithubOrganizationSlug == "" || params.ProjectSlug == "" {
			return "", errors.New("github_organization_slug and project_slug must be configured to build GitHub download links (or set --plugin-repo-url)")
		}
		downloadURL = pluginrepo.GitHubDownloadURL(params.GithubOrganizationSlug, params.ProjectSlug, tag, zipName)
	}

	plugin := *target.Plugin
	plugin.Experimental = info.Experimental

	updateDate := params.CreateDate
	entry := pluginrepo.NewEntry(&plugin, info.Version, zipName, downloadURL, params.CreateDate, updateDate)

	indexPath := filepath.Join(dir, pluginrepo.FileName)
	if err := pluginrepo.WriteFile(indexPath, entry); err != nil {
		return "", err
	}
	logrus.Infof("release: wrote %s", indexPath)
	return indexPath, nil
}

// Run packages and then publishes to every configured target.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	res, err := r.Package(ctx, opts)
	if err != nil {
		return nil, err
	}

	if r.GitHub != nil {
		if err := r.publishGitHub(ctx, opts, res); err != nil {
			return nil, err
		}
	}

	if r.Osgeo != nil {
		if opts.DryRun {
			logrus.Infof("release: dry-run, skipping upload of %s to %s", res.ArchivePath, opts.Params.UploadURL)
		} else {
			pluginID, versionID, err := r.Osgeo.UploadPlugin(ctx, res.ArchivePath)
			if err != nil {
				return nil, err
			}
			res.OsgeoPlugin = pluginID
			res.OsgeoVersion = versionID
			logrus.Infof("release: uploaded to the QGIS plugin repository (plugin %d, version %d)", pluginID, versionID)
		}
	}

	return res, nil
}

func (r *Runner) publishGitHub(ctx context.Context, opts Options, res *Result) error {
	params := opts.Params
	if params.GithubOrganizationSlug == "" || params.ProjectSlug == "" {
		return errors.New("github_organization_slug and project_slug must be configured to publish a GitHub release")
	}
	tag := opts.GitTag
	if tag == "" {
		tag = res.Version
	}

	if opts.DryRun {
		logrus.Infof("release: dry-run, would upload %s to %s/%s release %s",
			filepath.Base(res.ArchivePath), params.GithubOrganizationSlug, params.ProjectSlug, tag)
		if res.IndexPath != "" {
			logrus.Infof("release: dry-run, would upload %s as well", pluginrepo.FileName)
		}
		return nil
	}

	releaseID, err := r.GitHub.ReleaseID(ctx, params.GithubOrganizationSlug, params.ProjectSlug, tag)
	if err != nil {
		return err
	}

	// The archive and the repository index upload concurrently; both must
	// succeed.
	var urls [2]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := r.GitHub.UploadReleaseAsset(gctx, params.GithubOrganizationSlug, params.ProjectSlug, releaseID, res.ArchivePath, "")
		urls[0] = url
		return err
	})
	if res.IndexPath != "" {
		g.Go(func() error {
			url, err := r.GitHub.UploadReleaseAsset(gctx, params.GithubOrganizationSlug, params.ProjectSlug, releaseID, res.IndexPath, pluginrepo.FileName)
			urls[1] = url
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, u := range urls {
		if u != "" {
			res.AssetURLs = append(res.AssetURLs, u)
		}
	}
	return nil
}

// HumanSize renders a byte count for the console ("12 kB", "3.4 MB").
func HumanSize(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}
