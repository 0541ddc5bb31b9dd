// Package packager assembles the distributable plugin archive.
//
// The pipeline exports the tracked plugin files at HEAD with git archive,
// stages them under the plugin slug, stamps metadata.txt with the release
// information, adds the repository LICENSE and compiled i18n catalogs when the
// export lacks them, and zips the staging directory.
package packager

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"qgispluginci/internal/config"
	"qgispluginci/internal/gitexec"
	"qgispluginci/internal/metadata"
)

// ErrDirtyWorkTree is returned when the working tree has uncommitted changes
// and the caller did not allow them.
var ErrDirtyWorkTree = errors.New("working tree has uncommitted changes")

// Options drives one packaging run.
type Options struct {
	// RepoRoot is the git repository root (gitexec.TopLevel).
	RepoRoot string

	// Params are the validated packaging parameters.
	Params *config.Parameters

	// Plugin is the parsed manifest, project defaults already applied.
	Plugin *metadata.Plugin

	// Version is the resolved release version ("1.2.3", never "latest").
	Version string

	// Experimental marks prerelease builds in the stamped manifest.
	Experimental bool

	// ChangelogExcerpt is embedded into the stamped manifest. Empty removes
	// any stale changelog key.
	ChangelogExcerpt string

	// AllowUncommitted downgrades the dirty working tree abort to a warning.
	AllowUncommitted bool

	// OutDir receives the archive. Defaults to RepoRoot.
	OutDir string

	// Now stamps the packaging time. Zero means time.Now.
	Now time.Time
}

// ArchiveName returns the archive file name for a plugin slug and version.
func ArchiveName(slug, version string) string {
	return fmt.Sprintf("%s.%s.zip", slug, version)
}

// Build runs the packaging pipeline and returns the absolute archive path.
func Build(ctx context.Context, git *gitexec.Git, opts Options) (string, error) {
	if opts.Plugin == nil || opts.Plugin.Name == "" {
		return "", errors.New("plugin manifest has no name")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.OutDir == "" {
		opts.OutDir = opts.RepoRoot
	}
	slug := config.PluginSlug(opts.Plugin.Name)
	pluginRel := filepath.ToSlash(opts.Params.PluginSource)

	dirty, err := git.IsDirty(ctx)
	if err != nil {
		return "", err
	}
	if dirty {
		if !opts.AllowUncommitted {
			return "", fmt.Errorf("%w (use --allow-uncommitted-changes to package anyway)", ErrDirtyWorkTree)
		}
		logrus.Warn("packager: working tree has uncommitted changes, packaging HEAD anyway")
	}

	staging, err := os.MkdirTemp("", "qgis-plugin-ci-*")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	// Export the tracked plugin files at HEAD.
	tarPath := filepath.Join(staging, "export.tar")
	if err := git.Archive(ctx, tarPath, pluginRel); err != nil {
		return "", err
	}
	if err := extractTar(tarPath, staging); err != nil {
		return "", err
	}
	if err := os.Remove(tarPath); err != nil {
		return "", fmt.Errorf("remove export tar: %w", err)
	}

	// The archive top-level directory is the slug, not the source dir name.
	stageDir := filepath.Join(staging, slug)
	exported := filepath.Join(staging, filepath.FromSlash(pluginRel))
	if exported != stageDir {
		if err := os.MkdirAll(filepath.Dir(stageDir), 0o755); err != nil {
			return "", fmt.Errorf("stage plugin dir: %w", err)
		}
		if err := os.Rename(exported, stageDir); err != nil {
			return "", fmt.Errorf("stage plugin dir: %w", err)
		}
	}

	manifestPath := filepath.Join(stageDir, metadata.FileName)
	if _, err := os.Stat(manifestPath); err != nil {
		return "", fmt.Errorf("exported plugin has no %s (is %s committed?)", metadata.FileName, pluginRel)
	}

	commitCount, err := git.CommitCount(ctx)
	if err != nil {
		return "", err
	}
	headSHA, err := git.HeadSHA(ctx)
	if err != nil {
		return "", err
	}

	if err := metadata.Write(manifestPath, opts.Plugin, metadata.Stamp{
		Version:      opts.Version,
		CommitNumber: commitCount,
		CommitSHA:    headSHA,
		DateTime:     opts.Now,
		Experimental: opts.Experimental,
		Changelog:    opts.ChangelogExcerpt,
	}); err != nil {
		return "", err
	}

	if err := copyLicense(opts.RepoRoot, stageDir); err != nil {
		return "", err
	}
	if err := copyI18nCatalogs(opts.Params.PluginPath(opts.RepoRoot), stageDir); err != nil {
		return "", err
	}

	zipPath := filepath.Join(opts.OutDir, ArchiveName(slug, opts.Version))
	if err := zipDir(stageDir, slug, zipPath); err != nil {
		return "", err
	}
	logrus.Infof("packager: built %s", zipPath)
	return zipPath, nil
}

// copyLicense copies the repository LICENSE into the staged plugin when the
// plugin source carries none. plugins.qgis.org requires a license in the
// package.
func copyLicense(repoRoot, stageDir string) error {
	if _, err := os.Stat(filepath.Join(stageDir, "LICENSE")); err == nil {
		return nil
	}
	src := filepath.Join(repoRoot, "LICENSE")
	if _, err := os.Stat(src); err != nil {
		return nil
	}
	logrus.Debug("packager: copying repository LICENSE into the package")
	return copyFile(src, filepath.Join(stageDir, "LICENSE"))
}

// copyI18nCatalogs copies compiled translation catalogs (i18n/*.qm) from the
// working tree when the git export lacks them. Compiled catalogs are usually
// build artifacts and not committed; compiling them is out of scope here.
func copyI18nCatalogs(pluginDir, stageDir string) error {
	srcDir := filepath.Join(pluginDir, "i18n")
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read i18n dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".qm") {
			continue
		}
		dst := filepath.Join(stageDir, "i18n", e.Name())
		if _, err := os.Stat(dst); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("stage i18n dir: %w", err)
		}
		logrus.Debugf("packager: copying compiled catalog i18n/%s", e.Name())
		if err := copyFile(filepath.Join(srcDir, e.Name()), dst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	return out.Close()
}

// extractTar unpacks a git archive export. git archive writes regular files
// and directories only, so other entry types are rejected.
func extractTar(tarPath, dest string) error {
	f, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("open export tar: %w", err)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read export tar: %w", err)
		}

		rel := filepath.FromSlash(hdr.Name)
		if strings.Contains(rel, "..") || filepath.IsAbs(rel) {
			return fmt.Errorf("export tar entry escapes staging dir: %q", hdr.Name)
		}
		target := filepath.Join(dest, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		case tar.TypeXGlobalHeader:
			// git archive emits one carrying the commit hash.
		default:
			return fmt.Errorf("unexpected entry type %d in export tar: %q", hdr.Typeflag, hdr.Name)
		}
	}
}

// zipDir zips dir under topDir as the archive's top-level directory. Entry
// names always use forward slashes.
func zipDir(dir, topDir, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := topDir + "/" + filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
	if walkErr != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("zip %s: %w", topDir, walkErr)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("zip %s: %w", topDir, err)
	}
	return out.Close()
}
