package github

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"
)

// ErrReleaseNotFound is returned when no GitHub release exists for a tag.
var ErrReleaseNotFound = errors.New("github release not found")

// ReleaseByTag resolves the release published for tag.
func (c *Client) ReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, error) {
	rel, resp, err := c.Client.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, fmt.Errorf("%w for tag %q in %s/%s (create the release first)", ErrReleaseNotFound, tag, owner, repo)
		}
		return nil, fmt.Errorf("get release for tag %q: %w", tag, err)
	}
	return rel, nil
}

// UploadReleaseAsset attaches the file at path to a release under the given
// asset name (empty name keeps the file base name). An existing asset with
// the same name is replaced, so re-running a release stays idempotent.
// It returns the asset's browser download URL.
func (c *Client) UploadReleaseAsset(ctx context.Context, owner, repo string, releaseID int64, path, name string) (string, error) {
	if name == "" {
		name = filepath.Base(path)
	}

	if err := c.deleteAssetByName(ctx, owner, repo, releaseID, name); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open asset %s: %w", path, err)
	}
	defer f.Close()

	logrus.Infof("github: uploading release asset %s", name)
	asset, _, err := c.Client.Repositories.UploadReleaseAsset(ctx, owner, repo, releaseID,
		&github.UploadOptions{Name: name}, f)
	if err != nil {
		return "", fmt.Errorf("upload asset %s: %w", name, err)
	}
	return asset.GetBrowserDownloadURL(), nil
}

func (c *Client) deleteAssetByName(ctx context.Context, owner, repo string, releaseID int64, name string) error {
	opt := &github.ListOptions{PerPage: 100}
	for {
		assets, resp, err := c.Client.Repositories.ListReleaseAssets(ctx, owner, repo, releaseID, opt)
		if err != nil {
			return fmt.Errorf("list release assets: %w", err)
		}
		for _, a := range assets {
			if a.GetName() != name {
				continue
			}
			logrus.Debugf("github: replacing existing asset %s", name)
			if _, err := c.Client.Repositories.DeleteReleaseAsset(ctx, owner, repo, a.GetID()); err != nil {
				return fmt.Errorf("delete existing asset %s: %w", name, err)
			}
			return nil
		}
		if resp.NextPage == 0 {
			return nil
		}
		opt.Page = resp.NextPage
	}
}

// ReleaseID returns the numeric ID of the release published for tag.
func (c *Client) ReleaseID(ctx context.Context, owner, repo, tag string) (int64, error) {
	rel, err := c.ReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		return 0, err
	}
	return rel.GetID(), nil
}
