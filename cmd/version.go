package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-version"
	"go.uber.org/zap"

	"github.com/nulzo/provider-hub/internal/httpclient"
)

var AppVersion = "v0.0.0"

// ReleaseURL is the GitHub endpoint describing the latest release.
var ReleaseURL = "https://api.github.com/repos/nulzo/provider-hub/releases/latest"

type GitHubRelease struct {
	TagName string `json:"tag_name"`
}

// LatestRelease returns the newest published version when it is ahead of
// AppVersion, or nil when the running build is current.
func LatestRelease(ctx context.Context, client httpclient.HTTPClient) (*version.Version, error) {
	var release GitHubRelease
	if err := httpclient.SendRequest(ctx, client, http.MethodGet, ReleaseURL, nil, nil, &release); err != nil {
		return nil, err
	}

	current, err := version.NewVersion(AppVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid build version %q: %w", AppVersion, err)
	}

	latest, err := version.NewVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("invalid release tag %q: %w", release.TagName, err)
	}

	if current.LessThan(latest) {
		return latest, nil
	}
	return nil, nil
}

// CheckForUpdates logs a warning when a newer release exists. Failures are
// only logged at debug level.
func CheckForUpdates(ctx context.Context, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	latest, err := LatestRelease(ctx, &http.Client{Timeout: 2 * time.Second})
	if err != nil {
		logger.Debug("update check skipped", zap.Error(err))
		return
	}
	if latest == nil {
		return
	}

	logger.Warn("you are running an outdated version",
		zap.String("current", AppVersion),
		zap.String("latest", latest.Original()),
	)
}
