// pkg/version/version.go
// Package version provides version metadata for the application.
package version

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v28/github"
	goversion "github.com/hashicorp/go-version"
	"github.com/rs/zerolog/log"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of deckhand.
	Version = "dev"
	// Commit holds the current version commit of deckhand.
	Commit = "none"
	// BuildDate holds the build date of deckhand.
	BuildDate = "I don't remember exactly"
	// StartDate holds the start date of deckhand.
	StartDate = time.Now()
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("Deckhand %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	}
}

// CheckNewVersion checks GitHub releases for a version newer than the
// running build. Returns the newer version string, or empty when up to
// date. Dev builds are never checked.
func CheckNewVersion(ctx context.Context) (string, error) {
	if Version == "dev" {
		return "", nil
	}

	client := github.NewClient(nil)

	releases, resp, err := client.Repositories.ListReleases(ctx, "deckhand-io", "deckhand", nil)
	if err != nil {
		return "", fmt.Errorf("list releases: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("list releases: status=%s", resp.Status)
	}

	currentVersion, err := goversion.NewVersion(Version)
	if err != nil {
		return "", fmt.Errorf("parse current version: %w", err)
	}

	for _, release := range releases {
		releaseVersion, err := goversion.NewVersion(*release.TagName)
		if err != nil {
			log.Warn().Err(err).Str("tag", *release.TagName).Msg("Skipping unparseable release tag")
			continue
		}

		// Stable builds ignore prerelease tags.
		if len(currentVersion.Prerelease()) == 0 && len(releaseVersion.Prerelease()) > 0 {
			continue
		}

		if releaseVersion.GreaterThan(currentVersion) {
			return releaseVersion.String(), nil
		}
	}

	return "", nil
}
