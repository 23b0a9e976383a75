package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

const releaseSlug = "afittestide/orchat"

// detectLatest is replaced in tests to avoid hitting GitHub
var detectLatest = selfupdate.DetectLatest

// parseVersion parses a version string, handling "v" prefix
func parseVersion(v string) (semver.Version, error) {
	return semver.Parse(strings.TrimPrefix(strings.TrimSpace(v), "v"))
}

// CheckForUpdates reports the latest release and whether it is newer than currentVersion
func CheckForUpdates(currentVersion string) (*selfupdate.Release, bool, error) {
	current, err := parseVersion(currentVersion)
	if err != nil {
		return nil, false, fmt.Errorf("invalid current version: %w", err)
	}

	latest, found, err := detectLatest(releaseSlug)
	if err != nil {
		return nil, false, fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return nil, false, fmt.Errorf("no release found for %s", releaseSlug)
	}

	if latest.Version.LTE(current) {
		slog.Debug("current version is up to date", "current", currentVersion, "latest", latest.Version)
		return latest, false, nil
	}
	return latest, true, nil
}

// SelfUpdate replaces the running binary with the latest release
func SelfUpdate(currentVersion string) error {
	current, err := parseVersion(currentVersion)
	if err != nil {
		return fmt.Errorf("invalid current version: %w", err)
	}

	latest, err := selfupdate.UpdateSelf(current, releaseSlug)
	if err != nil {
		return fmt.Errorf("failed to update: %w", err)
	}

	if latest.Version.Equals(current) {
		fmt.Printf("orchat v%s is already the latest release\n", currentVersion)
		return nil
	}
	slog.Info("successfully updated", "from", currentVersion, "to", latest.Version)
	fmt.Printf("Updated orchat v%s → v%s\n", currentVersion, latest.Version)
	return nil
}

// AutoCheckForUpdates checks for a newer release, giving up after five seconds.
// Development builds never check.
func AutoCheckForUpdates(currentVersion string) bool {
	if currentVersion == "" || currentVersion == "dev" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		latest, hasUpdate, err := CheckForUpdates(currentVersion)
		if err != nil {
			slog.Debug("update check failed", "error", err)
			done <- false
			return
		}
		if hasUpdate {
			slog.Info("update available", "current", currentVersion, "latest", latest.Version, "url", latest.URL)
		}
		done <- hasUpdate
	}()

	select {
	case hasUpdate := <-done:
		return hasUpdate
	case <-ctx.Done():
		slog.Debug("update check timed out")
		return false
	}
}

// GetUpdateCommand returns the command that upgrades the installed binary
func GetUpdateCommand() string {
	exe, err := os.Executable()
	if err != nil {
		return "orchat update"
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	if strings.Contains(exe, "/Cellar/") || strings.Contains(exe, "/homebrew/") || strings.Contains(exe, "/linuxbrew/") {
		return "brew upgrade orchat"
	}
	return "orchat update"
}
