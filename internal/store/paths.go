// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package store

import (
	"os"
	"path/filepath"
)

// BerthDataHomeEnvKey overrides where berth keeps its local state.
const BerthDataHomeEnvKey = "BERTH_DATA"

// BerthDataHome returns the directory berth keeps its local state in:
// $BERTH_DATA if set, otherwise $XDG_DATA_HOME/berth, otherwise
// ~/.local/share/berth.
func BerthDataHome() string {
	if dir := os.Getenv(BerthDataHomeEnvKey); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "berth")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the working directory rather than guessing at
		// a home.
		home = "."
	}
	return filepath.Join(home, ".local", "share", "berth")
}

// DeploymentsPath returns the location of the deployments file inside
// dataDir.
func DeploymentsPath(dataDir string) string {
	return filepath.Join(dataDir, "deployments.yaml")
}
