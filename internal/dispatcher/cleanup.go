package dispatcher

import (
	"os"
	"path/filepath"

	"mail-telegram-bridge/internal/logging"
)

// CleanupStaleStaging removes staging directories left behind by a previous run that was killed mid-upload.
// It must run before the first Dispatch. Returns the number of directories removed.
func CleanupStaleStaging(tempDir string) int {
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	matches, err := filepath.Glob(filepath.Join(tempDir, tempPattern))
	if err != nil {
		logging.Log.WithError(err).Warn("Failed to glob temp directories")
		return 0
	}

	removed := 0
	for _, dir := range matches {
		if err := os.RemoveAll(dir); err != nil {
			logging.Log.WithError(err).Warnf("Failed to remove temp dir: %s", dir)
			continue
		}
		logging.Log.Infof("Cleaned up temp dir: %s", dir)
		removed++
	}
	return removed
}
