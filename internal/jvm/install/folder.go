package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// allocateRuntimeDir creates a fresh subdirectory under base for a
// vendor/version pair. The name is deterministic; on collision a
// numeric suffix is appended until a free name is found.
func allocateRuntimeDir(base, vendor, version string) (string, error) {
	name := sanitizeDirName(vendor + "-" + version)

	for attempt := 0; attempt < 1000; attempt++ {
		candidate := filepath.Join(base, name)
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", candidate, attempt)
		}
		if _, err := os.Stat(candidate); err == nil {
			continue
		}
		if err := os.MkdirAll(candidate, 0750); err != nil {
			return "", fmt.Errorf("creating runtime directory %s: %w", candidate, err)
		}
		return candidate, nil
	}
	return "", fmt.Errorf("no free runtime directory name for %s under %s", name, base)
}

// sanitizeDirName keeps directory names portable across filesystems.
func sanitizeDirName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_' || r == '+':
			return r
		default:
			return '_'
		}
	}, name)
}
