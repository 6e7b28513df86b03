package testhelper

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
)

// init disables logging for tests unless explicitly enabled via
// JAVELIN_TEST_LOG.
func init() {
	if testing.Testing() && os.Getenv("JAVELIN_TEST_LOG") == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}

// Quiet silences the global logger for one test run. Call it from
// TestMain in packages that exercise logging code paths.
func Quiet(m *testing.M) int {
	if os.Getenv("JAVELIN_TEST_LOG") == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
	return m.Run()
}
