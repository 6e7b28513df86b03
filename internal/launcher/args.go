package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	gort "runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/jvm/version"
)

const (
	// bootMainClass is the entry point inside the boot jar that takes
	// over once the child JVM is up.
	bootMainClass = "org.javelinws.boot.Boot"

	// modularArgsFile lives beside the boot jar and carries the
	// --add-exports/--add-opens flags a modular JVM needs to bootstrap.
	modularArgsFile = "modular-jvm.args"
)

// versionClass is the closed set of runtime generations the launcher
// knows how to start. Each class produces its own JVM argument list.
type versionClass int

const (
	classClassic versionClass = iota // 1.8.x
	classModular                     // 9 or greater
	classUnsupported
)

var (
	classicRange = version.MustParseRange("1.8*")
	modularRange = version.MustParseRange("9+")
)

func classify(v version.Version) versionClass {
	switch {
	case classicRange.Contains(v):
		return classClassic
	case modularRange.Contains(v):
		return classModular
	default:
		return classUnsupported
	}
}

// classArgs returns the version-class specific JVM arguments, given
// the directory holding the boot jar.
func (c versionClass) classArgs(bootJarDir string) ([]string, error) {
	switch c {
	case classClassic:
		return nil, nil
	case classModular:
		return []string{"@" + filepath.Join(bootJarDir, modularArgsFile)}, nil
	default:
		return nil, fmt.Errorf("unsupported runtime version class")
	}
}

// javaExecutable resolves the launcher binary inside a runtime home.
func javaExecutable(javaHome string) (string, error) {
	name := "java"
	if gort.GOOS == "windows" {
		name = "java.exe"
	}
	path := filepath.Join(javaHome, "bin", name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no java executable under %s: %w", javaHome, err)
	}
	return path, nil
}

// debugArgs returns the jdwp agent argument when a remote debug port
// is configured. A missing or malformed value is logged and ignored;
// it never fails the launch.
func debugArgs(rawPort string) []string {
	if strings.TrimSpace(rawPort) == "" {
		return nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(rawPort))
	if err != nil {
		log.Warn().Str("value", rawPort).Msg("ignoring malformed remote debug port")
		return nil
	}
	return []string{fmt.Sprintf("-agentlib:jdwp=transport=dt_socket,server=y,suspend=y,address=%d", port)}
}

// QuoteIfNeeded wraps a command-line token in double quotes when it
// contains whitespace or the platform path-list separator. Used for
// the logged command line; the spawned argv passes tokens verbatim
// since no shell is involved.
func QuoteIfNeeded(token string) string {
	if token == "" {
		return token
	}
	if strings.ContainsAny(token, " \t") || strings.ContainsRune(token, os.PathListSeparator) {
		return `"` + token + `"`
	}
	return token
}

func quoteAll(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = QuoteIfNeeded(t)
	}
	return strings.Join(quoted, " ")
}
