// Package launcher selects a runtime for an application's ordered
// requirement list, builds a version-appropriate command line and runs
// the application as a child process.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/config"
	"github.com/javelinws/javelin/internal/jvm"
)

// ErrNoRuntime is returned when no requirement in the list could be
// satisfied.
var ErrNoRuntime = errors.New("no suitable runtime found for any requirement")

// Launcher orchestrates runtime selection and process launch.
type Launcher struct {
	cfg      *config.Config
	provider RuntimeProvider
}

// New creates a launcher backed by the given provider.
func New(cfg *config.Config, provider RuntimeProvider) *Launcher {
	return &Launcher{cfg: cfg, provider: provider}
}

// Selection is the outcome of resolving a requirement list.
type Selection struct {
	Runtime     jvm.LocalRuntime
	Requirement Requirement
}

// Select walks the requirement list in order and returns the first
// runtime the provider can supply. Individual failures are logged and
// the next requirement is tried; an exhausted list is fatal.
func (l *Launcher) Select(ctx context.Context, reqs []Requirement) (Selection, error) {
	if len(reqs) == 0 {
		reqs = []Requirement{DefaultRequirement()}
	}

	for _, req := range reqs {
		log.Debug().Stringer("range", req.Range).Msg("searching runtime for requirement")

		rt, err := l.provider.RuntimeFor(ctx, req)
		if err != nil {
			log.Warn().
				Err(err).
				Stringer("range", req.Range).
				Str("location", req.Location).
				Msg("requirement could not be satisfied, trying next")
			continue
		}
		log.Info().
			Str("java_home", rt.JavaHome).
			Stringer("version", rt.Version).
			Msg("selected runtime")
		return Selection{Runtime: rt, Requirement: req}, nil
	}

	return Selection{}, ErrNoRuntime
}

// BuildCommand assembles the argv for launching the application with
// the selected runtime. It fails, before any process is spawned, when
// the runtime has no java executable, when its version class is
// unsupported, or when the boot jar cannot be found.
func (l *Launcher) BuildCommand(sel Selection, appArgs []string) ([]string, error) {
	javaPath, err := javaExecutable(sel.Runtime.JavaHome)
	if err != nil {
		return nil, err
	}

	bootJar, err := l.bootJar()
	if err != nil {
		return nil, err
	}

	classArgs, err := classify(sel.Runtime.Version).classArgs(filepath.Dir(bootJar))
	if err != nil {
		return nil, fmt.Errorf("java %s is not supported", sel.Runtime.Version)
	}

	argv := []string{javaPath, "-Xbootclasspath/a:" + bootJar}
	argv = append(argv, sel.Requirement.VMArgs...)
	argv = append(argv, classArgs...)
	argv = append(argv, debugArgs(l.cfg.RemoteDebugPort)...)
	argv = append(argv, bootMainClass)
	argv = append(argv, appArgs...)
	return argv, nil
}

// Launch selects a runtime, spawns the application and blocks until
// the child exits. Failure to start the child is fatal; a failure
// while waiting for it is logged and swallowed.
func (l *Launcher) Launch(ctx context.Context, reqs []Requirement, appArgs []string) error {
	sel, err := l.Select(ctx, reqs)
	if err != nil {
		return err
	}

	argv, err := l.BuildCommand(sel, appArgs)
	if err != nil {
		return err
	}

	log.Info().Str("command", quoteAll(argv)).Msg("launching application")

	cmd := exec.Command(argv[0], argv[1:]...) // #nosec G204 - argv is built from the selected runtime
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting application process: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		// Best effort: the application already ran; exit conditions
		// are its own business.
		log.Debug().Err(err).Msg("waiting for application process")
	}
	return nil
}

// bootJar locates the launcher's own archive: the configured path, or
// javelin-boot.jar beside the javelin executable.
func (l *Launcher) bootJar() (string, error) {
	path := l.cfg.BootJar
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locating executable: %w", err)
		}
		path = filepath.Join(filepath.Dir(exe), "javelin-boot.jar")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("boot jar not found at %s: %w", path, err)
	}
	return path, nil
}
