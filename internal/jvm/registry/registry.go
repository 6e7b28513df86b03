// Package registry owns the authoritative catalog of installed JVM
// runtimes: an ordered in-memory list mirrored to a whole-snapshot
// JSON file, with typed change notifications for every mutation.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/javelinws/javelin/internal/jvm"
)

var (
	// ErrNotFound is returned when the given runtime is not in the catalog.
	ErrNotFound = errors.New("runtime not found in catalog")
	// ErrManaged rejects Remove on a managed runtime; use Delete.
	ErrManaged = errors.New("runtime is managed, delete it instead")
	// ErrUnmanaged rejects Delete on an unmanaged runtime; use Remove.
	ErrUnmanaged = errors.New("runtime is not managed, remove it instead")
	// ErrHomeMissing rejects Add when the home directory does not exist.
	ErrHomeMissing = errors.New("runtime home directory does not exist")
	// ErrMismatch rejects Replace when identity-relevant fields differ.
	ErrMismatch = errors.New("replacement runtime does not match")
	// ErrHomeDelete signals that a managed runtime's directory could
	// not be deleted. The catalog entry is restored when this occurs.
	ErrHomeDelete = errors.New("cannot delete runtime home directory")
)

// CacheStore is the persisted catalog representation: the ordered list
// of all known local runtimes, overwritten in full on every save.
type CacheStore []jvm.LocalRuntime

// Registry is the process-wide runtime catalog. All mutations are
// serialized by a single lock which also guards persistence I/O;
// reads copy the current snapshot and never wait on in-flight saves
// beyond the instant of copying.
type Registry struct {
	mu       sync.RWMutex
	runtimes []jvm.LocalRuntime

	events *dispatcher

	// path of the persisted catalog file.
	path string
}

// New creates a registry persisting to the given catalog file. The
// catalog is not loaded implicitly; call Load.
func New(path string) *Registry {
	return &Registry{
		events: newDispatcher(),
		path:   path,
	}
}

// List returns a snapshot of the current catalog entries in order.
func (r *Registry) List() []jvm.LocalRuntime {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jvm.LocalRuntime, len(r.runtimes))
	copy(out, r.runtimes)
	return out
}

// Subscribe registers a listener for one kind of registry event and
// returns its unsubscribe handle.
func (r *Registry) Subscribe(kind EventKind, l Listener) Registration {
	return r.events.subscribe(kind, l)
}

// Add appends a runtime to the catalog and persists it. Adding an
// entry equal to an existing one is a no-op. The runtime's home
// directory must exist on disk.
func (r *Registry) Add(rt jvm.LocalRuntime) error {
	if _, err := os.Stat(rt.JavaHome); err != nil {
		return fmt.Errorf("adding runtime %s %s: %w: %s", rt.Vendor, rt.Version, ErrHomeMissing, rt.JavaHome)
	}

	r.mu.Lock()
	if r.indexOf(rt) >= 0 {
		r.mu.Unlock()
		return nil
	}

	log.Debug().
		Str("vendor", rt.Vendor).
		Stringer("version", rt.Version).
		Str("java_home", rt.JavaHome).
		Msg("adding runtime to catalog")

	r.runtimes = append(r.runtimes, rt)
	err := r.save()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.events.dispatch([]Event{{Kind: RuntimeAdded, Runtime: rt}})
	return nil
}

// Remove drops an unmanaged runtime from the catalog, leaving its
// directory untouched. Removing an absent runtime is a no-op.
func (r *Registry) Remove(rt jvm.LocalRuntime) error {
	if rt.Managed {
		return fmt.Errorf("removing runtime %s %s: %w", rt.Vendor, rt.Version, ErrManaged)
	}

	r.mu.Lock()
	i := r.indexOf(rt)
	if i < 0 {
		r.mu.Unlock()
		return nil
	}

	log.Debug().
		Str("vendor", rt.Vendor).
		Stringer("version", rt.Version).
		Msg("removing runtime from catalog")

	r.runtimes = append(r.runtimes[:i:i], r.runtimes[i+1:]...)
	err := r.save()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.events.dispatch([]Event{{Kind: RuntimeRemoved, Runtime: rt}})
	return nil
}

// Delete drops a managed runtime from the catalog and deletes its home
// directory. If the directory cannot be deleted the entry is restored
// at its original position and an ErrHomeDelete error is returned; no
// event fires in that case. Deleting an absent runtime is a no-op.
func (r *Registry) Delete(rt jvm.LocalRuntime) error {
	if !rt.Managed {
		return fmt.Errorf("deleting runtime %s %s: %w", rt.Vendor, rt.Version, ErrUnmanaged)
	}

	r.mu.Lock()
	i := r.indexOf(rt)
	if i < 0 {
		r.mu.Unlock()
		return nil
	}

	log.Debug().
		Str("vendor", rt.Vendor).
		Stringer("version", rt.Version).
		Str("java_home", rt.JavaHome).
		Msg("deleting managed runtime")

	r.runtimes = append(r.runtimes[:i:i], r.runtimes[i+1:]...)

	if err := os.RemoveAll(rt.JavaHome); err != nil {
		// Restore the entry so the catalog keeps matching the disk.
		r.runtimes = append(r.runtimes[:i], append([]jvm.LocalRuntime{rt}, r.runtimes[i:]...)...)
		r.mu.Unlock()
		return fmt.Errorf("%w: %s: %v", ErrHomeDelete, rt.JavaHome, err)
	}

	err := r.save()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.events.dispatch([]Event{{Kind: RuntimeRemoved, Runtime: rt}})
	return nil
}

// Replace overwrites old with new at the same ordinal position. Both
// runtimes must share the same home directory and managed flag.
func (r *Registry) Replace(old, new jvm.LocalRuntime) error {
	if old.JavaHome != new.JavaHome {
		return fmt.Errorf("replacing runtime: %w: JAVA_HOME differs", ErrMismatch)
	}
	if old.Managed != new.Managed {
		return fmt.Errorf("replacing runtime: %w: managed state differs", ErrMismatch)
	}

	r.mu.Lock()
	i := r.indexOf(old)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("replacing runtime %s %s: %w", old.Vendor, old.Version, ErrNotFound)
	}

	log.Debug().
		Str("vendor", new.Vendor).
		Stringer("version", new.Version).
		Msg("replacing runtime definition")

	r.runtimes[i] = new
	err := r.save()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.events.dispatch([]Event{{Kind: RuntimeUpdated, Runtime: new, Previous: old}})
	return nil
}

// Load replaces the in-memory catalog with the persisted one. Every
// prior entry fires removed, every loaded entry fires added. A missing
// catalog file clears the registry. Loaded entries whose home
// directory has vanished are skipped with a warning.
func (r *Registry) Load() error {
	r.mu.Lock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.mu.Unlock()
			return fmt.Errorf("reading catalog %s: %w", r.path, err)
		}
		events, clearErr := r.clearLocked()
		r.mu.Unlock()
		if clearErr != nil {
			return clearErr
		}
		r.events.dispatch(events)
		return nil
	}

	var store CacheStore
	if err := json.Unmarshal(data, &store); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("parsing catalog %s: %w", r.path, err)
	}

	events, err := r.clearLocked()
	if err != nil {
		r.mu.Unlock()
		return err
	}

	for _, rt := range store {
		if _, statErr := os.Stat(rt.JavaHome); statErr != nil {
			log.Warn().
				Str("vendor", rt.Vendor).
				Stringer("version", rt.Version).
				Str("java_home", rt.JavaHome).
				Msg("skipping catalog entry with missing home directory")
			continue
		}
		if r.indexOf(rt) >= 0 {
			continue
		}
		r.runtimes = append(r.runtimes, rt)
		events = append(events, Event{Kind: RuntimeAdded, Runtime: rt})
	}

	err = r.save()
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.events.dispatch(events)
	return nil
}

// clearLocked empties the catalog and returns the removed events to
// dispatch once the lock is released. Callers hold r.mu.
func (r *Registry) clearLocked() ([]Event, error) {
	log.Debug().Msg("clearing runtime catalog")

	events := make([]Event, 0, len(r.runtimes))
	for _, rt := range r.runtimes {
		events = append(events, Event{Kind: RuntimeRemoved, Runtime: rt})
	}
	r.runtimes = nil

	if err := r.save(); err != nil {
		return nil, err
	}
	return events, nil
}

// save persists the full catalog, writing to a temporary file in the
// target directory and renaming it over the catalog file so the file
// is never absent or truncated. Callers hold r.mu.
func (r *Registry) save() error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(CacheStore(r.runtimes), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".runtimes-*.json")
	if err != nil {
		return fmt.Errorf("creating catalog temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replacing catalog %s: %w", r.path, err)
	}
	return nil
}

// indexOf returns the position of an entry equal to rt, or -1.
// Callers hold r.mu.
func (r *Registry) indexOf(rt jvm.LocalRuntime) int {
	for i, cur := range r.runtimes {
		if cur.Equal(rt) {
			return i
		}
	}
	return -1
}
