package dialog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Reference data file names inside the data directory.
const (
	IntentsFile     = "intents.yaml"
	RestaurantsFile = "restaurants.yaml"
)

// ReferenceData is one consistent view of the bot's reference data: the
// ordered intent table, the restaurant catalog, and the value index
// derived from the catalog.
type ReferenceData struct {
	Intents IntentTable
	Catalog []Restaurant
	Index   *UniqueValues
}

// Loader loads and optionally hot-reloads intents and the restaurant
// catalog from YAML files in a directory.
type Loader struct {
	dir string

	mu      sync.RWMutex
	current *ReferenceData
}

// NewLoader creates a loader for the given data directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadAll parses both reference files and swaps in a fresh snapshot.
// On error the previous snapshot stays in place.
func (l *Loader) LoadAll() (*ReferenceData, error) {
	intents, err := loadIntents(filepath.Join(l.dir, IntentsFile))
	if err != nil {
		return nil, err
	}
	catalog, err := loadCatalog(filepath.Join(l.dir, RestaurantsFile))
	if err != nil {
		return nil, err
	}

	ref := &ReferenceData{
		Intents: intents,
		Catalog: catalog,
		Index:   BuildIndex(catalog),
	}

	l.mu.Lock()
	l.current = ref
	l.mu.Unlock()

	return ref, nil
}

// Snapshot returns the current reference data. It fails only when no load
// has ever succeeded.
func (l *Loader) Snapshot() (*ReferenceData, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return nil, fmt.Errorf("reference data not loaded from %q", l.dir)
	}
	return l.current, nil
}

func loadIntents(path string) (IntentTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intents: %w", err)
	}

	var table IntentTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	for i, e := range table {
		if e.Intent == "" {
			return nil, fmt.Errorf("%s: entry %d has no intent name", path, i)
		}
		if len(e.Patterns) == 0 {
			return nil, fmt.Errorf("%s: intent %q has no patterns", path, e.Intent)
		}
	}
	return table, nil
}

func loadCatalog(path string) ([]Restaurant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read restaurants: %w", err)
	}

	var catalog []Restaurant
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	for i, r := range catalog {
		if r.Name == "" {
			return nil, fmt.Errorf("%s: restaurant %d has no name", path, i)
		}
	}
	return catalog, nil
}

// WatchAndReload watches the data directory and reloads on changes.
// This blocks until the done channel is closed.
func (l *Loader) WatchAndReload(done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", l.dir, err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				ext := filepath.Ext(event.Name)
				if ext == ".yaml" || ext == ".yml" {
					if _, err := l.LoadAll(); err != nil {
						slog.Warn("reference data reload failed, keeping previous snapshot",
							slog.String("error", err.Error()))
					}
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
