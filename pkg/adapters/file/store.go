// Package file provides a GraphStore over a directory of JSON documents,
// one file per dialog graph. This is the default storage collaborator for
// the CLI and the server.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/arborlabs/arbor/pkg/dialog"
)

const docExt = ".json"

// Store implements ports.GraphStore using the local filesystem.
type Store struct {
	BasePath string
}

// New creates a new Store rooted at basePath.
// If basePath is empty, it defaults to ".arbor/graphs".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".arbor", "graphs")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("graph name cannot be empty")
	}
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid graph name %q", name)
	}
	return filepath.Join(s.BasePath, name+docExt), nil
}

// Save writes the document to a JSON file atomically: a temp file in the
// same directory is synced and then renamed over the destination.
func (s *Store) Save(ctx context.Context, name string, doc *dialog.Document) error {
	destPath, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure graph directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+name+"-*"+docExt)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to finalize write: %w", err)
	}
	return nil
}

// Load reads and decodes the document stored under name.
func (s *Store) Load(ctx context.Context, name string) (*dialog.Document, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("graph %q: %w", name, dialog.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc dialog.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("graph %q: %w", name, err)
	}
	return &doc, nil
}

// List returns the names of all documents in the store directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read graph directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docExt) {
			continue
		}
		if strings.HasPrefix(e.Name(), "tmp-") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), docExt))
	}
	return names, nil
}

// Delete removes the document stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("graph %q: %w", name, dialog.ErrDocumentNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// Watch emits the name of every graph whose file is created or rewritten
// under the store directory, until ctx is done. It implements
// ports.Watchable for hot-reload in serve mode.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure graph directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.BasePath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.BasePath, err)
	}

	out := make(chan string, 1)
	go func() {
		defer watcher.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				base := filepath.Base(event.Name)
				if !strings.HasSuffix(base, docExt) || strings.HasPrefix(base, "tmp-") {
					continue
				}
				select {
				case out <- strings.TrimSuffix(base, docExt):
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watch errors are non-fatal; the next event may still come.
			}
		}
	}()
	return out, nil
}
