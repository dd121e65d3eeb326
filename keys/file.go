package keys

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/ggoodman/request-auth-go/autherr"
)

// File is a repository backed by an htpasswd-style file: one "id:key" pair per
// line, blank lines and lines starting with '#' ignored, surrounding whitespace
// trimmed. The key is everything after the first ':'.
//
// The file is read on first use. ForceRead reads it eagerly and Watch keeps
// the contents current.
type File struct {
	ReadOnly

	path string
	log  *slog.Logger

	mu      sync.RWMutex
	entries map[string]string
	loaded  bool
}

var _ Repository = (*File)(nil)

// FileOption configures a File.
type FileOption func(*File)

// WithFileLogger sets the logger used by Watch. Logging is discarded by
// default.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(f *File) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFile returns a lazily loaded repository for path. Nothing is read until
// the first lookup.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{path: path, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing file's path.
func (f *File) Path() string { return f.path }

// ForceRead loads the file now if it has not been loaded yet.
func (f *File) ForceRead() error {
	_, err := f.snapshot()
	return err
}

// Reload re-reads the file. On failure the previous contents stay in use.
func (f *File) Reload() error {
	entries, err := ReadFile(f.path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.entries = entries
	f.loaded = true
	f.mu.Unlock()
	return nil
}

func (f *File) Exists(_ context.Context, clientID string) (bool, error) {
	entries, err := f.snapshot()
	if err != nil {
		return false, err
	}
	_, ok := entries[clientID]
	return ok, nil
}

func (f *File) Get(_ context.Context, clientID string) (string, error) {
	entries, err := f.snapshot()
	if err != nil {
		return "", err
	}
	key, ok := entries[clientID]
	if !ok {
		return "", UnknownClient(clientID)
	}
	return key, nil
}

func (f *File) snapshot() (map[string]string, error) {
	f.mu.RLock()
	if f.loaded {
		entries := f.entries
		f.mu.RUnlock()
		return entries, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return f.entries, nil
	}
	entries, err := ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	f.entries = entries
	f.loaded = true
	return entries, nil
}

// ReadFile reads and parses an htpasswd-style key file. Errors match
// autherr.ErrRepositorySource.
func ReadFile(path string) (map[string]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", autherr.ErrRepositorySource, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", autherr.ErrRepositorySource, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", autherr.ErrRepositorySource, err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Parse parses key file contents. Duplicate ids keep the last key.
func Parse(data []byte) (map[string]string, error) {
	entries := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, key, ok := strings.Cut(line, ":")
		if !ok || id == "" || key == "" {
			return nil, fmt.Errorf("%w: malformed entry on line %d", autherr.ErrRepositorySource, lineNo)
		}
		entries[id] = key
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", autherr.ErrRepositorySource, err)
	}
	return entries, nil
}
