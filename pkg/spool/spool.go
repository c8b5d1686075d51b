// Package spool persists uploaded presentation files on local disk for the
// lifetime of their extraction jobs. The spool owns its directory exclusively:
// a file lock prevents two server processes from sharing (and sweeping) the
// same spool.
package spool

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/deckhand-io/deckhand/pkg/paths"
)

// File describes one spooled upload.
type File struct {
	// Path is the absolute on-disk location of the spooled copy.
	Path string

	// Name is the original upload file name.
	Name string

	// Size is the number of bytes written.
	Size int64
}

// Spool stores uploads under a locked directory.
type Spool struct {
	dir  string
	lock *flock.Flock
}

// Open prepares the spool directory and acquires its lock.
// Fails when another process already holds the spool.
func Open(dir string) (*Spool, error) {
	if dir == "" {
		dir = filepath.Join(paths.DataDir(), "spool")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, ".lock"))
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock spool directory: %w", err)
	}
	if !held {
		return nil, fmt.Errorf("spool directory %s is locked by another process", dir)
	}

	log.Debug().
		Str("component", "spool").
		Str("dir", dir).
		Msg("Spool directory ready")

	return &Spool{dir: dir, lock: lock}, nil
}

// Dir returns the spool directory path.
func (s *Spool) Dir() string {
	return s.dir
}

// Save copies an upload into the spool under a fresh unique name and
// returns its descriptor. The original extension is preserved so the
// extractor can recognize the package format.
func (s *Spool) Save(r io.Reader, originalName string) (*File, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write spool file: %w", err)
	}

	return &File{Path: path, Name: filepath.Base(originalName), Size: size}, nil
}

// Remove deletes a spooled file. Missing files are not an error; the
// janitor may have swept them already.
func (s *Spool) Remove(path string) error {
	if filepath.Dir(path) != s.dir {
		return fmt.Errorf("refusing to remove file outside spool: %s", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Sweep removes spooled files whose modification time is older than cutoff
// and returns the number removed.
func (s *Spool) Sweep(cutoff time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.Warn().
			Str("component", "spool").
			Err(err).
			Msg("Spool sweep failed to read directory")
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == ".lock" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			log.Warn().
				Str("component", "spool").
				Str("file", entry.Name()).
				Err(err).
				Msg("Spool sweep failed to remove file")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().
			Str("component", "spool").
			Int("removed", removed).
			Msg("Spool sweep completed")
	}
	return removed
}

// Close releases the spool lock.
func (s *Spool) Close() error {
	return s.lock.Unlock()
}
