// Package jsonstore is the persistence gateway: it serializes the member
// collection to a local JSON file and rotates timestamped backups. All
// numeric fields are encoded as decimal strings (see domain.Amount), so
// save/load cycles cannot drift.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/clubledger/clubledger/internal/domain"
	"github.com/clubledger/clubledger/internal/infra/observability"
)

// Version is written into every data file.
const Version = "1.0.0"

const backupPrefix = "backup_"

// dataFile is the on-disk shape of the member collection.
type dataFile struct {
	Members     map[string]*domain.Member `json:"members"`
	LastUpdated string                    `json:"last_updated"`
	Version     string                    `json:"version"`
}

// exportFile is the on-disk shape of a manual export.
type exportFile struct {
	Members    map[string]*domain.Member `json:"members"`
	ExportTime string                    `json:"export_time"`
}

// Store persists the collection to one JSON file with backup rotation.
type Store struct {
	path        string
	backupDir   string
	keepBackups int
	log         *slog.Logger
}

// New creates a store writing to path, with rotated backups under
// backupDir (keep most recent `keep`).
func New(path, backupDir string, keep int, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{path: path, backupDir: backupDir, keepBackups: keep, log: log}
}

// Path returns the data file location.
func (s *Store) Path() string { return s.path }

// Load reads the member collection. A missing file yields an empty
// collection; a malformed file yields ErrCorrupt.
func (s *Store) Load() (map[string]*domain.Member, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*domain.Member), nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var f dataFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorrupt, s.path, err)
	}
	if f.Members == nil {
		f.Members = make(map[string]*domain.Member)
	}
	for id, m := range f.Members {
		if m == nil {
			delete(f.Members, id)
			continue
		}
		if m.ID == "" {
			m.ID = id
		}
	}
	return f.Members, nil
}

// Save validates and writes the whole collection, then rotates backups.
// It refuses to write if any member has an empty name or a malformed
// phone: better an obviously stale file than a silently corrupt one.
func (s *Store) Save(members map[string]*domain.Member) error {
	for id, m := range members {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: member %s has no name", domain.ErrWriteFailed, id)
		}
		if !domain.ValidPhone(m.Phone) {
			return fmt.Errorf("%w: member %s has invalid phone %q", domain.ErrWriteFailed, id, m.Phone)
		}
	}

	f := dataFile{
		Members:     members,
		LastUpdated: domain.Now(),
		Version:     Version,
	}
	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}

	// Backup failure never fails the save itself.
	if err := s.rotateBackups(data); err != nil {
		s.log.Warn("backup rotation failed", "err", err)
	}
	return nil
}

// ExportTo writes the collection to an arbitrary path in the export format.
func (s *Store) ExportTo(path string, members map[string]*domain.Member) error {
	f := exportFile{Members: members, ExportTime: domain.Now()}
	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return nil
}

// rotateBackups copies the just-saved bytes into a timestamped backup and
// prunes the oldest beyond the retention count, ordered by name descending
// (names embed the timestamp).
func (s *Store) rotateBackups(data []byte) error {
	if s.backupDir == "" || s.keepBackups <= 0 {
		return nil
	}
	if err := os.MkdirAll(s.backupDir, 0700); err != nil {
		return err
	}
	name := backupPrefix + time.Now().Format("20060102_150405") + ".json"
	if err := os.WriteFile(filepath.Join(s.backupDir, name), data, 0600); err != nil {
		return err
	}

	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return err
	}
	var backups []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, backupPrefix) && strings.HasSuffix(n, ".json") {
			backups = append(backups, n)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	for _, old := range backups[min(len(backups), s.keepBackups):] {
		if err := os.Remove(filepath.Join(s.backupDir, old)); err != nil {
			return err
		}
		observability.BackupsPruned.Inc()
	}
	return nil
}
