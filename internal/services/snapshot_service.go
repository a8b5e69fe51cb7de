package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alimgiray/gitlucky/internal/models"
	"github.com/alimgiray/gitlucky/internal/repositories"
	"github.com/alimgiray/gitlucky/pkg/logger"
)

var (
	// ErrSnapshotUnreadable is an I/O failure reading the snapshot; startup continues empty
	ErrSnapshotUnreadable = errors.New("snapshot unreadable")
	// ErrCorruptSnapshot is a snapshot file that exists but does not decode
	ErrCorruptSnapshot = errors.New("snapshot corrupt")
)

// SnapshotService persists the vote store to a JSON file
type SnapshotService struct {
	votes *repositories.VoteRepository
	path  string
}

func NewSnapshotService(votes *repositories.VoteRepository, path string) *SnapshotService {
	return &SnapshotService{votes: votes, path: path}
}

// Snapshot returns the current store contents
func (s *SnapshotService) Snapshot() []models.VoteEntry {
	return s.votes.Snapshot()
}

// Save writes the store to disk, replacing the previous snapshot atomically
func (s *SnapshotService) Save() error {
	entries := s.Snapshot()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	logger.WithField("entries", len(entries)).Debug("Snapshot saved")
	return nil
}

// Load reads the snapshot file. A missing file is an empty snapshot.
func (s *SnapshotService) Load() ([]models.VoteEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.VoteEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnreadable, err)
	}

	var entries []models.VoteEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, s.path, err)
	}
	return entries, nil
}

// Restore puts entries back into the store and re-arms each one from its
// original creation time
func (s *SnapshotService) Restore(entries []models.VoteEntry, scheduler Scheduler) int {
	restored := 0
	for i := range entries {
		entry := entries[i]
		if entry.PullRequest.DiffURL == "" {
			logger.Warnf("Skipping snapshot entry %d without diff URL", i)
			continue
		}
		s.votes.Insert(&entry.PullRequest, entry.VoteTally)
		scheduler.Arm(entry.PullRequest.DiffURL, entry.CreationTime)
		restored++
	}
	logger.WithField("entries", restored).Info("Restored vote store from snapshot")
	return restored
}

// LoadAndRestore loads the snapshot and restores it. Unreadable snapshots are
// logged and skipped; a corrupt snapshot is returned to the caller.
func (s *SnapshotService) LoadAndRestore(scheduler Scheduler) error {
	entries, err := s.Load()
	if errors.Is(err, ErrSnapshotUnreadable) {
		logger.WithError(err).Error("Could not read snapshot, starting with an empty store")
		return nil
	}
	if err != nil {
		return err
	}
	s.Restore(entries, scheduler)
	return nil
}
