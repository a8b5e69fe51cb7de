package repositories

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/alimgiray/gitlucky/internal/models"
)

// VoteRepository holds the pull requests currently under vote, keyed by diff URL
type VoteRepository struct {
	mu      sync.RWMutex
	entries map[string]*models.VoteEntry
}

// NewVoteRepository creates an empty VoteRepository
func NewVoteRepository() *VoteRepository {
	return &VoteRepository{entries: make(map[string]*models.VoteEntry)}
}

// Insert adds the pull request or replaces an existing entry with the same key
func (r *VoteRepository) Insert(pr *models.PullRequest, tally models.VoteTally) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[pr.DiffURL] = &models.VoteEntry{PullRequest: *pr, VoteTally: tally}
}

// Vote counts one vote. It returns false, and changes nothing, when the key is
// not in the store (for example because the vote lost a race with finalization).
func (r *VoteRepository) Vote(key string, direction models.Direction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return false
	}

	switch direction {
	case models.DirectionLeft:
		entry.LeftVotes++
	case models.DirectionRight:
		entry.RightVotes++
	default:
		return false
	}
	return true
}

// SampleRandom returns a uniformly chosen pull request, or false when empty
func (r *VoteRepository) SampleRandom() (*models.PublicPullRequest, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.entries) == 0 {
		return nil, false
	}

	n := rand.IntN(len(r.entries))
	for _, entry := range r.entries {
		if n == 0 {
			public := entry.PullRequest.Public()
			return &public, true
		}
		n--
	}
	return nil, false
}

// RemoveFinal removes the entry and returns it, but only while it is still the
// vote that started at createdAt. A re-delivered pull request has a newer
// creation time and is left in place. Only the finalizer calls this.
func (r *VoteRepository) RemoveFinal(key string, createdAt time.Time) (*models.VoteEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok || !entry.CreationTime.Equal(createdAt) {
		return nil, false
	}
	delete(r.entries, key)
	return entry, true
}

// ListPublic returns every pull request, oldest vote first
func (r *VoteRepository) ListPublic() []models.PublicPullRequest {
	entries := r.Snapshot()

	prs := make([]models.PublicPullRequest, 0, len(entries))
	for i := range entries {
		prs = append(prs, entries[i].PullRequest.Public())
	}
	return prs
}

// Get returns a copy of the entry for key
func (r *VoteRepository) Get(key string) (*models.VoteEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	copied := *entry
	return &copied, true
}

// Contains reports whether key is under vote
func (r *VoteRepository) Contains(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[key]
	return ok
}

// Len returns the number of pull requests under vote
func (r *VoteRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Snapshot copies every entry, credentials included, for persistence.
// Entries are ordered by creation time, then key.
func (r *VoteRepository) Snapshot() []models.VoteEntry {
	r.mu.RLock()
	entries := make([]models.VoteEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, *entry)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreationTime.Equal(entries[j].CreationTime) {
			return entries[i].CreationTime.Before(entries[j].CreationTime)
		}
		return entries[i].PullRequest.DiffURL < entries[j].PullRequest.DiffURL
	})
	return entries
}
