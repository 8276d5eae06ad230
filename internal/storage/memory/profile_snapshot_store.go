package memory

import (
	"context"
	"sort"
	"sync"

	"foresight-go/internal/domain"
	"foresight-go/internal/storage"
)

// ProfileSnapshotStore is an in-memory implementation of storage.ProfileSnapshotStore.
type ProfileSnapshotStore struct {
	mu     sync.RWMutex
	byUser map[string][]*domain.ProfileSnapshot // sorted by slot ASC
}

// NewProfileSnapshotStore creates a new in-memory profile snapshot store.
func NewProfileSnapshotStore() *ProfileSnapshotStore {
	return &ProfileSnapshotStore{
		byUser: make(map[string][]*domain.ProfileSnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if (user, slot) exists.
func (s *ProfileSnapshotStore) Insert(_ context.Context, p *domain.ProfileSnapshot) error {
	if p == nil || p.User == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(p)
}

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
func (s *ProfileSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.ProfileSnapshot) error {
	for _, p := range snapshots {
		if p == nil || p.User == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range snapshots {
		if s.existsLocked(p.User, p.Slot) {
			return storage.ErrDuplicateKey
		}
	}
	for _, p := range snapshots {
		if err := s.insertLocked(p); err != nil {
			return err
		}
	}
	return nil
}

// GetLatest retrieves the most recent snapshot for a user wallet.
func (s *ProfileSnapshotStore) GetLatest(_ context.Context, user string) (*domain.ProfileSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byUser[user]
	if len(history) == 0 {
		return nil, storage.ErrNotFound
	}
	profileCopy := *history[len(history)-1]
	return &profileCopy, nil
}

// GetHistory retrieves all snapshots for a user wallet, ordered by slot ASC.
func (s *ProfileSnapshotStore) GetHistory(_ context.Context, user string) ([]*domain.ProfileSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byUser[user]
	out := make([]*domain.ProfileSnapshot, 0, len(history))
	for _, p := range history {
		profileCopy := *p
		out = append(out, &profileCopy)
	}
	return out, nil
}

// GetLatestAll retrieves the most recent snapshot of every known user.
func (s *ProfileSnapshotStore) GetLatestAll(_ context.Context) ([]*domain.ProfileSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ProfileSnapshot
	for _, history := range s.byUser {
		profileCopy := *history[len(history)-1]
		out = append(out, &profileCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out, nil
}

func (s *ProfileSnapshotStore) existsLocked(user string, slot int64) bool {
	for _, p := range s.byUser[user] {
		if p.Slot == slot {
			return true
		}
	}
	return false
}

func (s *ProfileSnapshotStore) insertLocked(p *domain.ProfileSnapshot) error {
	if s.existsLocked(p.User, p.Slot) {
		return storage.ErrDuplicateKey
	}

	profileCopy := *p
	history := append(s.byUser[p.User], &profileCopy)
	sort.Slice(history, func(i, j int) bool { return history[i].Slot < history[j].Slot })
	s.byUser[p.User] = history
	return nil
}

var _ storage.ProfileSnapshotStore = (*ProfileSnapshotStore)(nil)
