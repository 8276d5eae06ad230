package memory

import (
	"context"
	"sort"
	"sync"

	"foresight-go/internal/domain"
	"foresight-go/internal/storage"
)

// MarketSnapshotStore is an in-memory implementation of storage.MarketSnapshotStore.
type MarketSnapshotStore struct {
	mu        sync.RWMutex
	byAddress map[string][]*domain.MarketSnapshot // sorted by slot ASC
}

// NewMarketSnapshotStore creates a new in-memory market snapshot store.
func NewMarketSnapshotStore() *MarketSnapshotStore {
	return &MarketSnapshotStore{
		byAddress: make(map[string][]*domain.MarketSnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if (address, slot) exists.
func (s *MarketSnapshotStore) Insert(_ context.Context, m *domain.MarketSnapshot) error {
	if m == nil || m.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(m)
}

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
func (s *MarketSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.MarketSnapshot) error {
	for _, m := range snapshots {
		if m == nil || m.Address == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check the whole batch before mutating so a duplicate leaves nothing behind.
	for _, m := range snapshots {
		if s.existsLocked(m.Address, m.Slot) {
			return storage.ErrDuplicateKey
		}
	}
	for _, m := range snapshots {
		if err := s.insertLocked(m); err != nil {
			return err
		}
	}
	return nil
}

// GetLatest retrieves the most recent snapshot for a market address.
func (s *MarketSnapshotStore) GetLatest(_ context.Context, address string) (*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byAddress[address]
	if len(history) == 0 {
		return nil, storage.ErrNotFound
	}
	return copyMarketSnapshot(history[len(history)-1]), nil
}

// GetHistory retrieves all snapshots for a market address, ordered by slot ASC.
func (s *MarketSnapshotStore) GetHistory(_ context.Context, address string) ([]*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.byAddress[address]
	out := make([]*domain.MarketSnapshot, 0, len(history))
	for _, m := range history {
		out = append(out, copyMarketSnapshot(m))
	}
	return out, nil
}

// GetLatestAll retrieves the most recent snapshot of every known market.
func (s *MarketSnapshotStore) GetLatestAll(_ context.Context) ([]*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.MarketSnapshot
	for _, history := range s.byAddress {
		out = append(out, copyMarketSnapshot(history[len(history)-1]))
	}
	sortMarketSnapshots(out)
	return out, nil
}

// GetByCreator retrieves the most recent snapshot of every market created by the given wallet.
func (s *MarketSnapshotStore) GetByCreator(_ context.Context, creator string) ([]*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.MarketSnapshot
	for _, history := range s.byAddress {
		latest := history[len(history)-1]
		if latest.Creator == creator {
			out = append(out, copyMarketSnapshot(latest))
		}
	}
	sortMarketSnapshots(out)
	return out, nil
}

func (s *MarketSnapshotStore) existsLocked(address string, slot int64) bool {
	for _, m := range s.byAddress[address] {
		if m.Slot == slot {
			return true
		}
	}
	return false
}

func (s *MarketSnapshotStore) insertLocked(m *domain.MarketSnapshot) error {
	if s.existsLocked(m.Address, m.Slot) {
		return storage.ErrDuplicateKey
	}

	history := append(s.byAddress[m.Address], copyMarketSnapshot(m))
	sort.Slice(history, func(i, j int) bool { return history[i].Slot < history[j].Slot })
	s.byAddress[m.Address] = history
	return nil
}

func copyMarketSnapshot(m *domain.MarketSnapshot) *domain.MarketSnapshot {
	snapCopy := *m
	snapCopy.Outcomes = append([]string(nil), m.Outcomes...)
	snapCopy.StakesPerOutcome = append([]uint64(nil), m.StakesPerOutcome...)
	if m.WinningOutcome != nil {
		w := *m.WinningOutcome
		snapCopy.WinningOutcome = &w
	}
	return &snapCopy
}

func sortMarketSnapshots(snapshots []*domain.MarketSnapshot) {
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Address < snapshots[j].Address })
}

var _ storage.MarketSnapshotStore = (*MarketSnapshotStore)(nil)
