// Package leaderboard ranks users from stored profile snapshots.
package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"foresight-go/internal/domain"
	"foresight-go/internal/storage"
)

// DefaultMinPredictions is the activity floor below which a user is
// excluded from rankings. A single lucky prediction is not a track record.
const DefaultMinPredictions = 3

// Entry is one ranked row of the leaderboard.
type Entry struct {
	Rank               int
	User               string
	TotalPredictions   uint32
	WinningPredictions uint32
	Accuracy           float64 // percentage, 0-100
	TotalWinnings      uint64  // raw units
	TotalStaked        uint64  // raw units
}

// Service builds leaderboards from the latest profile snapshots.
type Service struct {
	profiles       storage.ProfileSnapshotStore
	minPredictions uint32
	log            zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMinPredictions overrides the activity floor.
func WithMinPredictions(n uint32) Option {
	return func(s *Service) { s.minPredictions = n }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New creates a leaderboard service over a profile snapshot store.
func New(profiles storage.ProfileSnapshotStore, opts ...Option) *Service {
	s := &Service{
		profiles:       profiles,
		minPredictions: DefaultMinPredictions,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Top returns up to limit ranked entries. limit <= 0 means no cap.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	profiles, err := s.profiles.GetLatestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile snapshots: %w", err)
	}

	entries := Rank(profiles, s.minPredictions)
	s.log.Debug().
		Int("candidates", len(profiles)).
		Int("ranked", len(entries)).
		Msg("leaderboard computed")

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Rank orders profiles by accuracy, breaking ties by total winnings and
// then by wallet address so the ordering is deterministic. Profiles below
// minPredictions are dropped.
func Rank(profiles []*domain.ProfileSnapshot, minPredictions uint32) []Entry {
	entries := make([]Entry, 0, len(profiles))
	for _, p := range profiles {
		if p == nil || p.TotalPredictions < minPredictions {
			continue
		}
		entries = append(entries, Entry{
			User:               p.User,
			TotalPredictions:   p.TotalPredictions,
			WinningPredictions: p.WinningPredictions,
			Accuracy:           accuracy(p.WinningPredictions, p.TotalPredictions),
			TotalWinnings:      p.TotalWinnings,
			TotalStaked:        p.TotalStaked,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Accuracy != entries[j].Accuracy {
			return entries[i].Accuracy > entries[j].Accuracy
		}
		if entries[i].TotalWinnings != entries[j].TotalWinnings {
			return entries[i].TotalWinnings > entries[j].TotalWinnings
		}
		return entries[i].User < entries[j].User
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func accuracy(winning, total uint32) float64 {
	if total == 0 {
		return 0
	}
	return float64(winning) / float64(total) * 100
}
