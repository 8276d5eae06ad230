package storage

import (
	"context"

	"foresight-go/internal/domain"
)

// MarketSnapshotStore provides access to market_snapshots storage.
type MarketSnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if (address, slot) exists.
	Insert(ctx context.Context, m *domain.MarketSnapshot) error

	// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, snapshots []*domain.MarketSnapshot) error

	// GetLatest retrieves the most recent snapshot for a market address.
	// Returns ErrNotFound if the market was never snapshotted.
	GetLatest(ctx context.Context, address string) (*domain.MarketSnapshot, error)

	// GetHistory retrieves all snapshots for a market address, ordered by slot ASC.
	GetHistory(ctx context.Context, address string) ([]*domain.MarketSnapshot, error)

	// GetLatestAll retrieves the most recent snapshot of every known market.
	GetLatestAll(ctx context.Context) ([]*domain.MarketSnapshot, error)

	// GetByCreator retrieves the most recent snapshot of every market
	// created by the given wallet.
	GetByCreator(ctx context.Context, creator string) ([]*domain.MarketSnapshot, error)
}

// ProfileSnapshotStore provides access to profile_snapshots storage.
type ProfileSnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if (user, slot) exists.
	Insert(ctx context.Context, p *domain.ProfileSnapshot) error

	// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, snapshots []*domain.ProfileSnapshot) error

	// GetLatest retrieves the most recent snapshot for a user wallet.
	// Returns ErrNotFound if the user was never snapshotted.
	GetLatest(ctx context.Context, user string) (*domain.ProfileSnapshot, error)

	// GetHistory retrieves all snapshots for a user wallet, ordered by slot ASC.
	GetHistory(ctx context.Context, user string) ([]*domain.ProfileSnapshot, error)

	// GetLatestAll retrieves the most recent snapshot of every known user.
	GetLatestAll(ctx context.Context) ([]*domain.ProfileSnapshot, error)
}
