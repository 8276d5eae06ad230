package postgres

import (
	"context"
	"fmt"

	"foresight-go/internal/domain"
	"foresight-go/internal/storage"
)

// MarketSnapshotStore is a PostgreSQL implementation of storage.MarketSnapshotStore.
type MarketSnapshotStore struct {
	pool *Pool
}

// NewMarketSnapshotStore creates a new PostgreSQL market snapshot store.
func NewMarketSnapshotStore(pool *Pool) *MarketSnapshotStore {
	return &MarketSnapshotStore{pool: pool}
}

const marketSnapshotColumns = `
	address, slot, creator, question, outcomes, quality_score, market_type,
	deadline, suggested_deadline, resolved, winning_outcome, total_pool,
	creator_fee_bps, protocol_fee_bps, stakes_per_outcome, resolver_eligible,
	token_mint, bump, scanned_at
`

const insertMarketSnapshotQuery = `
	INSERT INTO market_snapshots (` + marketSnapshotColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
`

// Insert adds a new snapshot. Returns ErrDuplicateKey if (address, slot) exists.
func (s *MarketSnapshotStore) Insert(ctx context.Context, m *domain.MarketSnapshot) error {
	if m == nil || m.Address == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertMarketSnapshotQuery, marketSnapshotArgs(m)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert market snapshot: %w", err)
	}

	return nil
}

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
func (s *MarketSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.MarketSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range snapshots {
		if m == nil || m.Address == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertMarketSnapshotQuery, marketSnapshotArgs(m)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert market snapshot %s: %w", m.Address, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent snapshot for a market address.
func (s *MarketSnapshotStore) GetLatest(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	query := `
		SELECT ` + marketSnapshotColumns + `
		FROM market_snapshots
		WHERE address = $1
		ORDER BY slot DESC
		LIMIT 1
	`

	m, err := scanMarketSnapshot(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest market snapshot: %w", err)
	}

	return m, nil
}

// GetHistory retrieves all snapshots for a market address, ordered by slot ASC.
func (s *MarketSnapshotStore) GetHistory(ctx context.Context, address string) ([]*domain.MarketSnapshot, error) {
	query := `
		SELECT ` + marketSnapshotColumns + `
		FROM market_snapshots
		WHERE address = $1
		ORDER BY slot ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query market snapshot history: %w", err)
	}
	defer rows.Close()

	return collectMarketSnapshots(rows)
}

// GetLatestAll retrieves the most recent snapshot of every known market.
func (s *MarketSnapshotStore) GetLatestAll(ctx context.Context) ([]*domain.MarketSnapshot, error) {
	query := `
		SELECT DISTINCT ON (address) ` + marketSnapshotColumns + `
		FROM market_snapshots
		ORDER BY address, slot DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest market snapshots: %w", err)
	}
	defer rows.Close()

	return collectMarketSnapshots(rows)
}

// GetByCreator retrieves the most recent snapshot of every market created by the given wallet.
func (s *MarketSnapshotStore) GetByCreator(ctx context.Context, creator string) ([]*domain.MarketSnapshot, error) {
	query := `
		SELECT DISTINCT ON (address) ` + marketSnapshotColumns + `
		FROM market_snapshots
		WHERE creator = $1
		ORDER BY address, slot DESC
	`

	rows, err := s.pool.Query(ctx, query, creator)
	if err != nil {
		return nil, fmt.Errorf("query market snapshots by creator: %w", err)
	}
	defer rows.Close()

	return collectMarketSnapshots(rows)
}

// marketSnapshotArgs flattens a snapshot into insert arguments. Unsigned
// fields are narrowed to the signed column types Postgres supports.
func marketSnapshotArgs(m *domain.MarketSnapshot) []interface{} {
	var winning *int16
	if m.WinningOutcome != nil {
		w := int16(*m.WinningOutcome)
		winning = &w
	}

	stakes := make([]int64, len(m.StakesPerOutcome))
	for i, v := range m.StakesPerOutcome {
		stakes[i] = int64(v)
	}

	return []interface{}{
		m.Address,
		m.Slot,
		m.Creator,
		m.Question,
		m.Outcomes,
		m.QualityScore,
		int16(m.MarketType),
		m.Deadline,
		m.SuggestedDeadline,
		m.Resolved,
		winning,
		int64(m.TotalPool),
		int32(m.CreatorFeeBps),
		int32(m.ProtocolFeeBps),
		stakes,
		m.ResolverEligible,
		m.TokenMint,
		int16(m.Bump),
		m.ScannedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type rowsScanner interface {
	rowScanner
	Next() bool
	Err() error
}

// scanMarketSnapshot reads one row in marketSnapshotColumns order.
func scanMarketSnapshot(row rowScanner) (*domain.MarketSnapshot, error) {
	var (
		m          domain.MarketSnapshot
		marketType int16
		winning    *int16
		totalPool  int64
		creatorFee int32
		protoFee   int32
		stakes     []int64
		bump       int16
	)

	err := row.Scan(
		&m.Address,
		&m.Slot,
		&m.Creator,
		&m.Question,
		&m.Outcomes,
		&m.QualityScore,
		&marketType,
		&m.Deadline,
		&m.SuggestedDeadline,
		&m.Resolved,
		&winning,
		&totalPool,
		&creatorFee,
		&protoFee,
		&stakes,
		&m.ResolverEligible,
		&m.TokenMint,
		&bump,
		&m.ScannedAt,
	)
	if err != nil {
		return nil, err
	}

	m.MarketType = domain.MarketType(marketType)
	if winning != nil {
		w := uint8(*winning)
		m.WinningOutcome = &w
	}
	m.TotalPool = uint64(totalPool)
	m.CreatorFeeBps = uint16(creatorFee)
	m.ProtocolFeeBps = uint16(protoFee)
	m.StakesPerOutcome = make([]uint64, len(stakes))
	for i, v := range stakes {
		m.StakesPerOutcome[i] = uint64(v)
	}
	m.Bump = uint8(bump)

	return &m, nil
}

func collectMarketSnapshots(rows rowsScanner) ([]*domain.MarketSnapshot, error) {
	var out []*domain.MarketSnapshot
	for rows.Next() {
		m, err := scanMarketSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan market snapshot: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market snapshots: %w", err)
	}
	return out, nil
}

var _ storage.MarketSnapshotStore = (*MarketSnapshotStore)(nil)
