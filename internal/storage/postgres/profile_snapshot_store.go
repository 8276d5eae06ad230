package postgres

import (
	"context"
	"fmt"

	"foresight-go/internal/domain"
	"foresight-go/internal/storage"
)

// ProfileSnapshotStore is a PostgreSQL implementation of storage.ProfileSnapshotStore.
type ProfileSnapshotStore struct {
	pool *Pool
}

// NewProfileSnapshotStore creates a new PostgreSQL profile snapshot store.
func NewProfileSnapshotStore(pool *Pool) *ProfileSnapshotStore {
	return &ProfileSnapshotStore{pool: pool}
}

const profileSnapshotColumns = `
	user_address, slot, total_staked, total_winnings, total_predictions,
	winning_predictions, last_active_at, bump, scanned_at
`

const insertProfileSnapshotQuery = `
	INSERT INTO profile_snapshots (` + profileSnapshotColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// Insert adds a new snapshot. Returns ErrDuplicateKey if (user, slot) exists.
func (s *ProfileSnapshotStore) Insert(ctx context.Context, p *domain.ProfileSnapshot) error {
	if p == nil || p.User == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertProfileSnapshotQuery, profileSnapshotArgs(p)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert profile snapshot: %w", err)
	}

	return nil
}

// InsertBulk adds multiple snapshots atomically. Fails entire batch on any duplicate.
func (s *ProfileSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.ProfileSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range snapshots {
		if p == nil || p.User == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, insertProfileSnapshotQuery, profileSnapshotArgs(p)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert profile snapshot %s: %w", p.User, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent snapshot for a user wallet.
func (s *ProfileSnapshotStore) GetLatest(ctx context.Context, user string) (*domain.ProfileSnapshot, error) {
	query := `
		SELECT ` + profileSnapshotColumns + `
		FROM profile_snapshots
		WHERE user_address = $1
		ORDER BY slot DESC
		LIMIT 1
	`

	p, err := scanProfileSnapshot(s.pool.QueryRow(ctx, query, user))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest profile snapshot: %w", err)
	}

	return p, nil
}

// GetHistory retrieves all snapshots for a user wallet, ordered by slot ASC.
func (s *ProfileSnapshotStore) GetHistory(ctx context.Context, user string) ([]*domain.ProfileSnapshot, error) {
	query := `
		SELECT ` + profileSnapshotColumns + `
		FROM profile_snapshots
		WHERE user_address = $1
		ORDER BY slot ASC
	`

	rows, err := s.pool.Query(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("query profile snapshot history: %w", err)
	}
	defer rows.Close()

	return collectProfileSnapshots(rows)
}

// GetLatestAll retrieves the most recent snapshot of every known user.
func (s *ProfileSnapshotStore) GetLatestAll(ctx context.Context) ([]*domain.ProfileSnapshot, error) {
	query := `
		SELECT DISTINCT ON (user_address) ` + profileSnapshotColumns + `
		FROM profile_snapshots
		ORDER BY user_address, slot DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest profile snapshots: %w", err)
	}
	defer rows.Close()

	return collectProfileSnapshots(rows)
}

func profileSnapshotArgs(p *domain.ProfileSnapshot) []interface{} {
	return []interface{}{
		p.User,
		p.Slot,
		int64(p.TotalStaked),
		int64(p.TotalWinnings),
		int64(p.TotalPredictions),
		int64(p.WinningPredictions),
		p.LastActiveAt,
		int16(p.Bump),
		p.ScannedAt,
	}
}

// scanProfileSnapshot reads one row in profileSnapshotColumns order.
func scanProfileSnapshot(row rowScanner) (*domain.ProfileSnapshot, error) {
	var (
		p        domain.ProfileSnapshot
		staked   int64
		winnings int64
		total    int64
		winning  int64
		bump     int16
	)

	err := row.Scan(
		&p.User,
		&p.Slot,
		&staked,
		&winnings,
		&total,
		&winning,
		&p.LastActiveAt,
		&bump,
		&p.ScannedAt,
	)
	if err != nil {
		return nil, err
	}

	p.TotalStaked = uint64(staked)
	p.TotalWinnings = uint64(winnings)
	p.TotalPredictions = uint32(total)
	p.WinningPredictions = uint32(winning)
	p.Bump = uint8(bump)

	return &p, nil
}

func collectProfileSnapshots(rows rowsScanner) ([]*domain.ProfileSnapshot, error) {
	var out []*domain.ProfileSnapshot
	for rows.Next() {
		p, err := scanProfileSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile snapshot: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile snapshots: %w", err)
	}
	return out, nil
}

var _ storage.ProfileSnapshotStore = (*ProfileSnapshotStore)(nil)
