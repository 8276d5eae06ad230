package domain

import "time"

// CreatorProfile tracks per-creator activity. One per creator, created
// lazily on first market and only ever incremented by the program.
type CreatorProfile struct {
	Creator        string
	LastCreatedAt  time.Time
	MarketsCreated uint32
	TotalVolume    uint64 // raw units
	TractionScore  uint64
	Tier           uint8
	Bump           uint8
}

// UserProfile tracks per-user activity. One per user, created lazily on
// first stake.
type UserProfile struct {
	User               string
	TotalStaked        uint64 // raw units
	TotalWinnings      uint64 // raw units
	TotalPredictions   uint32
	WinningPredictions uint32
	LastActiveAt       time.Time
	Bump               uint8
}

// UserStats is the presentation view of a user profile.
type UserStats struct {
	TotalPredictions   uint32
	WinningPredictions uint32
	Accuracy           float64 // percentage, 0 when no predictions
	TotalStaked        uint64
	TotalWinnings      uint64
	LastActiveAt       time.Time
}
