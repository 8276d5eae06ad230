package domain

import "time"

// MarketSnapshot is a point-in-time copy of a market account captured
// during a program scan. Snapshots are keyed by (Address, Slot) so the
// same market can be recorded across slots.
type MarketSnapshot struct {
	Market
	Slot      int64     // slot the scan observed
	ScannedAt time.Time // wall-clock capture time
}

// ProfileSnapshot is a point-in-time copy of a user profile account,
// keyed by (User, Slot).
type ProfileSnapshot struct {
	UserProfile
	Slot      int64
	ScannedAt time.Time
}
