package domain

import "time"

// MarketType classifies how a market reaches resolution.
type MarketType uint8

const (
	// MarketTypeTimeBound resolves at a fixed deadline.
	MarketTypeTimeBound MarketType = 0
	// MarketTypeOpenEnded resolves when the resolver decides.
	MarketTypeOpenEnded MarketType = 1
)

// Market is the decoded state of an on-chain market account, enriched
// with its own address. Amounts are raw token units; callers apply the
// mint's decimals scale for display.
type Market struct {
	Address           string     // market account address (PDA)
	Creator           string     // creator wallet address
	Question          string     // market question text
	Outcomes          []string   // ordered outcome labels
	QualityScore      float32    // quality score assigned at creation
	MarketType        MarketType
	Deadline          time.Time  // resolution deadline
	SuggestedDeadline time.Time  // resolver-suggested deadline
	Resolved          bool
	WinningOutcome    *uint8     // set iff Resolved; index into Outcomes
	TotalPool         uint64     // total staked, raw units
	CreatorFeeBps     uint16
	ProtocolFeeBps    uint16
	StakesPerOutcome  []uint64   // aligned with Outcomes
	ResolverEligible  bool       // market may be resolved by the resolver authority
	TokenMint         string     // stake token mint address
	Bump              uint8
}

// MarketParams are the caller-supplied inputs for creating a market.
type MarketParams struct {
	Question         string
	Outcomes         []string
	Deadline         time.Time
	TokenMint        string
	QualityScore     float32
	MarketType       MarketType
	CreatorMetadata  string
	CreatorFeeBps    *uint16 // nil lets the program apply its default
	ResolverEligible *bool   // nil lets the program apply its default
}

// MarketStats is a derived per-market summary.
type MarketStats struct {
	TotalPredictions    int
	OutcomeDistribution []float64 // percentage share per outcome, sums to ~100
	Deadline            time.Time
	Resolved            bool
	WinningOutcome      *uint8
	Liquidity           uint64 // total pool, raw units
}
