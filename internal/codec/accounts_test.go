package codec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"foresight-go/internal/domain"
)

const (
	keyCreator = "4nQVUxfFaFjmz9esZxkBUUxgjDCyCcHMarHU8Ek7nGjy"
	keyUser    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	keyMint    = "So11111111111111111111111111111111111111112"
)

// encodeMarket builds a market account buffer matching the decoder layout.
func encodeMarket(t *testing.T, m *domain.Market) []byte {
	t.Helper()

	w := NewWriter(MarketDiscriminator)
	if err := w.Pubkey(m.Creator); err != nil {
		t.Fatalf("encode creator: %v", err)
	}
	w.String(m.Question)
	w.StringSlice(m.Outcomes)
	w.Float32(m.QualityScore)
	w.Uint8(uint8(m.MarketType))
	w.Int64(m.Deadline.Unix())
	w.Int64(m.SuggestedDeadline.Unix())
	w.Bool(m.Resolved)
	if m.WinningOutcome != nil {
		w.Bool(true)
		w.Uint8(*m.WinningOutcome)
	} else {
		w.Bool(false)
	}
	w.Uint64(m.TotalPool)
	w.Uint16(m.CreatorFeeBps)
	w.Uint16(m.ProtocolFeeBps)
	w.Uint32(uint32(len(m.StakesPerOutcome)))
	for _, s := range m.StakesPerOutcome {
		w.Uint64(s)
	}
	if err := w.Pubkey(m.TokenMint); err != nil {
		t.Fatalf("encode token mint: %v", err)
	}
	w.Bool(m.ResolverEligible)
	w.Uint8(m.Bump)
	return w.Bytes()
}

func TestDecodeMarket_RoundTrip(t *testing.T) {
	winning := uint8(1)
	in := &domain.Market{
		Creator:           keyCreator,
		Question:          "Will it rain in Lisbon tomorrow?",
		Outcomes:          []string{"Yes", "No"},
		QualityScore:      0.82,
		MarketType:        domain.MarketTypeTimeBound,
		Deadline:          time.Unix(1735689600, 0).UTC(),
		SuggestedDeadline: time.Unix(1735693200, 0).UTC(),
		Resolved:          true,
		WinningOutcome:    &winning,
		TotalPool:         1_000_000,
		CreatorFeeBps:     500,
		ProtocolFeeBps:    250,
		StakesPerOutcome:  []uint64{700_000, 300_000},
		TokenMint:         keyMint,
		ResolverEligible:  true,
		Bump:              254,
	}

	out, err := DecodeMarket(encodeMarket(t, in))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if out.Creator != in.Creator {
		t.Errorf("creator: got %s, want %s", out.Creator, in.Creator)
	}
	if out.Question != in.Question {
		t.Errorf("question: got %q, want %q", out.Question, in.Question)
	}
	if len(out.Outcomes) != 2 || out.Outcomes[0] != "Yes" || out.Outcomes[1] != "No" {
		t.Errorf("outcomes: got %v", out.Outcomes)
	}
	if out.QualityScore != in.QualityScore {
		t.Errorf("quality score: got %f, want %f", out.QualityScore, in.QualityScore)
	}
	if !out.Deadline.Equal(in.Deadline) {
		t.Errorf("deadline: got %v, want %v", out.Deadline, in.Deadline)
	}
	if !out.Resolved {
		t.Error("resolved flag lost")
	}
	if out.WinningOutcome == nil || *out.WinningOutcome != winning {
		t.Errorf("winning outcome: got %v", out.WinningOutcome)
	}
	if out.TotalPool != in.TotalPool {
		t.Errorf("total pool: got %d, want %d", out.TotalPool, in.TotalPool)
	}
	if out.CreatorFeeBps != 500 || out.ProtocolFeeBps != 250 {
		t.Errorf("fees: got %d/%d", out.CreatorFeeBps, out.ProtocolFeeBps)
	}
	if len(out.StakesPerOutcome) != 2 || out.StakesPerOutcome[0] != 700_000 {
		t.Errorf("stakes: got %v", out.StakesPerOutcome)
	}
	if out.TokenMint != keyMint {
		t.Errorf("token mint: got %s", out.TokenMint)
	}
	if !out.ResolverEligible {
		t.Error("resolver eligibility lost")
	}
	if out.Bump != 254 {
		t.Errorf("bump: got %d", out.Bump)
	}
}

func TestDecodeMarket_EmptyAndMaxInputs(t *testing.T) {
	in := &domain.Market{
		Creator:           keyCreator,
		Question:          "",
		Outcomes:          []string{},
		Deadline:          time.Unix(0, 0).UTC(),
		SuggestedDeadline: time.Unix(0, 0).UTC(),
		StakesPerOutcome:  []uint64{},
		TokenMint:         keyMint,
	}

	out, err := DecodeMarket(encodeMarket(t, in))
	if err != nil {
		t.Fatalf("decode of empty fields failed: %v", err)
	}
	if out.Question != "" || len(out.Outcomes) != 0 || len(out.StakesPerOutcome) != 0 {
		t.Errorf("empty fields not preserved: %+v", out)
	}
	if out.WinningOutcome != nil {
		t.Errorf("absent option decoded as %v", *out.WinningOutcome)
	}

	in.Question = strings.Repeat("q", 10_000)
	in.Outcomes = make([]string, 64)
	in.StakesPerOutcome = make([]uint64, 64)
	for i := range in.Outcomes {
		in.Outcomes[i] = strings.Repeat("o", 200)
	}

	out, err = DecodeMarket(encodeMarket(t, in))
	if err != nil {
		t.Fatalf("decode of max-length fields failed: %v", err)
	}
	if len(out.Question) != 10_000 || len(out.Outcomes) != 64 {
		t.Errorf("max-length fields not preserved")
	}
}

func TestDecodeMarket_ShortBuffer(t *testing.T) {
	// A 10-byte buffer passes the discriminator read but not the first
	// field; it must fail cleanly, never return a partial record.
	buf := make([]byte, 10)
	copy(buf, MarketDiscriminator[:])

	m, err := DecodeMarket(buf)
	if !errors.Is(err, ErrMalformedAccountData) {
		t.Errorf("expected ErrMalformedAccountData, got %v", err)
	}
	if m != nil {
		t.Errorf("partial record returned: %+v", m)
	}

	// Shorter than the discriminator itself.
	if _, err := DecodeMarket(make([]byte, 4)); !errors.Is(err, ErrMalformedAccountData) {
		t.Errorf("expected ErrMalformedAccountData for 4-byte buffer, got %v", err)
	}
}

func TestDecodeMarket_HugeArrayCount(t *testing.T) {
	// Corrupt outcomes count of 0xFFFFFFFF on a 48-byte buffer. The
	// decoder must reject the count from the length prefix alone, not
	// size an allocation by it.
	buf := make([]byte, 0, 48)
	buf = append(buf, MarketDiscriminator[:]...)
	buf = append(buf, make([]byte, 32)...)    // creator
	buf = append(buf, 0, 0, 0, 0)             // empty question
	buf = append(buf, 0xFF, 0xFF, 0xFF, 0xFF) // outcomes count

	m, err := DecodeMarket(buf)
	if !errors.Is(err, ErrMalformedAccountData) {
		t.Errorf("expected ErrMalformedAccountData, got %v", err)
	}
	if m != nil {
		t.Errorf("partial record returned: %+v", m)
	}
}

func TestReader_SliceCountBounded(t *testing.T) {
	// Uint64 element count the buffer cannot possibly hold.
	r := NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 1, 2, 3})
	if _, err := r.Uint64Slice(); !errors.Is(err, ErrMalformedAccountData) {
		t.Errorf("Uint64Slice: expected ErrMalformedAccountData, got %v", err)
	}

	// 16 strings announced with no payload behind them.
	r = NewReader([]byte{0x10, 0x00, 0x00, 0x00})
	if _, err := r.StringSlice(); !errors.Is(err, ErrMalformedAccountData) {
		t.Errorf("StringSlice: expected ErrMalformedAccountData, got %v", err)
	}
}

func TestDecodeMarket_WrongDiscriminator(t *testing.T) {
	p := &domain.Prediction{User: keyUser, Market: keyCreator, Timestamp: time.Unix(0, 0)}
	buf := encodePrediction(t, p)

	if _, err := DecodeMarket(buf); !errors.Is(err, ErrAccountTypeMismatch) {
		t.Errorf("expected ErrAccountTypeMismatch, got %v", err)
	}
}

func encodePrediction(t *testing.T, p *domain.Prediction) []byte {
	t.Helper()

	w := NewWriter(PredictionDiscriminator)
	if err := w.Pubkey(p.User); err != nil {
		t.Fatalf("encode user: %v", err)
	}
	if err := w.Pubkey(p.Market); err != nil {
		t.Fatalf("encode market: %v", err)
	}
	w.Uint8(p.OutcomeIndex)
	w.Uint64(p.Amount)
	w.Int64(p.Timestamp.Unix())
	w.Bool(p.Claimed)
	w.Uint8(p.Bump)
	return w.Bytes()
}

func TestDecodePrediction_RoundTrip(t *testing.T) {
	in := &domain.Prediction{
		User:         keyUser,
		Market:       keyCreator,
		OutcomeIndex: 1,
		Amount:       140,
		Timestamp:    time.Unix(1720000000, 0).UTC(),
		Claimed:      false,
		Bump:         253,
	}

	out, err := DecodePrediction(encodePrediction(t, in))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.User != in.User || out.Market != in.Market {
		t.Errorf("keys: got %s/%s", out.User, out.Market)
	}
	if out.OutcomeIndex != 1 || out.Amount != 140 {
		t.Errorf("stake fields: got %d/%d", out.OutcomeIndex, out.Amount)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("timestamp: got %v", out.Timestamp)
	}
	if out.Status != domain.PredictionPending {
		t.Errorf("fresh prediction status: got %s", out.Status)
	}
}

func TestDecodeCreatorProfile_RoundTrip(t *testing.T) {
	w := NewWriter(CreatorProfileDiscriminator)
	if err := w.Pubkey(keyCreator); err != nil {
		t.Fatalf("encode creator: %v", err)
	}
	w.Int64(1720000000)
	w.Uint32(7)
	w.Uint64(5_000_000)
	w.Uint64(42)
	w.Uint8(2)
	w.Uint8(255)

	cp, err := DecodeCreatorProfile(w.Bytes())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cp.Creator != keyCreator || cp.MarketsCreated != 7 || cp.TotalVolume != 5_000_000 {
		t.Errorf("fields: %+v", cp)
	}
	if cp.TractionScore != 42 || cp.Tier != 2 || cp.Bump != 255 {
		t.Errorf("fields: %+v", cp)
	}
	if cp.LastCreatedAt.Unix() != 1720000000 {
		t.Errorf("last created: got %v", cp.LastCreatedAt)
	}
}

func TestDecodeUserProfile_RoundTrip(t *testing.T) {
	w := NewWriter(UserProfileDiscriminator)
	if err := w.Pubkey(keyUser); err != nil {
		t.Fatalf("encode user: %v", err)
	}
	w.Uint64(10_000)
	w.Uint64(4_000)
	w.Uint32(10)
	w.Uint32(6)
	w.Int64(1720000000)
	w.Uint8(251)

	up, err := DecodeUserProfile(w.Bytes())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if up.User != keyUser || up.TotalStaked != 10_000 || up.TotalWinnings != 4_000 {
		t.Errorf("fields: %+v", up)
	}
	if up.TotalPredictions != 10 || up.WinningPredictions != 6 {
		t.Errorf("prediction counts: %d/%d", up.TotalPredictions, up.WinningPredictions)
	}
}

func TestWriter_Options(t *testing.T) {
	fee := uint16(300)
	eligible := true

	w := NewWriter(InstructionDiscriminator("create_market"))
	w.OptionUint16(&fee)
	w.OptionBool(&eligible)
	w.OptionUint16(nil)
	w.OptionBool(nil)

	got := w.Bytes()[8:]
	want := []byte{1, 0x2c, 0x01, 1, 1, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("length: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d: got %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestDiscriminators_Distinct(t *testing.T) {
	tags := [][8]byte{
		MarketDiscriminator,
		PredictionDiscriminator,
		CreatorProfileDiscriminator,
		UserProfileDiscriminator,
		InstructionDiscriminator("create_market"),
		InstructionDiscriminator("stake_prediction"),
		InstructionDiscriminator("claim_reward"),
	}
	seen := make(map[[8]byte]bool)
	for _, tag := range tags {
		if seen[tag] {
			t.Errorf("duplicate discriminator %x", tag)
		}
		seen[tag] = true
	}
}
