package token

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"foresight-go/internal/cache/memory"
	"foresight-go/internal/domain"
)

// fakeLister returns a fixed list and counts calls.
type fakeLister struct {
	tokens []domain.TokenInfo
	err    error
	calls  int
}

func (f *fakeLister) ListTokens(_ context.Context) ([]domain.TokenInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

func TestAllTokens_DefaultsFirstAndDeduplicated(t *testing.T) {
	lister := &fakeLister{tokens: []domain.TokenInfo{
		{Address: "Mint1111111111111111111111111111111111111111", Symbol: "ONE", Decimals: 6},
		// Shadows the built-in SOL entry; must be dropped.
		{Address: "So11111111111111111111111111111111111111112", Symbol: "WSOL", Decimals: 9},
	}}
	svc := New(lister, memory.NewTokenCache())

	tokens, err := svc.AllTokens(context.Background())
	if err != nil {
		t.Fatalf("AllTokens failed: %v", err)
	}

	if len(tokens) != len(DefaultTokens)+1 {
		t.Fatalf("expected %d tokens, got %d", len(DefaultTokens)+1, len(tokens))
	}
	if tokens[0].Symbol != "SOL" || tokens[1].Symbol != "USDC" {
		t.Errorf("defaults not first: %s, %s", tokens[0].Symbol, tokens[1].Symbol)
	}
	for _, tok := range tokens {
		if tok.Symbol == "WSOL" {
			t.Error("duplicate of a default token was not dropped")
		}
	}
}

func TestAllTokens_FallsBackToDefaults(t *testing.T) {
	lister := &fakeLister{err: errors.New("list endpoint down")}
	svc := New(lister, memory.NewTokenCache())

	tokens, err := svc.AllTokens(context.Background())
	if err != nil {
		t.Fatalf("AllTokens failed: %v", err)
	}
	if len(tokens) != len(DefaultTokens) {
		t.Errorf("expected the %d defaults, got %d tokens", len(DefaultTokens), len(tokens))
	}
}

func TestGetByAddress_WarmsAndUsesCache(t *testing.T) {
	mint := "Mint1111111111111111111111111111111111111111"
	lister := &fakeLister{tokens: []domain.TokenInfo{
		{Address: mint, Symbol: "ONE", Name: "Token One", Decimals: 6},
	}}
	svc := New(lister, memory.NewTokenCache())
	ctx := context.Background()

	tok, err := svc.GetByAddress(ctx, mint)
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if tok.Symbol != "ONE" {
		t.Errorf("Symbol mismatch: got %s, want ONE", tok.Symbol)
	}
	if lister.calls != 1 {
		t.Fatalf("expected 1 list fetch, got %d", lister.calls)
	}

	// Second lookup is served from the cache.
	if _, err := svc.GetByAddress(ctx, mint); err != nil {
		t.Fatalf("cached GetByAddress failed: %v", err)
	}
	if lister.calls != 1 {
		t.Errorf("cache miss refetched the list: %d calls", lister.calls)
	}

	// The miss warmed the whole list, defaults included.
	if _, err := svc.GetByAddress(ctx, DefaultTokens[0].Address); err != nil {
		t.Fatalf("default lookup failed: %v", err)
	}
	if lister.calls != 1 {
		t.Errorf("default token was not warmed: %d calls", lister.calls)
	}
}

func TestGetByAddress_Unknown(t *testing.T) {
	svc := New(&fakeLister{}, memory.NewTokenCache())

	_, err := svc.GetByAddress(context.Background(), "UnknownMint111111111111111111111111111111111")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetBySymbol_CaseInsensitive(t *testing.T) {
	svc := New(&fakeLister{}, memory.NewTokenCache())

	tok, err := svc.GetBySymbol(context.Background(), "usdc")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if tok.Address != "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v" {
		t.Errorf("wrong token: %+v", tok)
	}
}

func TestDefaultToken(t *testing.T) {
	svc := New(&fakeLister{}, memory.NewTokenCache())

	tok, err := svc.DefaultToken(context.Background())
	if err != nil {
		t.Fatalf("DefaultToken failed: %v", err)
	}
	if tok.Symbol != "SOL" || tok.Decimals != 9 {
		t.Errorf("unexpected default token: %+v", tok)
	}
}

func TestHTTPLister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"address":"Mint1111111111111111111111111111111111111111","symbol":"ONE","name":"Token One","decimals":6,"logoURI":"https://example.com/one.png"},
			{"address":"","symbol":"BAD"},
			{"address":"Mint2222222222222222222222222222222222222222","symbol":"TWO","name":"Token Two","decimals":9}
		]`))
	}))
	defer server.Close()

	lister := NewHTTPLister(server.URL)
	tokens, err := lister.ListTokens(context.Background())
	if err != nil {
		t.Fatalf("ListTokens failed: %v", err)
	}

	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens (entry without address dropped), got %d", len(tokens))
	}
	if tokens[0].Symbol != "ONE" || tokens[0].Decimals != 6 {
		t.Errorf("unexpected first token: %+v", tokens[0])
	}
}

func TestHTTPLister_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewHTTPLister(server.URL).ListTokens(context.Background()); err == nil {
		t.Error("expected error for non-200 status")
	}
}
