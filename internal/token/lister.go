package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"foresight-go/internal/domain"
)

// DefaultTokenListURL is the verified Jupiter token list.
const DefaultTokenListURL = "https://tokens.jup.ag/tokens?tags=verified"

const defaultListTimeout = 30 * time.Second

// HTTPLister fetches a JSON token list over HTTP.
type HTTPLister struct {
	endpoint string
	client   *http.Client
}

// NewHTTPLister creates a lister for the given token list URL. An empty
// endpoint uses DefaultTokenListURL.
func NewHTTPLister(endpoint string) *HTTPLister {
	if endpoint == "" {
		endpoint = DefaultTokenListURL
	}
	return &HTTPLister{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultListTimeout},
	}
}

type tokenListEntry struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// ListTokens fetches and decodes the remote list.
func (l *HTTPLister) ListTokens(ctx context.Context) ([]domain.TokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build token list request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch token list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch token list: unexpected status %d", resp.StatusCode)
	}

	var entries []tokenListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode token list: %w", err)
	}

	tokens := make([]domain.TokenInfo, 0, len(entries))
	for _, e := range entries {
		if e.Address == "" {
			continue
		}
		tokens = append(tokens, domain.TokenInfo{
			Address:  e.Address,
			Symbol:   e.Symbol,
			Name:     e.Name,
			Decimals: e.Decimals,
			LogoURI:  e.LogoURI,
		})
	}
	return tokens, nil
}

var _ Lister = (*HTTPLister)(nil)
