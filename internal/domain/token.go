package domain

// TokenInfo describes a stake token accepted by the app.
type TokenInfo struct {
	Address  string // mint address
	Symbol   string
	Name     string
	Decimals uint8
	LogoURI  string
}
