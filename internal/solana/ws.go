package solana

import "context"

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature subscribes to the confirmation of a single
	// transaction signature. The channel receives exactly one
	// notification and is then closed; the server cancels the
	// subscription after it fires.
	SubscribeSignature(ctx context.Context, signature string, commitment string) (<-chan SignatureNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification reports that a watched signature reached the
// requested commitment. Err is non-nil when the transaction failed
// on-chain.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
}
