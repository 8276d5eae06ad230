package txn

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
)

// LoadKeypair reads a Solana CLI keypair file, a JSON array of 64
// bytes holding the seed followed by the public key. It returns the
// ed25519 private key and the base58 wallet address.
func LoadKeypair(path string) (ed25519.PrivateKey, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read keypair file: %w", err)
	}

	var bytes []byte
	if err := json.Unmarshal(raw, &bytes); err != nil {
		return nil, "", fmt.Errorf("parse keypair file %s: %w", path, err)
	}
	if len(bytes) != ed25519.PrivateKeySize {
		return nil, "", fmt.Errorf("keypair file %s holds %d bytes, want %d", path, len(bytes), ed25519.PrivateKeySize)
	}

	key := ed25519.PrivateKey(bytes)
	wallet := base58.Encode(key.Public().(ed25519.PublicKey))
	return key, wallet, nil
}

// LocalSigner wraps an in-process ed25519 key as a SignFunc producing
// single-signature transactions.
func LocalSigner(key ed25519.PrivateKey) SignFunc {
	return func(_ context.Context, unsignedMessage []byte) ([]byte, error) {
		sig := ed25519.Sign(key, unsignedMessage)
		return AssembleTransaction(unsignedMessage, [][]byte{sig})
	}
}
