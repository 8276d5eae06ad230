package solana

import "context"

// RPCClient defines the ledger query/submit surface consumed by this
// library. The shared client is safe for concurrent reads.
type RPCClient interface {
	// GetAccountInfo retrieves account data by address.
	// Returns nil if account not found.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetProgramAccounts scans accounts owned by a program, filtered
	// server-side by byte-offset matches and optional data slicing.
	GetProgramAccounts(ctx context.Context, programID string, opts *ProgramAccountsOpts) ([]KeyedAccount, error)

	// GetLatestBlockhash retrieves the current network checkpoint used
	// for transaction construction.
	GetLatestBlockhash(ctx context.Context) (*LatestBlockhash, error)

	// SendTransaction submits fully signed transaction bytes and
	// returns the transaction signature.
	SendTransaction(ctx context.Context, signedTx []byte) (string, error)

	// GetSignatureStatuses retrieves confirmation status for the given
	// signatures. Entries are nil for unknown signatures.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetTransaction retrieves confirmed transaction detail by
	// signature. Returns nil if not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}

// Transaction represents confirmed transaction detail.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}
