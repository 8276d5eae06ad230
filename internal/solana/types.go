package solana

// AccountInfo represents Solana account information. Data is the raw
// decoded account bytes.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// KeyedAccount pairs an account address with its info, as returned by
// program-account scans.
type KeyedAccount struct {
	Pubkey  string
	Account AccountInfo
}

// MemcmpFilter matches raw bytes at a fixed offset inside account data.
// Offsets must exactly match the account byte layout or scans silently
// return nothing.
type MemcmpFilter struct {
	Offset int
	Bytes  []byte // compared raw; encoded base58 on the wire
}

// ProgramAccountsOpts configures a program-account scan.
type ProgramAccountsOpts struct {
	Filters []MemcmpFilter
	// DataSize filters accounts by exact data length; 0 disables it.
	DataSize int
	// SliceLength limits how many data bytes are returned per account
	// when SliceData is set. SliceLength 0 with SliceData set returns
	// no data at all, which is how count-only scans avoid payload
	// transfer.
	SliceData   bool
	SliceOffset int
	SliceLength int
}

// LatestBlockhash is the network checkpoint attached to transactions.
type LatestBlockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// SignatureStatus reports the confirmation state of a submitted
// transaction.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *uint64 // nil once rooted
	ConfirmationStatus string  // "processed" | "confirmed" | "finalized"
	Err                interface{}
}
