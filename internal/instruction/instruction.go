// Package instruction assembles program instructions: for each mutating
// operation, the target program, the exact ordered account list with
// signer/writable flags, and the encoded argument payload.
//
// Account order and flags are a fragile external contract. A deviation
// is not detectable client-side and surfaces only as an on-chain
// rejection after submission.
package instruction

// Well-known program and sysvar addresses.
const (
	SystemProgramID = "11111111111111111111111111111111"
	TokenProgramID  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	RentSysvarID    = "SysvarRent111111111111111111111111111111111"
)

// AccountMeta is one entry of an instruction's account list.
type AccountMeta struct {
	Pubkey     string
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation ready for transaction
// compilation.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

func meta(pubkey string, signer, writable bool) AccountMeta {
	return AccountMeta{Pubkey: pubkey, IsSigner: signer, IsWritable: writable}
}
