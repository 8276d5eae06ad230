package txn

import (
	"fmt"
	"sort"

	"github.com/mr-tron/base58"

	"foresight-go/internal/instruction"
)

// compiledInstruction references accounts by index into the message
// account table.
type compiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndices []uint8
	Data           []byte
}

// messageHeader is the legacy message header: signature count and
// read-only account counts.
type messageHeader struct {
	NumRequiredSignatures       uint8
	NumReadonlySignedAccounts   uint8
	NumReadonlyUnsignedAccounts uint8
}

// Message is a compiled legacy transaction message ready for signing.
type Message struct {
	Header          messageHeader
	AccountKeys     []string
	RecentBlockhash string
	Instructions    []compiledInstruction
}

// accountEntry accumulates signer/writable flags for one address
// across all instructions.
type accountEntry struct {
	pubkey   string
	signer   bool
	writable bool
	order    int
}

// Compile flattens instructions into a legacy message. The fee payer is
// always the first account and a writable signer. Remaining accounts
// are sorted writable-signers, readonly-signers, writable-non-signers,
// readonly-non-signers; flags are merged across instructions.
func Compile(feePayer string, recentBlockhash string, instrs []instruction.Instruction) (*Message, error) {
	if feePayer == "" {
		return nil, fmt.Errorf("fee payer must be set")
	}
	if recentBlockhash == "" {
		return nil, fmt.Errorf("recent blockhash must be set")
	}
	if len(instrs) == 0 {
		return nil, fmt.Errorf("at least one instruction is required")
	}

	entries := map[string]*accountEntry{}
	order := 0
	touch := func(pubkey string, signer, writable bool) {
		e, ok := entries[pubkey]
		if !ok {
			e = &accountEntry{pubkey: pubkey, order: order}
			order++
			entries[pubkey] = e
		}
		e.signer = e.signer || signer
		e.writable = e.writable || writable
	}

	touch(feePayer, true, true)
	for _, ins := range instrs {
		for _, acc := range ins.Accounts {
			touch(acc.Pubkey, acc.IsSigner, acc.IsWritable)
		}
		// Program accounts are always readonly non-signers
		touch(ins.ProgramID, false, false)
	}

	sorted := make([]*accountEntry, 0, len(entries))
	for _, e := range entries {
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.pubkey == feePayer {
			return true
		}
		if b.pubkey == feePayer {
			return false
		}
		if a.signer != b.signer {
			return a.signer
		}
		if a.writable != b.writable {
			return a.writable
		}
		return a.order < b.order
	})

	var header messageHeader
	keys := make([]string, len(sorted))
	indexOf := make(map[string]uint8, len(sorted))
	for i, e := range sorted {
		if i > 255 {
			return nil, fmt.Errorf("too many accounts: %d", len(sorted))
		}
		keys[i] = e.pubkey
		indexOf[e.pubkey] = uint8(i)
		if e.signer {
			header.NumRequiredSignatures++
			if !e.writable {
				header.NumReadonlySignedAccounts++
			}
		} else if !e.writable {
			header.NumReadonlyUnsignedAccounts++
		}
	}

	compiled := make([]compiledInstruction, len(instrs))
	for i, ins := range instrs {
		indices := make([]uint8, len(ins.Accounts))
		for j, acc := range ins.Accounts {
			indices[j] = indexOf[acc.Pubkey]
		}
		compiled[i] = compiledInstruction{
			ProgramIDIndex: indexOf[ins.ProgramID],
			AccountIndices: indices,
			Data:           ins.Data,
		}
	}

	return &Message{
		Header:          header,
		AccountKeys:     keys,
		RecentBlockhash: recentBlockhash,
		Instructions:    compiled,
	}, nil
}

// Serialize encodes the message in the legacy wire format: header,
// compact account table, blockhash, compact instruction list.
func (m *Message) Serialize() ([]byte, error) {
	buf := make([]byte, 0, 256)

	buf = append(buf,
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySignedAccounts,
		m.Header.NumReadonlyUnsignedAccounts,
	)

	buf = appendCompactU16(buf, len(m.AccountKeys))
	for _, key := range m.AccountKeys {
		raw, err := base58.Decode(key)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("account key %q is not a 32-byte base58 key", key)
		}
		buf = append(buf, raw...)
	}

	hash, err := base58.Decode(m.RecentBlockhash)
	if err != nil || len(hash) != 32 {
		return nil, fmt.Errorf("blockhash %q is not a 32-byte base58 hash", m.RecentBlockhash)
	}
	buf = append(buf, hash...)

	buf = appendCompactU16(buf, len(m.Instructions))
	for _, ins := range m.Instructions {
		buf = append(buf, ins.ProgramIDIndex)
		buf = appendCompactU16(buf, len(ins.AccountIndices))
		buf = append(buf, ins.AccountIndices...)
		buf = appendCompactU16(buf, len(ins.Data))
		buf = append(buf, ins.Data...)
	}

	return buf, nil
}

// AssembleTransaction prepends the compact signature table to a
// serialized message, producing submit-ready transaction bytes.
// Signature order must match the message's signer order.
func AssembleTransaction(serializedMessage []byte, signatures [][]byte) ([]byte, error) {
	for i, sig := range signatures {
		if len(sig) != 64 {
			return nil, fmt.Errorf("signature %d has %d bytes, want 64", i, len(sig))
		}
	}

	buf := make([]byte, 0, len(serializedMessage)+len(signatures)*64+2)
	buf = appendCompactU16(buf, len(signatures))
	for _, sig := range signatures {
		buf = append(buf, sig...)
	}
	buf = append(buf, serializedMessage...)
	return buf, nil
}

// appendCompactU16 appends a compact-u16 (shortvec) length prefix.
func appendCompactU16(buf []byte, n int) []byte {
	v := uint16(n)
	for {
		if v < 0x80 {
			return append(buf, byte(v))
		}
		buf = append(buf, byte(v&0x7f)|0x80)
		v >>= 7
	}
}
