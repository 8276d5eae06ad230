package txn

import (
	"bytes"
	"testing"

	"github.com/mr-tron/base58"

	"foresight-go/internal/instruction"
)

const (
	testFeePayer  = "4nQVUxfFaFjmz9esZxkBUUxgjDCyCcHMarHU8Ek7nGjy"
	testMarket    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testBlockhash = "GHtXQBsoZHVnNFa9YevAzFr17DJjgHXk3ycTKbPJFgkn"
)

func testInstruction() instruction.Instruction {
	return instruction.Instruction{
		ProgramID: instruction.TokenProgramID,
		Accounts: []instruction.AccountMeta{
			{Pubkey: testFeePayer, IsSigner: true, IsWritable: true},
			{Pubkey: testMarket, IsSigner: false, IsWritable: true},
			{Pubkey: instruction.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		Data: []byte{1, 2, 3},
	}
}

func TestCompile_FeePayerFirst(t *testing.T) {
	msg, err := Compile(testFeePayer, testBlockhash, []instruction.Instruction{testInstruction()})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if msg.AccountKeys[0] != testFeePayer {
		t.Errorf("expected fee payer first, got %s", msg.AccountKeys[0])
	}

	if msg.Header.NumRequiredSignatures != 1 {
		t.Errorf("expected 1 required signature, got %d", msg.Header.NumRequiredSignatures)
	}

	if msg.Header.NumReadonlySignedAccounts != 0 {
		t.Errorf("expected 0 readonly signed, got %d", msg.Header.NumReadonlySignedAccounts)
	}

	// System program and token program are readonly non-signers
	if msg.Header.NumReadonlyUnsignedAccounts != 2 {
		t.Errorf("expected 2 readonly unsigned, got %d", msg.Header.NumReadonlyUnsignedAccounts)
	}
}

func TestCompile_AccountOrdering(t *testing.T) {
	msg, err := Compile(testFeePayer, testBlockhash, []instruction.Instruction{testInstruction()})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// writable non-signer before readonly non-signers
	if msg.AccountKeys[1] != testMarket {
		t.Errorf("expected writable market second, got %s", msg.AccountKeys[1])
	}

	// readonly accounts come last
	for _, key := range msg.AccountKeys[2:] {
		if key != instruction.SystemProgramID && key != instruction.TokenProgramID {
			t.Errorf("unexpected trailing account %s", key)
		}
	}
}

func TestCompile_MergesFlags(t *testing.T) {
	readonly := instruction.Instruction{
		ProgramID: instruction.TokenProgramID,
		Accounts: []instruction.AccountMeta{
			{Pubkey: testFeePayer, IsSigner: true, IsWritable: true},
			{Pubkey: testMarket, IsSigner: false, IsWritable: false},
		},
	}
	writable := instruction.Instruction{
		ProgramID: instruction.TokenProgramID,
		Accounts: []instruction.AccountMeta{
			{Pubkey: testMarket, IsSigner: false, IsWritable: true},
		},
	}

	msg, err := Compile(testFeePayer, testBlockhash, []instruction.Instruction{readonly, writable})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// testMarket is writable in one instruction, so it must not be
	// counted readonly
	if msg.Header.NumReadonlyUnsignedAccounts != 1 {
		t.Errorf("expected 1 readonly unsigned (token program), got %d", msg.Header.NumReadonlyUnsignedAccounts)
	}
}

func TestCompile_Validation(t *testing.T) {
	ins := testInstruction()

	if _, err := Compile("", testBlockhash, []instruction.Instruction{ins}); err == nil {
		t.Error("expected error for missing fee payer")
	}
	if _, err := Compile(testFeePayer, "", []instruction.Instruction{ins}); err == nil {
		t.Error("expected error for missing blockhash")
	}
	if _, err := Compile(testFeePayer, testBlockhash, nil); err == nil {
		t.Error("expected error for empty instruction list")
	}
}

func TestMessage_Serialize(t *testing.T) {
	ins := testInstruction()
	msg, err := Compile(testFeePayer, testBlockhash, []instruction.Instruction{ins})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	raw, err := msg.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	// header
	if raw[0] != 1 || raw[1] != 0 || raw[2] != 2 {
		t.Errorf("unexpected header bytes: %v", raw[:3])
	}

	// account table: compact count then 32 bytes per key
	if int(raw[3]) != len(msg.AccountKeys) {
		t.Errorf("expected account count %d, got %d", len(msg.AccountKeys), raw[3])
	}

	keyStart := 4
	payerRaw, _ := base58.Decode(testFeePayer)
	if !bytes.Equal(raw[keyStart:keyStart+32], payerRaw) {
		t.Error("first account key is not the fee payer")
	}

	// blockhash follows the key table
	hashStart := keyStart + 32*len(msg.AccountKeys)
	hashRaw, _ := base58.Decode(testBlockhash)
	if !bytes.Equal(raw[hashStart:hashStart+32], hashRaw) {
		t.Error("blockhash not at expected offset")
	}

	// one instruction, then its data tail
	insStart := hashStart + 32
	if raw[insStart] != 1 {
		t.Errorf("expected 1 instruction, got %d", raw[insStart])
	}
	if !bytes.Equal(raw[len(raw)-3:], ins.Data) {
		t.Error("instruction data not at message tail")
	}
}

func TestAssembleTransaction(t *testing.T) {
	msgBytes := []byte{9, 9, 9}
	sig := make([]byte, 64)
	sig[0] = 0xab

	tx, err := AssembleTransaction(msgBytes, [][]byte{sig})
	if err != nil {
		t.Fatalf("AssembleTransaction: %v", err)
	}

	if tx[0] != 1 {
		t.Errorf("expected signature count 1, got %d", tx[0])
	}
	if tx[1] != 0xab {
		t.Error("signature bytes not after count")
	}
	if !bytes.Equal(tx[65:], msgBytes) {
		t.Error("message bytes not after signatures")
	}

	if _, err := AssembleTransaction(msgBytes, [][]byte{{1, 2}}); err == nil {
		t.Error("expected error for short signature")
	}
}

func TestAppendCompactU16(t *testing.T) {
	cases := []struct {
		n    int
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{255, []byte{0xff, 0x01}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}

	for _, tc := range cases {
		got := appendCompactU16(nil, tc.n)
		if !bytes.Equal(got, tc.want) {
			t.Errorf("compact(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}
