package stub

import (
	"context"
	"fmt"
	"sync"

	"foresight-go/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. All stores are
// keyed the way the real client keys them: accounts by base58 address,
// program accounts by owning program.
type RPCClient struct {
	mu sync.Mutex

	Accounts        map[string]*solana.AccountInfo
	ProgramAccounts map[string][]solana.KeyedAccount
	Blockhash       solana.LatestBlockhash
	Statuses        map[string]*solana.SignatureStatus
	Transactions    map[string]*solana.Transaction
	Slot            int64

	// SendErr, when set, fails SendTransaction.
	SendErr error
	// NextSignature is returned by SendTransaction.
	NextSignature string

	// Sent records every transaction submitted.
	Sent [][]byte
	// StatusCalls counts GetSignatureStatuses invocations.
	StatusCalls int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:        make(map[string]*solana.AccountInfo),
		ProgramAccounts: make(map[string][]solana.KeyedAccount),
		Statuses:        make(map[string]*solana.SignatureStatus),
		Transactions:    make(map[string]*solana.Transaction),
		Blockhash: solana.LatestBlockhash{
			Blockhash:            "GHtXQBsoZHVnNFa9YevAzFr17DJjgHXk3ycTKbPJFgkn",
			LastValidBlockHeight: 1000,
		},
		NextSignature: "5VERYuNique111111111111111111111111111111111111111111111111111111111111111111111111111",
	}
}

// GetAccountInfo retrieves an account from the stub store.
// Returns nil if absent, matching the live client.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

// GetProgramAccounts returns the stored accounts for a program,
// applying memcmp filters and data slicing like the live endpoint.
func (c *RPCClient) GetProgramAccounts(_ context.Context, programID string, opts *solana.ProgramAccountsOpts) ([]solana.KeyedAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []solana.KeyedAccount
	for _, ka := range c.ProgramAccounts[programID] {
		if opts != nil && !matches(ka.Account.Data, opts) {
			continue
		}
		if opts != nil && opts.SliceData {
			sliced := ka
			sliced.Account.Data = slice(ka.Account.Data, opts.SliceOffset, opts.SliceLength)
			out = append(out, sliced)
			continue
		}
		out = append(out, ka)
	}
	return out, nil
}

func matches(data []byte, opts *solana.ProgramAccountsOpts) bool {
	if opts.DataSize > 0 && len(data) != opts.DataSize {
		return false
	}
	for _, f := range opts.Filters {
		end := f.Offset + len(f.Bytes)
		if end > len(data) {
			return false
		}
		if string(data[f.Offset:end]) != string(f.Bytes) {
			return false
		}
	}
	return true
}

func slice(data []byte, offset, length int) []byte {
	if offset >= len(data) {
		return nil
	}
	end := offset + length
	if end > len(data) {
		end = len(data)
	}
	return data[offset:end]
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (*solana.LatestBlockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bh := c.Blockhash
	return &bh, nil
}

// SendTransaction records the submitted bytes and returns NextSignature.
func (c *RPCClient) SendTransaction(_ context.Context, signedTx []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, signedTx)
	return c.NextSignature, nil
}

// GetSignatureStatuses looks up statuses from the stub store. Unknown
// signatures yield nil entries.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StatusCalls++
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		out[i] = c.Statuses[sig]
	}
	return out, nil
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transactions[signature], nil
}

// GetSlot returns the configured slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Slot, nil
}

// AddAccount stores an account by address.
func (c *RPCClient) AddAccount(pubkey string, info *solana.AccountInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = info
}

// AddProgramAccount stores an account under a program's scan results.
func (c *RPCClient) AddProgramAccount(programID string, ka solana.KeyedAccount) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ProgramAccounts[programID] = append(c.ProgramAccounts[programID], ka)
	c.Accounts[ka.Pubkey] = &ka.Account
}

// SetStatus stores a signature status.
func (c *RPCClient) SetStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}

// FailWith makes SendTransaction fail with a formatted error.
func (c *RPCClient) FailWith(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SendErr = fmt.Errorf(format, args...)
}

var _ solana.RPCClient = (*RPCClient)(nil)
