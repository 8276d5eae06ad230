package txn

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"foresight-go/internal/instruction"
	"foresight-go/internal/observability"
	"foresight-go/internal/solana"
)

// State of a transaction in flight.
type State string

const (
	StateBuilt     State = "BUILT"
	StateSigned    State = "SIGNED"
	StateSubmitted State = "SUBMITTED"
	StateConfirmed State = "CONFIRMED"
	StateFinalized State = "FINALIZED"
	StateFailed    State = "FAILED"
)

// Event advances the lifecycle state machine.
type Event string

const (
	EventSigned    Event = "signed"
	EventSubmitted Event = "submitted"
	EventConfirmed Event = "confirmed"
	EventFinalized Event = "finalized"
	EventFailed    Event = "failed"
)

// transitions is the complete legal transition table. Every run ends in
// CONFIRMED, FINALIZED or FAILED; there is no pending terminal.
var transitions = map[State]map[Event]State{
	StateBuilt: {
		EventSigned: StateSigned,
		EventFailed: StateFailed,
	},
	StateSigned: {
		EventSubmitted: StateSubmitted,
		EventFailed:    StateFailed,
	},
	StateSubmitted: {
		EventConfirmed: StateConfirmed,
		EventFinalized: StateFinalized,
		EventFailed:    StateFailed,
	},
	StateConfirmed: {
		EventFinalized: StateFinalized,
	},
}

// Transition applies an event to a state. It is pure; the Manager is
// the only effectful driver.
func Transition(s State, ev Event) (State, error) {
	next, ok := transitions[s][ev]
	if !ok {
		return s, fmt.Errorf("invalid transition: %s + %s", s, ev)
	}
	return next, nil
}

// SignFunc is the external signer capability: it receives the
// serialized unsigned message and returns fully signed transaction
// bytes, or rejects. AssembleTransaction helps implementations attach
// raw signatures.
type SignFunc func(ctx context.Context, unsignedMessage []byte) ([]byte, error)

// Callbacks are invoked at lifecycle transition points. Nil fields are
// skipped. OnSettled always fires exactly once, after OnSuccess or
// OnError.
type Callbacks struct {
	OnStart   func()
	OnSuccess func(*Receipt)
	OnError   func(error, *Receipt)
	OnSettled func()
}

func (c *Callbacks) start() {
	if c != nil && c.OnStart != nil {
		c.OnStart()
	}
}

func (c *Callbacks) success(r *Receipt) {
	if c != nil && c.OnSuccess != nil {
		c.OnSuccess(r)
	}
}

func (c *Callbacks) fail(err error, r *Receipt) {
	if c != nil && c.OnError != nil {
		c.OnError(err, r)
	}
}

func (c *Callbacks) settled() {
	if c != nil && c.OnSettled != nil {
		c.OnSettled()
	}
}

// Receipt is the terminal record of a transaction run.
type Receipt struct {
	Signature     string
	State         State
	Slot          int64
	BlockTime     int64
	Confirmations uint64
	// Err holds the raw on-chain error payload for failed runs.
	Err interface{}
}

// Default confirmation polling parameters.
const (
	DefaultConfirmRetries    = 5
	DefaultConfirmBackoff    = 1000 * time.Millisecond
	DefaultConfirmMultiplier = 1.5
)

// Manager drives transactions through the lifecycle: blockhash attach,
// external signing, submission, bounded confirmation polling.
type Manager struct {
	rpc        solana.RPCClient
	ws         solana.WSClient
	log        zerolog.Logger
	maxRetries int
	initial    time.Duration
	multiplier float64
	newBackOff func() backoff.BackOff
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithConfirmRetries sets how many confirmation polls run before the
// transaction is reported lost.
func WithConfirmRetries(n int) ManagerOption {
	return func(m *Manager) {
		m.maxRetries = n
	}
}

// WithConfirmBackoff sets the initial poll delay and its multiplier.
func WithConfirmBackoff(initial time.Duration, multiplier float64) ManagerOption {
	return func(m *Manager) {
		m.initial = initial
		m.multiplier = multiplier
	}
}

// WithBackOffFactory injects the backoff strategy, letting tests run
// without real delays.
func WithBackOffFactory(f func() backoff.BackOff) ManagerOption {
	return func(m *Manager) {
		m.newBackOff = f
	}
}

// WithWSConfirmation routes confirmation through a WebSocket signature
// subscription instead of leading with status polls. Polling remains
// the fallback when the subscription cannot be established or closes
// without delivering a notification.
func WithWSConfirmation(ws solana.WSClient) ManagerOption {
	return func(m *Manager) {
		m.ws = ws
	}
}

// WithLogger sets the manager logger.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a lifecycle manager.
func NewManager(rpc solana.RPCClient, opts ...ManagerOption) *Manager {
	m := &Manager{
		rpc:        rpc,
		log:        zerolog.Nop(),
		maxRetries: DefaultConfirmRetries,
		initial:    DefaultConfirmBackoff,
		multiplier: DefaultConfirmMultiplier,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.newBackOff == nil {
		m.newBackOff = func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = m.initial
			bo.Multiplier = m.multiplier
			bo.RandomizationFactor = 0
			bo.MaxInterval = 30 * time.Second
			bo.MaxElapsedTime = 0
			return bo
		}
	}
	return m
}

// Execute runs instructions through the full lifecycle and returns the
// terminal receipt. It never returns a pending result: the receipt is
// CONFIRMED/FINALIZED, or the error is non-nil.
func (m *Manager) Execute(ctx context.Context, feePayer string, instrs []instruction.Instruction, sign SignFunc, cb *Callbacks) (*Receipt, error) {
	cb.start()

	receipt, err := m.run(ctx, feePayer, instrs, sign)
	if receipt != nil {
		observability.RecordTransactionOutcome(string(receipt.State))
	}
	if err != nil {
		cb.fail(err, receipt)
		cb.settled()
		return receipt, err
	}

	cb.success(receipt)
	cb.settled()
	return receipt, nil
}

func (m *Manager) run(ctx context.Context, feePayer string, instrs []instruction.Instruction, sign SignFunc) (*Receipt, error) {
	state := StateBuilt

	blockhash, err := m.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return m.failed(state, nil), fmt.Errorf("get blockhash: %w", err)
	}

	msg, err := Compile(feePayer, blockhash.Blockhash, instrs)
	if err != nil {
		return m.failed(state, nil), fmt.Errorf("compile message: %w", err)
	}

	unsigned, err := msg.Serialize()
	if err != nil {
		return m.failed(state, nil), fmt.Errorf("serialize message: %w", err)
	}

	signedTx, err := sign(ctx, unsigned)
	if err != nil {
		return m.failed(state, nil), fmt.Errorf("%w: %v", ErrSignerRejected, err)
	}
	state, _ = Transition(state, EventSigned)

	signature, err := m.rpc.SendTransaction(ctx, signedTx)
	if err != nil {
		return m.failed(state, nil), fmt.Errorf("send transaction: %w", err)
	}
	state, _ = Transition(state, EventSubmitted)
	observability.DefaultMetrics.TransactionsSubmitted.Inc()

	m.log.Debug().
		Str("signature", signature).
		Str("blockhash", blockhash.Blockhash).
		Msg("transaction submitted")

	return m.confirm(ctx, state, signature)
}

// confirm resolves the fate of a submitted signature. With a WS client
// attached it waits on a signature subscription first and only polls
// when the subscription yields no verdict.
func (m *Manager) confirm(ctx context.Context, state State, signature string) (*Receipt, error) {
	if m.ws != nil {
		receipt, err := m.confirmViaWS(ctx, state, signature)
		if receipt != nil || err != nil {
			return receipt, err
		}
	}
	return m.confirmByPolling(ctx, state, signature)
}

// confirmViaWS waits for the signature subscription to fire. A nil
// receipt with a nil error means the subscription produced no verdict
// and the caller should fall back to polling.
func (m *Manager) confirmViaWS(ctx context.Context, state State, signature string) (*Receipt, error) {
	notifs, err := m.ws.SubscribeSignature(ctx, signature, "confirmed")
	if err != nil {
		m.log.Warn().Err(err).Str("signature", signature).Msg("signature subscription failed, falling back to polling")
		return nil, nil
	}

	select {
	case <-ctx.Done():
		return m.failedSig(state, signature, nil), ctx.Err()
	case notif, ok := <-notifs:
		if !ok {
			m.log.Warn().Str("signature", signature).Msg("signature subscription closed without notification, falling back to polling")
			return nil, nil
		}

		if notif.Err != nil {
			state, _ = Transition(state, EventFailed)
			receipt := &Receipt{
				Signature: signature,
				State:     state,
				Slot:      notif.Slot,
				Err:       notif.Err,
			}
			return receipt, ClassifyTransactionError(notif.Err)
		}

		state, _ = Transition(state, EventConfirmed)
		receipt := &Receipt{
			Signature: signature,
			State:     state,
			Slot:      notif.Slot,
		}
		// The notification carries no confirmation depth; one status
		// read fills it in and catches a signature that finalized
		// before we looked.
		if statuses, err := m.rpc.GetSignatureStatuses(ctx, []string{signature}); err == nil && len(statuses) > 0 && statuses[0] != nil {
			status := statuses[0]
			if status.Confirmations != nil {
				receipt.Confirmations = *status.Confirmations
			}
			if status.ConfirmationStatus == "finalized" {
				if next, err := Transition(receipt.State, EventFinalized); err == nil {
					receipt.State = next
				}
			}
		}
		if tx, err := m.rpc.GetTransaction(ctx, signature); err == nil && tx != nil {
			receipt.BlockTime = tx.BlockTime
		}
		return receipt, nil
	}
}

// confirmByPolling polls signature status with bounded retries. nil
// statuses count against the retry budget; the ledger deduplicates by
// signature, so a lost poll is safe to follow up.
func (m *Manager) confirmByPolling(ctx context.Context, state State, signature string) (*Receipt, error) {
	bo := m.newBackOff()

	for attempt := 0; attempt < m.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return m.failedSig(state, signature, nil), ctx.Err()
			case <-time.After(bo.NextBackOff()):
			}
		}

		statuses, err := m.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			m.log.Warn().Err(err).Int("attempt", attempt+1).Msg("status poll failed")
			continue
		}

		if len(statuses) == 0 || statuses[0] == nil {
			continue
		}
		status := statuses[0]

		if status.Err != nil {
			state, _ = Transition(state, EventFailed)
			receipt := &Receipt{
				Signature: signature,
				State:     state,
				Slot:      status.Slot,
				Err:       status.Err,
			}
			return receipt, ClassifyTransactionError(status.Err)
		}

		switch status.ConfirmationStatus {
		case "confirmed", "finalized":
			ev := EventConfirmed
			if status.ConfirmationStatus == "finalized" {
				ev = EventFinalized
			}
			state, _ = Transition(state, ev)

			receipt := &Receipt{
				Signature: signature,
				State:     state,
				Slot:      status.Slot,
			}
			if status.Confirmations != nil {
				receipt.Confirmations = *status.Confirmations
			}
			if tx, err := m.rpc.GetTransaction(ctx, signature); err == nil && tx != nil {
				receipt.BlockTime = tx.BlockTime
			}
			return receipt, nil
		}
	}

	return m.failedSig(state, signature, nil), fmt.Errorf("%w: signature %s after %d attempts", ErrConfirmationLost, signature, m.maxRetries)
}

func (m *Manager) failed(state State, errPayload interface{}) *Receipt {
	return m.failedSig(state, "", errPayload)
}

func (m *Manager) failedSig(state State, signature string, errPayload interface{}) *Receipt {
	next, err := Transition(state, EventFailed)
	if err != nil {
		next = StateFailed
	}
	return &Receipt{Signature: signature, State: next, Err: errPayload}
}
