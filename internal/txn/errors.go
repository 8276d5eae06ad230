package txn

import (
	"errors"
	"fmt"
)

// Local failures raised before or during submission.
var (
	ErrSignerRejected   = errors.New("signer rejected transaction")
	ErrConfirmationLost = errors.New("confirmation retries exhausted")
)

// Program error codes raised by the on-chain prediction market program.
const (
	CodeInsufficientBalance   uint32 = 6000
	CodeMarketNotFound        uint32 = 6001
	CodeMarketAlreadyResolved uint32 = 6002
	CodeMarketNotResolved     uint32 = 6003
	CodeInvalidOutcomeIndex   uint32 = 6004
	CodeDuplicatePrediction   uint32 = 6005
	CodePredictionNotFound    uint32 = 6006
	CodeRewardAlreadyClaimed  uint32 = 6007
	CodePredictionDidNotWin   uint32 = 6008
	CodeCreatorProfileMissing uint32 = 6009
)

// programErrorMessages maps known program error codes to human-readable
// messages. Unknown codes surface as the raw code.
var programErrorMessages = map[uint32]string{
	CodeInsufficientBalance:   "insufficient token balance for stake",
	CodeMarketNotFound:        "market not found",
	CodeMarketAlreadyResolved: "market is already resolved",
	CodeMarketNotResolved:     "market is not resolved yet",
	CodeInvalidOutcomeIndex:   "outcome index out of range",
	CodeDuplicatePrediction:   "prediction already exists for this market and user",
	CodePredictionNotFound:    "prediction not found",
	CodeRewardAlreadyClaimed:  "reward already claimed",
	CodePredictionDidNotWin:   "prediction did not win",
	CodeCreatorProfileMissing: "creator profile does not exist",
}

// ProgramError is an on-chain rejection decoded from transaction
// metadata. Raw holds the original error payload untouched.
type ProgramError struct {
	Code    uint32
	Message string
	Raw     interface{}
}

func (e *ProgramError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("program error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("program error %d", e.Code)
}

// ClassifyProgramError maps a numeric program error code to a
// ProgramError with a human-readable message where one is known.
func ClassifyProgramError(code uint32, raw interface{}) *ProgramError {
	return &ProgramError{
		Code:    code,
		Message: programErrorMessages[code],
		Raw:     raw,
	}
}

// ClassifyTransactionError turns the raw err payload of a failed
// transaction into a typed error. Custom program codes arrive as
// {"InstructionError": [index, {"Custom": code}]} in decoded JSON; any
// other shape is preserved as an unclassified failure with the payload
// attached.
func ClassifyTransactionError(raw interface{}) error {
	if raw == nil {
		return nil
	}

	if code, ok := customErrorCode(raw); ok {
		return ClassifyProgramError(code, raw)
	}

	return &ProgramError{Raw: raw, Message: fmt.Sprintf("transaction failed: %v", raw)}
}

// customErrorCode digs the Custom code out of a JSON-decoded
// transaction error payload.
func customErrorCode(raw interface{}) (uint32, bool) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return 0, false
	}

	ie, ok := m["InstructionError"].([]interface{})
	if !ok || len(ie) != 2 {
		return 0, false
	}

	inner, ok := ie[1].(map[string]interface{})
	if !ok {
		return 0, false
	}

	// JSON numbers decode as float64
	switch v := inner["Custom"].(type) {
	case float64:
		return uint32(v), true
	case uint32:
		return v, true
	case int:
		return uint32(v), true
	}
	return 0, false
}
