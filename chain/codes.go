package chain

import (
	"errors"

	"github.com/blockberries/ledgerkit/balances"
	"github.com/blockberries/ledgerkit/claims"
)

// Code is the numeric result of one transaction as reported on the engine
// boundary. Zero means success.
type Code uint32

const (
	CodeOK Code = iota
	CodeMalformed
	CodeInsufficientBalance
	CodeBalanceOverflow
	CodeClaimExists
	CodeClaimNotFound
	CodeNotClaimOwner
)

var codeNames = [...]string{
	CodeOK:                  "ok",
	CodeMalformed:           "malformed",
	CodeInsufficientBalance: "insufficient_balance",
	CodeBalanceOverflow:     "balance_overflow",
	CodeClaimExists:         "claim_exists",
	CodeClaimNotFound:       "claim_not_found",
	CodeNotClaimOwner:       "not_claim_owner",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "unknown"
}

// CodeOf classifies a dispatch error. Errors that no module defines,
// including unknown calls, are reported as CodeMalformed.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, balances.ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, balances.ErrBalanceOverflow):
		return CodeBalanceOverflow
	case errors.Is(err, claims.ErrClaimExists):
		return CodeClaimExists
	case errors.Is(err, claims.ErrClaimNotFound):
		return CodeClaimNotFound
	case errors.Is(err, claims.ErrNotClaimOwner):
		return CodeNotClaimOwner
	default:
		return CodeMalformed
	}
}

// ErrorLabel is CodeOf rendered as a metrics label.
func ErrorLabel(err error) string {
	return CodeOf(err).String()
}
