package app

import (
	"errors"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/ledgerkit/balances"
	"github.com/blockberries/ledgerkit/chain"
	"github.com/blockberries/ledgerkit/claims"
	"github.com/blockberries/ledgerkit/num"
	"github.com/blockberries/ledgerkit/types"
)

// ErrMalformedTx is returned for transactions that do not decode to
// exactly one call with a caller.
var ErrMalformedTx = errors.New("malformed transaction")

// TxEnvelope is the wire form of an extrinsic. Exactly one call field
// is set.
type TxEnvelope struct {
	Caller      string           `cramberry:"1"`
	Transfer    *TransferPayload `cramberry:"2"`
	CreateClaim *ClaimPayload    `cramberry:"3"`
	RevokeClaim *ClaimPayload    `cramberry:"4"`
}

// TransferPayload carries a balances transfer. Amount is a 256-bit
// big-endian integer.
type TransferPayload struct {
	To     string   `cramberry:"1"`
	Amount [32]byte `cramberry:"2"`
}

// ClaimPayload names the claimed content.
type ClaimPayload struct {
	Claim string `cramberry:"1"`
}

// DecodeTx decodes tx into an extrinsic.
func DecodeTx(tx types.Tx) (chain.Extrinsic, error) {
	var env TxEnvelope
	if err := cramberry.Unmarshal(tx, &env); err != nil {
		return chain.Extrinsic{}, fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}
	if env.Caller == "" {
		return chain.Extrinsic{}, fmt.Errorf("%w: empty caller", ErrMalformedTx)
	}

	var (
		call chain.RuntimeCall
		set  int
	)
	if env.Transfer != nil {
		if env.Transfer.To == "" {
			return chain.Extrinsic{}, fmt.Errorf("%w: empty recipient", ErrMalformedTx)
		}
		set++
		call = chain.Transfer(env.Transfer.To, num.U256FromBytes32(env.Transfer.Amount))
	}
	if env.CreateClaim != nil {
		set++
		call = chain.CreateClaim(env.CreateClaim.Claim)
	}
	if env.RevokeClaim != nil {
		set++
		call = chain.RevokeClaim(env.RevokeClaim.Claim)
	}
	if set != 1 {
		return chain.Extrinsic{}, fmt.Errorf("%w: expected one call, got %d", ErrMalformedTx, set)
	}
	return chain.NewExtrinsic(env.Caller, call), nil
}

// EncodeTx encodes xt. Only calls built by the chain package can be
// encoded.
func EncodeTx(xt chain.Extrinsic) (types.Tx, error) {
	env := TxEnvelope{Caller: xt.Caller}
	switch c := xt.Call.(type) {
	case chain.BalancesCall:
		t, ok := c.Call.(balances.Transfer[chain.AccountID, chain.Balance])
		if !ok {
			return nil, fmt.Errorf("encode: unsupported balances call %T", c.Call)
		}
		env.Transfer = &TransferPayload{To: t.To, Amount: t.Amount.Bytes32()}
	case chain.ClaimsCall:
		switch cc := c.Call.(type) {
		case claims.CreateClaim[chain.Content]:
			env.CreateClaim = &ClaimPayload{Claim: cc.Claim}
		case claims.RevokeClaim[chain.Content]:
			env.RevokeClaim = &ClaimPayload{Claim: cc.Claim}
		default:
			return nil, fmt.Errorf("encode: unsupported claims call %T", c.Call)
		}
	default:
		return nil, fmt.Errorf("encode: unsupported call %T", xt.Call)
	}
	data, err := cramberry.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

func mustEncode(xt chain.Extrinsic) types.Tx {
	tx, err := EncodeTx(xt)
	if err != nil {
		panic(err)
	}
	return tx
}

// ---------------------------------------------------------------------------
// Transaction builders
// ---------------------------------------------------------------------------

// TransferTx creates a transfer of amount from caller to to.
func TransferTx(caller, to string, amount uint64) types.Tx {
	return TransferTxU256(caller, to, num.U256From64(amount))
}

// TransferTxU256 is TransferTx with a full-width amount.
func TransferTxU256(caller, to string, amount chain.Balance) types.Tx {
	return mustEncode(chain.NewExtrinsic(caller, chain.Transfer(to, amount)))
}

// CreateClaimTx creates a claim registration.
func CreateClaimTx(caller, claim string) types.Tx {
	return mustEncode(chain.NewExtrinsic(caller, chain.CreateClaim(claim)))
}

// RevokeClaimTx creates a claim revocation.
func RevokeClaimTx(caller, claim string) types.Tx {
	return mustEncode(chain.NewExtrinsic(caller, chain.RevokeClaim(claim)))
}
