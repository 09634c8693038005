package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/chaincore/internal/caip"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// GasSpeed scales a collaborator supplied gas price.
type GasSpeed string

// Gas speed options.
const (
	GasSpeedSlow   GasSpeed = "slow"
	GasSpeedMedium GasSpeed = "medium"
	GasSpeedFast   GasSpeed = "fast"
)

// CosmosAction selects the message a Cosmos-SDK build produces.
type CosmosAction string

// Cosmos-SDK actions.
const (
	CosmosActionSend       CosmosAction = "send"
	CosmosActionDelegate   CosmosAction = "delegate"
	CosmosActionUndelegate CosmosAction = "undelegate"
	CosmosActionClaim      CosmosAction = "claim"
)

// BuildRequest is a user intent: send Amount of Asset from From to To.
// Exactly one family parameter block must be set.
type BuildRequest struct {
	From   string       `json:"from"`
	To     string       `json:"to"`
	Amount *big.Int     `json:"amount"`
	Asset  caip.AssetID `json:"asset,omitempty"` // zero value selects the native asset
	Memo   string       `json:"memo,omitempty"`

	UTXO    *UTXOParams    `json:"utxo,omitempty"`
	Account *AccountParams `json:"account,omitempty"`
	Cosmos  *CosmosParams  `json:"cosmos,omitempty"`
}

// UTXOParams carries the collaborator supplied inputs of a UTXO build.
type UTXOParams struct {
	UTXOs         []UTXO   `json:"utxos"`
	FeeRate       uint64   `json:"fee_rate"` // satoshis per virtual byte
	ChangeAddress string   `json:"change_address,omitempty"`
	Outputs       []Output `json:"outputs,omitempty"` // additional recipients
}

// Output is a recipient of a UTXO transaction.
type Output struct {
	Address string `json:"address"`
	Value   uint64 `json:"value"`
}

// AccountParams carries the collaborator supplied inputs of an account build.
type AccountParams struct {
	Nonce        uint64         `json:"nonce"`
	EstimatedGas uint64         `json:"estimated_gas,omitempty"`
	GasPrice     *big.Int       `json:"gas_price"`
	ChainID      *big.Int       `json:"chain_id,omitempty"` // overrides the network's numeric id
	Speed        GasSpeed       `json:"speed,omitempty"`
	Router       *RouterDeposit `json:"router,omitempty"`
}

// RouterDeposit turns a send into a cross-chain router deposit; To is the
// router contract and the memo is passed as the deposit memo.
type RouterDeposit struct {
	Vault  string `json:"vault"`
	Expiry uint64 `json:"expiry,omitempty"` // unix seconds, selects depositWithExpiry
}

// CosmosParams carries the collaborator supplied inputs of a Cosmos-SDK build.
type CosmosParams struct {
	Action        CosmosAction  `json:"action,omitempty"`
	Validator     string        `json:"validator,omitempty"`
	Gas           uint64        `json:"gas,omitempty"`
	FeeAmount     *big.Int      `json:"fee_amount,omitempty"`
	AccountNumber uint64        `json:"account_number"`
	Sequence      uint64        `json:"sequence"`
	PubKey        hexutil.Bytes `json:"pub_key,omitempty"` // compressed secp256k1, fills the signer info
}

// FeeEstimate is the fee a build would pay, in the network's fee asset.
type FeeEstimate struct {
	Asset    caip.AssetID `json:"asset"`
	Amount   *big.Int     `json:"amount"`
	FeeRate  uint64       `json:"fee_rate,omitempty"`
	VSize    uint64       `json:"vsize,omitempty"`
	GasLimit uint64       `json:"gas_limit,omitempty"`
	GasPrice *big.Int     `json:"gas_price,omitempty"`
}

// ValidateCommon checks the family independent fields of a request.
func (r *BuildRequest) ValidateCommon() error {
	if r == nil {
		return coreerr.Newf(coreerr.ErrMissingParam, "build request is required")
	}
	if r.To == "" {
		return missingField("to")
	}
	if r.Amount == nil {
		return missingField("amount")
	}
	if r.Amount.Sign() < 0 {
		return coreerr.WithDetails(coreerr.ErrInvalidAmount, map[string]string{"amount": r.Amount.String()})
	}
	return nil
}

// AssetOr returns the requested asset, or native when none was set.
func (r *BuildRequest) AssetOr(native caip.AssetID) caip.AssetID {
	if r.Asset.IsZero() {
		return native
	}
	return r.Asset
}

func missingField(field string) error {
	return coreerr.WithDetails(
		coreerr.Newf(coreerr.ErrMissingParam, "%s is required", field),
		map[string]string{"field": field},
	)
}

// MissingParams reports a missing family parameter block.
func MissingParams(family Family) error {
	return missingField(string(family) + " params")
}
