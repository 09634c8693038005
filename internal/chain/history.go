package chain

import (
	"time"

	"github.com/mrz1836/chaincore/internal/caip"
)

// Status is the confirmation state of a normalized transaction.
type Status string

// Transaction statuses.
const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusUnknown   Status = "unknown"
)

// TransferType classifies one value movement inside a transaction.
type TransferType string

// Transfer types.
const (
	TransferNative         TransferType = "native"
	TransferToken          TransferType = "token"
	TransferInternal       TransferType = "internal"
	TransferIBC            TransferType = "ibc"
	TransferStake          TransferType = "stake"
	TransferUnstake        TransferType = "unstake"
	TransferPendingUnstake TransferType = "pending_unstake"
	TransferClaim          TransferType = "claim"
)

// IsValid reports whether t is one of the defined transfer types.
func (t TransferType) IsValid() bool {
	switch t {
	case TransferNative, TransferToken, TransferInternal, TransferIBC,
		TransferStake, TransferUnstake, TransferPendingUnstake, TransferClaim:
		return true
	}
	return false
}

// Transfer is one typed value movement. Value is an integer string in the
// asset's base unit.
type Transfer struct {
	Type               TransferType `json:"type"`
	From               string       `json:"from"`
	To                 string       `json:"to"`
	AssetID            caip.AssetID `json:"asset_id"`
	Value              string       `json:"value"`
	Contract           string       `json:"contract,omitempty"`
	Validator          string       `json:"validator,omitempty"`
	SourceChannel      string       `json:"source_channel,omitempty"`
	DestinationChannel string       `json:"destination_channel,omitempty"`
	CompletesAt        *time.Time   `json:"completes_at,omitempty"`
}

// Fee is the fee paid by the watched address.
type Fee struct {
	AssetID caip.AssetID `json:"asset_id"`
	Value   string       `json:"value"`
}

// Known call methods recorded in CallInfo.
const (
	CallMethodTransfer          = "transfer"
	CallMethodDeposit           = "deposit"
	CallMethodDepositWithExpiry = "depositWithExpiry"
	CallMethodUnrecognized      = "unrecognized"
)

// CallInfo describes the contract call of an account transaction.
type CallInfo struct {
	Method   string `json:"method"`
	Selector string `json:"selector"`
	Contract string `json:"contract"`
	Memo     string `json:"memo,omitempty"`
}

// NormalizedTransaction is the chain-agnostic history record.
type NormalizedTransaction struct {
	ChainID       caip.ChainID `json:"chain_id"`
	TxID          string       `json:"txid"`
	BlockHash     string       `json:"block_hash,omitempty"`
	BlockHeight   int64        `json:"block_height"`
	Timestamp     int64        `json:"timestamp"`
	Confirmations uint64       `json:"confirmations"`
	Fee           *Fee         `json:"fee,omitempty"`
	Status        Status       `json:"status"`
	Transfers     []Transfer   `json:"transfers"`
	Call          *CallInfo    `json:"call,omitempty"`
}

// NewNormalizedTransaction returns a record with an empty, non-nil transfer list.
func NewNormalizedTransaction(chainID caip.ChainID, txid string) *NormalizedTransaction {
	return &NormalizedTransaction{
		ChainID:   chainID,
		TxID:      txid,
		Status:    StatusUnknown,
		Transfers: []Transfer{},
	}
}

// TransfersOfType filters transfers by type, keeping discovery order. The
// result is never nil.
func (n *NormalizedTransaction) TransfersOfType(t TransferType) []Transfer {
	out := make([]Transfer, 0, len(n.Transfers))
	for _, tr := range n.Transfers {
		if tr.Type == t {
			out = append(out, tr)
		}
	}
	return out
}

// StatusFromConfirmations derives a status for records without an explicit one.
func StatusFromConfirmations(confirmations uint64) Status {
	if confirmations > 0 {
		return StatusConfirmed
	}
	return StatusPending
}
