package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/chaincore/internal/caip"
)

// UnsignedTransaction is the closed set of build results handed to an
// external signer. The only implementations are *UTXOTransaction,
// *AccountTransaction and *CosmosTransaction.
type UnsignedTransaction interface {
	Chain() caip.ChainID
	Family() Family
	unsignedTransaction()
}

// TxInput is a selected previous output.
type TxInput struct {
	TxID         string `json:"txid"`
	Vout         uint32 `json:"vout"`
	Value        uint64 `json:"value"`
	Address      string `json:"address,omitempty"`
	ScriptPubKey string `json:"script_pub_key,omitempty"`
}

// TxOutput is a created output. Data carries OP_RETURN payloads, in which
// case Address is empty and Value is zero.
type TxOutput struct {
	Address string        `json:"address,omitempty"`
	Value   uint64        `json:"value"`
	Script  hexutil.Bytes `json:"script"`
	Data    string        `json:"data,omitempty"`
}

// UTXOTransaction is the unsigned result of a UTXO build. Raw serializes
// Inputs, Outputs and Change (last) in that order.
type UTXOTransaction struct {
	ChainID caip.ChainID  `json:"chain_id"`
	Inputs  []TxInput     `json:"inputs"`
	Outputs []TxOutput    `json:"outputs"`
	Change  *TxOutput     `json:"change,omitempty"`
	Fee     uint64        `json:"fee"`
	FeeRate uint64        `json:"fee_rate"`
	VSize   uint64        `json:"vsize"`
	Raw     hexutil.Bytes `json:"raw"`
}

// Chain implements UnsignedTransaction.
func (t *UTXOTransaction) Chain() caip.ChainID { return t.ChainID }

// Family implements UnsignedTransaction.
func (t *UTXOTransaction) Family() Family { return FamilyUTXO }

func (*UTXOTransaction) unsignedTransaction() {}

// TotalInput sums the selected inputs.
func (t *UTXOTransaction) TotalInput() uint64 {
	var total uint64
	for _, in := range t.Inputs {
		total += in.Value
	}
	return total
}

// TotalOutput sums the outputs including change.
func (t *UTXOTransaction) TotalOutput() uint64 {
	var total uint64
	for _, out := range t.Outputs {
		total += out.Value
	}
	if t.Change != nil {
		total += t.Change.Value
	}
	return total
}

// AccountTransaction is the unsigned result of an account build.
type AccountTransaction struct {
	ChainID        caip.ChainID  `json:"chain_id"`
	From           string        `json:"from,omitempty"`
	To             string        `json:"to"`
	Value          *big.Int      `json:"value"`
	Data           hexutil.Bytes `json:"data"`
	Nonce          uint64        `json:"nonce"`
	GasLimit       uint64        `json:"gas_limit"`
	GasPrice       *big.Int      `json:"gas_price"`
	NumericChainID *big.Int      `json:"numeric_chain_id"`
	SigningHash    hexutil.Bytes `json:"signing_hash"`
}

// Chain implements UnsignedTransaction.
func (t *AccountTransaction) Chain() caip.ChainID { return t.ChainID }

// Family implements UnsignedTransaction.
func (t *AccountTransaction) Family() Family { return FamilyAccount }

func (*AccountTransaction) unsignedTransaction() {}

// Coin is a Cosmos-SDK denomination and integer amount.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// CosmosMessage summarizes the single message of a Cosmos-SDK build.
type CosmosMessage struct {
	TypeURL   string `json:"type_url"`
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
	Validator string `json:"validator,omitempty"`
	Amount    *Coin  `json:"amount,omitempty"`
}

// CosmosTransaction is the unsigned result of a Cosmos-SDK build.
// BodyBytes and AuthInfoBytes are the protobuf encoded TxBody and AuthInfo
// a SIGN_MODE_DIRECT signer combines with ChainReference and AccountNumber.
type CosmosTransaction struct {
	ChainID        caip.ChainID  `json:"chain_id"`
	ChainReference string        `json:"chain_reference"`
	Message        CosmosMessage `json:"message"`
	Memo           string        `json:"memo"`
	Fee            []Coin        `json:"fee"`
	Gas            uint64        `json:"gas"`
	AccountNumber  uint64        `json:"account_number"`
	Sequence       uint64        `json:"sequence"`
	BodyBytes      hexutil.Bytes `json:"body_bytes"`
	AuthInfoBytes  hexutil.Bytes `json:"auth_info_bytes"`
}

// Chain implements UnsignedTransaction.
func (t *CosmosTransaction) Chain() caip.ChainID { return t.ChainID }

// Family implements UnsignedTransaction.
func (t *CosmosTransaction) Family() Family { return FamilyCosmosSDK }

func (*CosmosTransaction) unsignedTransaction() {}

// Compile-time interface checks
var (
	_ UnsignedTransaction = (*UTXOTransaction)(nil)
	_ UnsignedTransaction = (*AccountTransaction)(nil)
	_ UnsignedTransaction = (*CosmosTransaction)(nil)
)
