package cosmos

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/mrz1836/chaincore/internal/caip"
	"github.com/mrz1836/chaincore/internal/chain"
	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// RawTransaction is a Cosmos-SDK tx response as served by LCD endpoints.
// Pre-0.50 nodes fill Logs; newer nodes only fill Events, whose entries
// carry a msg_index attribute.
type RawTransaction struct {
	TxHash        string     `json:"txhash"`
	Height        string     `json:"height"`
	Timestamp     string     `json:"timestamp"`
	Code          uint32     `json:"code"`
	Confirmations uint64     `json:"confirmations"`
	Tx            RawTx      `json:"tx"`
	Logs          []RawLog   `json:"logs"`
	Events        []RawEvent `json:"events"`
}

// RawTx is the decoded transaction of a response.
type RawTx struct {
	Body     RawBody     `json:"body"`
	AuthInfo RawAuthInfo `json:"auth_info"`
}

// RawBody lists the transaction messages.
type RawBody struct {
	Messages []RawMessage `json:"messages"`
	Memo     string       `json:"memo"`
}

// RawMessage keeps the signer fields of the supported message types.
type RawMessage struct {
	Type             string `json:"@type"`
	FromAddress      string `json:"from_address"`
	DelegatorAddress string `json:"delegator_address"`
	Sender           string `json:"sender"`
	Signer           string `json:"signer"`
}

// RawAuthInfo carries the fee of a transaction.
type RawAuthInfo struct {
	Fee struct {
		Amount []chain.Coin `json:"amount"`
	} `json:"fee"`
}

// RawLog is the event log of one message.
type RawLog struct {
	MsgIndex int        `json:"msg_index"`
	Events   []RawEvent `json:"events"`
}

// signer returns the first populated signer field.
func (m RawMessage) signer() string {
	for _, s := range []string{m.FromAddress, m.DelegatorAddress, m.Sender, m.Signer} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Parser normalizes Cosmos-SDK tx responses by classifying their events.
type Parser struct {
	network chain.Network
	logger  chain.LogWriter
	now     func() time.Time
	onSkip  func(eventType string)
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithClock sets the clock that decides whether an unbonding has completed.
func WithClock(now func() time.Time) ParserOption {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithUnrecognizedHook is called with the type of every event the classifier
// does not know.
func WithUnrecognizedHook(fn func(eventType string)) ParserOption {
	return func(p *Parser) {
		p.onSkip = fn
	}
}

// NewParser creates a parser for a Cosmos-SDK network.
func NewParser(n chain.Network, logger chain.LogWriter, opts ...ParserOption) (*Parser, error) {
	if n.Family != chain.FamilyCosmosSDK {
		return nil, coreerr.Newf(coreerr.ErrUnsupportedChain, "%s is not a Cosmos-SDK chain", n.ChainID)
	}
	p := &Parser{network: n, logger: chain.LoggerOrNop(logger), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ChainID implements chain.Identifier.
func (p *Parser) ChainID() caip.ChainID { return p.network.ChainID }

// Family implements chain.Identifier.
func (p *Parser) Family() chain.Family { return chain.FamilyCosmosSDK }

// ParseRaw decodes a JSON tx response and normalizes it.
func (p *Parser) ParseRaw(data []byte, watched string) (*chain.NormalizedTransaction, error) {
	var raw RawTransaction
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, coreerr.WithCause(coreerr.ErrInvalidFormat, err)
	}
	return p.Parse(&raw, watched), nil
}

// Parse normalizes a tx response relative to the watched address; an empty
// watched address keeps every movement. Transfers keep event order, message
// by message. Failed transactions keep only their fee.
func (p *Parser) Parse(raw *RawTransaction, watched string) *chain.NormalizedTransaction {
	out := chain.NewNormalizedTransaction(p.network.ChainID, raw.TxHash)
	out.Confirmations = raw.Confirmations
	if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
		out.Timestamp = ts.Unix()
	}
	height, err := strconv.ParseInt(raw.Height, 10, 64)
	switch {
	case raw.Code != 0:
		out.Status = chain.StatusFailed
	case err != nil:
		out.Status = chain.StatusUnknown
	case height == 0:
		out.Status = chain.StatusPending
	default:
		out.Status = chain.StatusConfirmed
	}
	if err == nil {
		out.BlockHeight = height
	}

	msgs := raw.Tx.Body.Messages
	if watched == "" || (len(msgs) > 0 && sameAddress(msgs[0].signer(), watched)) {
		out.Fee = p.fee(raw)
	}
	if out.Status == chain.StatusFailed {
		return out
	}

	for _, log := range messageLogs(raw) {
		signer := ""
		if log.MsgIndex >= 0 && log.MsgIndex < len(msgs) {
			signer = msgs[log.MsgIndex].signer()
		}
		for _, tr := range p.classify(raw.TxHash, signer, DecodeEvents(log.Events)) {
			if watched == "" || sameAddress(tr.From, watched) || sameAddress(tr.To, watched) {
				out.Transfers = append(out.Transfers, tr)
			}
		}
	}
	return out
}

func (p *Parser) fee(raw *RawTransaction) *chain.Fee {
	for _, c := range raw.Tx.AuthInfo.Fee.Amount {
		value, ok := chain.ParseBaseUnits(c.Amount)
		if !ok || value.Sign() == 0 {
			continue
		}
		asset, ok := AssetForDenom(p.network, c.Denom)
		if !ok {
			continue
		}
		return &chain.Fee{AssetID: asset, Value: value.String()}
	}
	return nil
}

// messageLogs returns per-message logs, grouping flat events by their
// msg_index attribute when the response has no logs. Events without a
// message index belong to the transaction (fees, signatures) and are dropped.
func messageLogs(raw *RawTransaction) []RawLog {
	if len(raw.Logs) > 0 {
		return raw.Logs
	}
	var logs []RawLog
	index := make(map[int]int)
	for _, e := range raw.Events {
		idx, err := strconv.Atoi(e.attr("msg_index"))
		if err != nil {
			continue
		}
		pos, ok := index[idx]
		if !ok {
			pos = len(logs)
			index[idx] = pos
			logs = append(logs, RawLog{MsgIndex: idx})
		}
		logs[pos].Events = append(logs[pos].Events, e)
	}
	return logs
}

// classify turns the events of one message into transfers. Plain bank
// transfers are only reported when the message has no IBC or staking event,
// since those actions emit their own escrow and pool transfers.
func (p *Parser) classify(txid, signer string, events []Event) []chain.Transfer {
	var (
		out    []chain.Transfer
		plain  []chain.Transfer
		used   = make([]bool, len(events))
		domain bool
	)

	for i, ev := range events {
		if used[i] {
			continue
		}
		switch e := ev.(type) {
		case PacketEvent:
			if e.Kind() == EventSendPacket {
				if j := findIBCTransfer(events, used, e.Data.Sender, e.Data.Receiver); j >= 0 {
					used[i], used[j], domain = true, true, true
					out = p.appendPacket(out, txid, e, SentDenom(e))
				}
				continue
			}
			if j := findTokenPacket(events, used, e.Data.Sender, e.Data.Receiver); j >= 0 {
				used[i], used[j], domain = true, true, true
				if ack, _ := events[j].(FungibleTokenPacketEvent); ack.Success {
					out = p.appendPacket(out, txid, e, ReceivedDenom(e))
				}
			}
		case IBCTransferEvent:
			if j := findSendPacket(events, used, e.Sender, e.Receiver); j >= 0 {
				packet, _ := events[j].(PacketEvent)
				used[i], used[j], domain = true, true, true
				out = p.appendPacket(out, txid, packet, SentDenom(packet))
			}
		case StakingEvent:
			domain = true
			out = append(out, p.staking(txid, signer, e)...)
		case TransferEvent:
			for _, c := range e.Amount {
				if tr, ok := p.coinTransfer(txid, e.Sender, e.Recipient, c); ok {
					plain = append(plain, tr)
				}
			}
		case UnrecognizedEvent:
			p.logger.Debug("tx %s: unrecognized event %q", txid, e.Type)
			if p.onSkip != nil {
				p.onSkip(e.Type)
			}
		}
	}

	if !domain {
		out = append(out, plain...)
	}
	return out
}

func findIBCTransfer(events []Event, used []bool, sender, receiver string) int {
	for j, ev := range events {
		if e, ok := ev.(IBCTransferEvent); ok && !used[j] && e.Sender == sender && e.Receiver == receiver {
			return j
		}
	}
	return -1
}

func findSendPacket(events []Event, used []bool, sender, receiver string) int {
	for j, ev := range events {
		if e, ok := ev.(PacketEvent); ok && !used[j] && e.Kind() == EventSendPacket &&
			e.Data.Sender == sender && e.Data.Receiver == receiver {
			return j
		}
	}
	return -1
}

func findTokenPacket(events []Event, used []bool, sender, receiver string) int {
	for j, ev := range events {
		if e, ok := ev.(FungibleTokenPacketEvent); ok && !used[j] && e.Sender == sender && e.Receiver == receiver {
			return j
		}
	}
	return -1
}

func (p *Parser) appendPacket(out []chain.Transfer, txid string, e PacketEvent, denom string) []chain.Transfer {
	value, ok := chain.ParseBaseUnits(e.Data.Amount)
	if !ok {
		p.logger.Debug("tx %s: packet amount %q is not an integer", txid, e.Data.Amount)
		return out
	}
	asset, ok := AssetForDenom(p.network, denom)
	if !ok {
		p.logger.Debug("tx %s: packet denom %q has no asset form", txid, denom)
		return out
	}
	return append(out, chain.Transfer{
		Type:               chain.TransferIBC,
		From:               e.Data.Sender,
		To:                 e.Data.Receiver,
		AssetID:            asset,
		Value:              value.String(),
		SourceChannel:      e.SrcChannel,
		DestinationChannel: e.DstChannel,
	})
}

func (p *Parser) staking(txid, signer string, e StakingEvent) []chain.Transfer {
	delegator := e.Delegator
	if delegator == "" {
		delegator = signer
	}
	coins, ok := parseAmount(e.Amount, p.network.Denom)
	if !ok {
		if e.Amount != "" {
			p.logger.Debug("tx %s: %s amount %q is malformed", txid, e.Kind(), e.Amount)
		}
		return nil
	}

	var (
		kind        chain.TransferType
		from, to    string
		completesAt *time.Time
	)
	switch e.Kind() {
	case EventDelegate:
		kind, from, to = chain.TransferStake, delegator, e.Validator
	case EventUnbond:
		kind, from, to = chain.TransferUnstake, e.Validator, delegator
		completion := e.CompletionTime
		completesAt = &completion
		if completion.After(p.now()) {
			kind = chain.TransferPendingUnstake
		}
	default:
		kind, from, to = chain.TransferClaim, e.Validator, delegator
	}

	out := make([]chain.Transfer, 0, len(coins))
	for _, c := range coins {
		if !c.Amount.IsPositive() {
			continue
		}
		asset, ok := AssetForDenom(p.network, c.Denom)
		if !ok {
			continue
		}
		out = append(out, chain.Transfer{
			Type:        kind,
			From:        from,
			To:          to,
			AssetID:     asset,
			Value:       c.Amount.String(),
			Validator:   e.Validator,
			CompletesAt: completesAt,
		})
	}
	return out
}

func (p *Parser) coinTransfer(txid, from, to string, c sdk.Coin) (chain.Transfer, bool) {
	if !c.Amount.IsPositive() {
		return chain.Transfer{}, false
	}
	asset, ok := AssetForDenom(p.network, c.Denom)
	if !ok {
		p.logger.Debug("tx %s: denom %q has no asset form", txid, c.Denom)
		return chain.Transfer{}, false
	}
	kind := chain.TransferToken
	if asset == p.network.NativeAsset {
		kind = chain.TransferNative
	}
	return chain.Transfer{Type: kind, From: from, To: to, AssetID: asset, Value: c.Amount.String()}, true
}

func sameAddress(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// Compile-time interface check
var _ chain.Parser = (*Parser)(nil)
