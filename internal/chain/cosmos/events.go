package cosmos

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// EventKind is the closed set of Cosmos-SDK events the classifier understands.
type EventKind string

// Event kinds. Anything else decodes as EventUnrecognized.
const (
	EventMessage             EventKind = "message"
	EventTransfer            EventKind = "transfer"
	EventSendPacket          EventKind = "send_packet"
	EventIBCTransfer         EventKind = "ibc_transfer"
	EventRecvPacket          EventKind = "recv_packet"
	EventFungibleTokenPacket EventKind = "fungible_token_packet"
	EventDelegate            EventKind = "delegate"
	EventUnbond              EventKind = "unbond"
	EventWithdrawRewards     EventKind = "withdraw_rewards"
	EventUnrecognized        EventKind = "unrecognized"
)

// RawAttribute is one key/value pair of an ABCI event.
type RawAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RawEvent is an ABCI event as reported by an indexer.
type RawEvent struct {
	Type       string         `json:"type"`
	Attributes []RawAttribute `json:"attributes"`
}

func (e RawEvent) attr(key string) string {
	for _, a := range e.Attributes {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// Event is a decoded event. The concrete types are the ones in this file.
type Event interface {
	Kind() EventKind
	event()
}

// MessageEvent carries the module and action of a message.
type MessageEvent struct {
	Action string
	Module string
	Sender string
}

// TransferEvent is a bank transfer.
type TransferEvent struct {
	Sender    string
	Recipient string
	Amount    sdk.Coins
}

// PacketData is the ICS-20 fungible token packet payload.
type PacketData struct {
	Denom    string `json:"denom"`
	Amount   string `json:"amount"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Memo     string `json:"memo,omitempty"`
}

// PacketEvent is a send_packet or recv_packet event carrying ICS-20 data.
type PacketEvent struct {
	kind       EventKind
	Data       PacketData
	SrcPort    string
	SrcChannel string
	DstPort    string
	DstChannel string
}

// IBCTransferEvent confirms an outgoing ICS-20 transfer.
type IBCTransferEvent struct {
	Sender   string
	Receiver string
}

// FungibleTokenPacketEvent reports the outcome of a received ICS-20 packet.
type FungibleTokenPacketEvent struct {
	Sender   string
	Receiver string
	Denom    string
	Amount   string
	Success  bool
}

// StakingEvent is a delegate, unbond or withdraw_rewards event. Amount may
// be a bare integer on older chains; CompletionTime is set only for unbond.
type StakingEvent struct {
	kind           EventKind
	Validator      string
	Delegator      string
	Amount         string
	CompletionTime time.Time
}

// UnrecognizedEvent is any event outside the closed set, or a known event
// whose attributes could not be decoded.
type UnrecognizedEvent struct {
	Type string
}

// Kind implements Event.
func (MessageEvent) Kind() EventKind { return EventMessage }

// Kind implements Event.
func (TransferEvent) Kind() EventKind { return EventTransfer }

// Kind implements Event.
func (e PacketEvent) Kind() EventKind { return e.kind }

// Kind implements Event.
func (IBCTransferEvent) Kind() EventKind { return EventIBCTransfer }

// Kind implements Event.
func (FungibleTokenPacketEvent) Kind() EventKind { return EventFungibleTokenPacket }

// Kind implements Event.
func (e StakingEvent) Kind() EventKind { return e.kind }

// Kind implements Event.
func (UnrecognizedEvent) Kind() EventKind { return EventUnrecognized }

func (MessageEvent) event()             {}
func (TransferEvent) event()            {}
func (PacketEvent) event()              {}
func (IBCTransferEvent) event()         {}
func (FungibleTokenPacketEvent) event() {}
func (StakingEvent) event()             {}
func (UnrecognizedEvent) event()        {}

// DecodeEvent converts a raw event into its typed form.
func DecodeEvent(raw RawEvent) Event {
	switch EventKind(raw.Type) {
	case EventMessage:
		return MessageEvent{Action: raw.attr("action"), Module: raw.attr("module"), Sender: raw.attr("sender")}
	case EventTransfer:
		coins, err := sdk.ParseCoinsNormalized(raw.attr("amount"))
		if err != nil {
			return UnrecognizedEvent{Type: raw.Type}
		}
		return TransferEvent{Sender: raw.attr("sender"), Recipient: raw.attr("recipient"), Amount: coins}
	case EventSendPacket, EventRecvPacket:
		var data PacketData
		if err := json.Unmarshal([]byte(raw.attr("packet_data")), &data); err != nil || data.Denom == "" {
			return UnrecognizedEvent{Type: raw.Type}
		}
		return PacketEvent{
			kind:       EventKind(raw.Type),
			Data:       data,
			SrcPort:    raw.attr("packet_src_port"),
			SrcChannel: raw.attr("packet_src_channel"),
			DstPort:    raw.attr("packet_dst_port"),
			DstChannel: raw.attr("packet_dst_channel"),
		}
	case EventIBCTransfer:
		return IBCTransferEvent{Sender: raw.attr("sender"), Receiver: raw.attr("receiver")}
	case EventFungibleTokenPacket:
		success := raw.attr("success")
		return FungibleTokenPacketEvent{
			Sender:   raw.attr("sender"),
			Receiver: raw.attr("receiver"),
			Denom:    raw.attr("denom"),
			Amount:   raw.attr("amount"),
			Success:  success == "" || success == "true" || success == "\u0001",
		}
	case EventDelegate, EventWithdrawRewards:
		return StakingEvent{
			kind:      EventKind(raw.Type),
			Validator: raw.attr("validator"),
			Delegator: raw.attr("delegator"),
			Amount:    raw.attr("amount"),
		}
	case EventUnbond:
		completion, err := time.Parse(time.RFC3339Nano, raw.attr("completion_time"))
		if err != nil {
			return UnrecognizedEvent{Type: raw.Type}
		}
		return StakingEvent{
			kind:           EventUnbond,
			Validator:      raw.attr("validator"),
			Delegator:      raw.attr("delegator"),
			Amount:         raw.attr("amount"),
			CompletionTime: completion,
		}
	default:
		return UnrecognizedEvent{Type: raw.Type}
	}
}

// DecodeEvents decodes events keeping their order.
func DecodeEvents(raw []RawEvent) []Event {
	out := make([]Event, 0, len(raw))
	for _, e := range raw {
		out = append(out, DecodeEvent(e))
	}
	return out
}

// IBCDenom returns the local voucher denom of a token that arrived over
// port/channel with the given trace, ibc/<SHA256(trace) in upper-case hex>.
func IBCDenom(port, channel, denom string) string {
	sum := sha256.Sum256([]byte(port + "/" + channel + "/" + denom))
	return "ibc/" + strings.ToUpper(hex.EncodeToString(sum[:]))
}

// ReceivedDenom applies the ICS-20 receive rule: a token returning through
// the channel it left on is unwrapped, anything else gets a voucher denom.
func ReceivedDenom(p PacketEvent) string {
	prefix := p.SrcPort + "/" + p.SrcChannel + "/"
	if p.SrcPort != "" && strings.HasPrefix(p.Data.Denom, prefix) {
		return strings.TrimPrefix(p.Data.Denom, prefix)
	}
	return IBCDenom(p.DstPort, p.DstChannel, p.Data.Denom)
}

// SentDenom returns the sender-side denom of an outgoing packet. Traced
// denoms ("transfer/channel-0/uatom") are held locally as ibc vouchers.
func SentDenom(p PacketEvent) string {
	if strings.Contains(p.Data.Denom, "/") && !strings.HasPrefix(p.Data.Denom, "ibc/") {
		sum := sha256.Sum256([]byte(p.Data.Denom))
		return "ibc/" + strings.ToUpper(hex.EncodeToString(sum[:]))
	}
	return p.Data.Denom
}

// parseAmount parses "123uatom" or a bare integer in the fallback denom.
func parseAmount(s, fallbackDenom string) (sdk.Coins, bool) {
	if s == "" {
		return nil, false
	}
	if v, ok := sdkmath.NewIntFromString(s); ok {
		if v.IsNegative() {
			return nil, false
		}
		return sdk.Coins{{Denom: fallbackDenom, Amount: v}}, true
	}
	coins, err := sdk.ParseCoinsNormalized(s)
	if err != nil {
		return nil, false
	}
	return coins, true
}
