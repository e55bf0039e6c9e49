package protocol

import "encoding/json"

// Message kinds pushed by the soundbar. The same kind names are used for
// queries: a "get" for a kind is answered, eventually, by a message carrying
// that kind.
const (
	MsgEQViewInfo      = "EQ_VIEW_INFO"
	MsgSpkListViewInfo = "SPK_LIST_VIEW_INFO"
	MsgFuncViewInfo    = "FUNC_VIEW_INFO"
	MsgSettingViewInfo = "SETTING_VIEW_INFO"
	MsgProductInfo     = "PRODUCT_INFO"
	MsgMACInfo         = "MAC_INFO_DEV"
)

// Packet is the framed JSON unit sent to the soundbar.
type Packet struct {
	Cmd  string `json:"cmd"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// Message is a single inbound message from the soundbar. The payload shape
// depends on Msg; decoding is left to the consumer.
type Message struct {
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}
