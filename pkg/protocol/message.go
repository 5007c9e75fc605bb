// Package protocol defines the wire protocol between the live client and the
// server.
package protocol

import (
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// ErrBadPayload is returned when an event payload does not have the expected
// shape.
var ErrBadPayload = errors.New("bad event payload")

// MessageType classifies a message by its event name.
type MessageType uint8

const (
	MsgEvent MessageType = iota // anything a live view handles
	MsgJoin
	MsgLeave
	MsgReply
	MsgDiff
	MsgExec
	MsgError
	MsgHeartbeat
)

var typeNames = [...]string{
	MsgEvent:     "event",
	MsgJoin:      "join",
	MsgLeave:     "leave",
	MsgReply:     "reply",
	MsgDiff:      "diff",
	MsgExec:      "exec",
	MsgError:     "error",
	MsgHeartbeat: "heartbeat",
}

func (mt MessageType) String() string {
	if int(mt) < len(typeNames) {
		return typeNames[mt]
	}
	return "unknown"
}

// control maps the reserved event names to their types. Every other event
// is MsgEvent.
var control = map[string]MessageType{
	"phx_join":      MsgJoin,
	"phx_leave":     MsgLeave,
	"phx_reply":     MsgReply,
	"phx_error":     MsgError,
	"heartbeat":     MsgHeartbeat,
	"phx_heartbeat": MsgHeartbeat,
	"diff":          MsgDiff,
	"exec":          MsgExec,
}

// Message is one frame in either direction. Topics are "lv:<view>"; the
// client matches replies to requests by Ref.
type Message struct {
	// Type is derived from Event and never sent.
	Type MessageType `json:"-" msgpack:"-"`

	Ref     string         `json:"ref,omitempty" msgpack:"ref,omitempty"`
	Topic   string         `json:"topic" msgpack:"topic"`
	Event   string         `json:"event" msgpack:"event"`
	Payload map[string]any `json:"payload,omitempty" msgpack:"payload,omitempty"`
	JoinRef string         `json:"join_ref,omitempty" msgpack:"join_ref,omitempty"`

	// Timestamp is in Unix milliseconds.
	Timestamp int64 `json:"ts,omitempty" msgpack:"ts,omitempty"`
}

// NewMessage stamps a message with the current time.
func NewMessage(topic, event string, payload map[string]any) *Message {
	return &Message{
		Type:      EventType(event),
		Topic:     topic,
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// WithRef sets Ref and returns m.
func (m *Message) WithRef(ref string) *Message {
	m.Ref = ref
	return m
}

// GetPayloadString returns the string at key, or "".
func (m *Message) GetPayloadString(key string) string {
	if v, ok := m.Payload[key].(string); ok {
		return v
	}
	return ""
}

func (m *Message) IsReply() bool {
	return m.Type == MsgReply
}

// ReplyMessage answers the request with ref.
func ReplyMessage(ref, topic, status string, response map[string]any) *Message {
	return NewMessage(topic, "phx_reply", map[string]any{
		"status":   status,
		"response": response,
	}).WithRef(ref)
}

func OkReply(ref, topic string, response map[string]any) *Message {
	return ReplyMessage(ref, topic, "ok", response)
}

// ErrorReply carries reason to the client, which logs it.
func ErrorReply(ref, topic, reason string) *Message {
	return ReplyMessage(ref, topic, "error", map[string]any{"reason": reason})
}

// EventType classifies an event name.
func EventType(event string) MessageType {
	if t, ok := control[event]; ok {
		return t
	}
	return MsgEvent
}

// DecodePayload fills the struct v from a decoded payload by way of JSON, so
// v's json tags apply whatever codec the payload arrived with.
func DecodePayload(payload map[string]any, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
