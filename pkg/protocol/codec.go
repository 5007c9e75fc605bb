package protocol

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrInvalidMessage = errors.New("invalid message format")
	ErrUnknownCodec   = errors.New("unknown codec type")
)

// Codec turns messages into websocket frames and back.
type Codec interface {
	Encode(msg *Message) ([]byte, error)
	Decode(data []byte) (*Message, error)
	Name() string
	// Binary reports whether frames go out as binary websocket messages.
	Binary() bool
}

// ObjectCodec writes each message as one keyed object.
type ObjectCodec struct {
	name      string
	binary    bool
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

// NewJSONCodec returns the default codec, the one the browser client speaks.
// It also accepts tuple frames.
func NewJSONCodec() *ObjectCodec {
	return &ObjectCodec{name: "json", marshal: json.Marshal, unmarshal: json.Unmarshal}
}

// NewMsgPackCodec returns a binary codec selected with ?codec=msgpack.
func NewMsgPackCodec() *ObjectCodec {
	return &ObjectCodec{name: "msgpack", binary: true, marshal: msgpack.Marshal, unmarshal: msgpack.Unmarshal}
}

func (c *ObjectCodec) Name() string { return c.name }
func (c *ObjectCodec) Binary() bool { return c.binary }

func (c *ObjectCodec) Encode(msg *Message) ([]byte, error) {
	return c.marshal(msg)
}

func (c *ObjectCodec) Decode(data []byte) (*Message, error) {
	if !c.binary && len(data) > 0 && data[0] == '[' {
		return decodeTuple(data)
	}
	var msg Message
	if err := c.unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return finish(&msg)
}

// TupleCodec uses the compact [join_ref, ref, topic, event, payload] array
// form. Empty refs travel as null.
type TupleCodec struct{}

func NewTupleCodec() TupleCodec { return TupleCodec{} }

func (TupleCodec) Name() string { return "tuple" }
func (TupleCodec) Binary() bool { return false }

func (TupleCodec) Encode(msg *Message) ([]byte, error) {
	return json.Marshal([5]any{orNull(msg.JoinRef), orNull(msg.Ref), msg.Topic, msg.Event, msg.Payload})
}

func (TupleCodec) Decode(data []byte) (*Message, error) {
	return decodeTuple(data)
}

func orNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func decodeTuple(data []byte) (*Message, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: tuple has %d elements", ErrInvalidMessage, len(parts))
	}

	var joinRef, ref *string
	_ = json.Unmarshal(parts[0], &joinRef)
	_ = json.Unmarshal(parts[1], &ref)

	msg := &Message{}
	if joinRef != nil {
		msg.JoinRef = *joinRef
	}
	if ref != nil {
		msg.Ref = *ref
	}
	if err := json.Unmarshal(parts[2], &msg.Topic); err != nil {
		return nil, fmt.Errorf("%w: topic: %v", ErrInvalidMessage, err)
	}
	if err := json.Unmarshal(parts[3], &msg.Event); err != nil {
		return nil, fmt.Errorf("%w: event: %v", ErrInvalidMessage, err)
	}
	if err := json.Unmarshal(parts[4], &msg.Payload); err != nil {
		msg.Payload = nil
	}
	return finish(msg)
}

// finish rejects event-less messages and classifies the rest.
func finish(msg *Message) (*Message, error) {
	if msg.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrInvalidMessage)
	}
	if msg.Payload == nil {
		msg.Payload = map[string]any{}
	}
	msg.Type = EventType(msg.Event)
	return msg, nil
}

// CodecRegistry maps the ?codec= query value of a live socket to a codec.
// It is fixed after construction.
type CodecRegistry struct {
	codecs   map[string]Codec
	fallback Codec
}

// NewCodecRegistry holds every built-in codec, with fallback used when the
// client names none. A nil fallback selects JSON.
func NewCodecRegistry(fallback Codec) *CodecRegistry {
	r := &CodecRegistry{codecs: map[string]Codec{}}
	for _, c := range []Codec{NewJSONCodec(), NewMsgPackCodec(), NewTupleCodec()} {
		r.codecs[c.Name()] = c
	}
	if fallback == nil {
		fallback = r.codecs["json"]
	}
	r.fallback = fallback
	return r
}

func (r *CodecRegistry) Default() Codec { return r.fallback }

// Lookup returns the named codec, or the default for an empty name.
func (r *CodecRegistry) Lookup(name string) (Codec, error) {
	if name == "" {
		return r.fallback, nil
	}
	c, ok := r.codecs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCodec, name)
	}
	return c, nil
}
