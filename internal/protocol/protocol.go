package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luciancaetano/hiven"
)

// MaxFrameSize is the largest frame accepted from the gateway
const MaxFrameSize = 10 * 1024 * 1024 // 10MB

// Opcode identifies the kind of a gateway frame.
type Opcode int

const (
	OpEvent     Opcode = 0
	OpHello     Opcode = 1
	OpLogin     Opcode = 2
	OpHeartbeat Opcode = 3
)

func (o Opcode) String() string {
	switch o {
	case OpEvent:
		return "Event"
	case OpHello:
		return "Hello"
	case OpLogin:
		return "Login"
	case OpHeartbeat:
		return "Heartbeat"
	default:
		return fmt.Sprintf("Opcode(%d)", int(o))
	}
}

// Event tags carried by OpEvent frames.
const (
	EventInitState     = "INIT_STATE"
	EventHouseJoin     = "HOUSE_JOIN"
	EventTypingStart   = "TYPING_START"
	EventMessageCreate = "MESSAGE_CREATE"
)

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrFrameTooLarge = errors.New("frame too large")
)

// Frame is one decoded gateway frame: *Hello, *Login, *Heartbeat or *Event.
type Frame interface {
	Op() Opcode
	String() string
}

// Hello is the first frame sent by the server.
type Hello struct {
	HeartbeatInterval uint32 `json:"heartbeat_interval"`
}

func (*Hello) Op() Opcode { return OpHello }

func (h *Hello) String() string {
	return fmt.Sprintf("Hello{heartbeat_interval: %d}", h.HeartbeatInterval)
}

// Login authenticates the session. It is sent once, right after Hello.
type Login struct {
	Token string `json:"token"`
}

func (*Login) Op() Opcode { return OpLogin }

// String never prints the token.
func (*Login) String() string { return "Login{token: <redacted>}" }

// Heartbeat is the periodic liveness frame.
type Heartbeat struct{}

func (*Heartbeat) Op() Opcode { return OpHeartbeat }

func (*Heartbeat) String() string { return "Heartbeat" }

// Event carries a server event. Payload is one of *hiven.InitState,
// *hiven.House, *hiven.TypingStart or *hiven.Message, matching Name.
type Event struct {
	Name    string
	Payload any
}

func (*Event) Op() Opcode { return OpEvent }

func (e *Event) String() string { return fmt.Sprintf("Event(%s)", e.Name) }

type envelope struct {
	Op Opcode          `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
}

type eventBody struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// newPayload returns an empty payload for the event tag, or nil if the tag is unknown.
func newPayload(name string) any {
	switch name {
	case EventInitState:
		return &hiven.InitState{}
	case EventHouseJoin:
		return &hiven.House{}
	case EventTypingStart:
		return &hiven.TypingStart{}
	case EventMessageCreate:
		return &hiven.Message{}
	default:
		return nil
	}
}

// Encode serializes a frame to its JSON text form {"op": <int>, "d": <payload>}.
func Encode(frame Frame) ([]byte, error) {
	env := envelope{Op: frame.Op()}

	var body any
	switch f := frame.(type) {
	case *Hello, *Login:
		body = f
	case *Heartbeat:
	case *Event:
		if newPayload(f.Name) == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, f.Name)
		}
		data, err := json.Marshal(f.Payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", f.Name, err)
		}
		body = eventBody{Event: f.Name, Data: data}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOpcode, frame)
	}

	if body != nil {
		d, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", env.Op, err)
		}
		env.D = d
	}
	return json.Marshal(env)
}

// MustEncode is like Encode but panics on error. Outbound frames are built by
// this package, so a failure is a programming error.
func MustEncode(frame Frame) []byte {
	data, err := Encode(frame)
	if err != nil {
		panic(fmt.Sprintf("protocol: encoding %s: %v", frame, err))
	}
	return data
}

// Decode parses one text frame.
//
// Frames with an opcode or event tag this package does not model return
// ErrUnknownOpcode or ErrUnknownEvent; callers drop them.
func Decode(data []byte) (Frame, error) {
	if len(data) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrFrameTooLarge, len(data), MaxFrameSize)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}

	switch env.Op {
	case OpHello:
		hello := &Hello{}
		if err := unmarshalBody(env.D, hello); err != nil {
			return nil, fmt.Errorf("decoding Hello: %w", err)
		}
		return hello, nil
	case OpLogin:
		login := &Login{}
		if err := unmarshalBody(env.D, login); err != nil {
			return nil, fmt.Errorf("decoding Login: %w", err)
		}
		return login, nil
	case OpHeartbeat:
		return &Heartbeat{}, nil
	case OpEvent:
		return decodeEvent(env.D)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, int(env.Op))
	}
}

func decodeEvent(d json.RawMessage) (Frame, error) {
	var body eventBody
	if err := unmarshalBody(d, &body); err != nil {
		return nil, fmt.Errorf("decoding Event: %w", err)
	}

	payload := newPayload(body.Event)
	if payload == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, body.Event)
	}
	if err := unmarshalBody(body.Data, payload); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", body.Event, err)
	}
	return &Event{Name: body.Event, Payload: payload}, nil
}

// unmarshalBody leaves v untouched when the body is absent or null.
func unmarshalBody(d json.RawMessage, v any) error {
	if len(d) == 0 {
		return nil
	}
	return json.Unmarshal(d, v)
}
