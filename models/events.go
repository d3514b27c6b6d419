package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Inbound event names (client to server).
const (
	EventCreateRoom  = "create-room"
	EventJoinRoom    = "join-room"
	EventSendMessage = "send-message"
	EventLeaveRoom   = "leave-room"
)

// Outbound event names (server to client).
const (
	EventConnected    = "connected"
	EventRoomCreated  = "room-created"
	EventRoomJoined   = "room-joined"
	EventRoomLeft     = "room-left"
	EventRoomError    = "room-error"
	EventNewMessage   = "new-message"
	EventMemberJoined = "member-joined"
	EventMemberLeft   = "member-left"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event")
)

// Inbound is one of CreateRoom, JoinRoom, SendMessage, LeaveRoom or
// Disconnect.
type Inbound interface {
	inbound()
}

// CreateRoom asks for a new room. MaxUsers is zero when the client did not
// send one.
type CreateRoom struct {
	Username string
	MaxUsers int
}

type JoinRoom struct {
	RoomCode string
	Username string
}

type SendMessage struct {
	Text string
}

type LeaveRoom struct{}

// Disconnect is never decoded from the wire; the transport raises it when
// the connection closes.
type Disconnect struct{}

func (CreateRoom) inbound()  {}
func (JoinRoom) inbound()    {}
func (SendMessage) inbound() {}
func (LeaveRoom) inbound()   {}
func (Disconnect) inbound()  {}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// DecodeInbound parses one websocket frame into an inbound event.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch env.Event {
	case EventCreateRoom:
		var p struct {
			Username string      `json:"username"`
			MaxUsers json.Number `json:"maxUsers"`
		}
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		n, err := parseMaxUsers(p.MaxUsers)
		if err != nil {
			return nil, err
		}
		return CreateRoom{Username: p.Username, MaxUsers: n}, nil

	case EventJoinRoom:
		var p struct {
			RoomCode string `json:"roomCode"`
			Username string `json:"username"`
		}
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		return JoinRoom{RoomCode: p.RoomCode, Username: p.Username}, nil

	case EventSendMessage:
		var p struct {
			Message string `json:"message"`
		}
		if err := decodeData(env.Data, &p); err != nil {
			return nil, err
		}
		return SendMessage{Text: p.Message}, nil

	case EventLeaveRoom:
		return LeaveRoom{}, nil

	case "":
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedEvent)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

// parseMaxUsers accepts integers, fractional numbers (truncated) and
// numeric strings. An absent value yields 0.
func parseMaxUsers(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return clampInt(float64(i)), nil
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%w: maxUsers is not a number", ErrMalformedEvent)
	}
	return clampInt(math.Trunc(f)), nil
}

func clampInt(f float64) int {
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// Outbound is the envelope pushed to clients.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func ConnectedEvent(connID string) Outbound {
	return Outbound{Event: EventConnected, Data: Connected{ConnectionID: connID}}
}

func RoomCreatedEvent(e RoomEntered) Outbound {
	return Outbound{Event: EventRoomCreated, Data: e}
}

func RoomJoinedEvent(e RoomEntered) Outbound {
	return Outbound{Event: EventRoomJoined, Data: e}
}

func RoomLeftEvent(code string) Outbound {
	return Outbound{Event: EventRoomLeft, Data: RoomLeft{RoomCode: code}}
}

func RoomErrorEvent(message string) Outbound {
	return Outbound{Event: EventRoomError, Data: RoomError{Message: message}}
}

func NewMessageEvent(m Message) Outbound {
	return Outbound{Event: EventNewMessage, Data: m}
}

func MemberJoinedEvent(m Member, count int) Outbound {
	return Outbound{Event: EventMemberJoined, Data: MemberUpdate{Member: m, CurrentCount: count}}
}

func MemberLeftEvent(m Member, count int) Outbound {
	return Outbound{Event: EventMemberLeft, Data: MemberUpdate{Member: m, CurrentCount: count}}
}
