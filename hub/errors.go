package hub

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrUsernameTaken = errors.New("username already taken in this room")
	ErrNotInRoom     = errors.New("not in a room")

	ErrCodeSpaceExhausted = errors.New("no free room code")
)

// InputError is a rejected field value. Reason is shown to the client as is.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "invalid input: " + e.Reason }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(reason string) error { return &InputError{Reason: reason} }

var (
	errUsernameRequired = invalid("Username is required")
	errUsernameTooLong  = invalid("Username must be at most 20 characters")
	errUsernameEncoding = invalid("Username contains invalid characters")
	errRoomCodeRequired = invalid("Room code is required")
	errMessageTooLong   = invalid("Message must be at most 1000 characters")
	errMessageEncoding  = invalid("Message contains invalid characters")
	errAlreadyInRoom    = invalid("Leave your current room first")
	errNotConnected     = invalid("Connection is closed")
)

// Reason returns the static, client-facing text for err.
func Reason(err error) string {
	var in *InputError
	switch {
	case errors.As(err, &in):
		return in.Reason
	case errors.Is(err, ErrInvalidInput):
		return "Invalid request"
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrRoomFull):
		return "Room is full"
	case errors.Is(err, ErrUsernameTaken):
		return "Username already taken in this room"
	case errors.Is(err, ErrNotInRoom):
		return "You are not in a room"
	default:
		return "Something went wrong, please try again"
	}
}

// Kind returns a short label for err, used for metrics.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, ErrNotInRoom):
		return "not_in_room"
	default:
		return "internal"
	}
}
