package models

import "time"

type Member struct {
	ConnectionID string `json:"connectionId"`
	Username     string `json:"username"`
	RoomCode     string `json:"roomCode"`
}

// Message is immutable once posted. The author fields are a snapshot and
// stay valid after the author leaves the room.
type Message struct {
	ID                 string    `json:"id"`
	Text               string    `json:"text"`
	Username           string    `json:"username"`
	AuthorConnectionID string    `json:"authorConnectionId"`
	Timestamp          time.Time `json:"timestamp"`
}

type RoomSnapshot struct {
	Code         string    `json:"code"`
	MaxUsers     int       `json:"maxUsers"`
	CurrentCount int       `json:"currentCount"`
	Members      []Member  `json:"members"`
	History      []Message `json:"history"`
}

// RoomInfo is the lookup view of a room, without members or history.
type RoomInfo struct {
	Code         string `json:"code"`
	MaxUsers     int    `json:"maxUsers"`
	CurrentCount int    `json:"currentCount"`
	Full         bool   `json:"full"`
}

type RoomEntered struct {
	RoomCode string       `json:"roomCode"`
	Member   Member       `json:"member"`
	Room     RoomSnapshot `json:"room"`
}

type MemberUpdate struct {
	Member       Member `json:"member"`
	CurrentCount int    `json:"currentCount"`
}

type RoomError struct {
	Message string `json:"message"`
}

type RoomLeft struct {
	RoomCode string `json:"roomCode"`
}

type Connected struct {
	ConnectionID string `json:"connectionId"`
}
