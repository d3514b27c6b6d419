package hub

import (
	"sync"
	"time"

	"chatrelay/models"
)

type room struct {
	mu sync.Mutex

	code      string
	maxUsers  int
	createdAt time.Time
	members   []models.Member // join order
	history   []models.Message

	// closed is set when the last member leaves. A goroutine that fetched
	// the room from the registry before deletion must treat it as gone.
	closed bool
}

func newRoom(code string, maxUsers int, createdAt time.Time) *room {
	return &room{
		code:      code,
		maxUsers:  maxUsers,
		createdAt: createdAt,
		members:   make([]models.Member, 0, maxUsers),
		history:   make([]models.Message, 0, HistoryLimit),
	}
}

func (r *room) full() bool { return len(r.members) >= r.maxUsers }

func (r *room) indexOf(connID string) int {
	for i, m := range r.members {
		if m.ConnectionID == connID {
			return i
		}
	}
	return -1
}

// hasUsername is an exact, case-sensitive match.
func (r *room) hasUsername(name string) bool {
	for _, m := range r.members {
		if m.Username == name {
			return true
		}
	}
	return false
}

func (r *room) remove(connID string) (models.Member, bool) {
	i := r.indexOf(connID)
	if i < 0 {
		return models.Member{}, false
	}
	m := r.members[i]
	r.members = append(r.members[:i], r.members[i+1:]...)
	return m, true
}

// nextTimestamp keeps history timestamps non-decreasing even if the wall
// clock steps backwards.
func (r *room) nextTimestamp(now time.Time) time.Time {
	if n := len(r.history); n > 0 && now.Before(r.history[n-1].Timestamp) {
		return r.history[n-1].Timestamp
	}
	return now
}

// appendMessage evicts the oldest entry once the history holds limit
// messages.
func (r *room) appendMessage(msg models.Message, limit int) {
	if len(r.history) < limit {
		r.history = append(r.history, msg)
		return
	}
	copy(r.history, r.history[1:])
	r.history[len(r.history)-1] = msg
}

func (r *room) snapshot() models.RoomSnapshot {
	members := make([]models.Member, len(r.members))
	copy(members, r.members)
	history := make([]models.Message, len(r.history))
	copy(history, r.history)

	return models.RoomSnapshot{
		Code:         r.code,
		MaxUsers:     r.maxUsers,
		CurrentCount: len(r.members),
		Members:      members,
		History:      history,
	}
}

func (r *room) info() models.RoomInfo {
	return models.RoomInfo{
		Code:         r.code,
		MaxUsers:     r.maxUsers,
		CurrentCount: len(r.members),
		Full:         r.full(),
	}
}
