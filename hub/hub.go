package hub

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"chatrelay/metrics"
	"chatrelay/models"

	"github.com/google/uuid"
)

const (
	MinRoomSize     = 2
	MaxRoomSize     = 50
	DefaultRoomSize = 10

	MaxUsernameLength = 20
	MaxMessageLength  = 1000
	HistoryLimit      = 100
)

// Hub is the room registry. It owns every room, member and message and is
// the only place they are mutated.
//
// Locking: h.mu guards the rooms and conns maps; each room has its own
// mutex for members and history. When both are needed the room lock is
// taken first. Broadcasts run while the room lock is held, so every member
// observes a room's events in the order the mutations happened.
type Hub struct {
	log     *slog.Logger
	metrics *metrics.Metrics
	router  *router

	newCode func() (string, error)
	now     func() time.Time

	mu    sync.RWMutex
	rooms map[string]*room
	conns map[string]*connection
}

type connection struct {
	sink     Sink
	roomCode string
}

type Option func(*Hub)

// WithCodeGenerator replaces GenerateCode.
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(h *Hub) { h.newCode = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(h *Hub) { h.now = fn }
}

func NewHub(logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Hub {
	h := &Hub{
		log:     logger,
		metrics: m,
		newCode: GenerateCode,
		now:     time.Now,
		rooms:   make(map[string]*room),
		conns:   make(map[string]*connection),
	}
	h.router = &router{resolve: h.sink, metrics: m}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach registers a live connection. Room operations for unknown
// connection ids are rejected.
func (h *Hub) Attach(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[s.ID()]; ok {
		return
	}
	h.conns[s.ID()] = &connection{sink: s}
	h.metrics.ConnectionsActive.Inc()
}

// Disconnect detaches the connection and removes it from its room. It is
// safe to call more than once and after LeaveRoom.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	h.metrics.ConnectionsActive.Dec()
	h.removeMember(connID, c.roomCode)
}

// CreateRoom mints a fresh code and opens a room with the caller as its
// only member. maxUsers is clamped to [MinRoomSize, MaxRoomSize]; zero
// selects DefaultRoomSize. The room-created confirmation is queued to the
// caller before CreateRoom returns.
func (h *Hub) CreateRoom(connID, username string, maxUsers int) (models.RoomEntered, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return models.RoomEntered{}, err
	}

	entered, err := h.create(connID, name, clampMaxUsers(maxUsers))
	if err != nil {
		return models.RoomEntered{}, err
	}

	h.log.Info("room.created",
		"room", entered.RoomCode,
		"username", name,
		"max_users", entered.Room.MaxUsers,
	)
	return entered, nil
}

func (h *Hub) create(connID, name string, maxUsers int) (models.RoomEntered, error) {
	h.mu.Lock()
	c, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return models.RoomEntered{}, errNotConnected
	}
	if c.roomCode != "" {
		h.mu.Unlock()
		return models.RoomEntered{}, errAlreadyInRoom
	}
	code, err := h.freeCode()
	if err != nil {
		h.mu.Unlock()
		return models.RoomEntered{}, err
	}

	member := models.Member{ConnectionID: connID, Username: name, RoomCode: code}
	r := newRoom(code, maxUsers, h.now())
	r.members = append(r.members, member)

	// r is not reachable yet, so taking its lock under h.mu cannot deadlock.
	// Holding it keeps joiners out until the confirmation is queued.
	r.mu.Lock()
	defer r.mu.Unlock()
	h.rooms[code] = r
	c.roomCode = code
	h.mu.Unlock()

	h.metrics.RoomsActive.Inc()

	entered := models.RoomEntered{RoomCode: code, Member: member, Room: r.snapshot()}
	h.router.send(connID, models.RoomCreatedEvent(entered))
	return entered, nil
}

// freeCode must be called with h.mu held for writing.
func (h *Hub) freeCode() (string, error) {
	for range maxCodeAttempts {
		code, err := h.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// JoinRoom adds the caller to an existing room. The room-joined
// confirmation is queued to the caller, then member-joined to everyone
// else, before JoinRoom returns.
func (h *Hub) JoinRoom(connID, code, username string) (models.RoomEntered, error) {
	name, err := normalizeUsername(username)
	if err != nil {
		return models.RoomEntered{}, err
	}
	code = NormalizeCode(code)
	if code == "" {
		return models.RoomEntered{}, errRoomCodeRequired
	}

	entered, err := h.join(connID, code, name)
	if err != nil {
		return models.RoomEntered{}, err
	}

	h.log.Info("room.joined",
		"room", code,
		"username", name,
		"current_count", entered.Room.CurrentCount,
	)
	return entered, nil
}

func (h *Hub) join(connID, code, name string) (models.RoomEntered, error) {
	r := h.room(code)
	if r == nil {
		return models.RoomEntered{}, ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.closed:
		return models.RoomEntered{}, ErrRoomNotFound
	case r.full():
		return models.RoomEntered{}, ErrRoomFull
	case r.hasUsername(name):
		return models.RoomEntered{}, ErrUsernameTaken
	}

	h.mu.Lock()
	c, ok := h.conns[connID]
	switch {
	case !ok:
		h.mu.Unlock()
		return models.RoomEntered{}, errNotConnected
	case c.roomCode != "":
		h.mu.Unlock()
		return models.RoomEntered{}, errAlreadyInRoom
	}
	c.roomCode = code
	h.mu.Unlock()

	member := models.Member{ConnectionID: connID, Username: name, RoomCode: code}
	r.members = append(r.members, member)

	entered := models.RoomEntered{RoomCode: code, Member: member, Room: r.snapshot()}
	h.router.send(connID, models.RoomJoinedEvent(entered))
	h.router.broadcast(r, models.MemberJoinedEvent(member, len(r.members)), connID)
	return entered, nil
}

// PostMessage appends text to the caller's room and broadcasts it to every
// member, the sender included. Text that is empty after trimming is
// dropped: the result is nil with no error.
func (h *Hub) PostMessage(connID, text string) (*models.Message, error) {
	code, err := h.currentRoom(connID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return nil, nil
	case !utf8.ValidString(text):
		return nil, errMessageEncoding
	case utf8.RuneCountInString(text) > MaxMessageLength:
		return nil, errMessageTooLong
	}

	msg, err := h.post(connID, code, text)
	if err != nil {
		return nil, err
	}

	h.log.Debug("message.posted",
		"room", code,
		"username", msg.Username,
		"length", len(msg.Text),
	)
	return msg, nil
}

func (h *Hub) post(connID, code, text string) (*models.Message, error) {
	r := h.room(code)
	if r == nil {
		return nil, ErrNotInRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(connID)
	if r.closed || i < 0 {
		return nil, ErrNotInRoom
	}

	msg := models.Message{
		ID:                 uuid.NewString(),
		Text:               text,
		Username:           r.members[i].Username,
		AuthorConnectionID: connID,
		Timestamp:          r.nextTimestamp(h.now().UTC()),
	}
	r.appendMessage(msg, HistoryLimit)
	h.metrics.MessagesPosted.Inc()

	h.router.broadcast(r, models.NewMessageEvent(msg), "")
	return &msg, nil
}

// LeaveRoom removes the caller from its room and returns the room code.
// It is a no-op, reporting false, when the caller is not in a room.
func (h *Hub) LeaveRoom(connID string) (string, bool) {
	h.mu.RLock()
	c, ok := h.conns[connID]
	var code string
	if ok {
		code = c.roomCode
	}
	h.mu.RUnlock()

	if _, left := h.removeMember(connID, code); !left {
		return "", false
	}
	return code, true
}

// removeMember deletes the member, tells the rest of the room and drops
// the room once it is empty.
func (h *Hub) removeMember(connID, code string) (models.Member, bool) {
	if code == "" {
		return models.Member{}, false
	}

	member, remaining, ok := h.remove(connID, code)
	if !ok {
		return models.Member{}, false
	}

	h.log.Info("room.left", "room", code, "username", member.Username, "current_count", remaining)
	if remaining == 0 {
		h.log.Info("room.deleted", "room", code)
	}
	return member, true
}

func (h *Hub) remove(connID, code string) (models.Member, int, bool) {
	r := h.room(code)
	if r == nil {
		return models.Member{}, 0, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return models.Member{}, 0, false
	}
	member, ok := r.remove(connID)
	if !ok {
		return models.Member{}, 0, false
	}

	h.mu.Lock()
	if c, ok := h.conns[connID]; ok && c.roomCode == code {
		c.roomCode = ""
	}
	if len(r.members) == 0 {
		r.closed = true
		if h.rooms[code] == r {
			delete(h.rooms, code)
		}
	}
	h.mu.Unlock()

	if r.closed {
		h.metrics.RoomsActive.Dec()
		return member, 0, true
	}

	h.router.broadcast(r, models.MemberLeftEvent(member, len(r.members)), "")
	return member, len(r.members), true
}

// Lookup reports the public state of a live room.
func (h *Hub) Lookup(code string) (models.RoomInfo, bool) {
	r := h.room(NormalizeCode(code))
	if r == nil {
		return models.RoomInfo{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return models.RoomInfo{}, false
	}
	return r.info(), true
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll closes every attached connection. Each transport then reports
// its disconnect, which empties and deletes the rooms.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	sinks := make([]Sink, 0, len(h.conns))
	for _, c := range h.conns {
		sinks = append(sinks, c.sink)
	}
	h.mu.RUnlock()

	for _, s := range sinks {
		s.Close()
	}
}

func (h *Hub) room(code string) *room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[code]
}

func (h *Hub) sink(connID string) (Sink, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	if !ok {
		return nil, false
	}
	return c.sink, true
}

// currentRoom returns the caller's room code, or ErrNotInRoom.
func (h *Hub) currentRoom(connID string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[connID]
	if !ok || c.roomCode == "" {
		return "", ErrNotInRoom
	}
	return c.roomCode, nil
}
