// room/manager.go
package room

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/wfunc/pigdice/dice"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrAlreadyInRoom      = errors.New("connection is already in a room")
	ErrCodeSpaceExhausted = errors.New("could not allocate an unused room code")
)

// Summary is a read-only description of a live room.
type Summary struct {
	Code       string    `json:"code"`
	Status     string    `json:"status"`
	Players    int       `json:"players"`
	Scores     [2]int    `json:"scores"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Options tune a Manager. Zero values pick the defaults.
type Options struct {
	CodeLength      int
	MaxCodeAttempts int
	WinScore        int
	Now             func() time.Time
}

// Manager is the registry of live rooms, keyed by code, with a reverse index
// from connection id to code. Like Room it holds no locks.
type Manager struct {
	rooms  map[string]*Room
	byConn map[string]string
	src    dice.Source
	opts   Options
}

// NewRoomManager builds an empty registry drawing codes from src.
func NewRoomManager(src dice.Source, opts Options) *Manager {
	if opts.CodeLength <= 0 {
		opts.CodeLength = 5
	}
	if opts.MaxCodeAttempts <= 0 {
		opts.MaxCodeAttempts = 32
	}
	if opts.WinScore <= 0 {
		opts.WinScore = DefaultWinScore
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		rooms:  make(map[string]*Room),
		byConn: make(map[string]string),
		src:    src,
		opts:   opts,
	}
}

// NormalizeCode canonicalizes a user-typed room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom allocates a fresh code and seats connID in slot 0.
func (m *Manager) CreateRoom(connID string) (*Room, error) {
	if _, seated := m.byConn[connID]; seated {
		return nil, ErrAlreadyInRoom
	}

	for attempt := 0; attempt < m.opts.MaxCodeAttempts; attempt++ {
		code := NormalizeCode(m.src.Code(m.opts.CodeLength))
		if code == "" {
			continue
		}
		if _, taken := m.rooms[code]; taken {
			continue
		}
		room := NewRoom(code, connID, m.opts.WinScore, m.opts.Now())
		m.rooms[code] = room
		m.byConn[connID] = code
		return room, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// JoinRoom seats connID in slot 1 of the room and starts the match.
func (m *Manager) JoinRoom(code, connID string) (*Room, int, error) {
	room, ok := m.rooms[NormalizeCode(code)]
	if !ok {
		return nil, 0, ErrRoomNotFound
	}
	if room.Full() {
		return nil, 0, ErrRoomFull
	}
	if _, seated := m.byConn[connID]; seated {
		return nil, 0, ErrAlreadyInRoom
	}

	index := room.seatOpponent(connID, m.opts.Now())
	m.byConn[connID] = room.Code
	return room, index, nil
}

// GetRoom looks a room up by code.
func (m *Manager) GetRoom(code string) (*Room, bool) {
	room, ok := m.rooms[NormalizeCode(code)]
	return room, ok
}

// RemoveRoom deletes the room and its reverse index entries. Unknown codes are ignored.
func (m *Manager) RemoveRoom(code string) {
	code = NormalizeCode(code)
	room, ok := m.rooms[code]
	if !ok {
		return
	}
	for _, connID := range room.Connections() {
		if m.byConn[connID] == code {
			delete(m.byConn, connID)
		}
	}
	delete(m.rooms, code)
}

// FindRoomByConnection returns the code of the room connID is seated in.
func (m *Manager) FindRoomByConnection(connID string) (string, bool) {
	code, ok := m.byConn[connID]
	return code, ok
}

// Len is the number of live rooms.
func (m *Manager) Len() int {
	return len(m.rooms)
}

// Players is the number of seated connections across all rooms.
func (m *Manager) Players() int {
	return len(m.byConn)
}

// Idle returns the codes of rooms with no activity since cutoff, sorted.
func (m *Manager) Idle(cutoff time.Time) []string {
	var codes []string
	for code, room := range m.rooms {
		if room.LastActive.Before(cutoff) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Summaries describes every live room, sorted by code.
func (m *Manager) Summaries() []Summary {
	out := make([]Summary, 0, len(m.rooms))
	for _, room := range m.rooms {
		snap := room.Snapshot()
		out = append(out, Summary{
			Code:       room.Code,
			Status:     room.Status().String(),
			Players:    len(room.Connections()),
			Scores:     snap.Scores,
			CreatedAt:  room.CreatedAt,
			LastActive: room.LastActive,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
