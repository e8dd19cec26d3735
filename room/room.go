// room/room.go
package room

import (
	"errors"
	"time"

	"github.com/wfunc/pigdice/dice"
)

// DefaultWinScore is the banked total that ends a match.
const DefaultWinScore = 100

// NoWinner marks a match that has not been decided.
const NoWinner = -1

var (
	ErrNotAPlayer        = errors.New("connection is not seated in this room")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrGameNotInProgress = errors.New("game not in progress")
	ErrRoomNotFull       = errors.New("room needs two players")
)

// Status is the lifecycle phase of a room, derived from its seats and winner.
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	}
	return "unknown"
}

// Snapshot is the shared view of a room sent with every state-bearing message.
type Snapshot struct {
	Scores       [2]int `json:"scores"`
	CurrentScore int    `json:"currentScore"`
	ActivePlayer int    `json:"activePlayer"`
	Playing      bool   `json:"playing"`
}

type RollResult struct {
	Snapshot Snapshot
	Die      int
	Bust     bool
}

type HoldResult struct {
	Snapshot Snapshot
	Banked   int
	Finished bool
	Winner   int
}

// Room is the authoritative state of one match. It does no I/O and holds no
// locks: its owner must serialize every call.
type Room struct {
	Code       string
	CreatedAt  time.Time
	LastActive time.Time

	slots        [2]string // connection ids, "" while a seat is empty
	scores       [2]int
	currentScore int
	activePlayer int
	playing      bool
	winner       int
	rolls        int
	startedAt    time.Time
	winScore     int
}

// NewRoom seats creator in slot 0. The room waits for an opponent.
func NewRoom(code, creator string, winScore int, now time.Time) *Room {
	if winScore <= 0 {
		winScore = DefaultWinScore
	}
	return &Room{
		Code:       code,
		CreatedAt:  now,
		LastActive: now,
		slots:      [2]string{creator, ""},
		winner:     NoWinner,
		winScore:   winScore,
	}
}

// Seat returns the slot index of connID.
func (r *Room) Seat(connID string) (int, bool) {
	if connID == "" {
		return 0, false
	}
	for i, id := range r.slots {
		if id == connID {
			return i, true
		}
	}
	return 0, false
}

// Connection returns the connection seated at index, or "".
func (r *Room) Connection(index int) string {
	if index < 0 || index > 1 {
		return ""
	}
	return r.slots[index]
}

// Connections lists the seated connections in slot order.
func (r *Room) Connections() []string {
	conns := make([]string, 0, 2)
	for _, id := range r.slots {
		if id != "" {
			conns = append(conns, id)
		}
	}
	return conns
}

// Others lists the seated connections other than connID.
func (r *Room) Others(connID string) []string {
	var others []string
	for _, id := range r.slots {
		if id != "" && id != connID {
			others = append(others, id)
		}
	}
	return others
}

func (r *Room) Full() bool {
	return r.slots[0] != "" && r.slots[1] != ""
}

func (r *Room) Status() Status {
	switch {
	case r.winner != NoWinner:
		return StatusFinished
	case r.playing:
		return StatusPlaying
	default:
		return StatusWaiting
	}
}

func (r *Room) Snapshot() Snapshot {
	return Snapshot{
		Scores:       r.scores,
		CurrentScore: r.currentScore,
		ActivePlayer: r.activePlayer,
		Playing:      r.playing,
	}
}

func (r *Room) Winner() int { return r.winner }

func (r *Room) Rolls() int { return r.rolls }

func (r *Room) WinScore() int { return r.winScore }

func (r *Room) StartedAt() time.Time { return r.startedAt }

// seatOpponent fills slot 1 and starts the match.
func (r *Room) seatOpponent(connID string, now time.Time) int {
	r.slots[1] = connID
	r.start(now)
	return 1
}

func (r *Room) start(now time.Time) {
	r.scores = [2]int{}
	r.currentScore = 0
	r.activePlayer = 0
	r.playing = true
	r.winner = NoWinner
	r.rolls = 0
	r.startedAt = now
	r.LastActive = now
}

// authorize checks that connID may act right now.
func (r *Room) authorize(connID string) error {
	seat, ok := r.Seat(connID)
	if !ok {
		return ErrNotAPlayer
	}
	if !r.playing {
		return ErrGameNotInProgress
	}
	if seat != r.activePlayer {
		return ErrNotYourTurn
	}
	return nil
}

func (r *Room) passTurn() {
	r.currentScore = 0
	r.activePlayer = 1 - r.activePlayer
}

// Roll draws one die for the active player. A 1 forfeits the unbanked
// score and passes the turn; any other face is added to it.
func (r *Room) Roll(connID string, src dice.Source, now time.Time) (RollResult, error) {
	if err := r.authorize(connID); err != nil {
		return RollResult{}, err
	}

	d := src.Die()
	r.rolls++
	r.LastActive = now

	bust := d == 1
	if bust {
		r.passTurn()
	} else {
		r.currentScore += d
	}
	return RollResult{Snapshot: r.Snapshot(), Die: d, Bust: bust}, nil
}

// Hold banks the unbanked score. Reaching the win score finishes the match
// with the banking player as winner; otherwise the turn passes.
func (r *Room) Hold(connID string, now time.Time) (HoldResult, error) {
	if err := r.authorize(connID); err != nil {
		return HoldResult{}, err
	}

	banked := r.currentScore
	r.scores[r.activePlayer] += banked
	r.currentScore = 0
	r.LastActive = now

	if r.scores[r.activePlayer] >= r.winScore {
		r.playing = false
		r.winner = r.activePlayer
		return HoldResult{Snapshot: r.Snapshot(), Banked: banked, Finished: true, Winner: r.winner}, nil
	}

	r.activePlayer = 1 - r.activePlayer
	return HoldResult{Snapshot: r.Snapshot(), Banked: banked, Winner: NoWinner}, nil
}

// Reset starts a fresh match with the same two players.
func (r *Room) Reset(now time.Time) error {
	if !r.Full() {
		return ErrRoomNotFull
	}
	r.start(now)
	return nil
}
