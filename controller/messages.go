package controller

import (
	"errors"

	"github.com/wfunc/pigdice/room"
)

// Error codes carried by the "error" message.
const (
	CodeRoomNotFound  = "RoomNotFound"
	CodeRoomFull      = "RoomFull"
	CodeAlreadyInRoom = "AlreadyInRoom"
	CodeUnavailable   = "Unavailable"
	CodeBadRequest    = "BadRequest"
)

// PlayerLeftNotice is the text sent to the remaining player on disconnect.
const PlayerLeftNotice = "The other player has disconnected."

// RoomExpiredNotice is the text sent when an idle room is closed.
const RoomExpiredNotice = "The game was closed due to inactivity."

// StartGamePayload is personalized per recipient: PlayerNumber is the recipient's own seat.
type StartGamePayload struct {
	GameState    room.Snapshot `json:"gameState"`
	PlayerNumber int           `json:"playerNumber"`
	RoomCode     string        `json:"roomCode"`
}

// UpdatePayload carries the die just rolled, or null after a hold.
type UpdatePayload struct {
	GameState room.Snapshot `json:"gameState"`
	Dice      *int          `json:"dice"`
}

type GameOverPayload struct {
	GameState room.Snapshot `json:"gameState"`
	Winner    int           `json:"winner"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorPayload(err error) ErrorPayload {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return ErrorPayload{Code: CodeRoomNotFound, Message: "Game code does not exist."}
	case errors.Is(err, room.ErrRoomFull):
		return ErrorPayload{Code: CodeRoomFull, Message: "Game is already full."}
	case errors.Is(err, room.ErrAlreadyInRoom):
		return ErrorPayload{Code: CodeAlreadyInRoom, Message: "You are already in a game."}
	case errors.Is(err, room.ErrCodeSpaceExhausted):
		return ErrorPayload{Code: CodeUnavailable, Message: "No game codes are available, try again later."}
	}
	return ErrorPayload{Code: CodeBadRequest, Message: "The request could not be understood."}
}
