package network

import "encoding/json"

// Inbound message types.
const (
	MsgCreateGame = "createGame"
	MsgJoinGame   = "joinGame"
	MsgRollDice   = "rollDice"
	MsgHoldScore  = "holdScore"
	MsgNewGame    = "newGame"
)

// Outbound message types.
const (
	MsgGameCreated     = "gameCreated"
	MsgStartGame       = "startGame"
	MsgUpdateGameState = "updateGameState"
	MsgGameOver        = "gameOver"
	MsgPlayerLeft      = "playerLeft"
	MsgRoomExpired     = "roomExpired"
	MsgError           = "error"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into an envelope of the given type.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}
