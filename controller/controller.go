// Package controller binds inbound protocol messages to rooms and turns the
// results into outbound messages.
package controller

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/pigdice/broadcast"
	"github.com/wfunc/pigdice/dice"
	"github.com/wfunc/pigdice/logger"
	"github.com/wfunc/pigdice/models"
	"github.com/wfunc/pigdice/monitor"
	"github.com/wfunc/pigdice/network"
	"github.com/wfunc/pigdice/room"
)

// Recorder accepts finished matches for the history store.
type Recorder interface {
	Record(rec models.MatchRecord) bool
}

type Options struct {
	// IdleTTL closes rooms with no accepted action for this long. Zero disables it.
	IdleTTL time.Duration
	Now     func() time.Time
}

// Controller is the single entry point for game traffic. Every operation runs
// under one mutex, so each request is applied and its replies are queued
// before the next one starts. Rooms and the registry rely on this.
type Controller struct {
	mu       sync.Mutex
	rooms    *room.Manager
	dice     dice.Source
	out      broadcast.Broadcaster
	recorder Recorder
	monitor  *monitor.Monitor
	idleTTL  time.Duration
	now      func() time.Time
}

func New(rooms *room.Manager, src dice.Source, out broadcast.Broadcaster, rec Recorder, mon *monitor.Monitor, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		rooms:    rooms,
		dice:     src,
		out:      out,
		recorder: rec,
		monitor:  mon,
		idleTTL:  opts.IdleTTL,
		now:      opts.Now,
	}
}

// Handle processes one inbound message from connID.
func (c *Controller) Handle(connID string, msg network.Message) {
	start := time.Now()
	defer func() { c.monitor.ObserveMessageLatency(time.Since(start)) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Type == network.MsgCreateGame {
		c.monitor.IncMessagesReceived(msg.Type)
		c.createGame(connID)
		return
	}

	var handler func(connID, code string)
	switch msg.Type {
	case network.MsgJoinGame:
		handler = c.joinGame
	case network.MsgRollDice:
		handler = c.rollDice
	case network.MsgHoldScore:
		handler = c.holdScore
	case network.MsgNewGame:
		handler = c.newGame
	default:
		c.monitor.IncMessagesReceived("unknown")
		logger.Log.Infof("Unknown message type %q from %s", msg.Type, connID)
		return
	}
	c.monitor.IncMessagesReceived(msg.Type)

	code, err := decodeCode(msg.Payload)
	if err != nil {
		logger.Log.Infof("Malformed %s payload from %s: %v", msg.Type, connID, err)
		if msg.Type == network.MsgJoinGame {
			c.reply(connID, network.MsgError, errorPayload(err))
		}
		return
	}
	handler(connID, code)
}

// decodeCode reads the room code payload. A missing payload is an empty code.
func decodeCode(payload json.RawMessage) (string, error) {
	if len(payload) == 0 || string(payload) == "null" {
		return "", nil
	}
	var code string
	if err := json.Unmarshal(payload, &code); err != nil {
		return "", err
	}
	return room.NormalizeCode(code), nil
}

func (c *Controller) createGame(connID string) {
	r, err := c.rooms.CreateRoom(connID)
	if err != nil {
		logger.Log.Warnf("Session %s could not create a room: %v", connID, err)
		c.reply(connID, network.MsgError, errorPayload(err))
		return
	}

	logger.Log.Infof("Session %s created room %s", connID, r.Code)
	c.monitor.SetActiveRooms(c.rooms.Len())
	c.reply(connID, network.MsgGameCreated, r.Code)
}

func (c *Controller) joinGame(connID, code string) {
	r, index, err := c.rooms.JoinRoom(code, connID)
	if err != nil {
		logger.Log.Infof("Session %s could not join room %q: %v", connID, code, err)
		c.reply(connID, network.MsgError, errorPayload(err))
		return
	}

	logger.Log.Infof("Session %s joined room %s as player %d, starting game", connID, r.Code, index)
	c.announceStart(r)
}

// seatedRoom resolves the room connID sits in. A non-empty code must name that room.
func (c *Controller) seatedRoom(connID, code, action string) (*room.Room, bool) {
	seated, ok := c.rooms.FindRoomByConnection(connID)
	if !ok {
		logger.Log.Debugf("Dropping %s from %s: not in a room", action, connID)
		return nil, false
	}
	if code != "" && code != seated {
		logger.Log.Debugf("Dropping %s from %s: code %s does not match room %s", action, connID, code, seated)
		return nil, false
	}
	r, ok := c.rooms.GetRoom(seated)
	if !ok {
		logger.Log.Debugf("Dropping %s from %s: room %s is gone", action, connID, seated)
		return nil, false
	}
	return r, true
}

func (c *Controller) rollDice(connID, code string) {
	r, ok := c.seatedRoom(connID, code, network.MsgRollDice)
	if !ok {
		return
	}

	res, err := r.Roll(connID, c.dice, c.now())
	if err != nil {
		logger.Log.Debugf("Dropping rollDice from %s in room %s: %v", connID, r.Code, err)
		return
	}

	c.monitor.ObserveRoll(res.Die)
	if res.Bust {
		logger.Log.Debugf("Room %s: rolled 1, turn passes to player %d", r.Code, res.Snapshot.ActivePlayer)
	}

	die := res.Die
	c.broadcast(r, network.MsgUpdateGameState, UpdatePayload{GameState: res.Snapshot, Dice: &die})
}

func (c *Controller) holdScore(connID, code string) {
	r, ok := c.seatedRoom(connID, code, network.MsgHoldScore)
	if !ok {
		return
	}

	now := c.now()
	res, err := r.Hold(connID, now)
	if err != nil {
		logger.Log.Debugf("Dropping holdScore from %s in room %s: %v", connID, r.Code, err)
		return
	}

	if !res.Finished {
		c.broadcast(r, network.MsgUpdateGameState, UpdatePayload{GameState: res.Snapshot})
		return
	}

	logger.Log.Infof("Room %s: player %d wins %d-%d", r.Code, res.Winner,
		res.Snapshot.Scores[res.Winner], res.Snapshot.Scores[1-res.Winner])
	c.monitor.IncGamesFinished(res.Winner)
	c.broadcast(r, network.MsgGameOver, GameOverPayload{GameState: res.Snapshot, Winner: res.Winner})

	if c.recorder != nil {
		c.recorder.Record(models.MatchRecord{
			RoomCode:   r.Code,
			Scores:     res.Snapshot.Scores,
			Winner:     res.Winner,
			Rolls:      r.Rolls(),
			StartedAt:  r.StartedAt(),
			FinishedAt: now,
		})
	}
}

func (c *Controller) newGame(connID, code string) {
	r, ok := c.seatedRoom(connID, code, network.MsgNewGame)
	if !ok {
		return
	}

	if err := r.Reset(c.now()); err != nil {
		logger.Log.Debugf("Dropping newGame from %s in room %s: %v", connID, r.Code, err)
		return
	}

	logger.Log.Infof("Room %s: new game started by %s", r.Code, connID)
	c.announceStart(r)
}

// announceStart tells each seat the shared state and its own player number.
func (c *Controller) announceStart(r *room.Room) {
	snap := r.Snapshot()
	for seat := 0; seat < 2; seat++ {
		connID := r.Connection(seat)
		if connID == "" {
			continue
		}
		c.reply(connID, network.MsgStartGame, StartGamePayload{
			GameState:    snap,
			PlayerNumber: seat,
			RoomCode:     r.Code,
		})
	}
}

// Disconnect tears down the room connID sat in and tells the other player.
func (c *Controller) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code, ok := c.rooms.FindRoomByConnection(connID)
	if !ok {
		return
	}
	r, ok := c.rooms.GetRoom(code)
	if !ok {
		return
	}

	logger.Log.Infof("Session %s left room %s, closing it", connID, code)
	if others := r.Others(connID); len(others) > 0 {
		if err := c.out.Broadcast(others, network.MsgPlayerLeft, PlayerLeftNotice); err != nil {
			logger.Log.Warnf("Room %s: notifying remaining player: %v", code, err)
		}
	}
	c.closeRoom(code, "disconnect")
}

// SweepIdle closes rooms that saw no accepted action for the idle TTL and
// returns how many were closed.
func (c *Controller) SweepIdle(now time.Time) int {
	if c.idleTTL <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	codes := c.rooms.Idle(now.Add(-c.idleTTL))
	for _, code := range codes {
		r, ok := c.rooms.GetRoom(code)
		if !ok {
			continue
		}
		logger.Log.Infof("Room %s idle since %s, closing it", code, r.LastActive.Format(time.RFC3339))
		if err := c.out.Broadcast(r.Connections(), network.MsgRoomExpired, RoomExpiredNotice); err != nil {
			logger.Log.Warnf("Room %s: notifying expiry: %v", code, err)
		}
		c.closeRoom(code, "idle")
	}
	return len(codes)
}

// Rooms summarizes the live rooms.
func (c *Controller) Rooms() []room.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms.Summaries()
}

func (c *Controller) closeRoom(code, reason string) {
	c.rooms.RemoveRoom(code)
	c.monitor.IncRoomsClosed(reason)
	c.monitor.SetActiveRooms(c.rooms.Len())
}

func (c *Controller) reply(connID, msgType string, payload any) {
	if err := c.out.SendTo(connID, msgType, payload); err != nil {
		logger.Log.Warnf("Failed to send %s to %s: %v", msgType, connID, err)
	}
}

func (c *Controller) broadcast(r *room.Room, msgType string, payload any) {
	if err := c.out.Broadcast(r.Connections(), msgType, payload); err != nil {
		logger.Log.Warnf("Room %s: broadcasting %s: %v", r.Code, msgType, err)
	}
}
