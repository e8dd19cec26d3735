package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/pigdice/broadcast"
	"github.com/wfunc/pigdice/controller"
	"github.com/wfunc/pigdice/dice"
	"github.com/wfunc/pigdice/monitor"
	"github.com/wfunc/pigdice/network"
	"github.com/wfunc/pigdice/room"
	"github.com/wfunc/pigdice/session"
)

func newTestServer(t *testing.T, src dice.Source) (*GameServer, *httptest.Server) {
	t.Helper()
	sessions := session.NewManager()
	mon := monitor.NewMonitor("pigdice_server_test")
	ctrl := controller.New(
		room.NewRoomManager(src, room.Options{}),
		src,
		broadcast.NewSessionBroadcaster(sessions),
		nil,
		mon,
		controller.Options{},
	)
	gs := NewGameServer(Options{Connection: network.Options{SendQueueSize: 16}}, ctrl, sessions, mon, nil)
	srv := httptest.NewServer(gs.Handler())
	t.Cleanup(srv.Close)
	return gs, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg, err := network.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if err := c.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
}

func expect(t *testing.T, c *websocket.Conn, msgType string, payload any) {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg network.Message
	if err := c.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed waiting for %s: %v", msgType, err)
	}
	if msg.Type != msgType {
		t.Fatalf("Expected %s, got %s %s", msgType, msg.Type, msg.Payload)
	}
	if payload != nil {
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			t.Fatalf("Decoding %s payload failed: %v", msgType, err)
		}
	}
}

func TestGameServer_PlayOverWebsocket(t *testing.T) {
	src := &dice.Scripted{Codes: []string{"PIGGY"}, Faces: []int{5, 1}}
	_, srv := newTestServer(t, src)
	host := dial(t, srv)
	guest := dial(t, srv)

	send(t, host, network.MsgCreateGame, nil)
	var code string
	expect(t, host, network.MsgGameCreated, &code)
	if code != "PIGGY" {
		t.Fatalf("Expected code PIGGY, got %q", code)
	}

	send(t, guest, network.MsgJoinGame, "piggy")
	var hostStart, guestStart controller.StartGamePayload
	expect(t, host, network.MsgStartGame, &hostStart)
	expect(t, guest, network.MsgStartGame, &guestStart)
	if hostStart.PlayerNumber != 0 || guestStart.PlayerNumber != 1 {
		t.Errorf("Expected player numbers 0 and 1, got %d and %d", hostStart.PlayerNumber, guestStart.PlayerNumber)
	}

	send(t, host, network.MsgRollDice, code)
	var update controller.UpdatePayload
	expect(t, guest, network.MsgUpdateGameState, &update)
	if update.Dice == nil || *update.Dice != 5 || update.GameState.CurrentScore != 5 {
		t.Errorf("Unexpected update %+v", update)
	}
	expect(t, host, network.MsgUpdateGameState, nil)

	send(t, host, network.MsgRollDice, code)
	expect(t, host, network.MsgUpdateGameState, &update)
	if update.GameState.ActivePlayer != 1 || update.GameState.CurrentScore != 0 {
		t.Errorf("Expected a bust to pass the turn, got %+v", update.GameState)
	}
	expect(t, guest, network.MsgUpdateGameState, nil)

	guest.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	guest.Close()
	var notice string
	expect(t, host, network.MsgPlayerLeft, &notice)
	if notice != controller.PlayerLeftNotice {
		t.Errorf("Unexpected notice %q", notice)
	}
}

func TestGameServer_JoinUnknownRoom(t *testing.T) {
	_, srv := newTestServer(t, dice.New(7))
	c := dial(t, srv)

	c.WriteMessage(websocket.TextMessage, []byte("garbage"))
	send(t, c, network.MsgJoinGame, "ZZZZZ")

	var payload controller.ErrorPayload
	expect(t, c, network.MsgError, &payload)
	if payload.Code != controller.CodeRoomNotFound {
		t.Errorf("Expected %s, got %+v", controller.CodeRoomNotFound, payload)
	}
}

func TestGameServer_HealthAndMetrics(t *testing.T) {
	gs, srv := newTestServer(t, dice.New(7))

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "pigdice_server_test_online_players") {
		t.Errorf("Expected online players gauge in metrics output")
	}

	if err := gs.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 after shutdown, got %d", resp.StatusCode)
	}
}
