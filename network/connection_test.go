package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newEchoServer upgrades each request and echoes every message back through WSConnection.
func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewWSConnection(ws, Options{SendQueueSize: 4})
		defer conn.Close()
		for {
			msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.Send(*msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestWSConnection_RoundTrip(t *testing.T) {
	srv := newEchoServer(t)
	c := dial(t, srv)

	out, err := NewMessage(MsgJoinGame, "ABCDE")
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if err := c.WriteJSON(out); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	var in Message
	if err := c.ReadJSON(&in); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if in.Type != MsgJoinGame {
		t.Errorf("Expected type %s, got %s", MsgJoinGame, in.Type)
	}
	var code string
	if err := json.Unmarshal(in.Payload, &code); err != nil || code != "ABCDE" {
		t.Errorf("Expected payload ABCDE, got %s (%v)", in.Payload, err)
	}
}

func TestNewMessage_NilPayload(t *testing.T) {
	msg, err := NewMessage(MsgCreateGame, nil)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	data, _ := json.Marshal(msg)
	if string(data) != `{"type":"createGame"}` {
		t.Errorf("Expected payload to be omitted, got %s", data)
	}
}

func TestWSConnection_SendAfterClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ready := make(chan *WSConnection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ready <- NewWSConnection(ws, Options{})
	}))
	defer srv.Close()
	dial(t, srv)

	conn := <-ready
	if err := conn.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	conn.Close()

	msg, _ := NewMessage(MsgPlayerLeft, "bye")
	if err := conn.Send(msg); err != ErrConnectionClosed {
		t.Errorf("Expected ErrConnectionClosed, got %v", err)
	}
}

func TestWSConnection_MalformedFrame(t *testing.T) {
	upgrader := websocket.Upgrader{}
	results := make(chan error, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewWSConnection(ws, Options{})
		defer conn.Close()
		for i := 0; i < 2; i++ {
			_, err := conn.ReadMessage()
			results <- err
		}
	}))
	defer srv.Close()
	c := dial(t, srv)

	c.WriteMessage(websocket.TextMessage, []byte("not json"))
	c.WriteMessage(websocket.TextMessage, []byte(`{"type":"rollDice"}`))

	if err := <-results; !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("Expected ErrMalformedMessage, got %v", err)
	}
	if err := <-results; err != nil {
		t.Errorf("Expected the connection to stay usable, got %v", err)
	}
}
