package broadcast

import (
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/wfunc/pigdice/network"
	"github.com/wfunc/pigdice/session"
)

// MockConnection records what is sent to it.
type MockConnection struct {
	Sent []network.Message
	Err  error
}

func (m *MockConnection) Send(msg network.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockConnection) Close() error                           { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                   { return &net.TCPAddr{} }
func (m *MockConnection) ReadMessage() (*network.Message, error) { return nil, nil }

func setup(ids ...string) (*SessionBroadcaster, map[string]*MockConnection) {
	manager := session.NewManager()
	conns := make(map[string]*MockConnection)
	for _, id := range ids {
		c := &MockConnection{}
		conns[id] = c
		manager.Add(session.NewSession(id, c))
	}
	return NewSessionBroadcaster(manager), conns
}

func TestSessionBroadcaster_SendTo(t *testing.T) {
	b, conns := setup("a", "b")

	if err := b.SendTo("a", network.MsgGameCreated, "ABCDE"); err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}
	if len(conns["a"].Sent) != 1 {
		t.Fatalf("Expected one message for a, got %d", len(conns["a"].Sent))
	}
	if len(conns["b"].Sent) != 0 {
		t.Errorf("SendTo must not reach other sessions, b got %d", len(conns["b"].Sent))
	}

	var code string
	json.Unmarshal(conns["a"].Sent[0].Payload, &code)
	if code != "ABCDE" {
		t.Errorf("Expected payload ABCDE, got %q", code)
	}
}

func TestSessionBroadcaster_SendToUnknown(t *testing.T) {
	b, _ := setup()
	if err := b.SendTo("ghost", network.MsgError, "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionBroadcaster_Broadcast(t *testing.T) {
	b, conns := setup("a", "b", "c")
	conns["b"].Err = network.ErrSendQueueFull

	err := b.Broadcast([]string{"a", "b", "c", "ghost"}, network.MsgPlayerLeft, "bye")
	if !errors.Is(err, network.ErrSendQueueFull) || !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected joined send and lookup errors, got %v", err)
	}
	if len(conns["a"].Sent) != 1 || len(conns["c"].Sent) != 1 {
		t.Error("A failing recipient must not stop delivery to the others")
	}
}
