package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/pigdice/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	Sent   []network.Message
	Closed bool
}

func (m *MockConnection) Send(msg network.Message) error {
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MockConnection) Close() error {
	m.Closed = true
	return nil
}

func (m *MockConnection) RemoteAddr() net.Addr                   { return &net.TCPAddr{} }
func (m *MockConnection) ReadMessage() (*network.Message, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	if _, exists = manager.Get(sessionID); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_CloseAll(t *testing.T) {
	manager := NewManager()
	conns := []*MockConnection{{}, {}}
	manager.Add(NewSession("a", conns[0]))
	manager.Add(NewSession("b", conns[1]))

	manager.CloseAll()

	for i, c := range conns {
		if !c.Closed {
			t.Errorf("Expected connection %d to be closed", i)
		}
	}
}

func TestSession_SendAndTouch(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn)
	before := sess.LastActive()

	msg, _ := network.NewMessage(network.MsgGameCreated, "ABCDE")
	if err := sess.Send(msg); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.Sent) != 1 || conn.Sent[0].Type != network.MsgGameCreated {
		t.Errorf("Expected one gameCreated message on the connection, got %v", conn.Sent)
	}

	time.Sleep(time.Millisecond)
	sess.Touch()
	if !sess.LastActive().After(before) {
		t.Error("Touch should advance LastActive")
	}
}
