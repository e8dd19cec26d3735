package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor("pigdice_test")

	m.IncOnlinePlayers()
	m.IncOnlinePlayers()
	m.DecOnlinePlayers()
	m.SetActiveRooms(3)
	m.IncMessagesReceived("rollDice")
	m.IncMessagesReceived("rollDice")
	m.ObserveRoll(1)
	m.ObserveRoll(6)
	m.ObserveRoll(6)
	m.IncGamesFinished(1)
	m.IncRoomsClosed("disconnect")
	m.ObserveMessageLatency(time.Millisecond)

	metrics := m.Metrics()
	if got := testutil.ToFloat64(metrics.OnlinePlayers); got != 1 {
		t.Errorf("Expected 1 online player, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.ActiveRooms); got != 3 {
		t.Errorf("Expected 3 active rooms, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.MessagesReceived.WithLabelValues("rollDice")); got != 2 {
		t.Errorf("Expected 2 rollDice messages, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.DiceRolled.WithLabelValues("6")); got != 2 {
		t.Errorf("Expected two sixes, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.GamesFinished.WithLabelValues("1")); got != 1 {
		t.Errorf("Expected one win for seat 1, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.RoomsClosed.WithLabelValues("disconnect")); got != 1 {
		t.Errorf("Expected one disconnect closure, got %v", got)
	}
}

func TestMonitor_IndependentRegistries(t *testing.T) {
	// Two monitors in one process must not collide on registration.
	NewMonitor("pigdice_a")
	NewMonitor("pigdice_a")
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("pigdice_http")
	m.SetActiveRooms(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pigdice_http_active_rooms 2") {
		t.Errorf("Expected active_rooms gauge in output, got:\n%s", rec.Body.String())
	}
}
