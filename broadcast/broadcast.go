// broadcast/broadcast.go
package broadcast

import (
	"errors"
	"fmt"

	"github.com/wfunc/pigdice/network"
	"github.com/wfunc/pigdice/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Broadcaster delivers outbound messages to one or several sessions.
type Broadcaster interface {
	SendTo(sessionID, msgType string, payload any) error
	Broadcast(sessionIDs []string, msgType string, payload any) error
}

// SessionBroadcaster resolves session ids through the session manager.
type SessionBroadcaster struct {
	sessionManager *session.Manager
}

func NewSessionBroadcaster(sessionManager *session.Manager) *SessionBroadcaster {
	return &SessionBroadcaster{sessionManager: sessionManager}
}

func (b *SessionBroadcaster) SendTo(sessionID, msgType string, payload any) error {
	msg, err := network.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return b.deliver(sessionID, msg)
}

// Broadcast encodes payload once and sends it to every listed session.
// Delivery failures do not stop the remaining sends; they are joined into the result.
func (b *SessionBroadcaster) Broadcast(sessionIDs []string, msgType string, payload any) error {
	msg, err := network.NewMessage(msgType, payload)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range sessionIDs {
		if err := b.deliver(id, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *SessionBroadcaster) deliver(sessionID string, msg network.Message) error {
	s, ok := b.sessionManager.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err := s.Send(msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", msg.Type, sessionID, err)
	}
	return nil
}
