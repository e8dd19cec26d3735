package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/wfunc/pigdice/logger"
	"github.com/wfunc/pigdice/models"
)

const saveTimeout = 5 * time.Second

// Recorder writes match records on its own goroutine so that callers on the
// game path never wait for the database.
type Recorder struct {
	db      Database
	queue   chan models.MatchRecord
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

func NewRecorder(db Database, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 128
	}
	r := &Recorder{
		db:    db,
		queue: make(chan models.MatchRecord, queueSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues rec. It reports false when the queue is full or the recorder is closed.
func (r *Recorder) Record(rec models.MatchRecord) bool {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return false
	}

	select {
	case r.queue <- rec:
		return true
	default:
		logger.Log.Warnf("Match record queue full, dropping record for room %s", rec.RoomCode)
		return false
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := r.db.SaveMatch(ctx, rec); err != nil {
			logger.Log.Errorf("Failed to save match for room %s: %v", rec.RoomCode, err)
		}
		cancel()
	}
}

// Close drains the queue and waits for pending writes. It does not close the database.
func (r *Recorder) Close() {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.closeMu.Unlock()

	<-r.done
}
