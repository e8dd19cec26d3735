// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type TimerTask struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type TimerQueue []*TimerTask

func (q TimerQueue) Len() int { return len(q) }

func (q TimerQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q TimerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *TimerQueue) Push(x interface{}) {
	task := x.(*TimerTask)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *TimerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[0 : n-1]
	return task
}

// TimerManager runs callbacks after a delay, optionally repeating. Due tasks
// are checked every resolution tick; callbacks run on their own goroutines.
type TimerManager struct {
	queue      TimerQueue
	mutex      sync.Mutex
	nextID     int64
	resolution time.Duration
	stop       chan struct{}
	exited     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewTimerManager(resolution time.Duration) *TimerManager {
	if resolution <= 0 {
		resolution = 100 * time.Millisecond
	}
	m := &TimerManager{
		queue:      make(TimerQueue, 0),
		nextID:     1,
		resolution: resolution,
		stop:       make(chan struct{}),
		exited:     make(chan struct{}),
	}
	heap.Init(&m.queue)
	go m.process()
	return m
}

// AddTimer schedules callback after delay. A positive interval repeats it.
func (m *TimerManager) AddTimer(delay time.Duration, interval time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	task := &TimerTask{
		ID:       m.nextID,
		Execute:  time.Now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	m.nextID++

	heap.Push(&m.queue, task)
	return task.ID
}

// RemoveTimer cancels a pending task. Unknown ids are ignored.
func (m *TimerManager) RemoveTimer(timerID int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, task := range m.queue {
		if task.ID == timerID {
			heap.Remove(&m.queue, i)
			return
		}
	}
}

// Pending is the number of scheduled tasks.
func (m *TimerManager) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.queue.Len()
}

// Stop halts the scheduler and waits for running callbacks to return.
func (m *TimerManager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.exited
	m.wg.Wait()
}

func (m *TimerManager) process() {
	defer close(m.exited)
	ticker := time.NewTicker(m.resolution)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			for _, task := range m.due(now) {
				m.wg.Add(1)
				go func(fn func()) {
					defer m.wg.Done()
					fn()
				}(task.Callback)
			}
		case <-m.stop:
			return
		}
	}
}

// due pops every task whose time has come and reschedules repeating ones.
func (m *TimerManager) due(now time.Time) []*TimerTask {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var ready []*TimerTask
	var again []*TimerTask
	for m.queue.Len() > 0 {
		task := m.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&m.queue)
		ready = append(ready, task)
		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			again = append(again, task)
		}
	}
	for _, task := range again {
		heap.Push(&m.queue, task)
	}
	return ready
}
