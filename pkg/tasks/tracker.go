package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"
)

type Status string

const (
	StatusAccepted   Status = "accepted"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record is the lifecycle state of one long-running generation task. Result
// is set iff completed, Error iff failed; a terminal record never changes
// again.
type Record struct {
	ID         string     `json:"task_id"`
	Status     Status     `json:"status"`
	Progress   string     `json:"progress"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	room string
}

// Work produces the task's result. It runs on a background goroutine; any
// error it returns becomes the task's failure.
type Work func(ctx context.Context) (string, error)

// Publisher pushes task lifecycle events to subscribed clients.
type Publisher interface {
	Publish(room, name string, data any)
}

// DefaultRetention is how long terminal records survive before Sweep may
// remove them.
const DefaultRetention = 24 * time.Hour

// Tracker owns the task registry. All access goes through its lock; there is
// no ambient state, and each submission gets exactly one background unit.
type Tracker struct {
	mu        sync.RWMutex
	records   map[string]*Record
	retention time.Duration
	publisher Publisher
	ctx       context.Context
	wg        sync.WaitGroup
}

func NewTracker(ctx context.Context, publisher Publisher, retention time.Duration) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Tracker{
		records:   make(map[string]*Record),
		retention: retention,
		publisher: publisher,
		ctx:       ctx,
	}
}

// Submit registers a new task and starts its background unit. It returns the
// task id immediately and never blocks on the work itself.
func (t *Tracker) Submit(room string, work Work) string {
	id := ksuid.New().String()
	record := &Record{
		ID:        id,
		Status:    StatusAccepted,
		Progress:  "任务已接受",
		CreatedAt: time.Now().UTC(),
		room:      room,
	}

	t.mu.Lock()
	t.records[id] = record
	t.mu.Unlock()

	t.publish(record, "novel_task_update")

	t.wg.Add(1)
	go t.run(id, work)
	return id
}

// Get returns a copy of the record, if the id is known.
func (t *Tracker) Get(id string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	record, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

func (t *Tracker) run(id string, work Work) {
	defer t.wg.Done()

	t.transition(id, func(r *Record) {
		r.Status = StatusProcessing
		r.Progress = "正在生成"
	}, "novel_task_update")

	// TODO: bound generation with a per-task deadline; a stalled provider
	// call currently occupies this goroutine indefinitely.
	result, err := work(t.ctx)
	now := time.Now().UTC()
	if err != nil {
		log.Error("task failed", "task_id", id, "error", err)
		t.transition(id, func(r *Record) {
			r.Status = StatusFailed
			r.Progress = "生成失败"
			r.Error = err.Error()
			r.FinishedAt = &now
		}, "novel_task_error")
		return
	}

	t.transition(id, func(r *Record) {
		r.Status = StatusCompleted
		r.Progress = "生成完成"
		r.Result = result
		r.FinishedAt = &now
	}, "novel_task_complete")
}

func (t *Tracker) transition(id string, mutate func(*Record), event string) {
	t.mu.Lock()
	record, ok := t.records[id]
	if !ok || record.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	mutate(record)
	snapshot := *record
	t.mu.Unlock()

	t.publish(&snapshot, event)
}

func (t *Tracker) publish(record *Record, event string) {
	if t.publisher == nil {
		return
	}
	t.publisher.Publish(record.room, event, *record)
}

// Sweep removes terminal records older than the retention window and returns
// their ids. Records still accepted or processing are never removed,
// regardless of age.
func (t *Tracker) Sweep() []string {
	cutoff := time.Now().UTC().Add(-t.retention)

	t.mu.Lock()
	defer t.mu.Unlock()

	var removed []string
	for id, record := range t.records {
		if !record.Status.Terminal() || record.FinishedAt == nil {
			continue
		}
		if record.FinishedAt.Before(cutoff) {
			delete(t.records, id)
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		log.Info("swept expired task records", "count", len(removed))
	}
	return removed
}

// Close waits for every background unit to finish.
func (t *Tracker) Close() {
	t.wg.Wait()
}
