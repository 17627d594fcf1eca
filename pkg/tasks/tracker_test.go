package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	room string
	name string
	data Record
}

func (p *recordingPublisher) Publish(room, name string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record, _ := data.(Record)
	p.events = append(p.events, publishedEvent{room: room, name: name, data: record})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.name)
	}
	return out
}

func waitForStatus(t *testing.T, tracker *Tracker, id string, status Status) Record {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := tracker.Get(id)
		if ok && record.Status == status {
			return record
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for status %s", status)
	return Record{}
}

func TestSubmitLifecycleSuccess(t *testing.T) {
	publisher := &recordingPublisher{}
	tracker := NewTracker(context.Background(), publisher, DefaultRetention)

	release := make(chan struct{})
	id := tracker.Submit("room-1", func(ctx context.Context) (string, error) {
		<-release
		return "第一章 雪夜", nil
	})

	record, ok := tracker.Get(id)
	require.True(t, ok)
	assert.Contains(t, []Status{StatusAccepted, StatusProcessing}, record.Status)
	assert.False(t, record.Status.Terminal())

	waitForStatus(t, tracker, id, StatusProcessing)
	close(release)
	final := waitForStatus(t, tracker, id, StatusCompleted)

	assert.Equal(t, "第一章 雪夜", final.Result)
	assert.Empty(t, final.Error)
	require.NotNil(t, final.FinishedAt)

	tracker.Close()
	assert.Equal(t, []string{"novel_task_update", "novel_task_update", "novel_task_complete"}, publisher.names())
	last := publisher.events[len(publisher.events)-1]
	assert.Equal(t, "room-1", last.room)
	assert.Equal(t, "第一章 雪夜", last.data.Result)
}

func TestSubmitLifecycleFailure(t *testing.T) {
	publisher := &recordingPublisher{}
	tracker := NewTracker(context.Background(), publisher, DefaultRetention)

	id := tracker.Submit("room-1", func(ctx context.Context) (string, error) {
		return "", errors.New("provider down")
	})
	final := waitForStatus(t, tracker, id, StatusFailed)

	assert.Equal(t, "provider down", final.Error)
	assert.Empty(t, final.Result)
	require.NotNil(t, final.FinishedAt)

	tracker.Close()
	names := publisher.names()
	assert.Equal(t, "novel_task_error", names[len(names)-1])
}

func TestSubmitDoesNotBlock(t *testing.T) {
	tracker := NewTracker(context.Background(), nil, DefaultRetention)

	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	id := tracker.Submit("", func(ctx context.Context) (string, error) {
		<-release
		return "", nil
	})
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.NotEmpty(t, id)
}

func TestGetUnknownTask(t *testing.T) {
	tracker := NewTracker(context.Background(), nil, DefaultRetention)
	_, ok := tracker.Get("no-such-task")
	assert.False(t, ok)
}

func TestTerminalRecordNeverChanges(t *testing.T) {
	tracker := NewTracker(context.Background(), nil, DefaultRetention)

	id := tracker.Submit("", func(ctx context.Context) (string, error) {
		return "done", nil
	})
	final := waitForStatus(t, tracker, id, StatusCompleted)
	tracker.Close()

	tracker.transition(id, func(r *Record) {
		r.Status = StatusFailed
		r.Error = "late mutation"
	}, "novel_task_error")

	record, ok := tracker.Get(id)
	require.True(t, ok)
	assert.Equal(t, final.Status, record.Status)
	assert.Empty(t, record.Error)
}

func TestSweepRemovesOnlyExpiredTerminalRecords(t *testing.T) {
	tracker := NewTracker(context.Background(), nil, time.Hour)

	expiredID := tracker.Submit("", func(ctx context.Context) (string, error) { return "old", nil })
	freshID := tracker.Submit("", func(ctx context.Context) (string, error) { return "new", nil })

	running := make(chan struct{})
	defer close(running)
	runningID := tracker.Submit("", func(ctx context.Context) (string, error) {
		<-running
		return "", nil
	})

	waitForStatus(t, tracker, expiredID, StatusCompleted)
	waitForStatus(t, tracker, freshID, StatusCompleted)

	// age one terminal record past the retention window
	tracker.mu.Lock()
	old := time.Now().UTC().Add(-2 * time.Hour)
	tracker.records[expiredID].FinishedAt = &old
	tracker.mu.Unlock()

	removed := tracker.Sweep()
	assert.Equal(t, []string{expiredID}, removed)

	_, ok := tracker.Get(expiredID)
	assert.False(t, ok)
	_, ok = tracker.Get(freshID)
	assert.True(t, ok)
	_, ok = tracker.Get(runningID)
	assert.True(t, ok, "in-flight record must survive sweep regardless of age")

	// idempotent
	assert.Empty(t, tracker.Sweep())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusAccepted.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
