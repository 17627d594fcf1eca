package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fable/pkg/inference"
)

type recordingEmitter struct {
	events []Event
}

func (r *recordingEmitter) Emit(event string, data any) error {
	r.events = append(r.events, Event{Name: event, Data: data})
	return nil
}

func chunkStream(chunks ...inference.Chunk) <-chan inference.Chunk {
	out := make(chan inference.Chunk, len(chunks))
	for _, chunk := range chunks {
		out <- chunk
	}
	close(out)
	return out
}

func TestRunEmitsChunksInOrder(t *testing.T) {
	emitter := &recordingEmitter{}
	result := Run("chat_stream", chunkStream(
		inference.Chunk{Content: "He "},
		inference.Chunk{Content: "said."},
	), nil, emitter, nil)

	require.NoError(t, result.Err)
	assert.Equal(t, "He said.", result.Content)
	assert.False(t, result.UsedFall)

	require.Len(t, emitter.events, 3)
	assert.Equal(t, "chat_stream_data", emitter.events[0].Name)
	assert.Equal(t, StreamPayload{Content: "He "}, emitter.events[0].Data)
	assert.Equal(t, "chat_stream_data", emitter.events[1].Name)
	assert.Equal(t, StreamPayload{Content: "said."}, emitter.events[1].Data)
	assert.Equal(t, "chat_stream_end", emitter.events[2].Name)
	assert.Equal(t, StreamPayload{Finished: true}, emitter.events[2].Data)
}

func TestRunPersistsAssembledContent(t *testing.T) {
	emitter := &recordingEmitter{}
	var persisted string
	result := Run("chat_stream", chunkStream(
		inference.Chunk{Content: "全文"},
	), nil, emitter, func(content string) (int64, error) {
		persisted = content
		return 42, nil
	})

	assert.Equal(t, "全文", persisted)
	assert.Equal(t, int64(42), result.MessageID)

	end := emitter.events[len(emitter.events)-1]
	assert.Equal(t, "chat_stream_end", end.Name)
	assert.Equal(t, StreamPayload{Finished: true, MessageID: 42}, end.Data)
}

func TestRunFallsBackOnStreamError(t *testing.T) {
	emitter := &recordingEmitter{}
	result := Run("chat_stream", chunkStream(
		inference.Chunk{Content: "partial "},
		inference.Chunk{Err: errors.New("stream broke")},
	), func() (string, error) {
		return "full reply", nil
	}, emitter, nil)

	require.NoError(t, result.Err)
	assert.True(t, result.UsedFall)
	assert.Equal(t, "full reply", result.Content)

	last := emitter.events[len(emitter.events)-1]
	assert.Equal(t, "chat_stream_data", last.Name)
	assert.Equal(t, StreamPayload{Content: "full reply", Finished: true}, last.Data)

	for _, event := range emitter.events {
		assert.NotEqual(t, "chat_stream_end", event.Name)
		assert.NotEqual(t, "chat_stream_error", event.Name)
	}
}

func TestRunFallbackFailureEmitsError(t *testing.T) {
	emitter := &recordingEmitter{}
	result := Run("chat_stream", chunkStream(
		inference.Chunk{Err: errors.New("stream broke")},
	), func() (string, error) {
		return "", errors.New("provider down")
	}, emitter, nil)

	require.Error(t, result.Err)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, "chat_stream_error", emitter.events[0].Name)
	assert.Equal(t, ErrorPayload{Error: "provider down"}, emitter.events[0].Data)
}

func TestRunNoFallbackEmitsError(t *testing.T) {
	emitter := &recordingEmitter{}
	result := Run("chat_stream", chunkStream(
		inference.Chunk{Err: errors.New("stream broke")},
	), nil, emitter, nil)

	require.Error(t, result.Err)
	require.Len(t, emitter.events, 1)
	assert.Equal(t, "chat_stream_error", emitter.events[0].Name)
}

func TestRunExactlyOneTerminalEvent(t *testing.T) {
	terminal := func(events []Event) int {
		n := 0
		for _, event := range events {
			switch {
			case event.Name == "p_end", event.Name == "p_error":
				n++
			case event.Name == "p_data":
				if payload, ok := event.Data.(StreamPayload); ok && payload.Finished {
					n++
				}
			}
		}
		return n
	}

	clean := &recordingEmitter{}
	Run("p", chunkStream(inference.Chunk{Content: "x"}), nil, clean, nil)
	assert.Equal(t, 1, terminal(clean.events))

	fell := &recordingEmitter{}
	Run("p", chunkStream(inference.Chunk{Err: errors.New("x")}), func() (string, error) { return "y", nil }, fell, nil)
	assert.Equal(t, 1, terminal(fell.events))

	failed := &recordingEmitter{}
	Run("p", chunkStream(inference.Chunk{Err: errors.New("x")}), nil, failed, nil)
	assert.Equal(t, 1, terminal(failed.events))
}

func TestBrokerPublishReachesRoomSubscribers(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("room-1")
	other := broker.Subscribe("room-2")
	defer broker.Unsubscribe(other)

	broker.Publish("room-1", "novel_task_update", "payload")

	event := <-sub.Events()
	assert.Equal(t, "novel_task_update", event.Name)
	assert.Equal(t, "payload", event.Data)
	assert.Empty(t, other.Events())

	broker.Unsubscribe(sub)
	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("room")
	defer broker.Unsubscribe(sub)

	for i := 0; i < subscriberBuffer+10; i++ {
		broker.Publish("room", "event", i)
	}
	assert.Len(t, sub.Events(), subscriberBuffer)
}

func TestBrokerRoomEmitter(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("room")
	defer broker.Unsubscribe(sub)

	require.NoError(t, broker.Room("room").Emit("joined", map[string]string{"room": "room"}))
	event := <-sub.Events()
	assert.Equal(t, "joined", event.Name)
}

func TestBrokerDefaultRoom(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe("")
	defer broker.Unsubscribe(sub)
	assert.Equal(t, DefaultRoom, sub.Room())

	broker.Publish("", "event", nil)
	event := <-sub.Events()
	assert.Equal(t, "event", event.Name)
}
