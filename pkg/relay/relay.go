package relay

import (
	"github.com/charmbracelet/log"

	"fable/pkg/inference"
)

// StreamPayload is the body of every `<prefix>_data` and `<prefix>_end` event.
type StreamPayload struct {
	Content   string `json:"content,omitempty"`
	Finished  bool   `json:"finished"`
	MessageID int64  `json:"message_id,omitempty"`
}

// ErrorPayload is the body of a `<prefix>_error` event.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Persist writes the assembled text and returns the stored row id. A nil
// Persist means the session has no persistence target.
type Persist func(content string) (int64, error)

// Fallback reruns the same prompt in non-streaming mode after the stream
// breaks mid-flight.
type Fallback func() (string, error)

// Result reports what one relay session did.
type Result struct {
	Content   string
	MessageID int64
	UsedFall  bool
	Err       error
}

// Run consumes the token stream and re-emits each increment on the emitter
// as `<prefix>_data` in arrival order. On clean exhaustion it persists the
// concatenated text (when a target was given) and emits one `<prefix>_end`.
// If the stream breaks it falls back to a single completion: success emits
// one `<prefix>_data` with finished=true, failure emits one
// `<prefix>_error`. Emit failures are ignored; the upstream call is never
// interrupted by a client disconnect.
func Run(prefix string, stream <-chan inference.Chunk, fallback Fallback, emit Emitter, persist Persist) Result {
	var assembled string
	for chunk := range stream {
		if chunk.Err != nil {
			log.Error("stream failed, falling back to single completion", "prefix", prefix, "error", chunk.Err)
			return runFallback(prefix, fallback, emit, persist, chunk.Err)
		}
		assembled += chunk.Content
		_ = emit.Emit(prefix+"_data", StreamPayload{Content: chunk.Content, Finished: false})
	}

	end := StreamPayload{Finished: true}
	var result Result
	if persist != nil && assembled != "" {
		id, err := persist(assembled)
		if err != nil {
			log.Error("failed persisting assembled stream", "prefix", prefix, "error", err)
		} else {
			end.MessageID = id
			result.MessageID = id
		}
	}
	_ = emit.Emit(prefix+"_end", end)
	result.Content = assembled
	return result
}

func runFallback(prefix string, fallback Fallback, emit Emitter, persist Persist, streamErr error) Result {
	if fallback == nil {
		_ = emit.Emit(prefix+"_error", ErrorPayload{Error: streamErr.Error()})
		return Result{UsedFall: true, Err: streamErr}
	}

	content, err := fallback()
	if err != nil {
		_ = emit.Emit(prefix+"_error", ErrorPayload{Error: err.Error()})
		return Result{UsedFall: true, Err: err}
	}

	payload := StreamPayload{Content: content, Finished: true}
	result := Result{Content: content, UsedFall: true}
	if persist != nil && content != "" {
		id, perr := persist(content)
		if perr != nil {
			log.Error("failed persisting fallback completion", "prefix", prefix, "error", perr)
		} else {
			payload.MessageID = id
			result.MessageID = id
		}
	}
	_ = emit.Emit(prefix+"_data", payload)
	return result
}
