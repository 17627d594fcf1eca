package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no language", "```\n[1,2]\n```", "[1,2]"},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.input))
		})
	}
}

func TestLimitStr(t *testing.T) {
	assert.Equal(t, "hello", LimitStr("hello", 10))
	assert.Equal(t, "hel...", LimitStr("hello world", 3))
}

func TestErrJSON(t *testing.T) {
	body := ErrJSON("boom")
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "boom", body["error"])
}

func TestSSEWriterFraming(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	sse, err := NewSSEWriter(c)
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	require.NoError(t, sse.Emit("chat_stream_data", map[string]any{"content": "你好", "finished": false}))
	require.NoError(t, sse.Emit("raw", "plain"))
	sse.Close()

	body := rec.Body.String()
	assert.Contains(t, body, "event: chat_stream_data\ndata: {\"content\":\"你好\",\"finished\":false}\n\n")
	assert.Contains(t, body, "event: raw\ndata: plain\n\n")
	assert.Contains(t, body, "event: close")

	// emits after close are dropped
	require.NoError(t, sse.Emit("late", "x"))
	assert.Equal(t, body, rec.Body.String())
}
