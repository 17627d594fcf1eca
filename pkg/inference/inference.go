package inference

import (
	"context"

	"github.com/openai/openai-go/v3"
)

// Message is one role-tagged turn sent to the completion provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Chunk is one increment of a streamed completion. A chunk with Err set is
// terminal; the channel closes after it.
type Chunk struct {
	Content string
	Err     error
}

// Inferencer runs chat completions against a model provider, either in one
// shot or as an incremental stream.
type Inferencer interface {
	Complete(ctx context.Context, params *openai.ChatCompletionNewParams, messages []Message) (string, error)
	Stream(ctx context.Context, params *openai.ChatCompletionNewParams, messages []Message) <-chan Chunk
}
