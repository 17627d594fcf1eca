package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

type GeminiInferencer struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiInferencer creates an inferencer backed by the Gemini API.
func NewGeminiInferencer(apiKey string, model string) (*GeminiInferencer, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiInferencer{
		client: client,
		apiKey: apiKey,
		model:  model,
	}, nil
}

func (g *GeminiInferencer) SetModel(model string) {
	g.model = model
}

func (g *GeminiInferencer) split(params *openai.ChatCompletionNewParams, messages []Message) (string, []*genai.Content, *genai.GenerateContentConfig) {
	if params == nil {
		params = new(openai.ChatCompletionNewParams)
	}

	var system []string
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(cmp.Or(params.MaxCompletionTokens.Value, 4096)),
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleModel)
	}
	if params.Temperature.Value != 0 {
		config.Temperature = genai.Ptr(float32(params.Temperature.Value))
	}

	return cmp.Or(params.Model, g.model), contents, config
}

func (g *GeminiInferencer) Complete(ctx context.Context, params *openai.ChatCompletionNewParams, messages []Message) (string, error) {
	model, contents, config := g.split(params, messages)

	result, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if result.Text() == "" {
		return "", errors.New("empty completion content")
	}
	return result.Text(), nil
}

func (g *GeminiInferencer) Stream(ctx context.Context, params *openai.ChatCompletionNewParams, messages []Message) <-chan Chunk {
	model, contents, config := g.split(params, messages)
	out := make(chan Chunk)

	go func() {
		defer close(out)
		for result, err := range g.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				select {
				case out <- Chunk{Err: fmt.Errorf("failed to stream content: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			if text := result.Text(); text != "" {
				select {
				case out <- Chunk{Content: text}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
