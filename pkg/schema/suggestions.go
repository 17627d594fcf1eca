package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

// Suggestion is one candidate reply the model proposes for the player's
// next turn.
type Suggestion struct {
	Content string `json:"content" jsonschema_description:"One possible next reply for the player, 20-80 characters"`
}

type SuggestionList struct {
	Suggestions []Suggestion `json:"suggestions" jsonschema_description:"Exactly six distinct reply suggestions continuing the current scene"`
}

var suggestionListSchema = generateSchema[SuggestionList]()

// SuggestionsResponseFormat constrains the suggestions completion to a JSON
// payload matching SuggestionList.
func SuggestionsResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "reply_suggestions",
		Description: openai.String("Reply suggestions continuing an interactive story"),
		Schema:      suggestionListSchema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}
