package utils

import (
	"github.com/pkoukk/tiktoken-go"
)

// NumTokens estimates the token count of text using the gpt-4 encoding. The
// upstream models tokenize differently but the estimate is close enough for
// trimming history to a budget.
func NumTokens(text string) (int, error) {
	tkm, err := tiktoken.EncodingForModel("gpt-4-0613")
	if err != nil {
		return 0, err
	}
	return len(tkm.Encode(text, nil, nil)), nil
}
