package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"fable/pkg/inference"
	"fable/pkg/schema"
	"fable/pkg/store"
	"fable/pkg/utils"
)

// Bundle is the normalized context a prompt is rendered from: the world's
// setting fields, the character roster, and the recent conversation.
type Bundle struct {
	Worldview      string              `json:"worldview"`
	MasterSetting  string              `json:"master_sitting"`
	Background     string              `json:"background"`
	StoryAnalysis  string              `json:"story_analysis"`
	StoryGuide     string              `json:"story_guide"`
	MainCharacters schema.Roster       `json:"main_characters"`
	History        []inference.Message `json:"messages"`
}

// historyTokenBudget bounds how much conversation history is inlined into a
// prompt. Oldest turns are dropped first.
const historyTokenBudget = 6144

// Assemble builds a context bundle for a chapter: the chapter's background,
// its world's setting fields and character roster, and the full message
// history, trimmed to the token budget.
func Assemble(ctx context.Context, st *store.Store, chapterID int64) (Bundle, error) {
	detail, err := st.GetChapterDetail(ctx, chapterID)
	if err != nil {
		return Bundle{}, err
	}
	messages, err := st.ListMessages(ctx, chapterID)
	if err != nil {
		return Bundle{}, err
	}

	history := make([]inference.Message, 0, len(messages))
	for _, msg := range messages {
		history = append(history, inference.Message{Role: msg.Role, Content: msg.Content})
	}

	return Bundle{
		Worldview:      detail.Worldview,
		MasterSetting:  detail.MasterSitting,
		Background:     detail.Background,
		MainCharacters: schema.RosterFromCharacters(detail.MainCharacters),
		History:        TrimHistory(history, historyTokenBudget),
	}, nil
}

// TrimHistory drops the oldest turns until the remainder fits the token
// budget. The newest turn is always kept.
func TrimHistory(history []inference.Message, budget int) []inference.Message {
	if len(history) == 0 {
		return history
	}
	total := 0
	keepFrom := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		total += messageTokens(history[i])
		if total > budget && keepFrom < len(history) {
			break
		}
		keepFrom = i
	}
	return history[keepFrom:]
}

func messageTokens(msg inference.Message) int {
	n, err := utils.NumTokens(msg.Content)
	if err != nil {
		return utf8.RuneCountInString(msg.Content)
	}
	return n
}

// renderHistory serializes the conversation as a JSON array for prompt
// inlining, or the placeholder when empty. HTML escaping is disabled so CJK
// punctuation and quotes survive verbatim.
func renderHistory(history []inference.Message) string {
	if len(history) == 0 {
		return placeholderHistory
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(history); err != nil {
		return placeholderHistory
	}
	return strings.TrimSpace(buf.String())
}

func orDefault(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
