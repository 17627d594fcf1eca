package prompt

import (
	"fmt"

	"fable/pkg/inference"
)

// Chat renders the synchronous story-continuation prompt.
func Chat(b Bundle) []inference.Message {
	system := fmt.Sprintf(chatPromptFmt,
		orDefault(b.Worldview, placeholderWorldview),
		b.MasterSetting,
		b.MainCharacters.RenderOr(placeholderRoster),
		orDefault(b.Background, placeholderScene),
		renderHistory(b.History),
	)
	return []inference.Message{
		inference.System(system),
		inference.User(continueInstruction),
	}
}

// ChatStream renders the streaming continuation prompt, which additionally
// carries the plot analysis and guide fields.
func ChatStream(b Bundle) []inference.Message {
	system := fmt.Sprintf(chatStreamPromptFmt,
		orDefault(b.Worldview, placeholderWorldview),
		b.MasterSetting,
		b.MainCharacters.RenderOr(placeholderRoster),
		orDefault(b.Background, placeholderPlayer),
		orDefault(b.StoryAnalysis, placeholderAnalysis),
		orDefault(b.StoryGuide, placeholderGuide),
		renderHistory(b.History),
	)
	return []inference.Message{
		inference.System(system),
		inference.User(continueInstruction),
	}
}

// Suggestions renders the six-reply suggestion prompt.
func Suggestions(b Bundle) []inference.Message {
	system := fmt.Sprintf(suggestionsPromptFmt,
		orDefault(b.Worldview, placeholderWorldview),
		orDefault(b.MasterSetting, placeholderMaster),
		b.MainCharacters.Render(),
		orDefault(b.Background, placeholderScene),
		renderHistory(b.History),
	)
	return []inference.Message{
		inference.System(system),
		inference.User(suggestionsInstruction),
	}
}

// Analyze renders the plot-analysis prompt.
func Analyze(b Bundle) []inference.Message {
	system := fmt.Sprintf(analyzePromptFmt,
		orDefault(b.Worldview, placeholderWorldview),
		b.MasterSetting,
		b.MainCharacters.RenderOr(placeholderRoster),
		orDefault(b.Background, placeholderPlayer),
		renderHistory(b.History),
	)
	return []inference.Message{
		inference.System(system),
		inference.User(analyzeInstruction),
	}
}

// Novel renders the long-form prose generation prompt. The user prompt is
// the caller-supplied premise; the context goes in as a second system turn.
func Novel(b Bundle, userPrompt string) []inference.Message {
	context := fmt.Sprintf(novelContextFmt,
		b.Worldview,
		b.MasterSetting,
		b.MainCharacters.Render(),
		b.Background,
	)
	return []inference.Message{
		inference.System(novelSystemPrompt),
		inference.System(context),
		inference.User(userPrompt),
	}
}

// WorldCreator renders the collaborative world-building prompt around a
// free-form user message and prior exchange.
func WorldCreator(message string, history []inference.Message) []inference.Message {
	out := make([]inference.Message, 0, len(history)+2)
	out = append(out, inference.System(worldCreatorPrompt))
	for _, msg := range history {
		switch msg.Role {
		case inference.RoleAssistant, "ai":
			out = append(out, inference.Assistant(msg.Content))
		default:
			out = append(out, inference.User(msg.Content))
		}
	}
	out = append(out, inference.User(message))
	return out
}
