package prompt

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fable/pkg/inference"
	"fable/pkg/schema"
	"fable/pkg/store"
)

func rosterFrom(t *testing.T, raw string) schema.Roster {
	t.Helper()
	var roster schema.Roster
	require.NoError(t, json.Unmarshal([]byte(raw), &roster))
	return roster
}

func TestChatFillsPlaceholders(t *testing.T) {
	messages := Chat(Bundle{})
	require.Len(t, messages, 2)
	assert.Equal(t, inference.RoleSystem, messages[0].Role)
	assert.Equal(t, inference.RoleUser, messages[1].Role)

	system := messages[0].Content
	assert.Contains(t, system, placeholderWorldview)
	assert.Contains(t, system, placeholderRoster)
	assert.Contains(t, system, placeholderScene)
	assert.Contains(t, system, placeholderHistory)
	assert.Equal(t, continueInstruction, messages[1].Content)
}

func TestChatUsesProvidedContext(t *testing.T) {
	bundle := Bundle{
		Worldview:      "灵气复苏的古代世界",
		MasterSetting:  "林惊羽，青云门大师兄",
		Background:     "雪夜入城",
		MainCharacters: rosterFrom(t, `["苏荷", "陆雪琪"]`),
		History: []inference.Message{
			{Role: "user", Content: "你是谁？"},
			{Role: "ai", Content: "正文：他抬起头。"},
		},
	}
	system := Chat(bundle)[0].Content
	assert.Contains(t, system, "灵气复苏的古代世界")
	assert.Contains(t, system, "林惊羽，青云门大师兄")
	assert.Contains(t, system, "苏荷, 陆雪琪")
	assert.Contains(t, system, "雪夜入城")
	assert.Contains(t, system, `"你是谁？"`)
	assert.NotContains(t, system, placeholderWorldview)
	assert.NotContains(t, system, placeholderHistory)
}

func TestChatStreamCarriesAnalysisAndGuide(t *testing.T) {
	bundle := Bundle{
		StoryAnalysis: "两人初遇，互生戒心",
		StoryGuide:    "引导玩家进入客栈",
	}
	system := ChatStream(bundle)[0].Content
	assert.Contains(t, system, "两人初遇，互生戒心")
	assert.Contains(t, system, "引导玩家进入客栈")

	empty := ChatStream(Bundle{})[0].Content
	assert.Contains(t, empty, placeholderAnalysis)
	assert.Contains(t, empty, placeholderGuide)
	assert.Contains(t, empty, placeholderPlayer)
}

func TestSuggestionsPlaceholders(t *testing.T) {
	system := Suggestions(Bundle{})[0].Content
	assert.Contains(t, system, placeholderWorldview)
	assert.Contains(t, system, placeholderMaster)
	assert.Contains(t, system, placeholderScene)

	messages := Suggestions(Bundle{})
	assert.Equal(t, suggestionsInstruction, messages[1].Content)
}

func TestNovelMessageShape(t *testing.T) {
	bundle := Bundle{
		Worldview:     "九州",
		MasterSetting: "林惊羽",
	}
	messages := Novel(bundle, "写一段雪夜打斗")
	require.Len(t, messages, 3)
	assert.Equal(t, inference.RoleSystem, messages[0].Role)
	assert.Equal(t, inference.RoleSystem, messages[1].Role)
	assert.Equal(t, inference.RoleUser, messages[2].Role)
	assert.Contains(t, messages[1].Content, "世界观：九州")
	assert.Contains(t, messages[1].Content, "主控设定：林惊羽")
	assert.Equal(t, "写一段雪夜打斗", messages[2].Content)
}

func TestWorldCreatorThreadsHistory(t *testing.T) {
	history := []inference.Message{
		{Role: "user", Content: "我想要一个蒸汽朋克世界"},
		{Role: "ai", Content: "齿轮之城的轮廓浮现"},
	}
	messages := WorldCreator("加一条空中商路", history)
	require.Len(t, messages, 4)
	assert.Equal(t, inference.RoleSystem, messages[0].Role)
	assert.Equal(t, inference.RoleUser, messages[1].Role)
	assert.Equal(t, inference.RoleAssistant, messages[2].Role)
	assert.Equal(t, "加一条空中商路", messages[3].Content)
}

func TestRenderHistoryKeepsCJKVerbatim(t *testing.T) {
	rendered := renderHistory([]inference.Message{
		{Role: "user", Content: "「你来了？」他问。"},
	})
	assert.Contains(t, rendered, "「你来了？」他问。")
	assert.NotContains(t, rendered, `\u`)

	assert.Equal(t, placeholderHistory, renderHistory(nil))
}

func TestTrimHistoryKeepsNewest(t *testing.T) {
	long := strings.Repeat("字", 4000)
	history := []inference.Message{
		{Role: "user", Content: long},
		{Role: "ai", Content: long},
		{Role: "user", Content: "最后一句"},
	}
	trimmed := TrimHistory(history, 64)
	require.NotEmpty(t, trimmed)
	assert.Equal(t, "最后一句", trimmed[len(trimmed)-1].Content)
	assert.Less(t, len(trimmed), len(history))

	short := []inference.Message{{Role: "user", Content: "你好"}}
	assert.Equal(t, short, TrimHistory(short, 64))
	assert.Empty(t, TrimHistory(nil, 64))
}

func TestAssembleBuildsBundleFromStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "fable.db"))
	require.NoError(t, err)
	defer st.Close()

	world := &schema.World{
		UserID:        1,
		Name:          "九州",
		Worldview:     "灵气复苏",
		MasterSetting: "林惊羽",
		MainCharacters: []schema.WorldCharacter{
			{Name: "苏荷", Background: "医者"},
		},
	}
	require.NoError(t, st.CreateWorld(ctx, world))

	chapter := &schema.Chapter{WorldID: world.ID, CreatorUserID: 1, Name: "第一章", Background: "雪夜"}
	require.NoError(t, st.CreateChapter(ctx, chapter))

	require.NoError(t, st.CreateMessage(ctx, &schema.ConversationMessage{
		ChapterID: chapter.ID, UserID: 1, Role: schema.RoleUser, Content: "你好",
	}))

	bundle, err := Assemble(ctx, st, chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, "灵气复苏", bundle.Worldview)
	assert.Equal(t, "林惊羽", bundle.MasterSetting)
	assert.Equal(t, "雪夜", bundle.Background)
	require.Len(t, bundle.History, 1)
	assert.Equal(t, "你好", bundle.History[0].Content)
	assert.Contains(t, bundle.MainCharacters.Render(), "苏荷")

	_, err = Assemble(ctx, st, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
