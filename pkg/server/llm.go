package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"fable/pkg/prompt"
	"fable/pkg/schema"
	"fable/pkg/store"
	"fable/pkg/utils"
)

// resolveBundle fills an empty context bundle from the chapter's stored rows:
// worldview, master setting, roster, background, and the token-trimmed message
// history. A request that carries its own context fields wins over the store;
// analysis and guide only ever come from the request.
func (s *Server) resolveBundle(ctx context.Context, b prompt.Bundle, chapterID *int64) (prompt.Bundle, error) {
	if chapterID == nil || !bundleEmpty(b) {
		return b, nil
	}
	assembled, err := prompt.Assemble(ctx, s.Store, *chapterID)
	if err != nil {
		return b, err
	}
	assembled.StoryAnalysis = b.StoryAnalysis
	assembled.StoryGuide = b.StoryGuide
	return assembled, nil
}

func bundleEmpty(b prompt.Bundle) bool {
	return b.Worldview == "" && b.MasterSetting == "" && b.Background == "" &&
		b.MainCharacters.Render() == "" && len(b.History) == 0
}

type chatReq struct {
	prompt.Bundle
	ChapterID *int64 `json:"chapter_id"`
}

// handleChat runs one synchronous story continuation. Context comes from the
// request body, or from the chapter's stored rows when only chapter_id is
// supplied.
func (s *Server) handleChat(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	bundle, err := s.resolveBundle(c.Request().Context(), req.Bundle, req.ChapterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "章节不存在")
		}
		log.Error("failed assembling chat context", "chapter_id", *req.ChapterID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	out, err := s.Inferencer.Complete(c.Request().Context(), &openai.ChatCompletionNewParams{
		Temperature: openai.Float(0.5),
	}, prompt.Chat(bundle))
	if err != nil {
		log.Error("chat completion failed", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	log.Debug("chat completion", "response", utils.LimitStr(out, 120))
	return c.JSON(http.StatusOK, map[string]string{"response": out})
}

// handleChatSuggestions asks for six candidate player replies, constrained to
// a JSON schema. When the model still returns unparseable text the raw
// payload is passed through for the client to salvage.
func (s *Server) handleChatSuggestions(c echo.Context) error {
	var bundle prompt.Bundle
	if err := c.Bind(&bundle); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	out, err := s.Inferencer.Complete(c.Request().Context(), &openai.ChatCompletionNewParams{
		Temperature:         openai.Float(0.6),
		MaxCompletionTokens: openai.Int(600),
		ResponseFormat:      schema.SuggestionsResponseFormat(),
	}, prompt.Suggestions(bundle))
	if err != nil {
		log.Error("suggestions completion failed", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	cleaned := utils.CleanJSON(out)

	var list schema.SuggestionList
	if err := json.Unmarshal([]byte(cleaned), &list); err == nil && len(list.Suggestions) > 0 {
		return c.JSON(http.StatusOK, map[string]any{"suggestions": list.Suggestions})
	}
	var bare []schema.Suggestion
	if err := json.Unmarshal([]byte(cleaned), &bare); err == nil && len(bare) > 0 {
		return c.JSON(http.StatusOK, map[string]any{"suggestions": bare})
	}
	log.Warn("suggestions response not parseable, returning raw", "response", utils.LimitStr(cleaned, 120))
	return c.JSON(http.StatusOK, map[string]string{"raw": out})
}

type novelReq struct {
	prompt.Bundle
	Prompt string `json:"prompt"`
}

// handleNovel generates long-form prose synchronously from the caller's
// premise and context bundle.
func (s *Server) handleNovel(c echo.Context) error {
	var req novelReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少小说生成提示信息")
	}

	out, err := s.Inferencer.Complete(c.Request().Context(), &openai.ChatCompletionNewParams{
		Temperature: openai.Float(0.7),
	}, prompt.Novel(req.Bundle, req.Prompt))
	if err != nil {
		log.Error("novel completion failed", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]string{"response": out})
}
