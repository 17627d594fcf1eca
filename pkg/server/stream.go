package server

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"fable/pkg/inference"
	"fable/pkg/prompt"
	"fable/pkg/relay"
	"fable/pkg/schema"
	"fable/pkg/store"
	"fable/pkg/utils"
)

// handleEvents is the long-lived event channel. The client names a room and
// then receives everything published to it, task lifecycle events included,
// until it disconnects.
func (s *Server) handleEvents(c echo.Context) error {
	room := c.QueryParam("room")
	if room == "" {
		room = relay.DefaultRoom
	}

	sse, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer sse.Close()

	sub := s.Broker.Subscribe(room)
	defer s.Broker.Unsubscribe(sub)

	_ = sse.Emit("connected", map[string]string{"status": "connected"})
	_ = sse.Emit("joined", map[string]string{"room": room, "status": "joined"})
	log.Debug("event channel opened", "room", room)

	ctx := c.Request().Context()
	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := sse.Emit(event.Name, event.Data); err != nil {
				return nil
			}
		case <-ctx.Done():
			return nil
		case <-s.Ctx.Done():
			return nil
		}
	}
}

type chatStreamReq struct {
	prompt.Bundle
	ChapterID *int64 `json:"chapterId"`
	UserID    *int64 `json:"userId"`
}

// handleChatStream streams a story continuation as chat_stream_* events.
// A bare chapterId pulls the context bundle from the store; when the request
// names a chapter and user the assembled reply is saved as an ai message,
// prefixed with the narrative marker, and the terminal event carries its
// row id.
func (s *Server) handleChatStream(c echo.Context) error {
	var req chatStreamReq
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

	sse, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer sse.Close()

	params := &openai.ChatCompletionNewParams{
		Temperature:         openai.Float(0.7),
		MaxCompletionTokens: openai.Int(200),
	}
	messages := prompt.ChatStream(bundle)

	var persist relay.Persist
	if req.ChapterID != nil && req.UserID != nil {
		persist = func(content string) (int64, error) {
			msg := schema.ConversationMessage{
				ChapterID: *req.ChapterID,
				UserID:    *req.UserID,
				Role:      schema.RoleAI,
				Content:   prompt.NarrativeMarker + content,
			}
			if err := s.Store.CreateMessage(s.Ctx, &msg); err != nil {
				return 0, err
			}
			return msg.ID, nil
		}
	}

	// The upstream call runs on the server context so a client disconnect
	// never cuts the completion short of persistence.
	relay.Run("chat_stream",
		s.Inferencer.Stream(s.Ctx, params, messages),
		func() (string, error) { return s.Inferencer.Complete(s.Ctx, params, messages) },
		sse, persist)
	return nil
}

// handleAnalyzeStream streams the plot analysis report as
// chat_analyze_stream_* events. Nothing is persisted.
func (s *Server) handleAnalyzeStream(c echo.Context) error {
	var bundle prompt.Bundle
	if err := c.Bind(&bundle); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	sse, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer sse.Close()

	params := &openai.ChatCompletionNewParams{
		Temperature:         openai.Float(0.3),
		MaxCompletionTokens: openai.Int(700),
	}
	messages := prompt.Analyze(bundle)

	relay.Run("chat_analyze_stream",
		s.Inferencer.Stream(s.Ctx, params, messages),
		func() (string, error) { return s.Inferencer.Complete(s.Ctx, params, messages) },
		sse, nil)
	return nil
}

type worldCreatorReq struct {
	Message string              `json:"message"`
	History []inference.Message `json:"history"`
}

// handleWorldCreatorStream streams the collaborative world-building assistant
// as world_creator_* events.
func (s *Server) handleWorldCreatorStream(c echo.Context) error {
	var req worldCreatorReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少message参数")
	}

	sse, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer sse.Close()

	params := &openai.ChatCompletionNewParams{
		Temperature: openai.Float(0.8),
	}
	messages := prompt.WorldCreator(req.Message, req.History)

	relay.Run("world_creator",
		s.Inferencer.Stream(s.Ctx, params, messages),
		func() (string, error) { return s.Inferencer.Complete(s.Ctx, params, messages) },
		sse, nil)
	return nil
}
