package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/openai/openai-go/v3"

	"fable/pkg/prompt"
	"fable/pkg/schema"
)

type novelAsyncReq struct {
	novelReq
	Room      string  `json:"room"`
	ChapterID *int64  `json:"chapter_id"`
	UserID    *int64  `json:"user_id"`
	Title     *string `json:"title"`
}

// handleNovelAsync accepts a prose generation job and returns its task id
// immediately. Progress flows to the request's room over the event channel;
// the finished text is also saved as a novel record when a chapter and user
// were named.
func (s *Server) handleNovelAsync(c echo.Context) error {
	var req novelAsyncReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少小说生成提示信息")
	}

	messages := prompt.Novel(req.Bundle, req.Prompt)
	id := s.Tracker.Submit(req.Room, func(ctx context.Context) (string, error) {
		out, err := s.Inferencer.Complete(ctx, &openai.ChatCompletionNewParams{
			Temperature: openai.Float(0.7),
		}, messages)
		if err != nil {
			return "", err
		}
		if req.ChapterID != nil && req.UserID != nil {
			novel := schema.NovelRecord{
				ChapterID: *req.ChapterID,
				UserID:    *req.UserID,
				Title:     req.Title,
				Content:   out,
			}
			if err := s.Store.CreateNovel(ctx, &novel); err != nil {
				log.Error("failed saving generated novel", "chapter_id", *req.ChapterID, "error", err)
			}
		}
		return out, nil
	})
	return c.JSON(http.StatusAccepted, map[string]string{"task_id": id})
}

func (s *Server) handleGetTask(c echo.Context) error {
	record, ok := s.Tracker.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "任务不存在")
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) handleTaskSweep(c echo.Context) error {
	removed := s.Tracker.Sweep()
	if removed == nil {
		removed = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"removed": removed,
		"count":   len(removed),
	})
}
