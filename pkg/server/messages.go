package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/schema"
	"fable/pkg/utils"
)

func (s *Server) handleGetMessages(c echo.Context) error {
	chapterID, err := paramID(c)
	if err != nil {
		return err
	}
	messages, err := s.Store.ListMessages(c.Request().Context(), chapterID)
	if err != nil {
		log.Error("failed listing messages", "chapter_id", chapterID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, messages)
}

type createMessageReq struct {
	UserID     *int64 `json:"user_id"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	CreateTime string `json:"create_time"`
}

func (s *Server) handleCreateMessage(c echo.Context) error {
	chapterID, err := paramID(c)
	if err != nil {
		return err
	}
	var req createMessageReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.UserID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少user_id参数")
	}
	if req.Role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少role参数")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少content参数")
	}
	if !schema.ValidMessageRole(req.Role) {
		return echo.NewHTTPError(http.StatusBadRequest, `role必须为"user"或"ai"`)
	}

	msg := schema.ConversationMessage{
		ChapterID: chapterID,
		UserID:    *req.UserID,
		Role:      req.Role,
		Content:   req.Content,
	}
	if req.CreateTime != "" {
		t, err := parseClientTime(req.CreateTime)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "时间格式错误: "+err.Error())
		}
		msg.CreateTime = t
	}
	if err := s.Store.CreateMessage(c.Request().Context(), &msg); err != nil {
		log.Error("failed creating message", "chapter_id", chapterID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusCreated, msg)
}

func (s *Server) handleDeleteMessages(c echo.Context) error {
	chapterID, err := paramID(c)
	if err != nil {
		return err
	}
	raw := c.QueryParam("id")
	if raw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少id参数")
	}
	fromID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少id参数")
	}

	deleted, err := s.Store.DeleteMessagesFrom(c.Request().Context(), chapterID, fromID)
	if err != nil {
		log.Error("failed deleting messages", "chapter_id", chapterID, "from_id", fromID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":       fmt.Sprintf("成功删除%d条消息", deleted),
		"deleted_count": deleted,
		"chapter_id":    chapterID,
		"target_id":     fromID,
	})
}
