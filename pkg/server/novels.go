package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/schema"
	"fable/pkg/utils"
)

func (s *Server) handleGetNovels(c echo.Context) error {
	chapterID, err := paramID(c)
	if err != nil {
		return err
	}
	novels, err := s.Store.ListNovels(c.Request().Context(), chapterID)
	if err != nil {
		log.Error("failed listing novels", "chapter_id", chapterID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, novels)
}

type createNovelReq struct {
	UserID     *int64  `json:"user_id"`
	Title      *string `json:"title"`
	Content    string  `json:"content"`
	Popularity int64   `json:"popularity"`
}

func (s *Server) handleCreateNovel(c echo.Context) error {
	chapterID, err := paramID(c)
	if err != nil {
		return err
	}
	var req createNovelReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.UserID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少user_id参数")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少content参数")
	}

	novel := schema.NovelRecord{
		ChapterID:  chapterID,
		UserID:     *req.UserID,
		Title:      req.Title,
		Content:    req.Content,
		Popularity: req.Popularity,
	}
	if err := s.Store.CreateNovel(c.Request().Context(), &novel); err != nil {
		log.Error("failed creating novel", "chapter_id", chapterID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusCreated, novel)
}
