package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/schema"
	"fable/pkg/store"
	"fable/pkg/utils"
)

func (s *Server) handleGetWorldChapters(c echo.Context) error {
	worldID, err := paramID(c)
	if err != nil {
		return err
	}
	var creatorUserID *int64
	if raw := c.QueryParam("creator_user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid creator_user_id")
		}
		creatorUserID = &id
	}

	chapters, err := s.Store.ListChapters(c.Request().Context(), worldID, creatorUserID)
	if err != nil {
		log.Error("failed listing chapters", "world_id", worldID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, chapters)
}

type createChapterReq struct {
	WorldID         int64  `json:"world_id"`
	CreatorUserID   int64  `json:"creator_user_id"`
	Name            string `json:"name"`
	Opening         string `json:"opening"`
	Background      string `json:"background"`
	IsDefault       bool   `json:"is_default"`
	OriginChapterID *int64 `json:"origin_chapter_id"`
	CreateTime      string `json:"create_time"`
}

func (s *Server) handleCreateChapter(c echo.Context) error {
	var req createChapterReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少name参数")
	}

	chapter := schema.Chapter{
		WorldID:         req.WorldID,
		CreatorUserID:   req.CreatorUserID,
		Name:            req.Name,
		Opening:         req.Opening,
		Background:      req.Background,
		IsDefault:       req.IsDefault,
		OriginChapterID: req.OriginChapterID,
	}
	if req.CreateTime != "" {
		t, err := parseClientTime(req.CreateTime)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "时间格式错误: "+err.Error())
		}
		chapter.CreateTime = t
	}
	if err := s.Store.CreateChapter(c.Request().Context(), &chapter); err != nil {
		log.Error("failed creating chapter", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusCreated, chapter)
}

func (s *Server) handleGetChapter(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	detail, err := s.Store.GetChapterDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "章节不存在")
		}
		log.Error("failed loading chapter", "chapter_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleDeleteChapter(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	del, err := s.Store.DeleteChapter(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "章节不存在")
		}
		log.Error("failed deleting chapter", "chapter_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":          "章节删除成功",
		"chapter_id":       id,
		"deleted_messages": del.Messages,
		"deleted_novels":   del.Novels,
	})
}
