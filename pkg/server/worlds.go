package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"fable/pkg/schema"
	"fable/pkg/store"
	"fable/pkg/utils"
)

func (s *Server) handleGetWorlds(c echo.Context) error {
	worlds, err := s.Store.ListWorlds(c.Request().Context())
	if err != nil {
		log.Error("failed listing worlds", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	if worlds == nil {
		worlds = []schema.World{}
	}
	return c.JSON(http.StatusOK, worlds)
}

func (s *Server) handleGetWorld(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	world, err := s.Store.GetWorld(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "世界不存在")
		}
		log.Error("failed loading world", "world_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, world)
}

type createWorldReq struct {
	UserID        int64                   `json:"user_id"`
	Name          string                  `json:"name"`
	Tags          []string                `json:"tags"`
	IsPublic      bool                    `json:"is_public"`
	Worldview     string                  `json:"worldview"`
	MasterSetting string                  `json:"master_setting"`
	OriginWorldID *int64                  `json:"origin_world_id"`
	Popularity    int64                   `json:"popularity"`
	Characters    []schema.WorldCharacter `json:"characters"`
}

func (s *Server) handleCreateWorld(c echo.Context) error {
	var req createWorldReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少name参数")
	}

	world := schema.World{
		UserID:         req.UserID,
		Name:           req.Name,
		Tags:           req.Tags,
		IsPublic:       req.IsPublic,
		Worldview:      req.Worldview,
		MasterSetting:  req.MasterSetting,
		OriginWorldID:  req.OriginWorldID,
		Popularity:     req.Popularity,
		MainCharacters: req.Characters,
	}
	if world.MainCharacters == nil {
		world.MainCharacters = []schema.WorldCharacter{}
	}
	if err := s.Store.CreateWorld(c.Request().Context(), &world); err != nil {
		log.Error("failed creating world", "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusCreated, world)
}

func (s *Server) handleDeleteWorld(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	del, err := s.Store.DeleteWorld(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "世界不存在")
		}
		log.Error("failed deleting world", "world_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	log.Info("world deleted", "world_id", id, "chapters", del.Chapters, "messages", del.Messages)
	return c.JSON(http.StatusOK, map[string]any{
		"message":             "世界删除成功",
		"world_id":            id,
		"deleted_chapters":    del.Chapters,
		"deleted_messages":    del.Messages,
		"deleted_novels":      del.Novels,
		"deleted_user_worlds": del.UserWorlds,
		"deleted_characters":  del.Characters,
	})
}

// parseClientTime accepts the ISO-ish timestamps clients send, with or
// without a zone designator.
func parseClientTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unsupported time format: " + s)
}
