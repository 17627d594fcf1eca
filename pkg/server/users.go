package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"fable/pkg/schema"
	"fable/pkg/store"
	"fable/pkg/utils"
)

type authReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleAuth logs a user in, registering them on first sight.
func (s *Server) handleAuth(c echo.Context) error {
	var req authReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少username或password参数")
	}

	ctx := c.Request().Context()
	user, err := s.Store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("failed loading user", "username", req.Username, "error", err)
			return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
		}
		created := schema.User{Username: req.Username, Password: string(hash)}
		if err := s.Store.CreateUser(ctx, &created); err != nil {
			log.Error("failed creating user", "username", req.Username, "error", err)
			return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
		}
		log.Info("user registered", "user_id", created.ID, "username", created.Username)
		return c.JSON(http.StatusCreated, map[string]any{
			"message":  "注册成功",
			"user_id":  created.ID,
			"username": created.Username,
			"is_new":   true,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "密码错误")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":  "登录成功",
		"user_id":  user.ID,
		"username": user.Username,
		"is_new":   false,
	})
}

func (s *Server) handleGetUserWorlds(c echo.Context) error {
	rawUser := c.QueryParam("user_id")
	if rawUser == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少user_id参数")
	}
	userID, err := strconv.ParseInt(rawUser, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少user_id参数")
	}
	role := c.QueryParam("role")
	if role == "" {
		role = schema.WorldRoleCreator
	}
	if !schema.ValidWorldRole(role) {
		return echo.NewHTTPError(http.StatusBadRequest, "无效的role值")
	}

	memberships, err := s.Store.ListUserWorlds(c.Request().Context(), userID, role)
	if err != nil {
		log.Error("failed listing user worlds", "user_id", userID, "role", role, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, memberships)
}

type createUserWorldReq struct {
	UserID  *int64 `json:"user_id"`
	WorldID *int64 `json:"world_id"`
	Role    string `json:"role"`
}

func (s *Server) handleCreateUserWorld(c echo.Context) error {
	var req createUserWorldReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if req.UserID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少user_id参数")
	}
	if req.WorldID == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "缺少world_id参数")
	}
	if req.Role == "" {
		req.Role = schema.WorldRoleParticipant
	}
	if !schema.ValidWorldRole(req.Role) {
		return echo.NewHTTPError(http.StatusBadRequest, "无效的role值")
	}

	uw := schema.UserWorld{UserID: *req.UserID, WorldID: *req.WorldID, Role: req.Role}
	if err := s.Store.CreateUserWorld(c.Request().Context(), &uw); err != nil {
		log.Error("failed creating user world", "user_id", uw.UserID, "world_id", uw.WorldID, "error", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusCreated, uw)
}
