package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fable/pkg/inference"
	"fable/pkg/relay"
	"fable/pkg/store"
	"fable/pkg/tasks"
)

type Server struct {
	Echo       *echo.Echo
	Store      *store.Store
	Inferencer inference.Inferencer
	Tracker    *tasks.Tracker
	Broker     *relay.Broker
	Ctx        context.Context
}

func NewServer(ctx context.Context, st *store.Store, inf inference.Inferencer, tracker *tasks.Tracker, broker *relay.Broker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:       e,
		Store:      st,
		Inferencer: inf,
		Tracker:    tracker,
		Broker:     broker,
		Ctx:        ctx,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.GET("/status", s.handleGetStatus)

	// relational surface
	db := api.Group("/db")
	db.GET("/worlds", s.handleGetWorlds)
	db.POST("/worlds", s.handleCreateWorld)
	db.GET("/worlds/:id", s.handleGetWorld)
	db.DELETE("/worlds/:id", s.handleDeleteWorld)
	db.GET("/worlds/:id/chapters", s.handleGetWorldChapters)
	db.POST("/chapters", s.handleCreateChapter)
	db.GET("/chapters/:id", s.handleGetChapter)
	db.DELETE("/chapters/:id", s.handleDeleteChapter)
	db.GET("/chapters/:id/messages", s.handleGetMessages)
	db.POST("/chapters/:id/messages", s.handleCreateMessage)
	db.DELETE("/chapters/:id/messages", s.handleDeleteMessages)
	db.GET("/chapters/:id/novels", s.handleGetNovels)
	db.POST("/chapters/:id/novels", s.handleCreateNovel)
	db.GET("/user-worlds", s.handleGetUserWorlds)
	db.POST("/user-worlds", s.handleCreateUserWorld)
	db.POST("/auth", s.handleAuth)

	// single-shot generation
	api.POST("/chat", s.handleChat)
	api.POST("/chat/suggestions", s.handleChatSuggestions)
	api.POST("/novel", s.handleNovel)

	// long-running generation
	api.POST("/novel/async", s.handleNovelAsync)
	api.GET("/tasks/:id", s.handleGetTask)
	api.POST("/tasks/sweep", s.handleTaskSweep)

	// event channel + live streams
	api.GET("/events", s.handleEvents)
	api.POST("/stream/chat", s.handleChatStream)
	api.POST("/stream/analyze", s.handleAnalyzeStream)
	api.POST("/stream/world-creator", s.handleWorldCreatorStream)
}

func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
