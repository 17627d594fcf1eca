package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	gommon "github.com/labstack/gommon/log"

	"fable/pkg/inference"
	"fable/pkg/relay"
	"fable/pkg/server"
	"fable/pkg/store"
	"fable/pkg/tasks"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	model := os.Getenv("ZHIPU_MODEL")
	if model == "" {
		model = "glm-4-plus"
	}

	apiKey := os.Getenv("ZHIPU_API_KEY")
	openAI := inference.NewOpenAIInferencer(apiKey, model)
	if baseURL := os.Getenv("ZHIPU_BASE_URL"); baseURL != "" {
		openAI.ChangeBaseURL(baseURL)
	} else if apiKey == "" {
		openAI.ChangeBaseURL("http://localhost:1234/v1")
		openAI.SetModel("")
	}
	var inf inference.Inferencer = openAI

	if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
		gemini, err := inference.NewGeminiInferencer(geminiKey, os.Getenv("GEMINI_MODEL"))
		if err != nil {
			log.Fatal("failed initializing gemini", "error", err)
		}
		inf = gemini
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "data/fable.db"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatal("failed opening database", "path", dbPath, "error", err)
	}
	defer st.Close()

	broker := relay.NewBroker()
	tracker := tasks.NewTracker(ctx, broker, tasks.DefaultRetention)

	srv := server.NewServer(ctx, st, inf, tracker, broker)
	srv.Echo.Logger.SetLevel(gommon.INFO)

	addr := ":8080"
	if envAddr := os.Getenv("PORT"); envAddr != "" {
		addr = ":" + envAddr
	}

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("shutdown failed", "error", err)
		}
		tracker.Close()
		done()
		close(finishedShutDown)
	}()

	log.Info("listening", "addr", addr, "db", dbPath)
	if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
	}
	<-finishedShutDown
}
