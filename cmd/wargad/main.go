// wargad is the warga-store relay daemon: a websocket hub that broadcasts
// committed collection values between clients, plus the HTTP API for the
// startup snapshot and the spreadsheet/repository integrations.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/smartwarga-dev/warga-store/internal/engine"
	"github.com/smartwarga-dev/warga-store/internal/server"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	dataDir := os.Getenv("WARGA_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	port := os.Getenv("WARGA_HTTP_PORT")
	if port == "" {
		port = "7200"
	}

	// The daemon persists the latest value per collection so the startup
	// snapshot survives a restart. Clients do not depend on this; their own
	// local stores are the source of truth in degraded mode.
	persister, err := engine.NewPersistence(dataDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize persistence")
	}

	hub := server.NewHub(persister, log)
	go hub.Run()

	h := &server.Handler{Hub: hub, Log: log}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(server.CORS())
	h.Routes(r)

	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.Info().Str("port", port).Str("data_dir", dataDir).Msg("wargad listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
	log.Info().Msg("bye")
}
