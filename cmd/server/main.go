package main

import (
	"flag"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"minthook/internal/api"
	"minthook/internal/api/handlers"
	"minthook/internal/api/middleware"
	"minthook/internal/engine/webhooks"
	"minthook/internal/pkg/logger"
	"minthook/internal/platform/audit"
	"minthook/internal/platform/config"
	"minthook/internal/platform/database"
	"minthook/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	clientRepo := repositories.NewClientRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	enqueuer := webhooks.NewEnqueuer(clientRepo, eventRepo)
	auditLogger := audit.NewLogger(db)

	deps := &api.Dependencies{
		ClientHandler:  handlers.NewClientHandler(clientRepo, auditLogger),
		EventHandler:   handlers.NewEventHandler(eventRepo, enqueuer, auditLogger),
		HealthHandler:  handlers.NewHealthHandler(db),
		AuthMiddleware: middleware.NewAuthMiddleware(cfg.Admin.Token),
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Info().Str("addr", addr).Msg("minthook ops API listening")
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
