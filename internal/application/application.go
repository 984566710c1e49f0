package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/config"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/database"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/handler"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/mailer"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/router"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg *config.Config
	srv *http.Server
	db  *gorm.DB
	log *zap.Logger
}

// NewAPI creates the API application: validates config, runs migrations,
// opens DB, wires services, builds the router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	registry := service.NewRegistry(cfg.WSReadBufferSize, cfg.WSWriteBufferSize,
		cfg.WSMaxMessageSize, cfg.BufferQueueSize, logger)
	engine := service.NewPlaybackEngine(registry, logger)
	registry.SetLeaveHandler(engine.Leave)

	mail := mailer.New(mailer.Config{
		BaseURL:    cfg.Mail.BaseURL,
		Username:   cfg.Mail.Username,
		Password:   cfg.Mail.Password,
		TemplateID: cfg.Mail.TemplateID,
	}, logger)
	resolver := service.NewInviteHistoryResolver(db)
	collab := service.NewCollabService(db, cfg, registry, resolver, mail, logger)
	engine.SetCapabilityResolver(collab.CapabilityForVideo)

	collabHandler := handler.NewCollabHandler(collab, cfg.WSBaseURL)
	contentHandler := handler.NewContentHandler(collab)
	videoHandler := handler.NewVideoHandler(engine, registry)
	wsHandler := handler.NewWSHandler(registry, engine, logger)
	health := handler.NewHealthHandler()

	r := router.New(collabHandler, contentHandler, videoHandler, wsHandler, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, log: logger}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts
// down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Collaboration: %s/collaboration", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	_ = a.log.Sync()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
