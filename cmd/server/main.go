package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"archway-web/internal/api"
	"archway-web/internal/config"
	"archway-web/internal/content"
	"archway-web/internal/database"
	"archway-web/internal/forms"
	"archway-web/internal/imageproxy"
	"archway-web/internal/locale"
	"archway-web/internal/logger"
	"archway-web/internal/query"
	"archway-web/internal/resources"
	"archway-web/internal/urls"
	"archway-web/internal/web"
	"archway-web/internal/webhook"
	"archway-web/internal/ws"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lggr, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = lggr.Sync() }()

	if !cfg.EnvFileLoaded {
		lggr.Debug("No .env file found, using environment")
	}
	if cfg.ConfigFile != "" {
		lggr.Infow("Using config file", "file", cfg.ConfigFile)
	}

	// The submission log is optional; the site keeps serving without it.
	var submissions *database.SubmissionRepo
	if db, err := database.Open(cfg, lggr); err != nil {
		lggr.Errorw("Submission log disabled", "err", err)
	} else {
		if err := database.SyncSettings(db, cfg, lggr); err != nil {
			lggr.Warnw("Failed to sync settings", "err", err)
		}
		submissions = database.NewSubmissionRepo(db)
	}

	norm := urls.New(urls.Config{
		InternalHost:      cfg.InternalBackendHost,
		BrowserHost:       cfg.BrowserBackendHost,
		BackendURL:        cfg.BackendURL,
		BackendBrowserURL: cfg.BackendBrowserURL,
		APIURL:            cfg.APIURL,
		APIBrowserURL:     cfg.APIBrowserURL,
	})

	catalog, err := locale.LoadCatalog()
	if err != nil {
		lggr.Fatalf("Failed to load messages: %v", err)
	}

	client := content.NewClient(norm.APIBaseURL(urls.Server),
		content.WithTimeout(cfg.HTTPTimeout),
		content.WithLogger(lggr),
	)

	cache := query.New(lggr)
	cache.Start(cfg.CacheGCInterval)
	defer cache.Stop()

	res := resources.New(client, cache, norm, catalog, lggr)

	var store forms.SubmissionStore
	if submissions != nil {
		store = submissions
	}
	submitter := forms.NewSubmitter(client, store, catalog, lggr)

	renderer, err := web.New(catalog, norm, lggr)
	if err != nil {
		lggr.Fatalf("Failed to parse templates: %v", err)
	}

	proxy := imageproxy.New(norm.BackendOrigin(urls.Server), cfg.ImageCacheTTL, lggr)
	proxy.Start(cfg.CacheGCInterval)
	defer proxy.Stop()

	hub := ws.NewHub(lggr)
	go hub.Run()
	defer hub.Stop()

	gin.SetMode(cfg.GinMode)

	deps := api.Deps{
		Resources:  res,
		Submitter:  submitter,
		Catalog:    catalog,
		Renderer:   renderer,
		ImageProxy: proxy,
		Hub:        hub,
		Webhook:    webhook.NewHandler(cfg, res, hub, lggr),
		Logger:     lggr,
	}
	if submissions != nil {
		deps.Submissions = submissions
	}
	if cfg.WebhookVerifyToken == "" {
		lggr.Warn("WEBHOOK_VERIFY_TOKEN is empty; webhook and submission routes reject every request")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		lggr.Infow("Server starting", "port", cfg.Port, "api", client.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lggr.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lggr.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lggr.Errorw("Server forced to shutdown", "err", err)
	}
}
