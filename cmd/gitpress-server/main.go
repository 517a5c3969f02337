package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gitpress/gitpress/blog/application"
	"github.com/gitpress/gitpress/internal/config"
	"github.com/gitpress/gitpress/internal/middleware"
	"github.com/gitpress/gitpress/internal/rest"
	gh "github.com/gitpress/gitpress/shared/github"
	webhook "github.com/gitpress/gitpress/webhook/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v68/github"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configFile := flag.String("config", "", "path to config file (optional, env-only without it)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ghClient := github.NewClient(nil).WithAuthToken(cfg.GitHub.Token)
	sourceRepo := gh.NewGithubContentRepository(ghClient, cfg.GitHub.Owner, cfg.GitHub.Repo)

	cache := application.NewTreeCache(sourceRepo, cfg.GitHub.MainBranch, cfg.Cache.TTL)
	workflow := application.NewBranchWorkflow(sourceRepo, cache, cfg.GitHub.MainBranch)
	codec := application.NewFrontMatterCodec(application.SiteDefaults{
		Author:      cfg.Site.Author,
		TwitterID:   cfg.Site.TwitterID,
		GitHubID:    cfg.Site.GitHubID,
		Mail:        cfg.Site.Mail,
		SiteName:    cfg.Site.Name,
		TwitterSite: cfg.Site.TwitterSite,
		BaseURL:     cfg.Site.BaseURL,
	})
	postService := application.NewPostService(sourceRepo, cache, codec, workflow, cfg.GitHub.MainBranch, cfg.Site.BaseURL)
	renderer := application.NewMarkdownRenderer(cfg.Site.BaseURL)

	engine := gin.New()
	engine.Use(middleware.LoggingMiddleware())
	engine.Use(gin.CustomRecovery(middleware.HandlePanics()))

	resolver := middleware.NewGithubIdentityResolver()
	handler := rest.NewHandler(postService, workflow, renderer)
	rest.NewApi(engine, handler, middleware.RequireEditor(resolver, cfg.Auth.AllowedUsers))

	// The webhook endpoint sits outside the editor auth gate; payloads are
	// authenticated by their HMAC signature instead.
	root := chi.NewRouter()
	if cfg.Webhook.Secret != "" {
		webhookHandler := webhook.NewWebhookHandler(cache, cfg.GitHub.MainBranch, cfg.Webhook.Secret)
		webhookHandler.RegisterRoutes(root)
	}
	root.Handle("/*", engine)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: root,
	}

	go func() {
		log.Info().Str("addr", cfg.Listen).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}
