package http

import (
	"net/http"
	"strings"

	"github.com/gitpress/gitpress/blog/application"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-github/v68/github"
	"github.com/rs/zerolog/log"
)

// WebhookHandler drops cached tree snapshots when the content repository
// changes outside the CMS (a direct push, or a merge from another tool), so
// stale listings are bounded by push latency instead of the cache TTL.
type WebhookHandler struct {
	webhookSecret []byte
	cache         *application.TreeCache
	mainBranch    string
}

// NewWebhookHandler creates a WebhookHandler validating payloads with secret.
func NewWebhookHandler(cache *application.TreeCache, mainBranch string, secret string) *WebhookHandler {
	return &WebhookHandler{
		webhookSecret: []byte(secret),
		cache:         cache,
		mainBranch:    mainBranch,
	}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook/git", h.HandleGitWebhook)
}

func (h *WebhookHandler) HandleGitWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, h.webhookSecret)
	if err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		http.Error(w, "Invalid event", http.StatusBadRequest)
		return
	}

	switch evt := event.(type) {
	case *github.PushEvent:
		h.handlePush(evt)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WebhookHandler) handlePush(evt *github.PushEvent) {
	branch := strings.TrimPrefix(evt.GetRef(), "refs/heads/")
	if branch == evt.GetRef() {
		return
	}

	if branch == h.mainBranch {
		h.cache.InvalidateMain()
		log.Info().Str("branch", branch).Msg("Invalidated main snapshot after push")
		return
	}

	h.cache.InvalidateBranch(branch)
	log.Info().Str("branch", branch).Msg("Invalidated branch snapshot after push")
}
