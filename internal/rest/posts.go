package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gitpress/gitpress/api"
	"github.com/gitpress/gitpress/blog/application"
	"github.com/gitpress/gitpress/blog/domain"
)

// Handler serves the CMS API on top of the application services.
type Handler struct {
	posts    *application.PostService
	workflow *application.BranchWorkflow
	renderer application.MarkdownRenderer
}

// NewHandler creates a Handler.
func NewHandler(posts *application.PostService, workflow *application.BranchWorkflow, renderer application.MarkdownRenderer) *Handler {
	return &Handler{
		posts:    posts,
		workflow: workflow,
		renderer: renderer,
	}
}

// ListPosts returns the reconciled listing of published and in-progress
// posts.
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if posts == nil {
		posts = []domain.PostSummary{}
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost creates posts/<slug>.md on the slug's working branch.
func (h *Handler) CreatePost(c *gin.Context) {
	var req api.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	meta := domain.PostMeta{
		Title:       req.Title,
		Date:        req.Date,
		Tag:         req.Tag,
		Description: req.Description,
		OGPURL:      req.OGPURL,
		Featured:    req.Featured,
	}
	path, branch, sha, err := h.posts.CreatePost(c.Request.Context(), req.Slug, meta, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SaveResponse{Path: path, Branch: branch, SHA: sha})
}

// GetPost reads one post, optionally at ?ref=<branch or commit>.
func (h *Handler) GetPost(c *gin.Context) {
	path := domain.PostsDir + c.Param("name")

	post, err := h.posts.GetPost(c.Request.Context(), path, c.Query("ref"))
	if err != nil {
		writeError(c, err)
		return
	}

	tag := post.Meta.Tag
	if tag == nil {
		tag = []string{}
	}
	c.JSON(http.StatusOK, api.PostResponse{
		Path:        post.Path,
		Slug:        domain.SlugFromPath(post.Path),
		SHA:         post.SHA,
		Title:       post.Meta.Title,
		Author:      post.Meta.Author,
		Date:        post.Meta.Date,
		Tag:         tag,
		Description: post.Meta.Description,
		OGPURL:      post.Meta.OGPURL,
		URL:         post.Meta.URL,
		Featured:    post.Meta.Featured,
		Body:        post.Body,
	})
}

// UpdatePost regenerates the post file from the submitted metadata and body
// and overwrites it on the edit branch. A stale sha comes back as 409.
func (h *Handler) UpdatePost(c *gin.Context) {
	path := domain.PostsDir + c.Param("name")

	var req api.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.SHA == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sha is required"})
		return
	}

	slug := domain.SlugFromPath(path)
	meta := domain.PostMeta{
		Title:       req.Title,
		Date:        req.Date,
		Tag:         req.Tag,
		Description: req.Description,
		OGPURL:      req.OGPURL,
		Featured:    req.Featured,
	}
	markdown := h.posts.Codec().Generate(meta, req.Body, slug)

	sha, err := h.posts.SavePost(c.Request.Context(), path, markdown, req.SHA, req.Branch, fmt.Sprintf("Update post: %s", req.Title))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SaveResponse{Path: path, Branch: req.Branch, SHA: sha})
}

// SetDraft toggles the wip_ prefix of the post's filename on its branch.
func (h *Handler) SetDraft(c *gin.Context) {
	path := domain.PostsDir + c.Param("name")

	var req api.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	newPath, sha, err := h.posts.SetDraft(c.Request.Context(), path, req.Draft, req.SHA, req.Branch)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.SaveResponse{Path: newPath, Branch: req.Branch, SHA: sha})
}

// Publish merges the post's working branch into main via a squash-merged
// pull request.
func (h *Handler) Publish(c *gin.Context) {
	var req api.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Publish: %s", req.Branch)
	}

	prNumber, err := h.workflow.Publish(c.Request.Context(), req.Branch, title)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.PublishResponse{Merged: true, PRNumber: prNumber})
}

// Preview renders markdown to HTML for the editor's live preview.
func (h *Handler) Preview(c *gin.Context) {
	var req api.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	html, err := h.renderer.Render(req.Markdown)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.PreviewResponse{HTML: html})
}
