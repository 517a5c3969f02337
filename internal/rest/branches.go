package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gitpress/gitpress/api"
	"github.com/gitpress/gitpress/blog/application"
)

// ListBranches returns every live cms branch with its slug.
func (h *Handler) ListBranches(c *gin.Context) {
	refs, err := h.posts.ListBranches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := api.BranchListResponse{Branches: []string{}, Slugs: []string{}}
	for _, ref := range refs {
		resp.Branches = append(resp.Branches, ref.Branch)
		resp.Slugs = append(resp.Slugs, application.SlugForBranch(ref.Branch))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateBranch gets or creates the working branch for a slug.
func (h *Handler) CreateBranch(c *gin.Context) {
	var req api.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	branch, sha, err := h.workflow.GetOrCreate(c.Request.Context(), req.Slug)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.BranchResponse{Branch: branch, SHA: sha})
}
