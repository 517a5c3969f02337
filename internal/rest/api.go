package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gitpress/gitpress/blog/domain"
)

// NewApi registers the CMS API behind the editor auth gate.
func NewApi(router *gin.Engine, h *Handler, requireEditor gin.HandlerFunc) {
	v1 := router.Group("api/v1", requireEditor)
	{
		v1.GET("/posts", h.ListPosts)
		v1.POST("/posts", h.CreatePost)
		v1.GET("/posts/:name", h.GetPost)
		v1.PUT("/posts/:name", h.UpdatePost)
		v1.POST("/posts/:name/draft", h.SetDraft)
		v1.POST("/posts/:name/publish", h.Publish)

		v1.GET("/branches", h.ListBranches)
		v1.POST("/branches", h.CreateBranch)

		v1.POST("/images", h.UploadImage)
		v1.POST("/preview", h.Preview)
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Remote
// failures come back as 502 so the editor can retry without losing state.
func writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
