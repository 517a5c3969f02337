package rest

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gitpress/gitpress/api"
)

// UploadImage stores a multipart-uploaded file under the post's asset
// directory and returns its public URL.
func (h *Handler) UploadImage(c *gin.Context) {
	slug := c.PostForm("slug")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file and slug are required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	url, err := h.posts.UploadImage(c.Request.Context(), slug, fileHeader.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.ImageResponse{URL: url})
}
