package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"classifieds-service/internal/service"
)

// ImageHandler serves listing photo upload and download.
type ImageHandler struct {
	Service *service.ListingService
}

func (h *ImageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/listings/:id/images", h.Upload)
	rg.GET("/listings/:id/images/:n", h.Download)
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// POST /api/listings/:id/images  (multipart: file, alt)
func (h *ImageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only jpg, jpeg, png and webp files are allowed"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot open file"})
		return
	}
	defer file.Close()

	listingID := c.Param("id")
	fileID, err := h.Service.AttachImage(c.Request.Context(), listingID, fileHeader.Filename, c.PostForm("alt"), file)
	if err != nil {
		renderImageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_id": fileID})
}

// GET /api/listings/:id/images/:n
func (h *ImageHandler) Download(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image index"})
		return
	}

	data, filename, err := h.Service.DownloadImage(c.Request.Context(), c.Param("id"), n)
	if err != nil {
		renderImageError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename="+filename)
	c.Data(http.StatusOK, contentTypeFor(filename), data)
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func renderImageError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("image operation failed: %v", err)})
	}
}
