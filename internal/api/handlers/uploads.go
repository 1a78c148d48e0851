package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crashwatch-go/internal/config"
	"crashwatch-go/internal/logging"
)

var allowedVideoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
}

type UploadHandler struct {
	cfg *config.Config
}

func NewUploadHandler(cfg *config.Config) *UploadHandler {
	return &UploadHandler{cfg: cfg}
}

type UploadResponse struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Size     int64  `json:"size_bytes"`
}

// UploadVideo stores an uploaded clip for later file-source sessions
// @Summary Upload a video file
// @Description Upload a video clip; the returned path is usable as source_uri for a file session
// @Tags uploads
// @Accept mpfd
// @Produce json
// @Param file formData file true "Video file"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /uploads [post]
func (h *UploadHandler) UploadVideo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedVideoExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type %q", ext)})
		return
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0755); err != nil {
		logging.Error(c).Err(err).Str("dir", h.cfg.UploadDir).Msg("Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload directory"})
		return
	}

	name := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	dst := filepath.Join(h.cfg.UploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		logging.Error(c).Err(err).Str("path", dst).Msg("Failed to save uploaded video")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save uploaded file"})
		return
	}

	logging.Info(c).
		Str("filename", file.Filename).
		Str("path", dst).
		Int64("size", file.Size).
		Msg("Video uploaded")

	c.JSON(http.StatusCreated, UploadResponse{
		Path:     dst,
		Filename: file.Filename,
		Size:     file.Size,
	})
}
