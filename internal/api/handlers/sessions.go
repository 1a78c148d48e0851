package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crashwatch-go/internal/logging"
	"crashwatch-go/internal/models"
	"crashwatch-go/internal/services/publisher/mjpeg"
	"crashwatch-go/internal/services/session"
)

type SessionHandler struct {
	manager   *session.Manager
	publisher *mjpeg.Publisher
}

func NewSessionHandler(manager *session.Manager, publisher *mjpeg.Publisher) *SessionHandler {
	return &SessionHandler{
		manager:   manager,
		publisher: publisher,
	}
}

// CreateSession starts a detection run
// @Summary Start a detection session
// @Description Start accident detection over a video file, webcam device or network stream
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body models.SessionRequest true "Session configuration"
// @Success 201 {object} models.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Error(c).Err(err).Msg("Invalid session request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.manager.Create(&req)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "session limit") {
			status = http.StatusConflict
		}
		logging.Error(c).Err(err).Str("source_uri", req.SourceURI).Msg("Failed to create session")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListSessions lists all sessions
// @Summary List sessions
// @Description Get all known detection sessions with their current statistics
// @Tags sessions
// @Produce json
// @Success 200 {array} models.SessionResponse
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.List())
}

// GetSession returns one session
// @Summary Get session status
// @Description Get the current status and statistics of a detection session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	resp, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StopSession signals a session to finish
// @Summary Stop a session
// @Description Signal a running detection session to stop
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/stop [post]
func (h *SessionHandler) StopSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.manager.Stop(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	logging.Info(c).Str("session_id", id).Msg("Session stop requested")
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "session stopping"})
}

// DeleteSession stops and removes a session
// @Summary Delete a session
// @Description Stop a session and remove it from the registry. Evidence on disk is kept.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.manager.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "session deleted"})
}

// StreamPreview serves the live annotated preview
// @Summary Live session preview
// @Description MJPEG stream of annotated frames for a session
// @Tags sessions
// @Produce mpfd
// @Param id path string true "Session ID"
// @Success 200 {string} string "multipart/x-mixed-replace stream"
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/preview [get]
func (h *SessionHandler) StreamPreview(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.manager.Get(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	h.publisher.StreamMJPEGHTTP(c.Writer, c.Request, id)
}
