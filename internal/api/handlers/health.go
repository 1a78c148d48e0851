package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessagingStatus reports the state of the alert transport.
type MessagingStatus interface {
	IsConnected() bool
}

type HealthHandler struct {
	AppID     string
	Version   string
	messaging MessagingStatus
}

func NewHealthHandler(appID, version string, messaging MessagingStatus) *HealthHandler {
	return &HealthHandler{AppID: appID, Version: version, messaging: messaging}
}

type HealthResponse struct {
	Status        string `json:"status" example:"healthy"`
	AppID         string `json:"app_id" example:"crashwatch-1"`
	NatsConnected bool   `json:"nats_connected"`
}

type AppInfoResponse struct {
	AppID        string   `json:"app_id" example:"crashwatch-1"`
	Status       string   `json:"status" example:"running"`
	Version      string   `json:"version" example:"1.0.0"`
	Capabilities []string `json:"capabilities"`
}

// @Summary Health check
// @Description Check if the service is healthy and responsive
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	natsUp := h.messaging != nil && h.messaging.IsConnected()
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		AppID:         h.AppID,
		NatsConnected: natsUp,
	})
}

// @Summary Service information
// @Description Get basic service information and capabilities
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} AppInfoResponse
// @Router / [get]
func (h *HealthHandler) AppInfo(c *gin.Context) {
	c.JSON(http.StatusOK, AppInfoResponse{
		AppID:   h.AppID,
		Status:  "running",
		Version: h.Version,
		Capabilities: []string{
			"vehicle_detection",
			"accident_detection",
			"mjpeg_preview",
			"evidence_logging",
		},
	})
}
