package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"crashwatch-go/internal/config"
	"crashwatch-go/internal/services/session"
)

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	cfg     *config.Config
	manager *session.Manager
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(cfg *config.Config, manager *session.Manager) *SystemHandler {
	return &SystemHandler{cfg: cfg, manager: manager}
}

// @Summary Get system stats
// @Description Get system statistics and performance metrics
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	total, running := h.manager.Stats()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"app_id":           h.cfg.AppID,
			"sessions_total":   total,
			"sessions_running": running,
			"memory_mb":        m.Alloc / 1024 / 1024,
			"cpu_cores":        runtime.NumCPU(),
			"goroutines":       runtime.NumGoroutine(),
			"go_version":       runtime.Version(),
		},
		"timestamp": time.Now().Unix(),
	})
}

// @Summary Get detection defaults
// @Description Get the configured detection defaults, used by UIs to seed their controls
// @Tags system
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/config [get]
func (h *SystemHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config": gin.H{
			"confidence_threshold": h.cfg.ConfidenceThreshold,
			"iou_threshold":        h.cfg.IoUThreshold,
			"growth_threshold":     h.cfg.GrowthThreshold,
			"match_iou_threshold":  h.cfg.MatchIoUThreshold,
			"vehicle_classes":      h.cfg.VehicleClasses,
			"max_sessions":         h.cfg.MaxSessions,
			"max_live_duration_s":  int(h.cfg.MaxLiveDuration.Seconds()),
			"detector_mode":        h.cfg.DetectorMode,
		},
	})
}
