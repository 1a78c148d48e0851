package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"crashwatch-go/internal/services/session"
)

type EvidenceHandler struct {
	manager *session.Manager
}

func NewEvidenceHandler(manager *session.Manager) *EvidenceHandler {
	return &EvidenceHandler{manager: manager}
}

type SnapshotInfo struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size_bytes"`
}

// ListEvents returns accident events for a session
// @Summary List accident events
// @Description Get every accident event recorded so far for a session
// @Tags evidence
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} models.AccidentEvent
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/events [get]
func (h *EvidenceHandler) ListEvents(c *gin.Context) {
	events, err := h.manager.Events(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

// DownloadCSV serves the session's accident log
// @Summary Download accident log CSV
// @Description Download the append-only accident log for a session
// @Tags evidence
// @Produce plain
// @Param id path string true "Session ID"
// @Success 200 {string} string "CSV content"
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/log.csv [get]
func (h *EvidenceHandler) DownloadCSV(c *gin.Context) {
	csvPath, _, err := h.manager.EvidencePaths(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if _, err := os.Stat(csvPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no accidents recorded for this session"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="accident_log.csv"`)
	c.Header("Content-Type", "text/csv")
	c.File(csvPath)
}

// ListSnapshots lists accident frame snapshots
// @Summary List accident snapshots
// @Description Get the accident frame snapshots stored for a session
// @Tags evidence
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} SnapshotInfo
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/frames [get]
func (h *EvidenceHandler) ListSnapshots(c *gin.Context) {
	id := c.Param("id")
	_, framesDir, err := h.manager.EvidencePaths(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	entries, err := os.ReadDir(framesDir)
	if err != nil {
		// No flagged frames yet, the directory is created lazily.
		c.JSON(http.StatusOK, []SnapshotInfo{})
		return
	}

	snapshots := make([]SnapshotInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, SnapshotInfo{
			Name: entry.Name(),
			URL:  "/sessions/" + id + "/frames/" + entry.Name(),
			Size: info.Size(),
		})
	}
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Name < snapshots[j].Name })

	c.JSON(http.StatusOK, snapshots)
}

// GetSnapshot serves one accident snapshot
// @Summary Download an accident snapshot
// @Description Download a single accident frame JPEG by name
// @Tags evidence
// @Produce jpeg
// @Param id path string true "Session ID"
// @Param name path string true "Snapshot file name"
// @Success 200 {string} string "JPEG content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/frames/{name} [get]
func (h *EvidenceHandler) GetSnapshot(c *gin.Context) {
	name := c.Param("name")
	if !strings.HasSuffix(name, ".jpg") || strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot name"})
		return
	}

	_, framesDir, err := h.manager.EvidencePaths(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	path := filepath.Join(framesDir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	c.File(path)
}
