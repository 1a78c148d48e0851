package models

import (
	"time"
)

// SourceType selects where session frames come from
type SourceType string

const (
	SourceTypeFile   SourceType = "file"
	SourceTypeDevice SourceType = "device"
	SourceTypeStream SourceType = "stream"
)

// IsValid checks if the source type is one of the supported kinds
func (st SourceType) IsValid() bool {
	switch st {
	case SourceTypeFile, SourceTypeDevice, SourceTypeStream:
		return true
	default:
		return false
	}
}

// SessionStatus represents the session lifecycle state
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusStopped   SessionStatus = "stopped"
	SessionStatusFailed    SessionStatus = "failed"
)

// SessionSettings holds the tunable heuristic and detector parameters for one
// session. Zero values fall back to configured defaults at session creation.
type SessionSettings struct {
	ConfidenceThreshold float32       `json:"confidence_threshold"`
	IoUThreshold        float64       `json:"iou_threshold"`
	GrowthThreshold     float64       `json:"growth_threshold"`
	MatchIoUThreshold   float64       `json:"match_iou_threshold"`
	VehicleClasses      []string      `json:"vehicle_classes"`
	MaxDuration         time.Duration `json:"-"`
	MaxFrames           int64         `json:"max_frames,omitempty"`
}

// Session represents a single detection run over one frame source.
type Session struct {
	ID         string          `json:"session_id"`
	SourceType SourceType      `json:"source_type"`
	SourceURI  string          `json:"source_uri"`
	Settings   SessionSettings `json:"settings"`
	Status     SessionStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  time.Time       `json:"started_at,omitempty"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`

	// Statistics, owned by the single pipeline goroutine
	FrameCount        int64   `json:"frame_count"`
	EventCount        int64   `json:"event_count"`
	AccidentFrames    int64   `json:"accident_frames"`
	DetectorErrors    int64   `json:"detector_errors"`
	EvidenceErrors    int64   `json:"evidence_errors"`
	FPS               float64 `json:"fps"`
	DetectorLatencyMS float64 `json:"detector_latency_ms"`
	LastError         string  `json:"last_error,omitempty"`

	// Output locations
	OutputDir  string `json:"output_dir"`
	CSVPath    string `json:"csv_path"`
	PreviewURL string `json:"preview_url"`

	// Control
	StopChannel chan struct{} `json:"-"`
}

// SessionRequest for API session creation
type SessionRequest struct {
	SourceType SourceType `json:"source_type" binding:"required"`
	SourceURI  string     `json:"source_uri" binding:"required"`

	// Optional overrides for the configured defaults
	ConfidenceThreshold *float32 `json:"confidence_threshold,omitempty"`
	IoUThreshold        *float64 `json:"iou_threshold,omitempty"`
	GrowthThreshold     *float64 `json:"growth_threshold,omitempty"`
	MatchIoUThreshold   *float64 `json:"match_iou_threshold,omitempty"`
	VehicleClasses      []string `json:"vehicle_classes,omitempty"`
	DurationSeconds     *int     `json:"duration_seconds,omitempty"`
	MaxFrames           *int64   `json:"max_frames,omitempty"`
}

// SessionResponse for API
type SessionResponse struct {
	SessionID         string          `json:"session_id"`
	SourceType        SourceType      `json:"source_type"`
	SourceURI         string          `json:"source_uri"`
	Status            SessionStatus   `json:"status"`
	Settings          SessionSettings `json:"settings"`
	CreatedAt         time.Time       `json:"created_at"`
	StartedAt         *time.Time      `json:"started_at,omitempty"`
	FinishedAt        *time.Time      `json:"finished_at,omitempty"`
	FrameCount        int64           `json:"frame_count"`
	EventCount        int64           `json:"event_count"`
	AccidentFrames    int64           `json:"accident_frames"`
	DetectorErrors    int64           `json:"detector_errors"`
	EvidenceErrors    int64           `json:"evidence_errors"`
	FPS               float64         `json:"fps"`
	DetectorLatencyMS float64         `json:"detector_latency_ms"`
	LastError         string          `json:"last_error,omitempty"`
	PreviewURL        string          `json:"preview_url"`
	CSVUrl            string          `json:"csv_url"`
	EventsURL         string          `json:"events_url"`
}
