package models

import (
	"time"
)

// TriggerType identifies which heuristic rule produced an AccidentEvent.
type TriggerType string

const (
	TriggerOverlap TriggerType = "overlap"
	TriggerGrowth  TriggerType = "growth"
)

// AlertSeverity represents the severity level of accident alerts
type AlertSeverity string

const (
	AlertSeverityMedium AlertSeverity = "MEDIUM"
	AlertSeverityHigh   AlertSeverity = "HIGH"
)

// BoundingBox is an axis-aligned rectangle in pixel coordinates.
// XMin < XMax and YMin < YMax for any non-degenerate box.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// Area returns the box area, zero for degenerate geometry.
func (b BoundingBox) Area() float64 {
	w := b.XMax - b.XMin
	h := b.YMax - b.YMin
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// IsDegenerate reports whether the box has no usable area.
func (b BoundingBox) IsDegenerate() bool {
	return b.Area() <= 0
}

// Clamp constrains the box to frame dimensions, returning the clamped copy.
func (b BoundingBox) Clamp(width, height float64) BoundingBox {
	out := b
	if out.XMin < 0 {
		out.XMin = 0
	}
	if out.YMin < 0 {
		out.YMin = 0
	}
	if width > 0 && out.XMax > width {
		out.XMax = width
	}
	if height > 0 && out.YMax > height {
		out.YMax = height
	}
	return out
}

// Detection represents a single detected object for one frame.
// Detections are produced fresh per frame and carried forward at most one
// frame, as the previous-frame state for the growth check.
type Detection struct {
	Label string      `json:"label"`
	Score float32     `json:"score"`
	Box   BoundingBox `json:"box"`
}

// AccidentEvent is emitted by the collision heuristic when a frame is
// flagged. Immutable once created; written once to the CSV log.
// VehicleA and VehicleB index the flagged frame's filtered detection set.
// Growth-triggered events reference the triggering box for both fields.
type AccidentEvent struct {
	EventID         int64       `json:"event_id"`
	FrameIndex      int64       `json:"frame"`
	Timestamp       float64     `json:"time_seconds"`
	Trigger         TriggerType `json:"trigger"`
	VehicleA        int         `json:"vehicle_a"`
	VehicleB        int         `json:"vehicle_b"`
	IoU             float64     `json:"iou"`
	AreaGrowthRatio float64     `json:"area_growth"`
	SnapshotPath    string      `json:"snapshot_path,omitempty"`
}

// FrameMetadata contains frame-level information attached to alerts.
type FrameMetadata struct {
	FrameIndex int64     `json:"frame_index"`
	Timestamp  time.Time `json:"timestamp"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Vehicles   int       `json:"vehicle_count"`
}

// AccidentAlertPayload is the structure published to NATS for a flagged frame.
type AccidentAlertPayload struct {
	SessionID string        `json:"session_id"`
	Severity  AlertSeverity `json:"severity"`
	Title     string        `json:"title"`
	Event     AccidentEvent `json:"event"`
	Frame     FrameMetadata `json:"frame"`
	Timestamp time.Time     `json:"timestamp"`
}

// MessagePublisher interface for publishing alerts
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
