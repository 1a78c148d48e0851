// Package evidence persists flagged frames: one JPEG snapshot per accident
// frame plus an append-only CSV log with one row per AccidentEvent.
package evidence

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"crashwatch-go/internal/models"
)

var csvHeader = []string{
	"event_id", "frame", "time_seconds", "time_hhmmss",
	"vehicle_a", "vehicle_b", "trigger", "iou", "area_growth", "snapshot_path",
}

// Writer persists evidence for one session. Used by a single pipeline
// goroutine; frames arrive sequentially so no locking is needed.
type Writer struct {
	sessionID string
	outputDir string
	framesDir string
	csvPath   string

	csvFile *csv.Writer
	file    *os.File
	counter int64
	events  []models.AccidentEvent
}

// NewWriter prepares the writer for a session. Directories and the CSV file
// are created lazily on the first flagged frame, so sessions with no
// accidents leave nothing behind but the session directory.
func NewWriter(baseDir, sessionID string) *Writer {
	outputDir := filepath.Join(baseDir, sessionID)
	return &Writer{
		sessionID: sessionID,
		outputDir: outputDir,
		framesDir: filepath.Join(outputDir, "frames"),
		csvPath:   filepath.Join(outputDir, "accident_log.csv"),
	}
}

// CSVPath returns the location of the session's accident log.
func (w *Writer) CSVPath() string { return w.csvPath }

// FramesDir returns the directory holding accident snapshots.
func (w *Writer) FramesDir() string { return w.framesDir }

// Events returns copies of every event recorded so far.
func (w *Writer) Events() []models.AccidentEvent {
	out := make([]models.AccidentEvent, len(w.events))
	copy(out, w.events)
	return out
}

// ensureOpen creates the output tree idempotently and opens the CSV log,
// writing the header exactly once per log file.
func (w *Writer) ensureOpen() error {
	if w.csvFile != nil {
		return nil
	}

	if err := os.MkdirAll(w.framesDir, 0755); err != nil {
		return fmt.Errorf("failed to create evidence directory: %w", err)
	}

	writeHeader := true
	if info, err := os.Stat(w.csvPath); err == nil && info.Size() > 0 {
		writeHeader = false
	}

	f, err := os.OpenFile(w.csvPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open accident log: %w", err)
	}

	w.file = f
	w.csvFile = csv.NewWriter(f)

	if writeHeader {
		if err := w.csvFile.Write(csvHeader); err != nil {
			f.Close()
			w.file = nil
			w.csvFile = nil
			return fmt.Errorf("failed to write accident log header: %w", err)
		}
		w.csvFile.Flush()
	}
	return w.csvFile.Error()
}

// Record persists one flagged frame: the JPEG snapshot under a monotonic
// collision-free name, then one CSV row per event. Returns the snapshot
// path. Each invocation writes a fresh snapshot, even for a repeated frame
// index, so earlier evidence is never overwritten.
func (w *Writer) Record(frameJPEG []byte, frameIndex int64, timestamp float64, events []models.AccidentEvent) (string, error) {
	if len(events) == 0 {
		return "", nil
	}
	if err := w.ensureOpen(); err != nil {
		return "", err
	}

	w.counter++
	snapshotName := fmt.Sprintf("accident_%d_frame_%d.jpg", w.counter, frameIndex)
	snapshotPath := filepath.Join(w.framesDir, snapshotName)

	if err := os.WriteFile(snapshotPath, frameJPEG, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", snapshotName, err)
	}

	for i := range events {
		events[i].EventID = w.nextEventID()
		events[i].SnapshotPath = snapshotPath

		row := []string{
			strconv.FormatInt(events[i].EventID, 10),
			strconv.FormatInt(events[i].FrameIndex, 10),
			strconv.FormatFloat(events[i].Timestamp, 'f', 2, 64),
			formatHHMMSS(events[i].Timestamp),
			strconv.Itoa(events[i].VehicleA),
			strconv.Itoa(events[i].VehicleB),
			string(events[i].Trigger),
			strconv.FormatFloat(events[i].IoU, 'f', 4, 64),
			strconv.FormatFloat(events[i].AreaGrowthRatio, 'f', 4, 64),
			snapshotPath,
		}
		if err := w.csvFile.Write(row); err != nil {
			return snapshotPath, fmt.Errorf("failed to append accident log row: %w", err)
		}
		w.events = append(w.events, events[i])
	}

	w.csvFile.Flush()
	if err := w.csvFile.Error(); err != nil {
		return snapshotPath, fmt.Errorf("failed to flush accident log: %w", err)
	}

	log.Debug().
		Str("session_id", w.sessionID).
		Int64("frame", frameIndex).
		Int("events", len(events)).
		Str("snapshot", snapshotName).
		Msg("Recorded accident evidence")

	return snapshotPath, nil
}

// Close flushes and closes the CSV log. Safe to call when nothing was
// recorded.
func (w *Writer) Close() error {
	if w.csvFile != nil {
		w.csvFile.Flush()
	}
	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		w.csvFile = nil
		return err
	}
	return nil
}

func (w *Writer) nextEventID() int64 {
	return int64(len(w.events)) + 1
}

// formatHHMMSS renders whole seconds as hh:mm:ss for the human-facing
// log column.
func formatHHMMSS(seconds float64) string {
	d := time.Duration(int64(seconds)) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
