package evidence

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crashwatch-go/internal/models"
)

func overlapEvent(frame int64, ts float64) models.AccidentEvent {
	return models.AccidentEvent{
		FrameIndex: frame,
		Timestamp:  ts,
		Trigger:    models.TriggerOverlap,
		VehicleA:   0,
		VehicleB:   1,
		IoU:        0.42,
	}
}

func readLog(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRecordWritesSnapshotAndLog(t *testing.T) {
	w := NewWriter(t.TempDir(), "session-1")
	defer w.Close()

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	path, err := w.Record(jpeg, 12, 0.48, []models.AccidentEvent{overlapEvent(12, 0.48)})
	require.NoError(t, err)
	assert.Equal(t, "accident_1_frame_12.jpg", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, jpeg, data)

	rows := readLog(t, w.CSVPath())
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "12", rows[1][1])
	assert.Equal(t, "0.48", rows[1][2])
	assert.Equal(t, "00:00:00", rows[1][3])
	assert.Equal(t, "overlap", rows[1][6])
	assert.Equal(t, path, rows[1][9])
}

func TestRecordRepeatedFrameIndexNeverOverwrites(t *testing.T) {
	w := NewWriter(t.TempDir(), "session-1")
	defer w.Close()

	p1, err := w.Record([]byte("first"), 7, 1.0, []models.AccidentEvent{overlapEvent(7, 1.0)})
	require.NoError(t, err)
	p2, err := w.Record([]byte("second"), 7, 1.0, []models.AccidentEvent{overlapEvent(7, 1.0)})
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
	assert.Equal(t, "accident_1_frame_7.jpg", filepath.Base(p1))
	assert.Equal(t, "accident_2_frame_7.jpg", filepath.Base(p2))

	d1, _ := os.ReadFile(p1)
	d2, _ := os.ReadFile(p2)
	assert.Equal(t, "first", string(d1))
	assert.Equal(t, "second", string(d2))
}

func TestLogHeaderWrittenOnce(t *testing.T) {
	w := NewWriter(t.TempDir(), "session-1")
	defer w.Close()

	_, err := w.Record([]byte("a"), 1, 0.1, []models.AccidentEvent{overlapEvent(1, 0.1)})
	require.NoError(t, err)
	_, err = w.Record([]byte("b"), 2, 0.2, []models.AccidentEvent{overlapEvent(2, 0.2)})
	require.NoError(t, err)

	rows := readLog(t, w.CSVPath())
	require.Len(t, rows, 3)
	headers := 0
	for _, row := range rows {
		if row[0] == "event_id" {
			headers++
		}
	}
	assert.Equal(t, 1, headers)
}

func TestMultipleEventsShareSnapshot(t *testing.T) {
	w := NewWriter(t.TempDir(), "session-1")
	defer w.Close()

	events := []models.AccidentEvent{
		overlapEvent(3, 0.12),
		{
			FrameIndex:      3,
			Timestamp:       0.12,
			Trigger:         models.TriggerGrowth,
			VehicleA:        2,
			VehicleB:        2,
			AreaGrowthRatio: 1.8,
		},
	}
	path, err := w.Record([]byte("frame"), 3, 0.12, events)
	require.NoError(t, err)

	rows := readLog(t, w.CSVPath())
	require.Len(t, rows, 3)
	assert.Equal(t, path, rows[1][9])
	assert.Equal(t, path, rows[2][9])
	assert.Equal(t, "growth", rows[2][6])
	assert.Equal(t, rows[2][4], rows[2][5])

	recorded := w.Events()
	require.Len(t, recorded, 2)
	assert.Equal(t, int64(1), recorded[0].EventID)
	assert.Equal(t, int64(2), recorded[1].EventID)
}

func TestRecordNoEventsIsNoop(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "quiet-session")
	defer w.Close()

	path, err := w.Record([]byte("frame"), 1, 0.0, nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	_, statErr := os.Stat(w.CSVPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnsureOpenIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "session-1")
	defer w.Close()

	require.NoError(t, w.ensureOpen())
	require.NoError(t, w.ensureOpen())

	info, err := os.Stat(w.FramesDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, strings.HasPrefix(w.FramesDir(), dir))
}

func TestFormatHHMMSS(t *testing.T) {
	assert.Equal(t, "00:00:05", formatHHMMSS(5.4))
	assert.Equal(t, "00:01:30", formatHHMMSS(90))
	assert.Equal(t, "01:01:01", formatHHMMSS(3661))
}
