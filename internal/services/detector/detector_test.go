package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClassNames(t *testing.T) {
	t.Parallel()

	t.Run("missing file falls back to builtin set", func(t *testing.T) {
		names, err := loadClassNames(filepath.Join(t.TempDir(), "nope.names"))
		require.NoError(t, err)
		assert.Equal(t, cocoNames, names)
		assert.Equal(t, "car", names[2])
		assert.Equal(t, "truck", names[7])
	})

	t.Run("empty path falls back to builtin set", func(t *testing.T) {
		names, err := loadClassNames("")
		require.NoError(t, err)
		assert.Len(t, names, 80)
	})

	t.Run("reads one label per line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "vehicle.names")
		require.NoError(t, os.WriteFile(path, []byte("car\ntruck\n\n  bus  \n"), 0644))

		names, err := loadClassNames(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"car", "truck", "bus"}, names)
	})
}

func TestMapRemoteResults(t *testing.T) {
	t.Parallel()

	t.Run("maps fields and clamps to frame", func(t *testing.T) {
		in := []remoteResult{
			{Name: "car", Confidence: 0.87, Box: remoteBox{XMin: 10, YMin: 20, XMax: 110, YMax: 90}},
			{Name: "truck", Confidence: 0.55, Box: remoteBox{XMin: -8, YMin: -4, XMax: 700, YMax: 500}},
		}

		out := mapRemoteResults(in, 640, 480)
		require.Len(t, out, 2)
		assert.Equal(t, "car", out[0].Label)
		assert.InDelta(t, 0.87, float64(out[0].Score), 1e-6)
		assert.Equal(t, 10.0, out[0].Box.XMin)
		// Second box clamped to frame bounds
		assert.Equal(t, 0.0, out[1].Box.XMin)
		assert.Equal(t, 640.0, out[1].Box.XMax)
		assert.Equal(t, 480.0, out[1].Box.YMax)
	})

	t.Run("degenerate boxes are dropped", func(t *testing.T) {
		in := []remoteResult{
			{Name: "car", Confidence: 0.9, Box: remoteBox{XMin: 50, YMin: 50, XMax: 50, YMax: 80}},
			{Name: "bus", Confidence: 0.9, Box: remoteBox{XMin: 90, YMin: 90, XMax: 10, YMax: 10}},
		}
		assert.Empty(t, mapRemoteResults(in, 640, 480))
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, mapRemoteResults(nil, 640, 480))
	})
}

func TestLetterboxScale(t *testing.T) {
	t.Parallel()

	t.Run("wide frame pads vertically", func(t *testing.T) {
		s := letterboxScale(1280, 720, 640)
		assert.InDelta(t, 0.5, s.ratio, 1e-9)
		assert.InDelta(t, 0.0, s.padX, 1e-9)
		assert.InDelta(t, (640.0-360.0)/2, s.padY, 1e-9)
	})

	t.Run("tall frame pads horizontally", func(t *testing.T) {
		s := letterboxScale(480, 640, 640)
		assert.InDelta(t, 1.0, s.ratio, 1e-9)
		assert.InDelta(t, 80.0, s.padX, 1e-9)
		assert.InDelta(t, 0.0, s.padY, 1e-9)
	})

	t.Run("square frame has no padding", func(t *testing.T) {
		s := letterboxScale(640, 640, 640)
		assert.InDelta(t, 1.0, s.ratio, 1e-9)
		assert.Equal(t, 0.0, s.padX)
		assert.Equal(t, 0.0, s.padY)
	})

	t.Run("degenerate frame is safe", func(t *testing.T) {
		s := letterboxScale(0, 0, 640)
		assert.Equal(t, 1.0, s.ratio)
	})
}

func TestGRPCTarget(t *testing.T) {
	t.Parallel()

	target, err := grpcTarget("http://192.168.1.20:9500")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20:9500", target)

	target, err = grpcTarget("http://detector.local")
	require.NoError(t, err)
	assert.Equal(t, "detector.local:50051", target)
}
