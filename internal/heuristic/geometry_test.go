package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crashwatch-go/internal/models"
)

func box(x1, y1, x2, y2 float64) models.BoundingBox {
	return models.BoundingBox{XMin: x1, YMin: y1, XMax: x2, YMax: y2}
}

func TestIoU(t *testing.T) {
	t.Parallel()

	t.Run("identical boxes", func(t *testing.T) {
		a := box(10, 10, 50, 50)
		assert.InDelta(t, 1.0, IoU(a, a), 1e-9)
	})

	t.Run("disjoint boxes", func(t *testing.T) {
		a := box(0, 0, 10, 10)
		b := box(20, 20, 30, 30)
		assert.Equal(t, 0.0, IoU(a, b))
	})

	t.Run("touching edges count as disjoint", func(t *testing.T) {
		a := box(0, 0, 10, 10)
		b := box(10, 0, 20, 10)
		assert.Equal(t, 0.0, IoU(a, b))
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]models.BoundingBox{
			{box(0, 0, 10, 10), box(5, 5, 15, 15)},
			{box(0, 0, 100, 50), box(30, 10, 60, 80)},
			{box(2, 2, 4, 4), box(0, 0, 10, 10)},
		}
		for _, p := range pairs {
			assert.InDelta(t, IoU(p[0], p[1]), IoU(p[1], p[0]), 1e-12)
		}
	})

	t.Run("quarter overlap", func(t *testing.T) {
		// Intersection 25, union 100+100-25=175
		a := box(0, 0, 10, 10)
		b := box(5, 5, 15, 15)
		assert.InDelta(t, 25.0/175.0, IoU(a, b), 1e-9)
	})

	t.Run("contained box", func(t *testing.T) {
		outer := box(0, 0, 10, 10)
		inner := box(2, 2, 7, 7)
		assert.InDelta(t, 25.0/100.0, IoU(outer, inner), 1e-9)
	})

	t.Run("degenerate box yields zero", func(t *testing.T) {
		zero := box(5, 5, 5, 5)
		inverted := box(10, 10, 0, 0)
		real := box(0, 0, 10, 10)
		assert.Equal(t, 0.0, IoU(zero, real))
		assert.Equal(t, 0.0, IoU(real, zero))
		assert.Equal(t, 0.0, IoU(inverted, real))
		assert.Equal(t, 0.0, IoU(zero, zero))
	})
}

func TestBoundingBoxArea(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100.0, box(0, 0, 10, 10).Area())
	assert.Equal(t, 0.0, box(5, 5, 5, 9).Area())
	assert.Equal(t, 0.0, box(9, 9, 1, 1).Area())
	assert.True(t, box(3, 3, 3, 3).IsDegenerate())
	assert.False(t, box(0, 0, 1, 1).IsDegenerate())
}

func TestBoundingBoxClamp(t *testing.T) {
	t.Parallel()

	clamped := box(-5, -3, 700, 500).Clamp(640, 480)
	assert.Equal(t, box(0, 0, 640, 480), clamped)

	// Boxes inside the frame are untouched
	in := box(10, 10, 20, 20)
	assert.Equal(t, in, in.Clamp(640, 480))
}
