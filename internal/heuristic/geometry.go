package heuristic

import (
	"crashwatch-go/internal/models"
)

// IoU computes Intersection-over-Union for two axis-aligned boxes.
// Returns 0 when the boxes do not overlap or either box is degenerate,
// 1 for identical non-degenerate boxes.
func IoU(a, b models.BoundingBox) float64 {
	areaA := a.Area()
	areaB := b.Area()
	if areaA <= 0 || areaB <= 0 {
		return 0
	}

	ix1 := maxf(a.XMin, b.XMin)
	iy1 := maxf(a.YMin, b.YMin)
	ix2 := minf(a.XMax, b.XMax)
	iy2 := minf(a.YMax, b.YMax)

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	return inter / (areaA + areaB - inter)
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
