// Package overlay draws detection boxes and accident annotations onto
// frames before they are encoded for preview and evidence.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"crashwatch-go/internal/models"
)

var (
	vehicleColor  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	accidentColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	bannerBg      = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Draw annotates the frame in place: every filtered vehicle gets a labeled
// box, boxes involved in events are redrawn in red, and flagged frames get
// a banner with the running accident count.
func Draw(mat *gocv.Mat, detections []models.Detection, events []models.AccidentEvent, accidentTotal int64) {
	flagged := involvedIndices(events, len(detections))

	for i, det := range detections {
		boxColor := vehicleColor
		thickness := 2
		if flagged[i] {
			boxColor = accidentColor
			thickness = 3
		}

		rect := image.Rect(
			int(det.Box.XMin), int(det.Box.YMin),
			int(det.Box.XMax), int(det.Box.YMax),
		)
		gocv.Rectangle(mat, rect, boxColor, thickness)
		drawLabel(mat, fmt.Sprintf("%s %.2f", det.Label, det.Score), rect.Min.X, rect.Min.Y, boxColor)
	}

	if len(events) > 0 {
		drawBanner(mat, fmt.Sprintf("ACCIDENT DETECTED! #%d", accidentTotal))
	}
}

// involvedIndices marks each detection index referenced by an event.
// Growth events reference a single box twice, it is still flagged.
func involvedIndices(events []models.AccidentEvent, n int) map[int]bool {
	flagged := make(map[int]bool, len(events)*2)
	for _, ev := range events {
		if ev.VehicleA >= 0 && ev.VehicleA < n {
			flagged[ev.VehicleA] = true
		}
		if ev.VehicleB >= 0 && ev.VehicleB < n {
			flagged[ev.VehicleB] = true
		}
	}
	return flagged
}

func drawLabel(mat *gocv.Mat, text string, x, y int, boxColor color.RGBA) {
	textY := y - 8
	if textY < 20 {
		textY = y + 20
	}

	textSize := gocv.GetTextSize(text, gocv.FontHersheySimplex, 0.5, 1)
	bgRect := image.Rect(x-2, textY-textSize.Y-4, x+textSize.X+4, textY+4)
	gocv.Rectangle(mat, bgRect, bannerBg, -1)
	gocv.PutText(mat, text, image.Pt(x, textY), gocv.FontHersheySimplex, 0.5, boxColor, 1)
}

func drawBanner(mat *gocv.Mat, text string) {
	textSize := gocv.GetTextSize(text, gocv.FontHersheySimplex, 1.0, 2)
	bgRect := image.Rect(10, 10, 30+textSize.X, 30+textSize.Y)
	gocv.Rectangle(mat, bgRect, accidentColor, -1)
	gocv.PutText(mat, text, image.Pt(20, 20+textSize.Y), gocv.FontHersheySimplex, 1.0, textColor, 2)
}
