// Package heuristic implements the per-frame collision check: pairwise
// bounding-box overlap between vehicles in the current frame, and sudden
// box-area growth against the previous frame's detections.
package heuristic

import (
	"strings"

	"crashwatch-go/internal/models"
)

// Params holds the thresholds for one evaluation. All comparisons against
// thresholds are inclusive (>=).
type Params struct {
	// IoUThreshold flags a vehicle pair as a candidate collision by overlap.
	IoUThreshold float64
	// GrowthThreshold flags a vehicle whose box area grew at least this
	// factor against its best previous-frame match.
	GrowthThreshold float64
	// MatchIoU is the minimum IoU for pairing a current box with a
	// previous-frame box of the same label. Below it the box counts as a
	// new object and the growth check is skipped.
	MatchIoU float64
	// VehicleClasses is the set of detection labels treated as vehicles.
	// Matching is case-insensitive. Non-vehicle detections are ignored.
	VehicleClasses []string
}

// DefaultParams mirror the configured service defaults.
func DefaultParams() Params {
	return Params{
		IoUThreshold:    0.2,
		GrowthThreshold: 1.5,
		MatchIoU:        0.3,
		VehicleClasses:  []string{"car", "truck", "bus", "motorcycle", "motorbike"},
	}
}

func (p Params) classSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.VehicleClasses))
	for _, c := range p.VehicleClasses {
		set[strings.ToLower(c)] = struct{}{}
	}
	return set
}

// FilterVehicles returns the detections whose label is in the configured
// vehicle class set, excluding degenerate boxes. The returned slice is the
// frame's filtered detection set; AccidentEvent vehicle ids index into it.
func FilterVehicles(params Params, detections []models.Detection) []models.Detection {
	set := params.classSet()
	filtered := make([]models.Detection, 0, len(detections))
	for _, d := range detections {
		if _, ok := set[strings.ToLower(d.Label)]; !ok {
			continue
		}
		if d.Box.IsDegenerate() {
			continue
		}
		filtered = append(filtered, d)
	}
	return filtered
}

// Evaluate runs the collision heuristic for one frame.
//
// current and previous are the detection sets of the current and the
// immediately preceding frame; the caller owns carrying the current set
// forward as the next call's previous set. previous may be empty for the
// first frame. The function is stateless beyond the two frames given and
// never errors: malformed geometry is normalized or excluded up front.
//
// frameIndex and timestamp are stamped onto every emitted event. The
// returned events carry zero-based vehicle ids into the filtered current
// set; an empty slice means the frame is not flagged.
func Evaluate(params Params, frameIndex int64, timestamp float64, current, previous []models.Detection) []models.AccidentEvent {
	vehicles := FilterVehicles(params, current)
	prevVehicles := FilterVehicles(params, previous)

	var events []models.AccidentEvent

	// Candidate collisions by overlap: every unordered pair of current
	// vehicle boxes whose IoU reaches the threshold.
	for i := 0; i < len(vehicles); i++ {
		for j := i + 1; j < len(vehicles); j++ {
			iou := IoU(vehicles[i].Box, vehicles[j].Box)
			if iou >= params.IoUThreshold {
				events = append(events, models.AccidentEvent{
					FrameIndex: frameIndex,
					Timestamp:  timestamp,
					Trigger:    models.TriggerOverlap,
					VehicleA:   i,
					VehicleB:   j,
					IoU:        iou,
				})
			}
		}
	}

	// Candidate collisions by sudden growth: each current vehicle box is
	// paired with its best same-label previous box, and flagged when its
	// area grew at least GrowthThreshold-fold. Independent of the overlap
	// check.
	for i, v := range vehicles {
		prev, matchIoU, ok := bestMatch(params, v, prevVehicles)
		if !ok {
			continue
		}
		prevArea := prev.Box.Area()
		if prevArea <= 0 {
			continue
		}
		ratio := v.Box.Area() / prevArea
		if ratio >= params.GrowthThreshold {
			events = append(events, models.AccidentEvent{
				FrameIndex:      frameIndex,
				Timestamp:       timestamp,
				Trigger:         models.TriggerGrowth,
				VehicleA:        i,
				VehicleB:        i,
				IoU:             matchIoU,
				AreaGrowthRatio: ratio,
			})
		}
	}

	return events
}

// bestMatch finds the previous-frame box of the same label with the highest
// IoU against d. Matches below the MatchIoU threshold are treated as a new
// object with no usable history.
func bestMatch(params Params, d models.Detection, previous []models.Detection) (models.Detection, float64, bool) {
	var best models.Detection
	bestIoU := 0.0
	found := false
	label := strings.ToLower(d.Label)

	for _, p := range previous {
		if strings.ToLower(p.Label) != label {
			continue
		}
		iou := IoU(d.Box, p.Box)
		if iou > bestIoU {
			bestIoU = iou
			best = p
			found = true
		}
	}

	if !found || bestIoU < params.MatchIoU {
		return models.Detection{}, 0, false
	}
	return best, bestIoU, true
}
