package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crashwatch-go/internal/models"
)

func car(x1, y1, x2, y2 float64) models.Detection {
	return models.Detection{Label: "car", Score: 0.9, Box: box(x1, y1, x2, y2)}
}

func TestFilterVehicles(t *testing.T) {
	t.Parallel()

	params := DefaultParams()

	t.Run("non-vehicle labels are dropped", func(t *testing.T) {
		in := []models.Detection{
			car(0, 0, 10, 10),
			{Label: "person", Score: 0.95, Box: box(20, 20, 30, 40)},
			{Label: "traffic light", Score: 0.8, Box: box(50, 0, 55, 20)},
			{Label: "Truck", Score: 0.7, Box: box(100, 100, 150, 140)},
		}
		out := FilterVehicles(params, in)
		require.Len(t, out, 2)
		assert.Equal(t, "car", out[0].Label)
		assert.Equal(t, "Truck", out[1].Label)
	})

	t.Run("degenerate boxes are excluded", func(t *testing.T) {
		in := []models.Detection{
			car(5, 5, 5, 15),  // zero width
			car(10, 10, 2, 2), // inverted
			car(0, 0, 10, 10),
		}
		out := FilterVehicles(params, in)
		require.Len(t, out, 1)
		assert.Equal(t, box(0, 0, 10, 10), out[0].Box)
	})

	t.Run("custom class set", func(t *testing.T) {
		p := params
		p.VehicleClasses = []string{"bus"}
		in := []models.Detection{
			car(0, 0, 10, 10),
			{Label: "bus", Score: 0.6, Box: box(0, 0, 40, 30)},
		}
		out := FilterVehicles(p, in)
		require.Len(t, out, 1)
		assert.Equal(t, "bus", out[0].Label)
	})
}

func TestEvaluateOverlap(t *testing.T) {
	t.Parallel()

	t.Run("fewer than two vehicles yields no overlap events", func(t *testing.T) {
		params := DefaultParams()
		events := Evaluate(params, 1, 0.04, []models.Detection{car(0, 0, 10, 10)}, nil)
		assert.Empty(t, events)

		events = Evaluate(params, 1, 0.04, nil, nil)
		assert.Empty(t, events)
	})

	t.Run("disjoint pair then overlapping pair", func(t *testing.T) {
		// Frame 1: A=(0,0,10,10), B=(20,20,30,30), IoU=0 -> no event.
		// Frame 2: A=(0,0,10,10), B=(5,5,15,15), IoU=25/175 -> one event.
		params := DefaultParams()
		params.IoUThreshold = 0.1

		frame1 := []models.Detection{car(0, 0, 10, 10), car(20, 20, 30, 30)}
		events := Evaluate(params, 1, 0.0, frame1, nil)
		assert.Empty(t, events)

		frame2 := []models.Detection{car(0, 0, 10, 10), car(5, 5, 15, 15)}
		events = Evaluate(params, 2, 0.04, frame2, frame1)
		require.Len(t, events, 1)
		assert.Equal(t, models.TriggerOverlap, events[0].Trigger)
		assert.Equal(t, 0, events[0].VehicleA)
		assert.Equal(t, 1, events[0].VehicleB)
		assert.InDelta(t, 25.0/175.0, events[0].IoU, 1e-9)
		assert.Equal(t, int64(2), events[0].FrameIndex)
	})

	t.Run("threshold boundary is inclusive", func(t *testing.T) {
		params := DefaultParams()
		a := box(0, 0, 10, 10)
		b := box(5, 5, 15, 15)
		params.IoUThreshold = IoU(a, b) // exactly at the pair's IoU

		events := Evaluate(params, 1, 0, []models.Detection{
			{Label: "car", Box: a}, {Label: "car", Box: b},
		}, nil)
		require.Len(t, events, 1)
		assert.Equal(t, models.TriggerOverlap, events[0].Trigger)
	})

	t.Run("just above threshold is not flagged", func(t *testing.T) {
		params := DefaultParams()
		a := box(0, 0, 10, 10)
		b := box(5, 5, 15, 15)
		params.IoUThreshold = IoU(a, b) + 1e-6

		events := Evaluate(params, 1, 0, []models.Detection{
			{Label: "car", Box: a}, {Label: "car", Box: b},
		}, nil)
		assert.Empty(t, events)
	})

	t.Run("multiple pairs emit multiple events", func(t *testing.T) {
		params := DefaultParams()
		params.IoUThreshold = 0.1
		// Three mutually-overlapping boxes produce three pair events.
		frame := []models.Detection{
			car(0, 0, 20, 20),
			car(5, 5, 25, 25),
			car(10, 10, 30, 30),
		}
		events := Evaluate(params, 7, 0.28, frame, nil)
		assert.Len(t, events, 3)
		for _, e := range events {
			assert.Equal(t, models.TriggerOverlap, e.Trigger)
			assert.Less(t, e.VehicleA, e.VehicleB)
		}
	})
}

func TestEvaluateGrowth(t *testing.T) {
	t.Parallel()

	t.Run("area doubling against growth threshold 1.5", func(t *testing.T) {
		params := DefaultParams()
		params.GrowthThreshold = 1.5

		// Exactly-doubled box pins the ratio: 10x10 -> 10x20.
		prev := []models.Detection{car(0, 0, 10, 10)}
		curr := []models.Detection{car(0, 0, 10, 20)}

		events := Evaluate(params, 2, 0.08, curr, prev)
		require.Len(t, events, 1)
		assert.Equal(t, models.TriggerGrowth, events[0].Trigger)
		assert.InDelta(t, 2.0, events[0].AreaGrowthRatio, 1e-9)
		assert.Equal(t, events[0].VehicleA, events[0].VehicleB)
	})

	t.Run("growth ratio 2.6 against thresholds 2.0 and 3.0", func(t *testing.T) {
		// Previous area 100, current matched area 260.
		prev := []models.Detection{car(0, 0, 10, 10)}
		curr := []models.Detection{car(0, 0, 13, 20)}

		params := DefaultParams()
		params.GrowthThreshold = 2.0
		events := Evaluate(params, 3, 0.12, curr, prev)
		require.Len(t, events, 1)
		assert.InDelta(t, 2.6, events[0].AreaGrowthRatio, 1e-9)

		params.GrowthThreshold = 3.0
		events = Evaluate(params, 3, 0.12, curr, prev)
		assert.Empty(t, events)
	})

	t.Run("growth check applies with a single vehicle", func(t *testing.T) {
		params := DefaultParams()
		prev := []models.Detection{car(0, 0, 10, 10)}
		curr := []models.Detection{car(0, 0, 15, 15)} // ratio 2.25

		events := Evaluate(params, 2, 0.08, curr, prev)
		require.Len(t, events, 1)
		assert.Equal(t, models.TriggerGrowth, events[0].Trigger)
	})

	t.Run("no previous match skips growth", func(t *testing.T) {
		params := DefaultParams()

		// Empty previous frame
		events := Evaluate(params, 1, 0, []models.Detection{car(0, 0, 30, 30)}, nil)
		assert.Empty(t, events)

		// Previous box far away: match IoU below threshold
		prev := []models.Detection{car(500, 500, 510, 510)}
		events = Evaluate(params, 2, 0.08, []models.Detection{car(0, 0, 30, 30)}, prev)
		assert.Empty(t, events)
	})

	t.Run("label must match for pairing", func(t *testing.T) {
		params := DefaultParams()
		prev := []models.Detection{{Label: "truck", Score: 0.8, Box: box(0, 0, 10, 10)}}
		curr := []models.Detection{car(0, 0, 10, 20)}

		events := Evaluate(params, 2, 0.08, curr, prev)
		assert.Empty(t, events)
	})

	t.Run("best previous match wins over weaker overlaps", func(t *testing.T) {
		params := DefaultParams()
		params.GrowthThreshold = 1.5
		prev := []models.Detection{
			car(0, 0, 10, 10), // strong overlap, area 100
			car(6, 6, 30, 30), // weaker overlap, larger area
		}
		curr := []models.Detection{car(0, 0, 10, 20)} // area 200

		events := Evaluate(params, 2, 0.08, curr, prev)
		require.Len(t, events, 1)
		// Paired against the first box: ratio 2.0, not 200/576.
		assert.InDelta(t, 2.0, events[0].AreaGrowthRatio, 1e-9)
	})

	t.Run("overlap and growth are independent triggers", func(t *testing.T) {
		params := DefaultParams()
		params.IoUThreshold = 0.1
		params.GrowthThreshold = 1.5

		prev := []models.Detection{car(0, 0, 10, 10), car(40, 40, 50, 50)}
		// First box doubles and now overlaps the second.
		curr := []models.Detection{car(0, 0, 10, 20), car(2, 2, 12, 22)}

		events := Evaluate(params, 2, 0.08, curr, prev)
		triggers := map[models.TriggerType]int{}
		for _, e := range events {
			triggers[e.Trigger]++
		}
		assert.Equal(t, 1, triggers[models.TriggerOverlap])
		assert.GreaterOrEqual(t, triggers[models.TriggerGrowth], 1)
	})
}

func TestEvaluateStateless(t *testing.T) {
	t.Parallel()

	params := DefaultParams()
	prev := []models.Detection{car(0, 0, 10, 10)}
	curr := []models.Detection{car(0, 0, 10, 20)}

	first := Evaluate(params, 2, 0.08, curr, prev)
	second := Evaluate(params, 2, 0.08, curr, prev)
	assert.Equal(t, first, second)

	// Inputs are not mutated
	assert.Equal(t, box(0, 0, 10, 10), prev[0].Box)
	assert.Equal(t, box(0, 0, 10, 20), curr[0].Box)
}
