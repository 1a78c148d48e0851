package alerts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crashwatch-go/internal/config"
	"crashwatch-go/internal/models"
)

type fakePublisher struct {
	subjects []string
	payloads []models.AccidentAlertPayload
	err      error
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data.(models.AccidentAlertPayload))
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		AlertsEnabled:  true,
		AlertsSubject:  "accidents",
		AlertsCooldown: 10 * time.Second,
	}
}

func overlapEvent(iou float64) models.AccidentEvent {
	return models.AccidentEvent{Trigger: models.TriggerOverlap, IoU: iou, FrameIndex: 5}
}

func growthEvent(ratio float64) models.AccidentEvent {
	return models.AccidentEvent{Trigger: models.TriggerGrowth, AreaGrowthRatio: ratio, FrameIndex: 5}
}

func TestProcessEventsPublishesAlert(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(testConfig(), pub)

	frame := models.FrameMetadata{FrameIndex: 5, Vehicles: 3}
	sent := svc.ProcessEvents("s1", []models.AccidentEvent{overlapEvent(0.42)}, frame)

	require.True(t, sent)
	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "accidents", pub.subjects[0])
	assert.Equal(t, "s1", pub.payloads[0].SessionID)
	assert.Equal(t, models.AlertSeverityHigh, pub.payloads[0].Severity)
	assert.Equal(t, int64(5), pub.payloads[0].Frame.FrameIndex)
}

func TestGrowthTriggerIsMediumSeverity(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(testConfig(), pub)

	sent := svc.ProcessEvents("s1", []models.AccidentEvent{growthEvent(2.1)}, models.FrameMetadata{})

	require.True(t, sent)
	assert.Equal(t, models.AlertSeverityMedium, pub.payloads[0].Severity)
}

func TestOverlapOutranksGrowth(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(testConfig(), pub)

	events := []models.AccidentEvent{growthEvent(3.0), overlapEvent(0.2), overlapEvent(0.6)}
	sent := svc.ProcessEvents("s1", events, models.FrameMetadata{})

	require.True(t, sent)
	assert.Equal(t, models.TriggerOverlap, pub.payloads[0].Event.Trigger)
	assert.Equal(t, 0.6, pub.payloads[0].Event.IoU)
}

func TestCooldownSuppressesRepeatAlerts(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(testConfig(), pub)
	events := []models.AccidentEvent{overlapEvent(0.5)}

	assert.True(t, svc.ProcessEvents("s1", events, models.FrameMetadata{}))
	assert.False(t, svc.ProcessEvents("s1", events, models.FrameMetadata{}))
	require.Len(t, pub.payloads, 1)

	// Other sessions keep their own cooldown clock.
	assert.True(t, svc.ProcessEvents("s2", events, models.FrameMetadata{}))

	svc.ResetSession("s1")
	assert.True(t, svc.ProcessEvents("s1", events, models.FrameMetadata{}))
}

func TestDisabledConfigIsNoop(t *testing.T) {
	pub := &fakePublisher{}
	cfg := testConfig()
	cfg.AlertsEnabled = false
	svc := NewService(cfg, pub)

	assert.False(t, svc.ProcessEvents("s1", []models.AccidentEvent{overlapEvent(0.5)}, models.FrameMetadata{}))
	assert.Empty(t, pub.payloads)
}

func TestNilPublisherIsNoop(t *testing.T) {
	svc := NewService(testConfig(), nil)
	assert.False(t, svc.ProcessEvents("s1", []models.AccidentEvent{overlapEvent(0.5)}, models.FrameMetadata{}))
}

func TestPublishFailureDoesNotStartCooldown(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats down")}
	svc := NewService(testConfig(), pub)
	events := []models.AccidentEvent{overlapEvent(0.5)}

	assert.False(t, svc.ProcessEvents("s1", events, models.FrameMetadata{}))

	pub.err = nil
	assert.True(t, svc.ProcessEvents("s1", events, models.FrameMetadata{}))
}

func TestEmptyEventsNoAlert(t *testing.T) {
	pub := &fakePublisher{}
	svc := NewService(testConfig(), pub)
	assert.False(t, svc.ProcessEvents("s1", nil, models.FrameMetadata{}))
}
