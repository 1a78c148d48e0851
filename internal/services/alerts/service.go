// Package alerts publishes accident notifications to NATS, one per flagged
// frame, rate-limited by a per-session cooldown.
package alerts

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"crashwatch-go/internal/config"
	"crashwatch-go/internal/models"
)

// Service builds alert payloads from accident events and publishes them.
// A nil publisher or disabled config turns the service into a no-op.
type Service struct {
	cfg       *config.Config
	publisher models.MessagePublisher

	cooldownMutex sync.Mutex
	lastAlert     map[string]time.Time
}

func NewService(cfg *config.Config, publisher models.MessagePublisher) *Service {
	return &Service{
		cfg:       cfg,
		publisher: publisher,
		lastAlert: make(map[string]time.Time),
	}
}

// ProcessEvents publishes one alert for a flagged frame, built from its most
// severe event. Returns true when an alert was sent. Publish failures are
// logged, never propagated into the pipeline.
func (s *Service) ProcessEvents(sessionID string, events []models.AccidentEvent, frame models.FrameMetadata) bool {
	if len(events) == 0 || s.publisher == nil || !s.cfg.AlertsEnabled {
		return false
	}

	if !s.cooldownElapsed(sessionID) {
		log.Debug().
			Str("session_id", sessionID).
			Int64("frame", frame.FrameIndex).
			Msg("Alert blocked by cooldown")
		return false
	}

	event := primaryEvent(events)
	payload := models.AccidentAlertPayload{
		SessionID: sessionID,
		Severity:  severityFor(event.Trigger),
		Title:     alertTitle(event, len(events)),
		Event:     event,
		Frame:     frame,
		Timestamp: time.Now(),
	}

	if err := s.publisher.Publish(s.cfg.AlertsSubject, payload); err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID).
			Int64("frame", frame.FrameIndex).
			Str("severity", string(payload.Severity)).
			Msg("Failed to publish accident alert")
		return false
	}

	s.markAlerted(sessionID)

	log.Info().
		Str("session_id", sessionID).
		Int64("frame", frame.FrameIndex).
		Str("trigger", string(event.Trigger)).
		Str("severity", string(payload.Severity)).
		Int("events", len(events)).
		Msg("Published accident alert")
	return true
}

// ResetSession clears cooldown state for a finished session.
func (s *Service) ResetSession(sessionID string) {
	s.cooldownMutex.Lock()
	delete(s.lastAlert, sessionID)
	s.cooldownMutex.Unlock()
}

func (s *Service) cooldownElapsed(sessionID string) bool {
	s.cooldownMutex.Lock()
	defer s.cooldownMutex.Unlock()

	last, seen := s.lastAlert[sessionID]
	return !seen || time.Since(last) >= s.cfg.AlertsCooldown
}

func (s *Service) markAlerted(sessionID string) {
	s.cooldownMutex.Lock()
	s.lastAlert[sessionID] = time.Now()
	s.cooldownMutex.Unlock()
}

// primaryEvent picks the event used for the alert body. Overlap wins over
// growth; within a trigger type the strongest signal wins.
func primaryEvent(events []models.AccidentEvent) models.AccidentEvent {
	best := events[0]
	for _, ev := range events[1:] {
		if rank(ev.Trigger) > rank(best.Trigger) {
			best = ev
			continue
		}
		if ev.Trigger != best.Trigger {
			continue
		}
		if ev.Trigger == models.TriggerOverlap && ev.IoU > best.IoU {
			best = ev
		}
		if ev.Trigger == models.TriggerGrowth && ev.AreaGrowthRatio > best.AreaGrowthRatio {
			best = ev
		}
	}
	return best
}

func rank(t models.TriggerType) int {
	if t == models.TriggerOverlap {
		return 1
	}
	return 0
}

func severityFor(trigger models.TriggerType) models.AlertSeverity {
	if trigger == models.TriggerOverlap {
		return models.AlertSeverityHigh
	}
	return models.AlertSeverityMedium
}

func alertTitle(event models.AccidentEvent, total int) string {
	switch event.Trigger {
	case models.TriggerOverlap:
		return fmt.Sprintf("Vehicle collision suspected (IoU %.2f, %d event(s))", event.IoU, total)
	default:
		return fmt.Sprintf("Sudden vehicle deformation suspected (growth %.2fx, %d event(s))", event.AreaGrowthRatio, total)
	}
}
