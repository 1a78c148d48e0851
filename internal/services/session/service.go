// Package session owns detection runs: one goroutine per session drives the
// read, detect, evaluate, record and publish loop over a frame source.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"crashwatch-go/internal/config"
	"crashwatch-go/internal/heuristic"
	"crashwatch-go/internal/logging"
	"crashwatch-go/internal/models"
	"crashwatch-go/internal/services/detector"
	"crashwatch-go/internal/services/evidence"
	"crashwatch-go/internal/services/overlay"
	"crashwatch-go/internal/services/source"
)

// FramePublisher receives the latest annotated JPEG for live preview.
type FramePublisher interface {
	PublishFrame(sessionID string, jpeg []byte)
	RemoveSession(sessionID string)
}

// Alerter is notified once per flagged frame.
type Alerter interface {
	ProcessEvents(sessionID string, events []models.AccidentEvent, frame models.FrameMetadata) bool
	ResetSession(sessionID string)
}

// managed pairs a session with its runtime collaborators. The mutex guards
// the session struct; stats are written by the pipeline goroutine and read
// by API handlers.
type managed struct {
	mu      sync.RWMutex
	session *models.Session
	writer  *evidence.Writer
	done    chan struct{}
}

type Manager struct {
	cfg       *config.Config
	publisher FramePublisher
	alerter   Alerter

	mu       sync.RWMutex
	sessions map[string]*managed

	// Factories, replaceable in tests.
	openSource   func(models.SourceType, string) (source.Source, error)
	openDetector func(*config.Config) (detector.Detector, error)
	encodeJPEG   func(gocv.Mat, int) ([]byte, error)
}

func NewManager(cfg *config.Config, publisher FramePublisher, alerter Alerter) *Manager {
	return &Manager{
		cfg:          cfg,
		publisher:    publisher,
		alerter:      alerter,
		sessions:     make(map[string]*managed),
		openSource:   source.Open,
		openDetector: detector.New,
		encodeJPEG:   encodeJPEG,
	}
}

// Create validates the request, registers the session and starts its
// pipeline goroutine.
func (m *Manager) Create(req *models.SessionRequest) (*models.SessionResponse, error) {
	if !req.SourceType.IsValid() {
		return nil, fmt.Errorf("unsupported source type %q", req.SourceType)
	}
	if req.SourceURI == "" {
		return nil, fmt.Errorf("source_uri is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runningCountLocked() >= m.cfg.MaxSessions {
		return nil, fmt.Errorf("session limit reached (%d running)", m.cfg.MaxSessions)
	}

	id := uuid.New().String()
	sess := &models.Session{
		ID:          id,
		SourceType:  req.SourceType,
		SourceURI:   req.SourceURI,
		Settings:    m.settingsFromRequest(req),
		Status:      models.SessionStatusPending,
		CreatedAt:   time.Now(),
		OutputDir:   filepath.Join(m.cfg.OutputDir, id),
		PreviewURL:  fmt.Sprintf("/sessions/%s/preview", id),
		StopChannel: make(chan struct{}),
	}

	ms := &managed{
		session: sess,
		writer:  evidence.NewWriter(m.cfg.OutputDir, id),
		done:    make(chan struct{}),
	}
	sess.CSVPath = ms.writer.CSVPath()
	m.sessions[id] = ms

	go m.runPipeline(ms)

	log.Info().
		Str("session_id", id).
		Str("source_type", string(sess.SourceType)).
		Str("source_uri", sess.SourceURI).
		Msg("Session created")

	return snapshot(ms), nil
}

// Get returns a point-in-time view of one session.
func (m *Manager) Get(id string) (*models.SessionResponse, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return snapshot(ms), nil
}

// List returns snapshots of all known sessions.
func (m *Manager) List() []*models.SessionResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.SessionResponse, 0, len(m.sessions))
	for _, ms := range m.sessions {
		out = append(out, snapshot(ms))
	}
	return out
}

// Stop signals the pipeline to finish. Safe to call repeatedly.
func (m *Manager) Stop(id string) error {
	ms, err := m.lookup(id)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	select {
	case <-ms.session.StopChannel:
	default:
		close(ms.session.StopChannel)
	}
	ms.mu.Unlock()
	return nil
}

// Delete stops a session and removes it from the registry. Evidence on disk
// is kept; only runtime state is released.
func (m *Manager) Delete(id string) error {
	ms, err := m.lookup(id)
	if err != nil {
		return err
	}

	if err := m.Stop(id); err != nil {
		return err
	}
	<-ms.done

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.publisher != nil {
		m.publisher.RemoveSession(id)
	}
	if m.alerter != nil {
		m.alerter.ResetSession(id)
	}

	log.Info().Str("session_id", id).Msg("Session deleted")
	return nil
}

// Events returns the accident events recorded so far for a session.
func (m *Manager) Events(id string) ([]models.AccidentEvent, error) {
	ms, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return ms.writer.Events(), nil
}

// EvidencePaths returns the CSV log path and frames directory for a session.
func (m *Manager) EvidencePaths(id string) (csvPath, framesDir string, err error) {
	ms, err := m.lookup(id)
	if err != nil {
		return "", "", err
	}
	return ms.writer.CSVPath(), ms.writer.FramesDir(), nil
}

// Stats reports total and running session counts.
func (m *Manager) Stats() (total, running int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), m.runningCountLocked()
}

// Shutdown stops every session and waits for pipelines to drain or the
// context to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.RLock()
	active := make([]*managed, 0, len(m.sessions))
	for _, ms := range m.sessions {
		active = append(active, ms)
	}
	m.mu.RUnlock()

	for _, ms := range active {
		_ = m.Stop(ms.session.ID)
	}

	for _, ms := range active {
		select {
		case <-ms.done:
		case <-ctx.Done():
			log.Warn().Str("session_id", ms.session.ID).Msg("Shutdown timed out waiting for session pipeline")
			return ctx.Err()
		}
	}

	log.Info().Int("sessions", len(active)).Msg("Session manager shut down")
	return nil
}

func (m *Manager) lookup(id string) (*managed, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ms, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return ms, nil
}

func (m *Manager) runningCountLocked() int {
	running := 0
	for _, ms := range m.sessions {
		ms.mu.RLock()
		if ms.session.Status == models.SessionStatusPending || ms.session.Status == models.SessionStatusRunning {
			running++
		}
		ms.mu.RUnlock()
	}
	return running
}

// settingsFromRequest merges request overrides onto configured defaults.
func (m *Manager) settingsFromRequest(req *models.SessionRequest) models.SessionSettings {
	s := models.SessionSettings{
		ConfidenceThreshold: m.cfg.ConfidenceThreshold,
		IoUThreshold:        m.cfg.IoUThreshold,
		GrowthThreshold:     m.cfg.GrowthThreshold,
		MatchIoUThreshold:   m.cfg.MatchIoUThreshold,
		VehicleClasses:      m.cfg.VehicleClasses,
	}
	if req.SourceType != models.SourceTypeFile {
		s.MaxDuration = m.cfg.MaxLiveDuration
	}

	if req.ConfidenceThreshold != nil {
		s.ConfidenceThreshold = *req.ConfidenceThreshold
	}
	if req.IoUThreshold != nil {
		s.IoUThreshold = *req.IoUThreshold
	}
	if req.GrowthThreshold != nil {
		s.GrowthThreshold = *req.GrowthThreshold
	}
	if req.MatchIoUThreshold != nil {
		s.MatchIoUThreshold = *req.MatchIoUThreshold
	}
	if len(req.VehicleClasses) > 0 {
		s.VehicleClasses = req.VehicleClasses
	}
	if req.DurationSeconds != nil && *req.DurationSeconds > 0 {
		s.MaxDuration = time.Duration(*req.DurationSeconds) * time.Second
	}
	if req.MaxFrames != nil && *req.MaxFrames > 0 {
		s.MaxFrames = *req.MaxFrames
	}
	return s
}

// runPipeline is the single-goroutine frame loop for one session. Detections
// from the previous frame are carried explicitly into the next evaluation;
// there is no state beyond that one-frame lookback.
func (m *Manager) runPipeline(ms *managed) {
	logger := logging.WithSession(logging.NewServiceLogger(m.cfg, "session"), ms.session.ID)

	defer close(ms.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Msg("Recovered from panic in session pipeline")
			m.finish(ms, models.SessionStatusFailed, fmt.Sprintf("internal error: %v", r))
		}
	}()
	defer ms.writer.Close()

	sess := ms.session

	src, err := m.openSource(sess.SourceType, sess.SourceURI)
	if err != nil {
		m.finish(ms, models.SessionStatusFailed, err.Error())
		return
	}
	defer src.Close()

	det, err := m.openDetector(m.cfg)
	if err != nil {
		m.finish(ms, models.SessionStatusFailed, fmt.Sprintf("detector unavailable: %v", err))
		return
	}
	defer det.Close()

	fps := src.FPS()
	params := heuristic.Params{
		IoUThreshold:    sess.Settings.IoUThreshold,
		GrowthThreshold: sess.Settings.GrowthThreshold,
		MatchIoU:        sess.Settings.MatchIoUThreshold,
		VehicleClasses:  sess.Settings.VehicleClasses,
	}

	ms.mu.Lock()
	sess.Status = models.SessionStatusRunning
	sess.StartedAt = time.Now()
	sess.FPS = fps
	ms.mu.Unlock()

	logger.Info().
		Float64("fps", fps).
		Bool("live", src.IsLive()).
		Msg("Session pipeline started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deadline time.Time
	if src.IsLive() && sess.Settings.MaxDuration > 0 {
		deadline = time.Now().Add(sess.Settings.MaxDuration)
	}

	img := gocv.NewMat()
	defer img.Close()

	var prev []models.Detection
	var frameIndex int64
	consecutiveErrors := 0

	for {
		select {
		case <-sess.StopChannel:
			m.finish(ms, models.SessionStatusStopped, "")
			return
		default:
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			logger.Info().Msg("Session reached duration cap")
			m.finish(ms, models.SessionStatusCompleted, "")
			return
		}
		if sess.Settings.MaxFrames > 0 && frameIndex >= sess.Settings.MaxFrames {
			m.finish(ms, models.SessionStatusCompleted, "")
			return
		}

		if !src.Read(&img) || img.Empty() {
			if !src.IsLive() {
				// End of file.
				m.finish(ms, models.SessionStatusCompleted, "")
				return
			}

			consecutiveErrors++
			logger.Warn().
				Int("consecutive_errors", consecutiveErrors).
				Msg("Failed to read frame from source")

			if consecutiveErrors >= m.cfg.FrameReadRetries {
				m.finish(ms, models.SessionStatusFailed,
					fmt.Sprintf("stream ended after %d consecutive failed reads", consecutiveErrors))
				return
			}

			delay := time.Duration(consecutiveErrors*50) * time.Millisecond
			if delay > 2*time.Second {
				delay = 2 * time.Second
			}
			select {
			case <-sess.StopChannel:
				m.finish(ms, models.SessionStatusStopped, "")
				return
			case <-time.After(delay):
			}
			continue
		}

		consecutiveErrors = 0
		frameIndex++
		timestamp := float64(frameIndex) / fps

		detectStart := time.Now()
		detections, err := det.Detect(ctx, img)
		detectLatency := time.Since(detectStart)
		if err != nil {
			// Detector failures are non-fatal: the frame is treated as empty.
			logger.Warn().
				Err(err).
				Int64("frame", frameIndex).
				Msg("Detector failed, treating frame as empty")
			ms.mu.Lock()
			sess.DetectorErrors++
			ms.mu.Unlock()
			detections = nil
		}

		vehicles := heuristic.FilterVehicles(params, detections)
		kept := vehicles[:0]
		for _, v := range vehicles {
			if v.Score >= sess.Settings.ConfidenceThreshold {
				kept = append(kept, v)
			}
		}
		vehicles = kept
		events := heuristic.Evaluate(params, frameIndex, timestamp, vehicles, prev)

		ms.mu.Lock()
		sess.FrameCount = frameIndex
		sess.DetectorLatencyMS = float64(detectLatency.Microseconds()) / 1000.0
		if len(events) > 0 {
			sess.EventCount += int64(len(events))
			sess.AccidentFrames++
		}
		accidentTotal := sess.AccidentFrames
		ms.mu.Unlock()

		overlay.Draw(&img, vehicles, events, accidentTotal)

		jpeg, encErr := m.encodeJPEG(img, m.cfg.PreviewJPEGQuality)
		if encErr != nil {
			logger.Warn().Err(encErr).Int64("frame", frameIndex).Msg("Failed to encode frame")
		}

		if len(events) > 0 {
			if encErr != nil {
				// Without an encoded frame there is no snapshot to write, so
				// this frame's evidence is dropped rather than logged with an
				// empty image.
				logger.Warn().
					Int64("frame", frameIndex).
					Msg("Dropping accident evidence for frame that failed to encode")
				ms.mu.Lock()
				sess.EvidenceErrors++
				ms.mu.Unlock()
			} else if _, err := ms.writer.Record(jpeg, frameIndex, timestamp, events); err != nil {
				logger.Warn().
					Err(err).
					Int64("frame", frameIndex).
					Msg("Failed to persist accident evidence")
				ms.mu.Lock()
				sess.EvidenceErrors++
				ms.mu.Unlock()
			}

			if m.alerter != nil {
				frameMeta := models.FrameMetadata{
					FrameIndex: frameIndex,
					Timestamp:  time.Now(),
					Width:      img.Cols(),
					Height:     img.Rows(),
					Vehicles:   len(vehicles),
				}
				m.alerter.ProcessEvents(sess.ID, events, frameMeta)
			}
		}

		if m.publisher != nil && len(jpeg) > 0 {
			m.publisher.PublishFrame(sess.ID, jpeg)
		}

		prev = vehicles
	}
}

func (m *Manager) finish(ms *managed, status models.SessionStatus, errMsg string) {
	ms.mu.Lock()
	if ms.session.Status == models.SessionStatusRunning || ms.session.Status == models.SessionStatusPending {
		ms.session.Status = status
	}
	if errMsg != "" {
		ms.session.LastError = errMsg
	}
	ms.session.FinishedAt = time.Now()
	frames := ms.session.FrameCount
	events := ms.session.EventCount
	ms.mu.Unlock()

	log.Info().
		Str("session_id", ms.session.ID).
		Str("status", string(status)).
		Int64("frames", frames).
		Int64("events", events).
		Str("error", errMsg).
		Msg("Session pipeline finished")
}

func snapshot(ms *managed) *models.SessionResponse {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	s := ms.session
	resp := &models.SessionResponse{
		SessionID:         s.ID,
		SourceType:        s.SourceType,
		SourceURI:         s.SourceURI,
		Status:            s.Status,
		Settings:          s.Settings,
		CreatedAt:         s.CreatedAt,
		FrameCount:        s.FrameCount,
		EventCount:        s.EventCount,
		AccidentFrames:    s.AccidentFrames,
		DetectorErrors:    s.DetectorErrors,
		EvidenceErrors:    s.EvidenceErrors,
		FPS:               s.FPS,
		DetectorLatencyMS: s.DetectorLatencyMS,
		LastError:         s.LastError,
		PreviewURL:        s.PreviewURL,
		CSVUrl:            fmt.Sprintf("/sessions/%s/log.csv", s.ID),
		EventsURL:         fmt.Sprintf("/sessions/%s/events", s.ID),
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		resp.StartedAt = &t
	}
	if !s.FinishedAt.IsZero() {
		t := s.FinishedAt
		resp.FinishedAt = &t
	}
	return resp
}

func encodeJPEG(img gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	b := buf.GetBytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
