package detector

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"crashwatch-go/internal/config"
	"crashwatch-go/internal/models"
)

// inferenceRequest is the JSON body sent to the remote inference server.
type inferenceRequest struct {
	Image      string  `json:"image"` // base64 JPEG
	Confidence float32 `json:"confidence"`
	Timestamp  int64   `json:"timestamp"`
}

// remoteBox mirrors the server's pixel-coordinate box representation.
type remoteBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// remoteResult is one detection as returned by the server.
type remoteResult struct {
	Name       string    `json:"name"`
	Confidence float32   `json:"confidence"`
	Box        remoteBox `json:"box"`
}

// inferenceResponse is the JSON body returned by the remote inference server.
type inferenceResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Results []remoteResult `json:"results"`
}

// RemoteDetector talks to an external inference server over its JSON HTTP
// API, with a gRPC health probe for liveness. The server is an opaque
// collaborator; this client only maps its responses onto Detection records.
type RemoteDetector struct {
	cfg    *config.Config
	client *resty.Client

	mu         sync.Mutex
	healthConn *grpc.ClientConn
	isHealthy  bool
	lastProbe  time.Time
}

// NewRemoteDetector creates the HTTP client and probes the server once.
// A failed initial probe is not fatal; the detector retries before frames.
func NewRemoteDetector(cfg *config.Config) (*RemoteDetector, error) {
	if _, err := url.Parse(cfg.DetectorURL); err != nil {
		return nil, fmt.Errorf("invalid detector URL %s: %w", cfg.DetectorURL, err)
	}

	client := resty.New().
		SetBaseURL(cfg.DetectorURL).
		SetTimeout(cfg.DetectorTimeout)

	d := &RemoteDetector{cfg: cfg, client: client}
	if err := d.probe(context.Background()); err != nil {
		log.Warn().Err(err).Str("detector_url", cfg.DetectorURL).
			Msg("Remote detector not available, will retry before inference")
	}
	return d, nil
}

// probe checks server liveness through the standard gRPC health service.
func (d *RemoteDetector) probe(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isHealthy && time.Since(d.lastProbe) < 30*time.Second {
		return nil
	}

	if d.healthConn == nil {
		target, err := grpcTarget(d.cfg.DetectorURL)
		if err != nil {
			return err
		}
		conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("failed to create detector health connection: %w", err)
		}
		d.healthConn = conn
	}

	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(d.healthConn).Check(probeCtx, &healthpb.HealthCheckRequest{})
	if err != nil {
		d.isHealthy = false
		return fmt.Errorf("detector health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		d.isHealthy = false
		return fmt.Errorf("detector not serving: %s", resp.GetStatus())
	}

	d.isHealthy = true
	d.lastProbe = time.Now()
	return nil
}

// Detect encodes the frame as JPEG and posts it to the inference endpoint.
func (d *RemoteDetector) Detect(ctx context.Context, frame gocv.Mat) ([]models.Detection, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}
	if err := d.probe(ctx); err != nil {
		return nil, fmt.Errorf("detector unavailable: %w", err)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, 90})
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame for inference: %w", err)
	}
	encoded := encodeBase64(buf.GetBytes())
	buf.Close()

	var result inferenceResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(inferenceRequest{
			Image:      encoded,
			Confidence: d.cfg.ConfidenceThreshold,
			Timestamp:  time.Now().Unix(),
		}).
		SetResult(&result).
		Post("/api/inference")
	if err != nil {
		d.mu.Lock()
		d.isHealthy = false
		d.mu.Unlock()
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("inference server returned %s", resp.Status())
	}
	if !result.Success {
		return nil, fmt.Errorf("inference rejected: %s", result.Message)
	}

	return mapRemoteResults(result.Results, frame.Cols(), frame.Rows()), nil
}

// mapRemoteResults converts server results to Detection records, clamping
// boxes to the frame and dropping degenerate geometry.
func mapRemoteResults(results []remoteResult, frameW, frameH int) []models.Detection {
	detections := make([]models.Detection, 0, len(results))
	for _, r := range results {
		box := models.BoundingBox{
			XMin: r.Box.XMin,
			YMin: r.Box.YMin,
			XMax: r.Box.XMax,
			YMax: r.Box.YMax,
		}.Clamp(float64(frameW), float64(frameH))
		if box.IsDegenerate() {
			continue
		}
		detections = append(detections, models.Detection{
			Label: r.Name,
			Score: r.Confidence,
			Box:   box,
		})
	}
	return detections
}

// Close releases the health-probe connection.
func (d *RemoteDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.healthConn != nil {
		err := d.healthConn.Close()
		d.healthConn = nil
		return err
	}
	return nil
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// grpcTarget derives host:port for the health probe from the HTTP base URL.
func grpcTarget(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid detector URL %s: %w", raw, err)
	}
	if u.Host == "" {
		// Bare host:port without a scheme
		return raw, nil
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "50051"
	}
	return host + ":" + port, nil
}
