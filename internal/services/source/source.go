// Package source opens the three supported frame origins (a video file, a
// local camera device, or a network stream URL) behind one Source abstraction
// so the pipeline never cares where frames come from.
package source

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"crashwatch-go/internal/models"
)

const (
	// FPS fallbacks when the capture driver reports nothing usable.
	defaultFileFPS = 25.0
	defaultLiveFPS = 15.0
)

// Source yields consecutive raster frames from one origin. Read follows the
// VideoCapture contract: false means the stream is exhausted or the read
// failed; the caller decides whether to retry.
type Source interface {
	Read(mat *gocv.Mat) bool
	FPS() float64
	IsLive() bool
	Close() error
}

// capture wraps a gocv VideoCapture with resolved FPS metadata.
type capture struct {
	cap  *gocv.VideoCapture
	fps  float64
	live bool
}

func (c *capture) Read(mat *gocv.Mat) bool { return c.cap.Read(mat) }
func (c *capture) FPS() float64            { return c.fps }
func (c *capture) IsLive() bool            { return c.live }
func (c *capture) Close() error            { return c.cap.Close() }

// Open creates a Source for the given type and URI. The URI is a file path
// for SourceTypeFile, a device index for SourceTypeDevice, and an HTTP(S)
// stream URL (e.g. a phone IP-camera app) for SourceTypeStream.
func Open(sourceType models.SourceType, uri string) (Source, error) {
	switch sourceType {
	case models.SourceTypeFile:
		return openFile(uri)
	case models.SourceTypeDevice:
		return openDevice(uri)
	case models.SourceTypeStream:
		return openStream(uri)
	default:
		return nil, fmt.Errorf("unsupported source type %q", sourceType)
	}
}

func openFile(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("video file not readable: %w", err)
	}

	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file %s: %w", path, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("video file %s could not be opened", path)
	}

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || fps > 120 {
		fps = defaultFileFPS
	}

	log.Info().Str("path", path).Float64("fps", fps).Msg("Opened video file source")
	return &capture{cap: cap, fps: fps, live: false}, nil
}

func openDevice(uri string) (Source, error) {
	deviceID, err := strconv.Atoi(uri)
	if err != nil {
		return nil, fmt.Errorf("device source wants a numeric camera index, got %q", uri)
	}

	cap, err := gocv.VideoCaptureDevice(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera device %d: %w", deviceID, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("camera device %d could not be opened", deviceID)
	}

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || fps > 120 {
		fps = defaultLiveFPS
	}

	log.Info().Int("device_id", deviceID).Float64("fps", fps).Msg("Opened camera device source")
	return &capture{cap: cap, fps: fps, live: true}, nil
}

func openStream(url string) (Source, error) {
	if url == "" {
		return nil, fmt.Errorf("stream source wants a non-empty URL")
	}

	cap, err := gocv.OpenVideoCapture(url)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream %s: %w", url, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("stream %s could not be opened: check the device is reachable and the URL works in a browser", url)
	}

	// Minimal buffering keeps live previews close to real time.
	cap.Set(gocv.VideoCaptureBufferSize, 1)

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || fps > 120 {
		fps = defaultLiveFPS
	}

	log.Info().Str("url", url).Float64("fps", fps).Msg("Opened network stream source")
	return &capture{cap: cap, fps: fps, live: true}, nil
}
