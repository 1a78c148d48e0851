package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	AppID       string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// NATS (for accident alerts)
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsDrainTimeout   time.Duration

	// Alerting via NATS
	AlertsEnabled  bool
	AlertsSubject  string
	AlertsCooldown time.Duration

	// Detector
	DetectorMode    string // "dnn" (in-process ONNX model) or "remote"
	ModelPath       string
	ModelInputSize  int
	ClassNamesPath  string
	DetectorURL     string
	DetectorTimeout time.Duration
	NMSThreshold    float32
	UseGPU          bool

	// Heuristic defaults (per-session overridable)
	ConfidenceThreshold float32
	IoUThreshold        float64
	GrowthThreshold     float64
	MatchIoUThreshold   float64
	VehicleClasses      []string

	// Sessions
	MaxSessions      int
	MaxLiveDuration  time.Duration
	FrameReadRetries int

	// Evidence output
	OutputDir string
	UploadDir string

	// Preview
	PreviewJPEGQuality int

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		AppID:       getEnv("APP_ID", "crashwatch-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy (lightweight web log viewer)
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// NATS
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDrainTimeout:   getEnvDuration("NATS_DRAIN_TIMEOUT", 5*time.Second),

		// Alerting via NATS
		AlertsEnabled:  getEnvBool("ALERTS_ENABLED", true),
		AlertsSubject:  getEnv("ALERTS_SUBJECT", "accidents"),
		AlertsCooldown: getEnvDuration("ALERTS_COOLDOWN", 10*time.Second),

		// Detector
		DetectorMode:    getEnv("DETECTOR_MODE", "dnn"),
		ModelPath:       getEnv("MODEL_PATH", "models/yolov8n.onnx"),
		ModelInputSize:  getEnvInt("MODEL_INPUT_SIZE", 640),
		ClassNamesPath:  getEnv("CLASS_NAMES_PATH", "models/coco.names"),
		DetectorURL:     getEnv("DETECTOR_URL", "http://localhost:9500"),
		DetectorTimeout: getEnvDuration("DETECTOR_TIMEOUT", 5*time.Second),
		NMSThreshold:    getEnvFloat32("NMS_THRESHOLD", 0.45),
		UseGPU:          getEnvBool("USE_GPU", false),

		// Heuristic defaults. IoU default sits in the 0.1-0.3 band; growth
		// is the sudden bounding-box inflation factor between two frames.
		ConfidenceThreshold: getEnvFloat32("CONFIDENCE_THRESHOLD", 0.4),
		IoUThreshold:        getEnvFloat("IOU_THRESHOLD", 0.2),
		GrowthThreshold:     getEnvFloat("GROWTH_THRESHOLD", 1.5),
		MatchIoUThreshold:   getEnvFloat("MATCH_IOU_THRESHOLD", 0.3),
		VehicleClasses:      getEnvList("VEHICLE_CLASSES", "car,truck,bus,motorcycle,motorbike"),

		// Sessions
		MaxSessions:      getEnvInt("MAX_SESSIONS", 4),
		MaxLiveDuration:  getEnvDuration("MAX_LIVE_DURATION", 60*time.Second),
		FrameReadRetries: getEnvInt("FRAME_READ_RETRIES", 10),

		// Evidence output
		OutputDir: getEnv("OUTPUT_DIR", "./outputs"),
		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),

		// Preview
		PreviewJPEGQuality: getEnvInt("PREVIEW_JPEG_QUALITY", 85),

		// Graceful Shutdown
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(parsed)
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
