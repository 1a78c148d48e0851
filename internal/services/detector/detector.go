// Package detector wraps the pretrained vehicle-detection model behind a
// small interface. The model itself is an external collaborator: either an
// in-process ONNX network run through the OpenCV DNN module, or a remote
// inference server speaking JSON over HTTP.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"gocv.io/x/gocv"

	"crashwatch-go/internal/config"
	"crashwatch-go/internal/models"
)

// Detector produces detections for one raster frame. Implementations are
// used by a single pipeline goroutine; they need not be safe for concurrent
// Detect calls.
type Detector interface {
	Detect(ctx context.Context, frame gocv.Mat) ([]models.Detection, error)
	Close() error
}

// New builds the configured detector implementation.
func New(cfg *config.Config) (Detector, error) {
	switch cfg.DetectorMode {
	case "dnn":
		return NewDNNDetector(cfg)
	case "remote":
		return NewRemoteDetector(cfg)
	default:
		return nil, fmt.Errorf("unknown detector mode %q (want dnn or remote)", cfg.DetectorMode)
	}
}

// cocoNames is the fallback label set when no class names file is present.
// Matches the conventional 80-class ordering the pretrained model was
// trained on; the heuristic only consumes the vehicle labels.
var cocoNames = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train",
	"truck", "boat", "traffic light", "fire hydrant", "stop sign",
	"parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag",
	"tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite",
	"baseball bat", "baseball glove", "skateboard", "surfboard",
	"tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot",
	"hot dog", "pizza", "donut", "cake", "chair", "couch", "potted plant",
	"bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote",
	"keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear",
	"hair drier", "toothbrush",
}

// loadClassNames reads one label per line, falling back to the builtin COCO
// set when the file is missing.
func loadClassNames(path string) ([]string, error) {
	if path == "" {
		return cocoNames, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cocoNames, nil
		}
		return nil, fmt.Errorf("failed to open class names file %s: %w", path, err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read class names file %s: %w", path, err)
	}
	if len(names) == 0 {
		return cocoNames, nil
	}
	return names, nil
}
