package detector

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"crashwatch-go/internal/config"
	"crashwatch-go/internal/models"
)

// DNNDetector runs a pretrained ONNX detection model in-process through the
// OpenCV DNN module. The network output is decoded, confidence-filtered and
// de-duplicated with non-maximum suppression; everything inside the network
// is treated as a black box.
type DNNDetector struct {
	net        gocv.Net
	inputSize  int
	confidence float32
	nms        float32
	classNames []string
}

// NewDNNDetector loads the model and class name table configured in cfg.
func NewDNNDetector(cfg *config.Config) (*DNNDetector, error) {
	names, err := loadClassNames(cfg.ClassNamesPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load detection model from %s", cfg.ModelPath)
	}

	backend := gocv.NetBackendDefault
	target := gocv.NetTargetCPU
	if cfg.UseGPU {
		backend = gocv.NetBackendCUDA
		target = gocv.NetTargetCUDA
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		log.Warn().Err(err).Msg("Failed to set DNN backend, using default")
	}
	if err := net.SetPreferableTarget(target); err != nil {
		log.Warn().Err(err).Msg("Failed to set DNN target, using CPU")
	}

	log.Info().
		Str("model_path", cfg.ModelPath).
		Int("input_size", cfg.ModelInputSize).
		Int("classes", len(names)).
		Bool("use_gpu", cfg.UseGPU).
		Msg("Loaded ONNX detection model")

	return &DNNDetector{
		net:        net,
		inputSize:  cfg.ModelInputSize,
		confidence: cfg.ConfidenceThreshold,
		nms:        cfg.NMSThreshold,
		classNames: names,
	}, nil
}

// Detect runs one inference pass and returns the decoded detections in
// frame pixel coordinates.
func (d *DNNDetector) Detect(_ context.Context, frame gocv.Mat) ([]models.Detection, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	scale := letterboxScale(frame.Cols(), frame.Rows(), d.inputSize)

	// Letterbox the frame onto a square gray canvas so the aspect ratio is
	// preserved for the fixed-size model input.
	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(114, 114, 114, 0),
		d.inputSize, d.inputSize, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	newW := int(float64(frame.Cols()) * scale.ratio)
	newH := int(float64(frame.Rows()) * scale.ratio)
	resized := gocv.NewMat()
	gocv.Resize(frame, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationLinear)
	roi := canvas.Region(image.Rect(int(scale.padX), int(scale.padY),
		int(scale.padX)+newW, int(scale.padY)+newH))
	resized.CopyTo(&roi)
	roi.Close()
	resized.Close()

	blob := gocv.BlobFromImage(canvas, 1.0/255.0, image.Pt(d.inputSize, d.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	return d.decode(output, frame.Cols(), frame.Rows(), scale)
}

// decode converts the raw model output of shape [1, 4+classes, candidates]
// into detections, applying the confidence threshold and NMS.
func (d *DNNDetector) decode(output gocv.Mat, frameW, frameH int, scale lbScale) ([]models.Detection, error) {
	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected model output rank %d", len(sizes))
	}
	channels := sizes[1]
	candidates := sizes[2]
	if channels < 5 {
		return nil, fmt.Errorf("unexpected model output shape %v", sizes)
	}

	// Flatten [1, C, N] to C x N, then transpose so each row is a candidate.
	flat := output.Reshape(1, channels)
	defer flat.Close()
	rows := gocv.NewMat()
	defer rows.Close()
	gocv.Transpose(flat, &rows)

	var (
		rects   []image.Rectangle
		scores  []float32
		classes []int
	)

	for r := 0; r < candidates; r++ {
		bestScore := float32(0)
		bestClass := -1
		for c := 4; c < channels; c++ {
			if s := rows.GetFloatAt(r, c); s > bestScore {
				bestScore = s
				bestClass = c - 4
			}
		}
		if bestClass < 0 || bestScore < d.confidence {
			continue
		}

		// Model space box is center + size; map through the letterbox.
		cx := float64(rows.GetFloatAt(r, 0))
		cy := float64(rows.GetFloatAt(r, 1))
		w := float64(rows.GetFloatAt(r, 2))
		h := float64(rows.GetFloatAt(r, 3))

		x1 := (cx - w/2 - scale.padX) / scale.ratio
		y1 := (cy - h/2 - scale.padY) / scale.ratio
		x2 := (cx + w/2 - scale.padX) / scale.ratio
		y2 := (cy + h/2 - scale.padY) / scale.ratio

		rects = append(rects, image.Rect(int(x1), int(y1), int(x2), int(y2)))
		scores = append(scores, bestScore)
		classes = append(classes, bestClass)
	}

	if len(rects) == 0 {
		return nil, nil
	}

	keep := gocv.NMSBoxes(rects, scores, d.confidence, d.nms)

	detections := make([]models.Detection, 0, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(rects) {
			continue
		}
		label := "unknown"
		if classes[idx] < len(d.classNames) {
			label = d.classNames[classes[idx]]
		}
		box := models.BoundingBox{
			XMin: float64(rects[idx].Min.X),
			YMin: float64(rects[idx].Min.Y),
			XMax: float64(rects[idx].Max.X),
			YMax: float64(rects[idx].Max.Y),
		}.Clamp(float64(frameW), float64(frameH))
		if box.IsDegenerate() {
			continue
		}
		detections = append(detections, models.Detection{
			Label: label,
			Score: scores[idx],
			Box:   box,
		})
	}

	return detections, nil
}

// Close releases the network.
func (d *DNNDetector) Close() error {
	return d.net.Close()
}

// lbScale describes how a frame was fitted into the square model input:
// uniform resize ratio plus symmetric padding on the short side.
type lbScale struct {
	ratio float64
	padX  float64
	padY  float64
}

// letterboxScale computes the mapping for a frame resized into a square
// model input with preserved aspect ratio.
func letterboxScale(frameW, frameH, inputSize int) lbScale {
	if frameW <= 0 || frameH <= 0 {
		return lbScale{ratio: 1}
	}
	ratio := float64(inputSize) / float64(frameW)
	if r := float64(inputSize) / float64(frameH); r < ratio {
		ratio = r
	}
	padX := (float64(inputSize) - float64(frameW)*ratio) / 2
	padY := (float64(inputSize) - float64(frameH)*ratio) / 2
	return lbScale{ratio: ratio, padX: padX, padY: padY}
}
