package liveness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/imaging"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
)

// MinFrames is the smallest burst accepted by Verify.
const MinFrames = 3

// minDecisionFrames is how many face-bearing frames are needed before a
// signal can be evaluated.
const minDecisionFrames = 2

type State string

const (
	StateCollecting      State = "collecting"
	StateLive            State = "live"
	StateStaticSuspected State = "static_suspected"
)

// Signal names what proved liveness.
type Signal string

const (
	SignalNone     Signal = ""
	SignalMovement Signal = "movement"
	SignalBlink    Signal = "blink"
)

type Options struct {
	// Frames is the ring buffer capacity, and the number of processed frames
	// without a signal after which the subject is suspected to be static.
	Frames int
	// MovementThreshold is the centroid displacement, as a fraction of the face
	// diagonal, that counts as head movement.
	MovementThreshold float64
	// EyeBrightness is the mean grey level above which detected eyes are
	// considered open.
	EyeBrightness float64
}

func DefaultOptions() Options {
	return Options{
		Frames:            5,
		MovementThreshold: 0.1,
		EyeBrightness:     50,
	}
}

// Result is the outcome of one verification run.
type Result struct {
	State State
	// ForwardIndex is the position of the last frame where a face was found,
	// -1 when no frame had a face.
	ForwardIndex int
	Forward      []byte
	// Processed counts frames where a face was found.
	Processed int
	Signal    Signal
}

func (r Result) Live() bool {
	return r.State == StateLive
}

// Verifier runs liveness checks over frame bursts. It holds no per-run state,
// every Verify call works on its own sequence, so one Verifier can be shared
// by concurrent requests.
type Verifier struct {
	detector provider.Detector
	options  Options
	logger   *slog.Logger
}

func NewVerifier(detector provider.Detector, options Options, logger *slog.Logger) *Verifier {
	if options.Frames < minDecisionFrames {
		options.Frames = minDecisionFrames
	}
	return &Verifier{detector: detector, options: options, logger: logger}
}

func (v *Verifier) Options() Options {
	return v.options
}

// Verify decides whether the ordered frames show a live subject. Frames where
// no face is detected are skipped. The first movement or blink signal makes
// the run live; the remaining frames are still scanned so that the last
// face-bearing frame is the one forwarded for matching.
func (v *Verifier) Verify(ctx context.Context, frames [][]byte) (Result, error) {
	if len(frames) < MinFrames {
		return Result{ForwardIndex: -1}, domain.ErrInsufficientFrames
	}

	seq := newSequence(v.options.Frames)
	for i, frame := range frames {
		box, ok, err := v.detectFace(ctx, frame)
		if err != nil {
			return Result{ForwardIndex: -1}, fmt.Errorf("frame %d: %w", i+1, err)
		}
		if !ok {
			v.logger.Debug("no face in frame", slog.Int("frame", i+1))
			continue
		}

		prev, hasPrev := seq.boxes.last()
		seq.push(i, frame, box)

		if seq.state == StateLive || seq.processed < minDecisionFrames {
			continue
		}

		if hasPrev && moved(prev, box, v.options.MovementThreshold) {
			seq.live(SignalMovement)
			continue
		}

		open, err := v.eyesOpen(ctx, frame, box)
		if err != nil {
			return Result{ForwardIndex: -1}, fmt.Errorf("frame %d: %w", i+1, err)
		}
		if open {
			seq.live(SignalBlink)
			continue
		}

		if seq.processed >= v.options.Frames {
			seq.state = StateStaticSuspected
		}
	}

	result := seq.result()
	v.logger.Debug("liveness verified",
		slog.String("state", string(result.State)),
		slog.String("signal", string(result.Signal)),
		slog.Int("frames", len(frames)),
		slog.Int("processed", result.Processed),
	)
	return result, nil
}

// detectFace returns the largest face of the frame. Frames the detector cannot
// read count as faceless.
func (v *Verifier) detectFace(ctx context.Context, frame []byte) (provider.BoundingBox, bool, error) {
	boxes, err := v.detector.DetectFaces(ctx, frame)
	if errors.Is(err, provider.ErrInvalidImage) {
		return provider.BoundingBox{}, false, nil
	}
	if err != nil {
		return provider.BoundingBox{}, false, err
	}

	best := -1
	for i, b := range boxes {
		if b.Area() > 0 && (best == -1 || b.Area() > boxes[best].Area()) {
			best = i
		}
	}
	if best < 0 {
		return provider.BoundingBox{}, false, nil
	}
	return boxes[best], true, nil
}

// eyesOpen is a coarse brightness proxy, not eyelid geometry: at least two
// eyes must be found in the face region and their mean grey level must be
// above the configured floor.
func (v *Verifier) eyesOpen(ctx context.Context, frame []byte, box provider.BoundingBox) (bool, error) {
	img, err := imaging.Decode(frame)
	if err != nil {
		return false, nil
	}
	region, err := imaging.Crop(img, box.Rect())
	if err != nil {
		return false, nil
	}
	encoded, err := imaging.EncodeJPEG(region)
	if err != nil {
		return false, nil
	}

	eyes, err := v.detector.DetectEyes(ctx, encoded)
	if errors.Is(err, provider.ErrInvalidImage) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(eyes) < 2 {
		return false, nil
	}

	var sum float64
	var n int
	for _, eye := range eyes {
		b, err := imaging.MeanBrightness(region, eye.Rect())
		if err != nil {
			continue
		}
		sum += b
		n++
	}
	if n < 2 {
		return false, nil
	}
	return sum/float64(n) > v.options.EyeBrightness, nil
}

func moved(prev, cur provider.BoundingBox, threshold float64) bool {
	size := cur.Diagonal()
	if size == 0 {
		return false
	}
	px, py := prev.Center()
	cx, cy := cur.Center()
	return math.Hypot(cx-px, cy-py)/size > threshold
}
