// Package capture drives live detection: while capturing, a fixed-period
// timer grabs a frame, sends it to the detector, and hands the results to
// the session evaluator. At most one detection call is ever in flight.
package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"platewatch/internal/camera"
	"platewatch/internal/detector"
)

type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
)

// detectTimeout bounds a single grab-and-detect round trip.
const detectTimeout = 30 * time.Second

// Evaluator consumes detection batches produced by the controller.
type Evaluator interface {
	Evaluate(rawPlates []string)
	Reset()
}

type Controller struct {
	frames    camera.FrameSource
	det       detector.Detector
	evaluator Evaluator
	interval  time.Duration
	log       zerolog.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	stopCh     chan struct{}

	inFlight atomic.Bool
}

func NewController(frames camera.FrameSource, det detector.Detector, evaluator Evaluator, interval time.Duration, log zerolog.Logger) *Controller {
	return &Controller{
		frames:    frames,
		det:       det,
		evaluator: evaluator,
		interval:  interval,
		state:     StateIdle,
		log:       log,
	}
}

// Start switches Idle -> Capturing: acquires the camera, resets the session
// state, and starts the poll loop. If the camera cannot be acquired the
// controller stays Idle and the error is returned to the caller. Starting
// while already capturing is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateCapturing {
		return nil
	}

	if err := c.frames.Start(ctx); err != nil {
		return err
	}

	c.evaluator.Reset()
	c.generation++
	c.stopCh = make(chan struct{})
	c.state = StateCapturing

	go c.run(c.generation, c.stopCh)

	c.log.Info().Dur("interval", c.interval).Msg("capture started")
	return nil
}

// Stop switches Capturing -> Idle and releases the camera. A detection call
// still in flight finishes on its own; its result is discarded. Stopping
// while idle is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCapturing {
		return
	}

	close(c.stopCh)
	c.stopCh = nil
	c.state = StateIdle
	c.generation++
	c.frames.Stop()

	c.log.Info().Msg("capture stopped")
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) run(generation uint64, stopCh chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			go c.tick(generation)
		}
	}
}

// tick performs one grab-and-detect round. Skipped entirely when a previous
// round has not finished. The in-flight flag is cleared on every exit path.
func (c *Controller) tick(generation uint64) {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.log.Debug().Msg("detection still in flight, skipping tick")
		return
	}
	defer c.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()

	frame, err := c.frames.Grab(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("no frame for this tick")
		return
	}

	plates, err := c.det.Detect(ctx, frame)
	if err != nil {
		// Detector failures are logged and treated as zero detections;
		// the poll loop never dies because of them.
		c.log.Error().Err(err).Msg("detection call failed")
		plates = nil
	}

	if !c.currentGeneration(generation) {
		c.log.Debug().Msg("capture session ended, discarding late detections")
		return
	}

	if len(plates) > 0 {
		c.log.Debug().Strs("plates", plates).Msg("detections received")
	}
	c.evaluator.Evaluate(plates)
}

func (c *Controller) currentGeneration(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateCapturing && c.generation == generation
}
