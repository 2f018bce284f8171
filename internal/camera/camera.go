// Package camera provides the video-source boundary: acquiring a camera,
// grabbing frames at the normalized processing resolution, and releasing
// the device on every exit path.
package camera

import (
	"context"
	"errors"
)

// ErrUnavailable reports that the camera could not be acquired. The capture
// state machine stays idle when Start fails with it.
var ErrUnavailable = errors.New("camera unavailable")

// ErrNoFrame reports that the source had no usable frame for this tick.
// The tick is skipped; it is not a fatal condition.
var ErrNoFrame = errors.New("no frame available")

type FrameSource interface {
	// Start acquires the underlying video source.
	Start(ctx context.Context) error

	// Stop releases the video source. Safe to call when not started.
	Stop()

	// Grab captures one frame scaled to the target processing width and
	// returns it JPEG-encoded.
	Grab(ctx context.Context) ([]byte, error)
}
