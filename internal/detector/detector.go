// Package detector abstracts the external plate-recognition service. The
// caller hands over an encoded frame and gets back the raw plate-like
// strings the service saw, in the order they were reported.
package detector

import (
	"context"
)

type Detector interface {
	// Detect analyzes a JPEG-encoded frame and returns raw detected plate
	// strings, possibly none. Implementations must not retain imageData.
	Detect(ctx context.Context, imageData []byte) ([]string, error)
}
