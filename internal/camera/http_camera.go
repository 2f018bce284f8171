package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	_ "image/png"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
)

// HTTPCamera grabs still frames from an IP camera snapshot endpoint.
// Frames are rescaled to a fixed processing width, preserving the source
// aspect ratio, and re-encoded as JPEG at the configured quality.
type HTTPCamera struct {
	snapshotURL string
	targetWidth int
	quality     int
	client      *http.Client
	log         zerolog.Logger

	started atomic.Bool
}

func NewHTTPCamera(snapshotURL string, targetWidth, quality int, log zerolog.Logger) *HTTPCamera {
	return &HTTPCamera{
		snapshotURL: snapshotURL,
		targetWidth: targetWidth,
		quality:     quality,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start probes the snapshot endpoint once. A camera that cannot serve a
// frame now is reported as unavailable and the caller stays idle.
func (c *HTTPCamera) Start(ctx context.Context) error {
	if c.snapshotURL == "" {
		return fmt.Errorf("%w: no snapshot URL configured", ErrUnavailable)
	}

	resp, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.started.Store(true)
	c.log.Info().Str("url", c.snapshotURL).Msg("camera started")
	return nil
}

func (c *HTTPCamera) Stop() {
	if c.started.CompareAndSwap(true, false) {
		c.client.CloseIdleConnections()
		c.log.Info().Msg("camera stopped")
	}
}

func (c *HTTPCamera) Grab(ctx context.Context) ([]byte, error) {
	if !c.started.Load() {
		return nil, ErrNoFrame
	}

	resp, err := c.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	defer resp.Body.Close()

	src, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrNoFrame, err)
	}

	return EncodeFrame(src, c.targetWidth, c.quality)
}

func (c *HTTPCamera) fetch(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.snapshotURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("snapshot endpoint returned %d", resp.StatusCode)
	}
	return resp, nil
}

// EncodeFrame scales src to targetWidth (height follows the source aspect
// ratio) and encodes it as JPEG at the given quality.
func EncodeFrame(src image.Image, targetWidth, quality int) ([]byte, error) {
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrNoFrame)
	}

	targetHeight := bounds.Dy() * targetWidth / bounds.Dx()
	if targetHeight <= 0 {
		targetHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
