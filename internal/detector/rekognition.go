package detector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog"
)

// plateShape filters detected text lines down to plate candidates: 4 to 10
// significant characters once separators are stripped. Pure words and pure
// numbers are rejected separately in looksLikePlate.
var plateShape = regexp.MustCompile(`^[A-Z0-9]{4,10}$`)

type RekognitionDetector struct {
	client *rekognition.Client
	log    zerolog.Logger
}

func NewRekognitionDetector(client *rekognition.Client, log zerolog.Logger) *RekognitionDetector {
	return &RekognitionDetector{
		client: client,
		log:    log,
	}
}

func (d *RekognitionDetector) Detect(ctx context.Context, imageData []byte) ([]string, error) {
	input := &rekognition.DetectTextInput{
		Image: &types.Image{
			Bytes: imageData,
		},
	}

	result, err := d.client.DetectText(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("rekognition detect text: %w", err)
	}

	var plates []string
	for _, td := range result.TextDetections {
		if td.Type != types.TextTypesLine {
			continue
		}
		if td.DetectedText == nil {
			continue
		}
		raw := *td.DetectedText
		if !looksLikePlate(raw) {
			continue
		}
		d.log.Debug().
			Str("text", raw).
			Float32("confidence", confidence(td)).
			Msg("plate candidate detected")
		plates = append(plates, raw)
	}
	return plates, nil
}

func looksLikePlate(raw string) bool {
	cleaned := strings.ToUpper(raw)
	cleaned = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, cleaned)
	if !plateShape.MatchString(cleaned) {
		return false
	}
	return strings.ContainsAny(cleaned, "0123456789") &&
		strings.ContainsAny(cleaned, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
}

func confidence(td types.TextDetection) float32 {
	if td.Confidence == nil {
		return 0
	}
	return *td.Confidence
}
