// Package vision turns chat screenshots into text the oracle can reason about.
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-chat/internal/llm"
)

const (
	// NoTextFound is returned when the screenshot yielded no description.
	NoTextFound = "No readable text found in screenshot."
	// ProcessingError is returned for any decode or model failure.
	ProcessingError = "Error: Unable to process screenshot."
)

const describeInstruction = "This is a screenshot attached to an IT helpdesk request. " +
	"Describe what the screen shows in two or three sentences, then transcribe any error " +
	"messages, codes, dialog titles or other visible text exactly as written. " +
	"Reply with plain text only."

var (
	errEmptyImage = errors.New("empty image payload")
	errNotImage   = errors.New("payload is not an image")
)

// Analyzer describes screenshots using a vision-capable model.
type Analyzer struct {
	describer llm.Describer
	logger    *zap.Logger
}

// NewAnalyzer creates an Analyzer backed by describer.
func NewAnalyzer(describer llm.Describer, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{describer: describer, logger: logger}
}

// Analyze returns the screenshot description. It never fails: problems are
// logged and reported as ProcessingError so the turn can continue.
func (a *Analyzer) Analyze(ctx context.Context, imageData string) string {
	image, mimeType, err := Decode(imageData)
	if err != nil {
		a.logger.Warn("screenshot decode failed", zap.Error(err))
		return ProcessingError
	}

	text, err := a.describer.Describe(ctx, image, mimeType, describeInstruction)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			return NoTextFound
		}
		a.logger.Error("screenshot analysis failed", zap.String("mime_type", mimeType), zap.Error(err))
		return ProcessingError
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return NoTextFound
	}
	return text
}

// Decode strips an optional data-URI prefix, decodes the base64 body and
// sniffs its content type.
func Decode(imageData string) ([]byte, string, error) {
	payload := strings.TrimSpace(imageData)
	if idx := strings.LastIndex(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, "", errEmptyImage
	}

	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		image, rawErr = base64.RawStdEncoding.DecodeString(payload)
		if rawErr != nil {
			return nil, "", fmt.Errorf("decode base64: %w", err)
		}
	}
	if len(image) == 0 {
		return nil, "", errEmptyImage
	}

	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("%w: detected %s", errNotImage, mimeType)
	}
	return image, mimeType, nil
}
