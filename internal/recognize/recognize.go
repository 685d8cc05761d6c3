// Package recognize turns document files into text or structured fields.
//
// Local runs a text recognizer over the file (each page of a PDF rendered to
// a temporary image first). Vision sends the first page image to a hosted
// multimodal model which returns the text and the fields in one reply.
// Temporary images are always removed, on the error path as well.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrRasterize marks a failure to render a PDF into page images.
	ErrRasterize = errors.New("rasterization failed")

	// ErrRecognition marks a failure of the local text recognizer.
	ErrRecognition = errors.New("text recognition failed")
)

// Recognizer extracts text fragments from an image file in reading order.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) ([]string, error)
}

// writeTemp writes data to a new temp file under dir and returns its path.
// The caller owns removal.
func writeTemp(dir, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	return path, nil
}
