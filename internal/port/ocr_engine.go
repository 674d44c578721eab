package port

import (
	"context"

	"voltscan/internal/domain"
)

// RecognizeInput carries the document handed to an OCR engine. The engine
// receives raw bytes plus the declared media category; it never interprets
// anything beyond that.
type RecognizeInput struct {
	FileName      string
	FileBytes     []byte
	MediaCategory domain.MediaCategory
}

// OCREngine abstracts a single text-recognition collaborator. Any number of
// engines may be registered; each call is independent and may fail without
// affecting the others.
type OCREngine interface {
	Recognize(ctx context.Context, input RecognizeInput) (*domain.RecognizedText, error)
	Name() string
}
