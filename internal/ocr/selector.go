package ocr

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"voltscan/internal/domain"
	"voltscan/internal/port"
)

// Selector runs every configured engine against a document and picks the
// best result. Engine calls are independent: one engine failing or stalling
// never cancels the others.
type Selector struct {
	engines []port.OCREngine
}

// NewSelector creates a Selector over an ordered list of engines.
func NewSelector(engines []port.OCREngine) *Selector {
	return &Selector{engines: engines}
}

// outcome is the write-once result slot for one engine call.
type outcome struct {
	result *domain.RecognizedText
	err    error
}

// Recognize invokes all engines concurrently, waits for every outcome, and
// returns the non-empty result with the highest confidence. Ties are broken
// by lowest elapsed time. If nothing usable comes back it returns an
// *AllEnginesFailedError.
func (s *Selector) Recognize(ctx context.Context, input port.RecognizeInput) (*domain.RecognizedText, error) {
	if len(s.engines) == 0 {
		return nil, &AllEnginesFailedError{}
	}

	outcomes := make([]outcome, len(s.engines))
	var wg sync.WaitGroup
	for i, engine := range s.engines {
		wg.Add(1)
		go func(i int, engine port.OCREngine) {
			defer wg.Done()
			result, err := engine.Recognize(ctx, input)
			if err != nil {
				var engErr *EngineError
				if !errors.As(err, &engErr) {
					err = &EngineError{Engine: engine.Name(), Err: err}
				}
			}
			outcomes[i] = outcome{result: result, err: err}
		}(i, engine)
	}
	wg.Wait()

	var best *domain.RecognizedText
	failures := make(map[string]error)
	for i, o := range outcomes {
		name := s.engines[i].Name()
		switch {
		case o.err != nil:
			log.Printf("ocr.Selector: engine %s failed: %v", name, o.err)
			failures[name] = o.err
		case o.result == nil || strings.TrimSpace(o.result.Text) == "":
			log.Printf("ocr.Selector: engine %s returned empty text (confidence=%.2f, elapsed=%dms)",
				name, confidenceOf(o.result), elapsedOf(o.result))
			failures[name] = &EngineError{Engine: name, Err: errors.New("empty recognition result")}
		default:
			log.Printf("ocr.Selector: engine %s succeeded (confidence=%.2f, elapsed=%dms)",
				name, o.result.Confidence, o.result.ElapsedMs)
			if better(o.result, best) {
				best = o.result
			}
		}
	}

	if best == nil {
		return nil, &AllEnginesFailedError{Errors: failures}
	}
	return best, nil
}

// better reports whether candidate should replace current as the winner.
func better(candidate, current *domain.RecognizedText) bool {
	if current == nil {
		return true
	}
	if candidate.Confidence != current.Confidence {
		return candidate.Confidence > current.Confidence
	}
	return candidate.ElapsedMs < current.ElapsedMs
}

func confidenceOf(r *domain.RecognizedText) float64 {
	if r == nil {
		return 0
	}
	return r.Confidence
}

func elapsedOf(r *domain.RecognizedText) int64 {
	if r == nil {
		return 0
	}
	return r.ElapsedMs
}
