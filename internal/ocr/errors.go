package ocr

import (
	"fmt"
	"sort"
	"strings"
)

// EngineError wraps a single engine's failure. It is recoverable locally:
// the selector keeps going with the remaining engines, and the orchestrator
// may retry the whole selection.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("ocr engine %s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// AllEnginesFailedError is terminal for a document: no engine produced a
// usable result. No partial parse is attempted downstream.
type AllEnginesFailedError struct {
	Errors map[string]error
}

func (e *AllEnginesFailedError) Error() string {
	if len(e.Errors) == 0 {
		return "all ocr engines failed: no engines configured"
	}
	names := make([]string, 0, len(e.Errors))
	for name := range e.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Errors[name]))
	}
	return fmt.Sprintf("all ocr engines failed: %s", strings.Join(parts, "; "))
}
