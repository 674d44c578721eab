package tessexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"voltscan/internal/domain"
	"voltscan/internal/ocr"
	"voltscan/internal/port"
)

// Runner lets tests stub the external tesseract invocation.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// Engine shells out to the tesseract CLI. It is the local fallback engine:
// slower and rougher than the sidecar, but available without network access.
type Engine struct {
	bin    string
	lang   string
	runner Runner
}

// NewEngine creates a tesseract CLI engine.
func NewEngine(bin, lang string) *Engine {
	if bin == "" {
		bin = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	return &Engine{bin: bin, lang: lang, runner: execRunner{}}
}

// WithRunner swaps the command runner; used by tests.
func (e *Engine) WithRunner(r Runner) *Engine {
	e.runner = r
	return e
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, input port.RecognizeInput) (*domain.RecognizedText, error) {
	if input.MediaCategory == domain.MediaTabular {
		return nil, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("tabular documents are not supported")}
	}

	start := time.Now()

	// tesseract reads from a file path, so spill bytes to a temp file.
	tmp, err := os.CreateTemp("", "voltscan-ocr-*"+filepath.Ext(input.FileName))
	if err != nil {
		return nil, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("creating temp file: %w", err)}
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(input.FileBytes); err != nil {
		tmp.Close()
		return nil, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("writing temp file: %w", err)}
	}
	tmp.Close()

	out, errb, err := e.runner.Run(ctx, e.bin, tmp.Name(), "stdout", "-l", e.lang)
	if err != nil {
		return nil, &ocr.EngineError{Engine: e.Name(), Err: fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(string(errb)))}
	}

	text := strings.TrimSpace(string(out))
	var warnings []string
	if stderr := strings.TrimSpace(string(errb)); stderr != "" {
		warnings = append(warnings, stderr)
	}

	return &domain.RecognizedText{
		Text:       text,
		Confidence: heuristicConfidence(text),
		EngineID:   e.Name(),
		ElapsedMs:  time.Since(start).Milliseconds(),
		Warnings:   warnings,
	}, nil
}

var (
	reDate   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	reAmount = regexp.MustCompile(`\$\s*\d{1,3}(,\d{3})*\.\d{2}|\b\d+\.\d{2}\b`)
	reUsage  = regexp.MustCompile(`(?i)\bkwh\b|\bkw\b`)
)

// heuristicConfidence rates decoded text by how many bill artifacts it shows.
// tesseract's own word confidences are not exposed in plain-text mode, so a
// content heuristic stands in.
func heuristicConfidence(text string) float64 {
	if text == "" {
		return 0
	}
	score := 0.2
	if reDate.MatchString(text) {
		score += 0.2
	}
	if reAmount.MatchString(text) {
		score += 0.2
	}
	if reUsage.MatchString(text) {
		score += 0.2
	}
	if len(text) > 200 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
