package service

import (
	"context"
	"log"
	"sync"
	"time"

	"voltscan/internal/port"
)

// ExtractQueueConfig holds settings for the extraction queue worker.
type ExtractQueueConfig struct {
	PollInterval time.Duration
	Concurrency  int
	// ProcessTimeout bounds one document's full pipeline, OCR included.
	// Engine calls can take tens of seconds per attempt.
	ProcessTimeout time.Duration
}

// ExtractQueueWorker polls for queued bill documents and dispatches them
// through the orchestrator with bounded concurrency.
type ExtractQueueWorker struct {
	repo    port.BillRepository
	service BillService
	cfg     ExtractQueueConfig
	wg      sync.WaitGroup
}

// NewExtractQueueWorker creates an ExtractQueueWorker.
func NewExtractQueueWorker(repo port.BillRepository, service BillService, cfg ExtractQueueConfig) *ExtractQueueWorker {
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 5 * time.Minute
	}
	return &ExtractQueueWorker{repo: repo, service: service, cfg: cfg}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight extractions have finished.
func (w *ExtractQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("extractQueueWorker: started (poll=%s, concurrency=%d)", w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("extractQueueWorker: shutting down, waiting for in-flight extractions...")
			w.wg.Wait()
			log.Printf("extractQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			docs, err := w.repo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("extractQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range docs {
				doc := docs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Fresh context independent of the poll context so
					// in-flight extractions complete during shutdown.
					processCtx, cancel := context.WithTimeout(context.Background(), w.cfg.ProcessTimeout)
					defer cancel()

					log.Printf("extractQueueWorker: dispatching document %s (attempt %d)", doc.ID, doc.Attempts+1)
					if _, err := w.service.ProcessBill(processCtx, &doc); err != nil {
						log.Printf("extractQueueWorker: document %s failed: %v", doc.ID, err)
					}
				}()
			}
		}
	}
}
