package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"voltscan/internal/config"
	"voltscan/internal/email/noop"
	"voltscan/internal/email/ses"
	"voltscan/internal/extract"
	"voltscan/internal/handler"
	"voltscan/internal/ocr"
	"voltscan/internal/ocr/remote"
	"voltscan/internal/ocr/tessexec"
	"voltscan/internal/port"
	"voltscan/internal/repository/postgres"
	"voltscan/internal/router"
	"voltscan/internal/service"
	s3storage "voltscan/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	billRepo := postgres.NewBillRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Initialize OCR engines
	var engines []port.OCREngine
	for _, ec := range cfg.OCR.Engines() {
		ec := ec
		engines = append(engines, remote.NewEngine(&ec))
	}
	if cfg.OCR.TesseractEnabled {
		engines = append(engines, tessexec.NewEngine(cfg.OCR.TesseractBin, cfg.OCR.TesseractLang))
	}
	if len(engines) == 0 {
		return fmt.Errorf("no OCR engines configured")
	}
	selector := ocr.NewSelector(engines)

	// Initialize review alert delivery
	var emailSender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		emailSender, err = ses.NewSESSender(
			cfg.Email.Region,
			cfg.Email.FromAddress,
			cfg.Email.FromName,
			cfg.Email.ReviewAddress,
			cfg.Email.DashboardURL,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		emailSender = noop.NewNoopSender()
	}

	// Initialize services
	parser := extract.NewParser()
	billSvc := service.NewBillService(billRepo, s3Client, selector, parser, emailSender, &cfg.S3, &cfg.OCR)

	// Start the extraction queue worker
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := service.NewExtractQueueWorker(billRepo, billSvc, service.ExtractQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Queue.Concurrency,
	})
	go worker.Start(ctx)

	// Initialize handlers
	billH := handler.NewBillHandler(billSvc)
	healthH := handler.NewHealthHandler(db, engines)

	// Setup router
	r := router.Setup(billH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
