package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RecognizedText is the raw output of a single OCR engine attempt.
// Produced once per document attempt; never mutated afterwards.
type RecognizedText struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	EngineID   string   `json:"engine_id"`
	ElapsedMs  int64    `json:"elapsed_ms"`
	Warnings   []string `json:"warnings,omitempty"`
}

// BillingPeriod describes the service period covered by a bill.
// DaysInPeriod is clamped to at least 28 when the extracted dates would
// imply an implausibly short period; IsEstimated comes from the bill text,
// never from date arithmetic.
type BillingPeriod struct {
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	DaysInPeriod    int        `json:"days_in_period"`
	IsEstimated     bool       `json:"is_estimated"`
	PreviousReading *float64   `json:"previous_reading,omitempty"`
	CurrentReading  *float64   `json:"current_reading,omitempty"`
}

// LineItem is a single itemized charge. Amount is always positive and
// bounded; credits are identified by category, not by sign.
type LineItem struct {
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	Category    ChargeCategory `json:"category"`
}

// RenewableSource captures on-site generation facts found on the bill.
// Capacity, when present, is strictly positive and always expressed in kW.
type RenewableSource struct {
	Type         RenewableType `json:"type,omitempty"`
	Capacity     *float64      `json:"capacity,omitempty"`
	CapacityUnit string        `json:"capacity_unit"`
}

// TimeOfUseSplit is the optional on-peak/off-peak usage breakdown.
type TimeOfUseSplit struct {
	OnPeakKwh  float64 `json:"on_peak_kwh"`
	OffPeakKwh float64 `json:"off_peak_kwh"`
}

// ParsedBill is the full structured record extracted from one document.
// It is created once per parse invocation and never mutated; corrections
// require re-parsing. Missing fields are nil/empty, never sentinel values.
type ParsedBill struct {
	AccountNumber  string `json:"account_number,omitempty"`
	ServiceAddress string `json:"service_address,omitempty"`
	UtilityName    string `json:"utility_name,omitempty"`
	RateSchedule   string `json:"rate_schedule,omitempty"`

	BillDate time.Time     `json:"bill_date"`
	DueDate  *time.Time    `json:"due_date,omitempty"`
	Period   BillingPeriod `json:"billing_period"`

	TotalKwh    *float64        `json:"total_kwh,omitempty"`
	PeakKw      *float64        `json:"peak_kw,omitempty"`
	TimeOfUse   *TimeOfUseSplit `json:"time_of_use,omitempty"`
	TotalAmount *float64        `json:"total_amount,omitempty"`

	LineItems    []LineItem                 `json:"line_items"`
	ChargeTotals map[ChargeCategory]float64 `json:"charge_totals"`

	Renewable *RenewableSource `json:"renewable_source,omitempty"`

	ParseConfidence float64  `json:"parse_confidence"`
	TotalVariance   float64  `json:"total_variance"`
	Warnings        []string `json:"warnings"`
	Errors          []string `json:"errors"`
}

// Anomaly is a non-fatal, structured flag describing a suspicious but not
// necessarily invalid data pattern.
type Anomaly struct {
	Type            AnomalyType     `json:"type"`
	Severity        AnomalySeverity `json:"severity"`
	Message         string          `json:"message"`
	SuggestedAction string          `json:"suggested_action"`
}

// ValidationResult is a pure function of a ParsedBill and its RecognizedText.
type ValidationResult struct {
	IsValid           bool      `json:"is_valid"`
	Confidence        float64   `json:"confidence"`
	TotalVariance     float64   `json:"total_variance"`
	ToleranceExceeded bool      `json:"tolerance_exceeded"`
	MissingFields     []string  `json:"missing_fields"`
	Anomalies         []Anomaly `json:"anomalies"`
}

// BillDocument is the persistence envelope for one uploaded bill and the
// outcome of its extraction. On terminal OCR failure the document is still
// persisted, without structured data, for manual review.
type BillDocument struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	FileName        string          `db:"file_name" json:"file_name"`
	MediaCategory   MediaCategory   `db:"media_category" json:"media_category"`
	S3Bucket        string          `db:"s3_bucket" json:"-"`
	S3Key           string          `db:"s3_key" json:"-"`
	Status          BillStatus      `db:"status" json:"status"`
	Attempts        int             `db:"attempts" json:"attempts"`
	RetryAfter      *time.Time      `db:"retry_after" json:"retry_after,omitempty"`
	RawText         string          `db:"raw_text" json:"raw_text,omitempty"`
	OCREngine       string          `db:"ocr_engine" json:"ocr_engine,omitempty"`
	OCRConfidence   *float64        `db:"ocr_confidence" json:"ocr_confidence,omitempty"`
	ParsedBill      json.RawMessage `db:"parsed_bill" json:"parsed_bill,omitempty"`
	Validation      json.RawMessage `db:"validation" json:"validation,omitempty"`
	ProcessingError string          `db:"processing_error" json:"processing_error,omitempty"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}
