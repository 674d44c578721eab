package validator

import (
	"fmt"

	"voltscan/internal/domain"
)

// Pass/fail thresholds. The variance tolerance (2%) is deliberately stricter
// than the validity cutoff (10%): a bill can be valid for sizing math and
// still get flagged for a manual look.
const (
	MinParseConfidence = 0.5
	MaxValidVariance   = 0.10
	VarianceTolerance  = 0.02

	ocrWeight   = 0.4
	parseWeight = 0.6

	usageSpikeKwh    = 5000.0
	minPlausibleDays = 25
	maxPlausibleDays = 40
)

// requiredFields are reported in MissingFields when absent. Their absence is
// advisory data, not an error.
var requiredFields = []string{
	"accountNumber",
	"serviceAddress",
	"utilityName",
	"totalKwh",
	"totalAmount",
	"rateSchedule",
}

// Validate derives a ValidationResult from a parsed bill and the OCR text it
// came from. It is a pure function: anomalies and missing fields are data in
// the result, never errors.
func Validate(bill *domain.ParsedBill, recognized *domain.RecognizedText) domain.ValidationResult {
	result := domain.ValidationResult{
		TotalVariance:     bill.TotalVariance,
		ToleranceExceeded: bill.TotalVariance > VarianceTolerance,
		Confidence:        ocrWeight*recognized.Confidence + parseWeight*bill.ParseConfidence,
		MissingFields:     missingFields(bill),
		Anomalies:         detectAnomalies(bill),
	}

	totalAmount := deref(bill.TotalAmount)
	totalKwh := deref(bill.TotalKwh)
	result.IsValid = totalAmount > 0 &&
		totalKwh > 0 &&
		bill.ParseConfidence >= MinParseConfidence &&
		bill.TotalVariance <= MaxValidVariance

	return result
}

func detectAnomalies(bill *domain.ParsedBill) []domain.Anomaly {
	anomalies := []domain.Anomaly{}

	if kwh := deref(bill.TotalKwh); kwh > usageSpikeKwh {
		anomalies = append(anomalies, domain.Anomaly{
			Type:            domain.AnomalyUsageSpike,
			Severity:        domain.SeverityWarning,
			Message:         fmt.Sprintf("total usage %.0f kWh exceeds %.0f kWh", kwh, usageSpikeKwh),
			SuggestedAction: "confirm the usage figure against the meter readings",
		})
	}

	if days := bill.Period.DaysInPeriod; days < minPlausibleDays || days > maxPlausibleDays {
		anomalies = append(anomalies, domain.Anomaly{
			Type:            domain.AnomalyMissingPeriod,
			Severity:        domain.SeverityWarning,
			Message:         fmt.Sprintf("billing period of %d days is outside the %d-%d day range", days, minPlausibleDays, maxPlausibleDays),
			SuggestedAction: "verify the billing period dates on the source document",
		})
	}

	if bill.TotalVariance > VarianceTolerance {
		// Reuses the usage_spike type at error severity; downstream consumers
		// key off severity for the reconciliation case.
		anomalies = append(anomalies, domain.Anomaly{
			Type:            domain.AnomalyUsageSpike,
			Severity:        domain.SeverityError,
			Message:         fmt.Sprintf("itemized charges differ from stated total by %.1f%%", bill.TotalVariance*100),
			SuggestedAction: "review the itemized charges for missed or duplicated lines",
		})
	}

	return anomalies
}

func missingFields(bill *domain.ParsedBill) []string {
	missing := []string{}
	for _, field := range requiredFields {
		switch field {
		case "accountNumber":
			if bill.AccountNumber == "" {
				missing = append(missing, field)
			}
		case "serviceAddress":
			if bill.ServiceAddress == "" {
				missing = append(missing, field)
			}
		case "utilityName":
			if bill.UtilityName == "" {
				missing = append(missing, field)
			}
		case "totalKwh":
			if bill.TotalKwh == nil {
				missing = append(missing, field)
			}
		case "totalAmount":
			if bill.TotalAmount == nil {
				missing = append(missing, field)
			}
		case "rateSchedule":
			if bill.RateSchedule == "" {
				missing = append(missing, field)
			}
		}
	}
	return missing
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
