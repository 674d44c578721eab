package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltscan/internal/domain"
	"voltscan/internal/validator"
)

func f64(v float64) *float64 { return &v }

func completeBill() *domain.ParsedBill {
	bill := &domain.ParsedBill{
		AccountNumber:   "1234567890",
		ServiceAddress:  "742 Evergreen Terrace, Springfield",
		UtilityName:     "Pacific Power & Light",
		RateSchedule:    "E-19",
		TotalKwh:        f64(1680),
		TotalAmount:     f64(258),
		ParseConfidence: 0.85,
		TotalVariance:   0.01,
	}
	bill.Period.DaysInPeriod = 31
	return bill
}

func recognized(confidence float64) *domain.RecognizedText {
	return &domain.RecognizedText{Text: "bill text", Confidence: confidence, EngineID: "paddle"}
}

func TestValidate_CleanBillIsValid(t *testing.T) {
	result := validator.Validate(completeBill(), recognized(0.9))

	assert.True(t, result.IsValid)
	assert.False(t, result.ToleranceExceeded)
	assert.Empty(t, result.MissingFields)
	assert.Empty(t, result.Anomalies)
	assert.InDelta(t, 0.4*0.9+0.6*0.85, result.Confidence, 1e-9)
}

func TestValidate_ConfidenceBlendsOCRAndParseScores(t *testing.T) {
	bill := completeBill()
	bill.ParseConfidence = 0.5
	result := validator.Validate(bill, recognized(0.8))
	assert.InDelta(t, 0.62, result.Confidence, 1e-9)
}

func TestValidate_VarianceAboveToleranceFlagsButStaysValid(t *testing.T) {
	bill := completeBill()
	bill.TotalVariance = 0.05

	result := validator.Validate(bill, recognized(0.9))

	assert.True(t, result.IsValid)
	assert.True(t, result.ToleranceExceeded)

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, domain.AnomalyUsageSpike, result.Anomalies[0].Type)
	assert.Equal(t, domain.SeverityError, result.Anomalies[0].Severity)
}

func TestValidate_VarianceAboveValidityCutoffInvalidates(t *testing.T) {
	bill := completeBill()
	bill.TotalVariance = 0.15

	result := validator.Validate(bill, recognized(0.9))

	assert.False(t, result.IsValid)
	assert.True(t, result.ToleranceExceeded)
}

func TestValidate_LowParseConfidenceInvalidates(t *testing.T) {
	bill := completeBill()
	bill.ParseConfidence = 0.49
	assert.False(t, validator.Validate(bill, recognized(0.9)).IsValid)

	bill.ParseConfidence = 0.5
	assert.True(t, validator.Validate(bill, recognized(0.9)).IsValid)
}

func TestValidate_MissingCoreFiguresInvalidate(t *testing.T) {
	bill := completeBill()
	bill.TotalAmount = nil
	assert.False(t, validator.Validate(bill, recognized(0.9)).IsValid)

	bill = completeBill()
	bill.TotalKwh = nil
	assert.False(t, validator.Validate(bill, recognized(0.9)).IsValid)
}

func TestValidate_UsageSpikeAnomaly(t *testing.T) {
	bill := completeBill()
	bill.TotalKwh = f64(6200)

	result := validator.Validate(bill, recognized(0.9))

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, domain.AnomalyUsageSpike, result.Anomalies[0].Type)
	assert.Equal(t, domain.SeverityWarning, result.Anomalies[0].Severity)
	assert.NotEmpty(t, result.Anomalies[0].SuggestedAction)
}

func TestValidate_UsageAtThresholdIsNotASpike(t *testing.T) {
	bill := completeBill()
	bill.TotalKwh = f64(5000)
	assert.Empty(t, validator.Validate(bill, recognized(0.9)).Anomalies)
}

func TestValidate_ImplausiblePeriodAnomaly(t *testing.T) {
	bill := completeBill()
	bill.Period.DaysInPeriod = 20

	result := validator.Validate(bill, recognized(0.9))

	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, domain.AnomalyMissingPeriod, result.Anomalies[0].Type)
	assert.Equal(t, domain.SeverityWarning, result.Anomalies[0].Severity)

	bill.Period.DaysInPeriod = 41
	result = validator.Validate(bill, recognized(0.9))
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, domain.AnomalyMissingPeriod, result.Anomalies[0].Type)
}

func TestValidate_MissingFieldsReported(t *testing.T) {
	bill := &domain.ParsedBill{ParseConfidence: 0.9}
	result := validator.Validate(bill, recognized(0.9))

	assert.False(t, result.IsValid)
	assert.ElementsMatch(t, []string{
		"accountNumber",
		"serviceAddress",
		"utilityName",
		"totalKwh",
		"totalAmount",
		"rateSchedule",
	}, result.MissingFields)
}

func TestValidate_AnomaliesAreDataNotErrors(t *testing.T) {
	// A bill can carry several anomalies and still come back as a result,
	// never as an error.
	bill := completeBill()
	bill.TotalKwh = f64(7000)
	bill.TotalVariance = 0.05
	bill.Period.DaysInPeriod = 10

	result := validator.Validate(bill, recognized(0.9))
	assert.Len(t, result.Anomalies, 3)
}
