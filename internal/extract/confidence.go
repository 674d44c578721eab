package extract

import (
	"math"

	"voltscan/internal/domain"
)

// Completeness weights. The rule set is fixed and small; weighted-sum
// arithmetic over named checks, no rule-engine machinery. Weights sum to 1.
const (
	weightAccount   = 0.20
	weightUsage     = 0.30
	weightTotal     = 0.30
	weightPeriod    = 0.10
	weightLineItems = 0.10

	minNormalPeriodDays = 28
	maxNormalPeriodDays = 35
	minLineItemCount    = 3
)

// scoreCompleteness computes the weighted completeness score in [0, 1].
// Each check contributes its full weight or nothing.
func scoreCompleteness(bill *domain.ParsedBill) float64 {
	score := 0.0
	if bill.AccountNumber != "" {
		score += weightAccount
	}
	if bill.TotalKwh != nil && *bill.TotalKwh > 0 {
		score += weightUsage
	}
	if bill.TotalAmount != nil && *bill.TotalAmount > 0 {
		score += weightTotal
	}
	if bill.Period.DaysInPeriod >= minNormalPeriodDays && bill.Period.DaysInPeriod <= maxNormalPeriodDays {
		score += weightPeriod
	}
	if len(bill.LineItems) >= minLineItemCount {
		score += weightLineItems
	}
	return score
}

// chargeVariance is the relative discrepancy between summed line items and
// the stated total. With no usable total the variance is reported as 0 with
// a warning, never NaN or Inf.
func chargeVariance(items []domain.LineItem, total *float64) (float64, string) {
	if total == nil || *total == 0 {
		return 0, "total amount missing or zero; charge variance not computed"
	}
	var sum float64
	for _, item := range items {
		sum += item.Amount
	}
	return math.Abs(sum-*total) / *total, ""
}
