package extract

import (
	"regexp"
	"strings"

	"voltscan/internal/domain"
)

const (
	maxLineItemAmount = 5000.0
	minDescriptionLen = 3
	maxDescriptionLen = 100
)

// lineItemRe captures a (description, amount) pair from one bill line.
// The amount must carry cents; bare integers are too often meter readings
// or dates mangled by OCR.
var lineItemRe = regexp.MustCompile(`^\s*(.+?)[\s.:]*\$?\s*(-?\d[\d,]*\.\d{2})\s*$`)

// noiseRe matches lines that look like charges but are page furniture,
// totals, or header fields rather than itemized charges.
var noiseRe = regexp.MustCompile(`(?i)\b(page\s*\d+|continued|total|subtotal|date|account)\b`)

// ClassifyLineItems splits text into lines, extracts plausible itemized
// charges, and buckets each into a charge category. Implausible candidates
// are dropped, never clamped or repaired.
func ClassifyLineItems(text string) []domain.LineItem {
	var items []domain.LineItem
	for _, line := range strings.Split(text, "\n") {
		m := lineItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[1])
		amount, ok := parseAmount(m[2])
		if !ok || amount <= 0 || amount > maxLineItemAmount {
			continue
		}
		if len(desc) < minDescriptionLen || len(desc) > maxDescriptionLen {
			continue
		}
		if noiseRe.MatchString(desc) {
			continue
		}
		items = append(items, domain.LineItem{
			Description: desc,
			Amount:      amount,
			Category:    categorize(desc),
		})
	}
	return items
}

// categorize buckets a charge description by keyword precedence. Earlier
// buckets win: "distribution charge" is delivery, not fee.
func categorize(desc string) domain.ChargeCategory {
	d := strings.ToLower(desc)
	switch {
	case containsAny(d, "energy", "usage", "kwh", "generation", "supply"):
		return domain.ChargeEnergy
	case containsAny(d, "demand", " kw"):
		return domain.ChargeDemand
	case containsAny(d, "delivery", "distribution", "transmission"):
		return domain.ChargeDelivery
	case containsAny(d, "tax"):
		return domain.ChargeTax
	case containsAny(d, "fee", "charge", "surcharge"):
		return domain.ChargeFee
	case containsAny(d, "credit", "refund"):
		return domain.ChargeCredit
	default:
		return domain.ChargeOther
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
