package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"voltscan/internal/domain"
)

// Plausibility bounds. A match outside its bound is discarded, not clamped;
// OCR noise routinely produces digits that pass the pattern but not the bound.
const (
	maxTotalKwh    = 50000.0
	maxPeakKw      = 1000.0
	maxTotalAmount = 10000.0

	minPeriodDays = 28
)

var dateLayouts = []string{"1/2/2006", "1/2/06"}

// Parser turns raw OCR text into a ParsedBill. Parsing is deterministic for
// a given text except for the documented fallback: a missing bill date
// defaults to the processing time.
type Parser struct {
	now func() time.Time
}

// NewParser creates a Parser using the wall clock for the bill-date fallback.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// WithClock overrides the clock. Tests use this to keep output byte-identical
// across runs.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// Field pattern cascades. Each field is an ordered list evaluated
// top-to-bottom with early exit; the first match that survives the field's
// bound check wins. Patterns are case-insensitive and tolerate irregular
// internal whitespace.
var (
	accountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)account\s*(?:number|no\.?|#)\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9-]{4,19})`),
		regexp.MustCompile(`(?i)\baccount\s*[:#]\s*([A-Za-z0-9][A-Za-z0-9-]{4,19})`),
	}

	addressPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)service\s+address\s*:?\s*(.+)`),
		regexp.MustCompile(`(?i)service\s+location\s*:?\s*(.+)`),
	}

	utilityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*([A-Z][A-Za-z.&' -]{2,60}(?:Energy|Electric|Power|Utilities|Utility|Gas\s*&\s*Electric|Light))\s*$`),
		regexp.MustCompile(`(?im)^\s*(?:utility|provider)\s*:?\s*(.{3,60})\s*$`),
	}

	ratePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)rate\s+(?:schedule|plan|code)\s*:?\s*([A-Za-z0-9][A-Za-z0-9-]{0,19})`),
		regexp.MustCompile(`(?i)\bschedule\s*:?\s*([A-Za-z]{1,4}-?\d{1,4})\b`),
	}

	periodPattern = regexp.MustCompile(
		`(?i)(?:billing|service)\s+period\s*:?\s*(\d{1,2}/\d{1,2}/\d{2,4})\s*(?:-|to|through)\s*(\d{1,2}/\d{1,2}/\d{2,4})`)
	periodFallbackPattern = regexp.MustCompile(
		`(?i)\bfrom\s+(\d{1,2}/\d{1,2}/\d{2,4})\s+(?:to|through)\s+(\d{1,2}/\d{1,2}/\d{2,4})`)

	billDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:bill|statement|invoice)\s+date\s*:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`),
	}
	dueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:payment\s+)?due\s*(?:date|by|on)?\s*:?\s*(\d{1,2}/\d{1,2}/\d{2,4})`),
	}

	previousReadingPattern = regexp.MustCompile(`(?i)previous\s+(?:meter\s+)?reading\s*:?\s*([\d,]+(?:\.\d+)?)`)
	currentReadingPattern  = regexp.MustCompile(`(?i)current\s+(?:meter\s+)?reading\s*:?\s*([\d,]+(?:\.\d+)?)`)
	estimatedPattern       = regexp.MustCompile(`(?i)\bestimated\b`)

	usagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total\s+(?:usage|kwh|electricity\s+used|energy\s+used)\s*:?\s*([\d,]+(?:\.\d+)?)\s*(?:kwh)?`),
		regexp.MustCompile(`(?i)(?:electric(?:ity)?\s+usage|kwh\s+used|energy\s+used|usage)\s*:?\s*([\d,]+(?:\.\d+)?)\s*(?:kwh)?`),
		regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*kwh\b`),
	}

	demandPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:peak|maximum|max)\s+demand\s*:?\s*([\d,]+(?:\.\d+)?)\s*kw\b`),
		regexp.MustCompile(`(?i)\bdemand\s*:?\s*([\d,]+(?:\.\d+)?)\s*kw\b`),
	}

	onPeakPattern  = regexp.MustCompile(`(?i)on[\s-]?peak\s*(?:usage)?\s*:?\s*([\d,]+(?:\.\d+)?)\s*kwh`)
	offPeakPattern = regexp.MustCompile(`(?i)off[\s-]?peak\s*(?:usage)?\s*:?\s*([\d,]+(?:\.\d+)?)\s*kwh`)

	totalAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total\s+amount\s+due\s*:?\s*\$?\s*([\d,]+\.\d{2})`),
		regexp.MustCompile(`(?i)(?:amount\s+due|total\s+due|balance\s+due|please\s+pay|total\s+charges)\s*:?\s*\$?\s*([\d,]+\.\d{2})`),
		regexp.MustCompile(`(?i)\btotal\s*:?\s*\$\s*([\d,]+\.\d{2})`),
	}
)

// Parse extracts every target field from raw bill text. Every field is
// optional; absence is recorded as data (nil pointers, empty strings,
// warnings), never raised as an error.
func (p *Parser) Parse(text string) *domain.ParsedBill {
	bill := &domain.ParsedBill{
		Warnings: []string{},
		Errors:   []string{},
	}

	bill.AccountNumber = firstStringMatch(accountPatterns, text, 5, 20)
	bill.ServiceAddress = firstStringMatch(addressPatterns, text, 10, 120)
	bill.UtilityName = firstStringMatch(utilityPatterns, text, 3, 60)
	bill.RateSchedule = firstStringMatch(ratePatterns, text, 1, 20)

	p.extractDates(text, bill)
	p.extractUsage(text, bill)
	p.extractTotalAmount(text, bill)

	bill.LineItems = ClassifyLineItems(text)
	bill.ChargeTotals = sumByCategory(bill.LineItems)

	bill.Renewable = extractRenewable(text)

	bill.ParseConfidence = scoreCompleteness(bill)
	variance, varianceWarning := chargeVariance(bill.LineItems, bill.TotalAmount)
	bill.TotalVariance = variance
	if varianceWarning != "" {
		bill.Warnings = append(bill.Warnings, varianceWarning)
	}

	return bill
}

func (p *Parser) extractDates(text string, bill *domain.ParsedBill) {
	m := periodPattern.FindStringSubmatch(text)
	if m == nil {
		m = periodFallbackPattern.FindStringSubmatch(text)
	}
	if m != nil {
		start, okStart := parseDate(m[1])
		end, okEnd := parseDate(m[2])
		if okStart {
			bill.Period.StartDate = &start
		}
		if okEnd {
			bill.Period.EndDate = &end
		}
		if okStart && okEnd {
			days := int(end.Sub(start).Hours() / 24)
			if days < minPeriodDays {
				// OCR date noise shows up as absurdly short periods; a real
				// monthly cycle never runs under 28 days.
				bill.Warnings = append(bill.Warnings, "billing period shorter than 28 days; clamped")
				days = minPeriodDays
			}
			bill.Period.DaysInPeriod = days
		}
	}

	bill.Period.IsEstimated = estimatedPattern.MatchString(text)
	bill.Period.PreviousReading = firstNumberMatch([]*regexp.Regexp{previousReadingPattern}, text, 0, 1e9)
	bill.Period.CurrentReading = firstNumberMatch([]*regexp.Regexp{currentReadingPattern}, text, 0, 1e9)

	if d := firstDateMatch(billDatePatterns, text); d != nil {
		bill.BillDate = *d
	} else {
		bill.BillDate = p.now()
		bill.Warnings = append(bill.Warnings, "bill date not found; defaulting to processing time")
	}
	bill.DueDate = firstDateMatch(dueDatePatterns, text)
}

func (p *Parser) extractUsage(text string, bill *domain.ParsedBill) {
	bill.TotalKwh = firstNumberMatch(usagePatterns, text, 0, maxTotalKwh)
	bill.PeakKw = firstNumberMatch(demandPatterns, text, 0, maxPeakKw)

	on := firstNumberMatch([]*regexp.Regexp{onPeakPattern}, text, 0, maxTotalKwh)
	off := firstNumberMatch([]*regexp.Regexp{offPeakPattern}, text, 0, maxTotalKwh)
	if on != nil && off != nil {
		bill.TimeOfUse = &domain.TimeOfUseSplit{OnPeakKwh: *on, OffPeakKwh: *off}
	}
}

// extractTotalAmount collects every monetary match across the total-amount
// cascade and keeps the largest plausible candidate. Stray smaller figures
// (partial fees, prior balances) are more often false positives than the
// bill total; the occasional oversized one-time fee is the accepted cost of
// this heuristic.
func (p *Parser) extractTotalAmount(text string, bill *domain.ParsedBill) {
	var best *float64
	for _, re := range totalAmountPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			amount, ok := parseAmount(m[1])
			if !ok || amount <= 0 || amount > maxTotalAmount {
				continue
			}
			if best == nil || amount > *best {
				v := amount
				best = &v
			}
		}
	}
	bill.TotalAmount = best
}

func sumByCategory(items []domain.LineItem) map[domain.ChargeCategory]float64 {
	totals := make(map[domain.ChargeCategory]float64)
	for _, item := range items {
		totals[item.Category] += item.Amount
	}
	return totals
}

// firstStringMatch runs a pattern cascade and returns the first captured
// value whose trimmed length is within [minLen, maxLen].
func firstStringMatch(patterns []*regexp.Regexp, text string, minLen, maxLen int) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(trimToLine(m[1]))
		if len(value) >= minLen && len(value) <= maxLen {
			return value
		}
	}
	return ""
}

// firstNumberMatch runs a pattern cascade and returns the first captured
// number inside (min, max]. Out-of-bounds matches are skipped so a later,
// narrower pattern still gets its chance.
func firstNumberMatch(patterns []*regexp.Regexp, text string, min, max float64) *float64 {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			value, ok := parseAmount(m[1])
			if !ok || value <= min || value > max {
				continue
			}
			v := value
			return &v
		}
	}
	return nil
}

func firstDateMatch(patterns []*regexp.Regexp, text string) *time.Time {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if d, ok := parseDate(m[1]); ok {
			return &d
		}
	}
	return nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// parseAmount parses a number that may carry thousands separators.
func parseAmount(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// trimToLine cuts a multi-line capture down to its first line. Greedy .+
// captures at end-of-pattern otherwise swallow the rest of the document.
func trimToLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
