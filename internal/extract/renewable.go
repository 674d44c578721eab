package extract

import (
	"regexp"
	"strings"

	"voltscan/internal/domain"
)

var renewableTypePattern = regexp.MustCompile(`(?i)\b(solar|wind|hydro(?:electric)?|geothermal|biomass)\b`)

var capacityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:system|turbine|array|installed|generation)\s+capacity\s*:?\s*(-?[\d,]+(?:\.\d+)?)\s*(kw|mw|kilowatts?|megawatts?|w|watts?)?\b`),
	regexp.MustCompile(`(?i)\bcapacity\s*:?\s*(-?[\d,]+(?:\.\d+)?)\s*(kw|mw|kilowatts?|megawatts?)\b`),
}

// extractRenewable looks for on-site generation facts. It returns nil when
// neither a source type nor a positive capacity is present: a zero or
// negative capacity match is OCR noise and reads as "not found", never as a
// value.
func extractRenewable(text string) *domain.RenewableSource {
	var src domain.RenewableSource

	if m := renewableTypePattern.FindStringSubmatch(text); m != nil {
		name := strings.ToLower(m[1])
		if name == "hydroelectric" {
			name = "hydro"
		}
		src.Type = domain.RenewableType(name)
	}

	for _, re := range capacityPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw, ok := parseAmount(m[1])
		if !ok || raw <= 0 {
			continue
		}
		value, unit := NormalizeCapacity(raw, m[2])
		src.Capacity = &value
		src.CapacityUnit = unit
		break
	}

	if src.Type == "" && src.Capacity == nil {
		return nil
	}
	return &src
}
