package extract

import "strings"

// CanonicalCapacityUnit is the single unit all capacities are expressed in.
const CanonicalCapacityUnit = "kW"

// NormalizeCapacity converts a magnitude+unit pair to kilowatts. MW inputs
// are multiplied by exactly 1000 with no intermediate rounding, W inputs
// are divided by 1000. Unknown or missing units leave the value
// unconverted; the unit is canonicalized to "kW" regardless, since a bare
// capacity on a bill is a kW figure in practice.
func NormalizeCapacity(value float64, unit string) (float64, string) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "mw", "megawatt", "megawatts":
		return value * 1000, CanonicalCapacityUnit
	case "kw", "kilowatt", "kilowatts":
		return value, CanonicalCapacityUnit
	case "w", "watt", "watts":
		return value / 1000, CanonicalCapacityUnit
	default:
		return value, CanonicalCapacityUnit
	}
}
