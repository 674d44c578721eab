package domain

// MediaCategory is the declared media category of an uploaded bill document.
type MediaCategory string

const (
	MediaPDF     MediaCategory = "pdf"
	MediaImage   MediaCategory = "image"
	MediaTabular MediaCategory = "tabular"
)

// AllowedContentTypes maps upload MIME content types to a MediaCategory.
var AllowedContentTypes = map[string]MediaCategory{
	"application/pdf": MediaPDF,
	"image/jpeg":      MediaImage,
	"image/png":       MediaImage,
	"image/tiff":      MediaImage,
	"text/csv":        MediaTabular,
}

// BillStatus represents the processing lifecycle of a bill document.
type BillStatus string

const (
	BillStatusQueued     BillStatus = "queued"
	BillStatusProcessing BillStatus = "processing"
	BillStatusCompleted  BillStatus = "completed"
	BillStatusFailed     BillStatus = "failed"
)

// ChargeCategory buckets an itemized charge line.
type ChargeCategory string

const (
	ChargeEnergy   ChargeCategory = "energy"
	ChargeDemand   ChargeCategory = "demand"
	ChargeDelivery ChargeCategory = "delivery"
	ChargeTax      ChargeCategory = "tax"
	ChargeFee      ChargeCategory = "fee"
	ChargeCredit   ChargeCategory = "credit"
	ChargeOther    ChargeCategory = "other"
)

// RenewableType identifies an on-site renewable generation source.
type RenewableType string

const (
	RenewableSolar      RenewableType = "solar"
	RenewableWind       RenewableType = "wind"
	RenewableHydro      RenewableType = "hydro"
	RenewableGeothermal RenewableType = "geothermal"
	RenewableBiomass    RenewableType = "biomass"
)

// AnomalyType identifies a class of suspicious data pattern.
type AnomalyType string

const (
	AnomalyUsageSpike    AnomalyType = "usage_spike"
	AnomalyMissingPeriod AnomalyType = "missing_period"
)

// AnomalySeverity grades an anomaly.
type AnomalySeverity string

const (
	SeverityWarning AnomalySeverity = "warning"
	SeverityError   AnomalySeverity = "error"
)
