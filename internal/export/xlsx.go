package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"voltscan/internal/domain"
)

const (
	profileSheet = "Usage Profile"
	chargeSheet  = "Charges"
)

// WriteUsageProfile renders one processed bill document as an XLSX workbook:
// a summary sheet with the extracted usage profile and a second sheet with
// the itemized charges. Documents without extraction results are rejected.
func WriteUsageProfile(w io.Writer, doc *domain.BillDocument) error {
	if len(doc.ParsedBill) == 0 {
		return domain.ErrBillNotProcessed
	}

	var bill domain.ParsedBill
	if err := json.Unmarshal(doc.ParsedBill, &bill); err != nil {
		return fmt.Errorf("unmarshaling parsed bill: %w", err)
	}
	var result domain.ValidationResult
	if len(doc.Validation) > 0 {
		if err := json.Unmarshal(doc.Validation, &result); err != nil {
			return fmt.Errorf("unmarshaling validation: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", profileSheet)
	writeProfileSheet(f, doc, &bill, &result)

	if _, err := f.NewSheet(chargeSheet); err != nil {
		return fmt.Errorf("creating charges sheet: %w", err)
	}
	writeChargeSheet(f, &bill)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeProfileSheet(f *excelize.File, doc *domain.BillDocument, bill *domain.ParsedBill, result *domain.ValidationResult) {
	rows := [][]any{
		{"Document", doc.FileName},
		{"Account Number", bill.AccountNumber},
		{"Service Address", bill.ServiceAddress},
		{"Utility", bill.UtilityName},
		{"Rate Schedule", bill.RateSchedule},
		{"Bill Date", bill.BillDate.Format("2006-01-02")},
		{"Billing Period Days", bill.Period.DaysInPeriod},
		{"Estimated Reading", bill.Period.IsEstimated},
		{"Total Usage (kWh)", floatOrEmpty(bill.TotalKwh)},
		{"Peak Demand (kW)", floatOrEmpty(bill.PeakKw)},
		{"Total Amount ($)", floatOrEmpty(bill.TotalAmount)},
		{"Parse Confidence", bill.ParseConfidence},
		{"Overall Confidence", result.Confidence},
		{"Charge Variance", bill.TotalVariance},
		{"Valid", result.IsValid},
		{"Needs Review", result.ToleranceExceeded},
	}
	if bill.TimeOfUse != nil {
		rows = append(rows,
			[]any{"On-Peak Usage (kWh)", bill.TimeOfUse.OnPeakKwh},
			[]any{"Off-Peak Usage (kWh)", bill.TimeOfUse.OffPeakKwh},
		)
	}
	if bill.Renewable != nil {
		rows = append(rows, []any{"Renewable Source", string(bill.Renewable.Type)})
		if bill.Renewable.Capacity != nil {
			rows = append(rows, []any{
				fmt.Sprintf("Renewable Capacity (%s)", bill.Renewable.CapacityUnit),
				*bill.Renewable.Capacity,
			})
		}
	}
	if doc.ProcessedAt != nil {
		rows = append(rows, []any{"Processed At", doc.ProcessedAt.Format(time.RFC3339)})
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		_ = f.SetSheetRow(profileSheet, cell, &row)
	}
}

func writeChargeSheet(f *excelize.File, bill *domain.ParsedBill) {
	header := []any{"Description", "Amount ($)", "Category"}
	_ = f.SetSheetRow(chargeSheet, "A1", &header)
	for i, item := range bill.LineItems {
		row := []any{item.Description, item.Amount, string(item.Category)}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(chargeSheet, cell, &row)
	}
}

func floatOrEmpty(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
