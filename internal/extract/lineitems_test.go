package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltscan/internal/domain"
	"voltscan/internal/extract"
)

func TestClassifyLineItems_ExtractsChargeLines(t *testing.T) {
	text := "Energy Charge              $152.30\nDistribution Charge         $35.10\n"
	items := extract.ClassifyLineItems(text)

	require.Len(t, items, 2)
	assert.Equal(t, "Energy Charge", items[0].Description)
	assert.Equal(t, 152.30, items[0].Amount)
	assert.Equal(t, domain.ChargeEnergy, items[0].Category)
	assert.Equal(t, 35.10, items[1].Amount)
}

func TestClassifyLineItems_RejectsImplausibleCandidates(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"negative amount", "Late Payment Credit    -15.00"},
		{"zero amount", "Adjustment    0.00"},
		{"amount above cap", "Energy Charge    $6,500.00"},
		{"description too short", "AB    $10.00"},
		{"bare integer amount", "Energy Charge    152"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, extract.ClassifyLineItems(tt.line+"\n"))
		})
	}
}

func TestClassifyLineItems_RejectsNoiseLines(t *testing.T) {
	text := "Subtotal    $100.00\nPage 2    $50.00\nTotal Amount Due    $258.00\nAccount Summary    $20.00\n"
	assert.Empty(t, extract.ClassifyLineItems(text))
}

func TestClassifyLineItems_CategoryPrecedence(t *testing.T) {
	tests := []struct {
		desc string
		want domain.ChargeCategory
	}{
		{"Energy Charge", domain.ChargeEnergy},
		{"Generation Supply", domain.ChargeEnergy},
		{"Demand Charge", domain.ChargeDemand},
		{"Distribution Charge", domain.ChargeDelivery},
		{"Transmission Service", domain.ChargeDelivery},
		{"State Tax", domain.ChargeTax},
		{"Regulatory Fee", domain.ChargeFee},
		{"Solar Credit", domain.ChargeCredit},
		{"Miscellaneous Item", domain.ChargeOther},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			items := extract.ClassifyLineItems(tt.desc + "    $25.00\n")
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Category)
		})
	}
}
