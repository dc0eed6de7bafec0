package extraction

import (
	"errors"
	"testing"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/pkg/testutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing() ExtractedPropertyData {
	return ExtractedPropertyData{
		AskingPrice:    testutil.Ptr(549000.0),
		Units:          testutil.Ptr(3),
		MonthlyRents:   []float64{1450, 1300, 1250},
		MunicipalTaxes: testutil.Ptr(4100.0),
		SchoolTaxes:    testutil.Ptr(480.0),
		Address:        "1234 rue Fleury Est, Montréal",
		PostalCode:     " H2C 1P4 ",
		Confidence:     92,
		Source:         SourceCentris,
	}
}

func TestMap(t *testing.T) {
	m, err := Map(listing(), validation.PropertyFinancials{AfterRepairValue: testutil.Ptr(680000.0)})
	require.NoError(t, err)

	in := m.Financials
	assert.Equal(t, 549000.0, *in.PurchasePrice)
	assert.Equal(t, 3, *in.TotalUnits)
	assert.Equal(t, 4000.0, *in.ProjectedMonthlyRent)
	assert.Equal(t, 4100.0, *in.MunicipalTaxes)
	assert.Equal(t, 480.0, *in.SchoolTaxes)
	assert.Equal(t, "H2C 1P4", *in.PostalCode)
	require.NotNil(t, m.Municipality)
	assert.Equal(t, transfertax.Montreal, *m.Municipality)
	assert.True(t, m.Complete())
	assert.Empty(t, m.Warnings)

	result, err := brrrr.NewEngine(nil, nil, validation.DefaultAssumptions()).Analyze(in)
	require.NoError(t, err)
	assert.Equal(t, transfertax.Montreal, result.Inputs.Municipality)
	assert.Equal(t, 4000.0, result.Rental.GrossMonthlyRent)
}

func TestMapOverridesWin(t *testing.T) {
	overrides := validation.PropertyFinancials{
		PurchasePrice:    testutil.Ptr(520000.0),
		Municipality:     testutil.Ptr(transfertax.Laval),
		AfterRepairValue: testutil.Ptr(680000.0),
	}
	m, err := Map(listing(), overrides)
	require.NoError(t, err)

	assert.Equal(t, 520000.0, *m.Financials.PurchasePrice)
	assert.Equal(t, transfertax.Laval, *m.Financials.Municipality)
	assert.Nil(t, m.Municipality)
}

func TestMapReportsMissingAndWarnings(t *testing.T) {
	data := listing()
	data.MunicipalTaxes = nil
	data.MonthlyRents = []float64{1450, 1300}
	data.Confidence = 55

	m, err := Map(data, validation.PropertyFinancials{})
	require.NoError(t, err)
	assert.False(t, m.Complete())
	assert.Equal(t, []string{"municipalTaxes", "afterRepairValue"}, m.Missing)
	assert.Equal(t, []string{
		"Extraction confidence of 55 is below 70: review the extracted figures",
		"3 units listed but 2 rents extracted: vacant units add no rent",
	}, m.Warnings)
}

func TestMapMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExtractedPropertyData)
		field  string
	}{
		{"Confidence above 100", func(d *ExtractedPropertyData) { d.Confidence = 120 }, "confidence"},
		{"Unknown source", func(d *ExtractedPropertyData) { d.Source = "ZILLOW" }, "source"},
		{"Missing source", func(d *ExtractedPropertyData) { d.Source = "" }, "source"},
		{"Negative rent", func(d *ExtractedPropertyData) { d.MonthlyRents = []float64{1200, -5} }, "monthlyRents[1]"},
		{"Zero units", func(d *ExtractedPropertyData) { d.Units = testutil.Ptr(0) }, "units"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := listing()
			tt.mutate(&data)
			_, err := Map(data, validation.PropertyFinancials{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, validation.ErrMalformedInput))

			var malformed *validation.MalformedInputError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}
