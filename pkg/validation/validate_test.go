package validation_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/testutil"
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validate(t *testing.T, in validation.PropertyFinancials) validation.Validated {
	t.Helper()
	v, err := validation.Validate(in, validation.DefaultAssumptions(), rules.Default())
	require.NoError(t, err)
	return v
}

func TestValidateUninsuredScenario(t *testing.T) {
	in := testutil.Triplex()
	in.PurchasePrice = testutil.Ptr(300000.0)
	in.AfterRepairValue = testutil.Ptr(400000.0)

	v := validate(t, in)
	assert.True(t, v.IsValid(), v.Violations.String())
	assert.False(t, v.Mortgage.IsInsured)
	assert.Equal(t, 240000.0, v.Mortgage.LoanAmount)
	assert.Equal(t, 25, v.Mortgage.AmortizationYears)
	assert.False(t, v.Mortgage.AmortizationCapped)
	assert.Equal(t, 0.0, v.Mortgage.PremiumRate)
}

func TestValidateInsuredScenarioCapsAmortization(t *testing.T) {
	v := validate(t, testutil.InsuredDuplex())
	assert.True(t, v.IsValid(), v.Violations.String())
	assert.True(t, v.Mortgage.IsInsured)
	assert.Equal(t, 270000.0, v.Mortgage.LoanAmount)
	assert.Equal(t, 0.031, v.Mortgage.PremiumRate)
	assert.Equal(t, 25, v.Mortgage.AmortizationYears)
	assert.Equal(t, 30, v.Mortgage.RequestedAmortizationYears)
	assert.True(t, v.Mortgage.AmortizationCapped)
}

func TestCreateMortgageFromInputAlwaysCapsHighRatio(t *testing.T) {
	r := rules.Default()
	for _, down := range []float64{5, 7.5, 10, 12, 15, 19.99} {
		for _, years := range []int{15, 20, 25, 26, 30, 35, 40, 50} {
			in := testutil.InsuredDuplex()
			in.DownPaymentPercent = testutil.Ptr(down)
			in.AmortizationYears = testutil.Ptr(years)
			p := in.Resolve(validation.DefaultAssumptions())

			m, _ := validation.CreateMortgageFromInput(p, r)
			assert.LessOrEqual(t, m.AmortizationYears, 25, "down %.2f years %d", down, years)
		}
	}
}

func TestInsuranceDecisions(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*validation.PropertyFinancials)
		insured       bool
		premiumRate   float64
		violatesField string
	}{
		{
			name:        "five percent tier",
			mutate:      func(in *validation.PropertyFinancials) { in.DownPaymentPercent = testutil.Ptr(5.0) },
			insured:     true,
			premiumRate: 0.04,
		},
		{
			name:        "fifteen percent tier",
			mutate:      func(in *validation.PropertyFinancials) { in.DownPaymentPercent = testutil.Ptr(15.0) },
			insured:     true,
			premiumRate: 0.028,
		},
		{
			name:          "investor cannot insure",
			mutate:        func(in *validation.PropertyFinancials) { in.IsOwnerOccupied = testutil.Ptr(false) },
			violatesField: "downPaymentPercent",
		},
		{
			name:          "five units need commercial financing",
			mutate:        func(in *validation.PropertyFinancials) { in.TotalUnits = testutil.Ptr(5) },
			violatesField: "downPaymentPercent",
		},
		{
			name:          "price above insurable maximum",
			mutate:        func(in *validation.PropertyFinancials) { in.PurchasePrice = testutil.Ptr(1000000.0) },
			violatesField: "downPaymentPercent",
		},
		{
			name: "MLI Select multi-unit",
			mutate: func(in *validation.PropertyFinancials) {
				in.TotalUnits = testutil.Ptr(6)
				in.IsMLISelect = testutil.Ptr(true)
			},
			insured: true,
		},
		{
			name:   "conventional",
			mutate: func(in *validation.PropertyFinancials) { in.DownPaymentPercent = testutil.Ptr(20.0) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.InsuredDuplex()
			tt.mutate(&in)
			v := validate(t, in)

			assert.Equal(t, tt.insured, v.Mortgage.IsInsured)
			assert.Equal(t, tt.premiumRate, v.Mortgage.PremiumRate)
			assert.NotEmpty(t, v.Notes)
			if tt.violatesField != "" {
				assert.True(t, v.Violations.HasField(tt.violatesField), v.Violations.String())
				assert.False(t, v.IsValid())
			} else {
				assert.True(t, v.IsValid(), v.Violations.String())
			}
		})
	}
}

func TestDomainViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*validation.PropertyFinancials)
		field   string
		message string
	}{
		{"purchase price floor", func(in *validation.PropertyFinancials) { in.PurchasePrice = testutil.Ptr(5000.0) },
			"purchasePrice", "must be at least 10000"},
		{"down payment below minimum", func(in *validation.PropertyFinancials) { in.DownPaymentPercent = testutil.Ptr(3.0) },
			"downPaymentPercent", "minimum down payment is 5%"},
		{"down payment above total", func(in *validation.PropertyFinancials) { in.DownPaymentPercent = testutil.Ptr(120.0) },
			"downPaymentPercent", "must be at most 100"},
		{"amortization too short", func(in *validation.PropertyFinancials) { in.AmortizationYears = testutil.Ptr(10) },
			"amortizationYears", "between 15 and 50"},
		{"amortization beyond 30 without MLI", func(in *validation.PropertyFinancials) { in.AmortizationYears = testutil.Ptr(40) },
			"amortizationYears", "without MLI Select"},
		{"term too long", func(in *validation.PropertyFinancials) { in.TermYears = testutil.Ptr(12) },
			"termYears", "between 1 and 10"},
		{"MLI on a triplex", func(in *validation.PropertyFinancials) { in.IsMLISelect = testutil.Ptr(true) },
			"isMliSelect", "at least 5 units"},
		{"refinance LTV above ceiling", func(in *validation.PropertyFinancials) { in.RefinanceLTVPercent = testutil.Ptr(85.0) },
			"refinanceLtvPercent", "between 50% and 80%"},
		{"refinance LTV below floor", func(in *validation.PropertyFinancials) { in.RefinanceLTVPercent = testutil.Ptr(40.0) },
			"refinanceLtvPercent", "between 50% and 80%"},
		{"refinance amortization", func(in *validation.PropertyFinancials) { in.RefinanceAmortYears = testutil.Ptr(35) },
			"refinanceAmortYears", "max 30 years"},
		{"vacancy range", func(in *validation.PropertyFinancials) { in.VacancyRatePercent = testutil.Ptr(60.0) },
			"vacancyRatePercent", "must be at most 50"},
		{"units range", func(in *validation.PropertyFinancials) { in.TotalUnits = testutil.Ptr(101) },
			"totalUnits", "must be at most 100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.Triplex()
			tt.mutate(&in)
			v := validate(t, in)

			require.False(t, v.IsValid())
			found := false
			for _, violation := range v.Violations {
				if violation.Field == tt.field && strings.Contains(violation.Message, tt.message) {
					found = true
				}
			}
			assert.True(t, found, "want %s: %s in %s", tt.field, tt.message, v.Violations.String())
		})
	}
}

func TestRefinanceLTVCapped(t *testing.T) {
	in := testutil.Triplex()
	in.RefinanceLTVPercent = testutil.Ptr(90.0)
	v := validate(t, in)
	assert.Equal(t, 0.8, v.Refinance.TargetLTV)
	assert.Equal(t, 0.9, v.Refinance.RequestedLTV)
}

func TestMalformedInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*validation.PropertyFinancials)
		field  string
	}{
		{"missing purchase price", func(in *validation.PropertyFinancials) { in.PurchasePrice = nil }, "purchasePrice"},
		{"missing rent", func(in *validation.PropertyFinancials) { in.ProjectedMonthlyRent = nil }, "projectedMonthlyRent"},
		{"missing taxes", func(in *validation.PropertyFinancials) { in.MunicipalTaxes = nil }, "municipalTaxes"},
		{"missing ARV", func(in *validation.PropertyFinancials) { in.AfterRepairValue = nil }, "afterRepairValue"},
		{"NaN price", func(in *validation.PropertyFinancials) { in.PurchasePrice = testutil.Ptr(math.NaN()) }, "purchasePrice"},
		{"infinite rent", func(in *validation.PropertyFinancials) { in.ProjectedMonthlyRent = testutil.Ptr(math.Inf(1)) }, "projectedMonthlyRent"},
		{"negative budget", func(in *validation.PropertyFinancials) { in.RenovationBudget = testutil.Ptr(-1.0) }, "renovationBudget"},
		{"zero units", func(in *validation.PropertyFinancials) { in.TotalUnits = testutil.Ptr(0) }, "totalUnits"},
		{"negative rate", func(in *validation.PropertyFinancials) { in.MortgageRate = testutil.Ptr(-0.01) }, "mortgageRate"},
		{"unknown financing", func(in *validation.PropertyFinancials) {
			in.RenoFinancingType = testutil.Ptr(validation.RenoFinancing("CREDIT_CARD"))
		}, "renoFinancingType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.Triplex()
			tt.mutate(&in)
			_, err := validation.Validate(in, validation.DefaultAssumptions(), rules.Default())
			require.Error(t, err)
			assert.True(t, errors.Is(err, validation.ErrMalformedInput))

			var malformed *validation.MalformedInputError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	for _, in := range []validation.PropertyFinancials{testutil.Triplex(), testutil.InsuredDuplex(), testutil.SixPlex()} {
		first := validate(t, in)
		second := validate(t, in)
		assert.Equal(t, first, second)
	}
}

func TestResolveDefaults(t *testing.T) {
	in := validation.PropertyFinancials{
		PurchasePrice:        testutil.Ptr(300000.0),
		ProjectedMonthlyRent: testutil.Ptr(2000.0),
		MunicipalTaxes:       testutil.Ptr(3000.0),
		AfterRepairValue:     testutil.Ptr(350000.0),
	}
	p := in.Resolve(validation.DefaultAssumptions())

	assert.Equal(t, 20.0, p.DownPaymentPercent)
	assert.Equal(t, transfertax.Montreal, p.Municipality)
	assert.Equal(t, 2000.0, p.NotaryFees)
	assert.Equal(t, 800.0, p.InspectionFees)
	assert.Equal(t, 0.0525, p.MortgageRate)
	assert.Equal(t, 25, p.AmortizationYears)
	assert.Equal(t, 5, p.TermYears)
	assert.Equal(t, 10.0, p.RenovationContingencyPercent)
	assert.Equal(t, 3, p.RenovationDurationMonths)
	assert.Equal(t, validation.FinancingHELOC, p.RenoFinancingType)
	assert.Equal(t, 0.0695, p.RenoFinancingRate)
	assert.Equal(t, 5.0, p.VacancyRatePercent)
	assert.Equal(t, 500.0, p.SchoolTaxes)
	assert.Equal(t, 2400.0, p.InsuranceAnnual)
	assert.Equal(t, 5.0, p.MaintenancePercent)
	assert.Equal(t, 80.0, p.RefinanceLTVPercent)
	assert.Equal(t, 25, p.RefinanceAmortYears)
	assert.Equal(t, 6, p.SeasoningMonths)
	assert.Equal(t, 1, p.TotalUnits)
}

func TestResolveFinancingRateFollowsType(t *testing.T) {
	in := testutil.Triplex()
	in.RenoFinancingType = testutil.Ptr(validation.FinancingPrivateLoan)
	assert.Equal(t, 0.12, in.Resolve(validation.DefaultAssumptions()).RenoFinancingRate)

	in.RenoFinancingRate = testutil.Ptr(0.1)
	assert.Equal(t, 0.1, in.Resolve(validation.DefaultAssumptions()).RenoFinancingRate)
}

func TestResolvePostalCode(t *testing.T) {
	in := testutil.Triplex()
	in.Municipality = nil
	in.PostalCode = testutil.Ptr("J8Y 6T3")
	assert.Equal(t, transfertax.Gatineau, in.Resolve(validation.DefaultAssumptions()).Municipality)
}

func TestUnknownMunicipalityIsANote(t *testing.T) {
	in := testutil.Triplex()
	in.Municipality = testutil.Ptr(transfertax.Municipality("TORONTO"))
	v := validate(t, in)
	assert.True(t, v.IsValid())
	assert.Contains(t, strings.Join(v.Notes, "\n"), "TORONTO")
}

func TestFinancialsRoundTrip(t *testing.T) {
	p := testutil.SixPlex().Resolve(validation.DefaultAssumptions())
	assert.Equal(t, p, p.Financials().Resolve(validation.Assumptions{}))
}
