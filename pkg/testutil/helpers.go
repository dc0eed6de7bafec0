// Package testutil provides fixtures and small helpers shared by tests.
package testutil

import (
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Triplex is a Montréal triplex bought at 20% down, renovated with a HELOC
// and refinanced at 80% of its after-repair value.
func Triplex() validation.PropertyFinancials {
	return validation.PropertyFinancials{
		PurchasePrice:        Ptr(500000.0),
		DownPaymentPercent:   Ptr(20.0),
		Municipality:         Ptr(transfertax.Montreal),
		MortgageRate:         Ptr(0.05),
		AmortizationYears:    Ptr(25),
		RenovationBudget:     Ptr(60000.0),
		ProjectedMonthlyRent: Ptr(4500.0),
		MunicipalTaxes:       Ptr(4200.0),
		AfterRepairValue:     Ptr(650000.0),
		RefinanceRate:        Ptr(0.05),
		TotalUnits:           Ptr(3),
	}
}

// InsuredDuplex is an owner-occupied duplex bought with 10% down.
func InsuredDuplex() validation.PropertyFinancials {
	return validation.PropertyFinancials{
		PurchasePrice:        Ptr(300000.0),
		DownPaymentPercent:   Ptr(10.0),
		Municipality:         Ptr(transfertax.OtherQuebec),
		MortgageRate:         Ptr(0.05),
		AmortizationYears:    Ptr(30),
		ProjectedMonthlyRent: Ptr(2400.0),
		MunicipalTaxes:       Ptr(2800.0),
		AfterRepairValue:     Ptr(340000.0),
		TotalUnits:           Ptr(2),
		IsOwnerOccupied:      Ptr(true),
	}
}

// SixPlex is a six-unit building financed under MLI Select.
func SixPlex() validation.PropertyFinancials {
	return validation.PropertyFinancials{
		PurchasePrice:        Ptr(1200000.0),
		DownPaymentPercent:   Ptr(25.0),
		Municipality:         Ptr(transfertax.QuebecCity),
		MortgageRate:         Ptr(0.05),
		AmortizationYears:    Ptr(40),
		IsMLISelect:          Ptr(true),
		RenovationBudget:     Ptr(150000.0),
		RenoFinancingType:    Ptr(validation.FinancingPrivateLoan),
		ProjectedMonthlyRent: Ptr(10800.0),
		MunicipalTaxes:       Ptr(9000.0),
		InsuranceAnnual:      Ptr(6000.0),
		AfterRepairValue:     Ptr(1500000.0),
		TotalUnits:           Ptr(6),
	}
}
