// Package rules holds the regulatory constants (BSIF B-20 and CMHC) used by
// every calculation. A Rules value is an immutable snapshot: callers capture
// one at the start of a calculation and never observe a later reload.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"
)

// CMHCTier maps a down-payment band to a mortgage insurance premium rate.
// Bounds are whole percentages; MaxDownPaymentPercent is exclusive.
type CMHCTier struct {
	MinDownPaymentPercent float64 `json:"minDownPaymentPercent" yaml:"minDownPaymentPercent" mapstructure:"minDownPaymentPercent"`
	MaxDownPaymentPercent float64 `json:"maxDownPaymentPercent" yaml:"maxDownPaymentPercent" mapstructure:"maxDownPaymentPercent"`
	PremiumRate           float64 `json:"premiumRate" yaml:"premiumRate" mapstructure:"premiumRate"`
}

// Rules is a snapshot of every regulatory value the engine reads.
type Rules struct {
	// BSIF B-20
	HelocRotatingMaxLTV float64 `json:"helocRotatingMaxLtv" yaml:"helocRotatingMaxLtv" mapstructure:"helocRotatingMaxLtv"`
	RefinanceMaxLTV     float64 `json:"refinanceMaxLtv" yaml:"refinanceMaxLtv" mapstructure:"refinanceMaxLtv"`
	RefinanceMinLTV     float64 `json:"refinanceMinLtv" yaml:"refinanceMinLtv" mapstructure:"refinanceMinLtv"`
	StressTestBuffer    float64 `json:"stressTestBuffer" yaml:"stressTestBuffer" mapstructure:"stressTestBuffer"`
	StressTestFloor     float64 `json:"stressTestFloor" yaml:"stressTestFloor" mapstructure:"stressTestFloor"`
	MinCommercialDSCR   float64 `json:"minCommercialDscr" yaml:"minCommercialDscr" mapstructure:"minCommercialDscr"`

	// CMHC / SCHL
	InsuranceThresholdPercent   float64    `json:"insuranceThresholdPercent" yaml:"insuranceThresholdPercent" mapstructure:"insuranceThresholdPercent"`
	MinDownPaymentPercent       float64    `json:"minDownPaymentPercent" yaml:"minDownPaymentPercent" mapstructure:"minDownPaymentPercent"`
	CMHCTiers                   []CMHCTier `json:"cmhcTiers" yaml:"cmhcTiers" mapstructure:"cmhcTiers"`
	PremiumSalesTaxRate         float64    `json:"premiumSalesTaxRate" yaml:"premiumSalesTaxRate" mapstructure:"premiumSalesTaxRate"`
	MaxInsurablePrice           float64    `json:"maxInsurablePrice" yaml:"maxInsurablePrice" mapstructure:"maxInsurablePrice"`
	MaxInsurableUnits           int        `json:"maxInsurableUnits" yaml:"maxInsurableUnits" mapstructure:"maxInsurableUnits"`
	MaxInsuredAmortizationYears int        `json:"maxInsuredAmortizationYears" yaml:"maxInsuredAmortizationYears" mapstructure:"maxInsuredAmortizationYears"`

	// MLI Select
	MLISelectMinUnits             int     `json:"mliSelectMinUnits" yaml:"mliSelectMinUnits" mapstructure:"mliSelectMinUnits"`
	MLISelectMaxAmortizationYears int     `json:"mliSelectMaxAmortizationYears" yaml:"mliSelectMaxAmortizationYears" mapstructure:"mliSelectMaxAmortizationYears"`
	MLISelectMaxLTV               float64 `json:"mliSelectMaxLtv" yaml:"mliSelectMaxLtv" mapstructure:"mliSelectMaxLtv"`

	// Lender product limits
	MinAmortizationYears          int `json:"minAmortizationYears" yaml:"minAmortizationYears" mapstructure:"minAmortizationYears"`
	StandardMaxAmortizationYears  int `json:"standardMaxAmortizationYears" yaml:"standardMaxAmortizationYears" mapstructure:"standardMaxAmortizationYears"`
	RefinanceMaxAmortizationYears int `json:"refinanceMaxAmortizationYears" yaml:"refinanceMaxAmortizationYears" mapstructure:"refinanceMaxAmortizationYears"`
	MinTermYears                  int `json:"minTermYears" yaml:"minTermYears" mapstructure:"minTermYears"`
	MaxTermYears                  int `json:"maxTermYears" yaml:"maxTermYears" mapstructure:"maxTermYears"`

	// Source and LastUpdated describe where the values come from.
	Source      string `json:"source" yaml:"source" mapstructure:"source"`
	LastUpdated string `json:"lastUpdated" yaml:"lastUpdated" mapstructure:"lastUpdated"`
}

// Default returns the 2025 BSIF B-20 and CMHC values.
func Default() Rules {
	return Rules{
		HelocRotatingMaxLTV: 0.65,
		RefinanceMaxLTV:     0.80,
		RefinanceMinLTV:     0.50,
		StressTestBuffer:    0.02,
		StressTestFloor:     0.0525,
		MinCommercialDSCR:   1.25,

		InsuranceThresholdPercent: 20,
		MinDownPaymentPercent:     5,
		CMHCTiers: []CMHCTier{
			{MinDownPaymentPercent: 5, MaxDownPaymentPercent: 10, PremiumRate: 0.04},
			{MinDownPaymentPercent: 10, MaxDownPaymentPercent: 15, PremiumRate: 0.031},
			{MinDownPaymentPercent: 15, MaxDownPaymentPercent: 20, PremiumRate: 0.028},
		},
		PremiumSalesTaxRate:         0.09,
		MaxInsurablePrice:           999999,
		MaxInsurableUnits:           4,
		MaxInsuredAmortizationYears: 25,

		MLISelectMinUnits:             5,
		MLISelectMaxAmortizationYears: 50,
		MLISelectMaxLTV:               0.95,

		MinAmortizationYears:          15,
		StandardMaxAmortizationYears:  30,
		RefinanceMaxAmortizationYears: 30,
		MinTermYears:                  1,
		MaxTermYears:                  10,

		Source:      "BSIF B-20 / SCHL-CMHC",
		LastUpdated: "2025-01",
	}
}

// StressTestRate returns the qualifying rate: the greater of the contract
// rate plus the buffer and the floor.
func (r Rules) StressTestRate(contractRate float64) float64 {
	buffered := contractRate + r.StressTestBuffer
	if buffered > r.StressTestFloor {
		return buffered
	}
	return r.StressTestFloor
}

// CMHCPremiumRate returns the premium rate for a down payment expressed as a
// whole percentage. ok is false when no tier applies (conventional loan or
// below the minimum down payment).
func (r Rules) CMHCPremiumRate(downPaymentPercent float64) (rate float64, ok bool) {
	for _, tier := range r.CMHCTiers {
		if downPaymentPercent >= tier.MinDownPaymentPercent && downPaymentPercent < tier.MaxDownPaymentPercent {
			return tier.PremiumRate, true
		}
	}
	return 0, false
}

// IsHighRatio reports whether a down payment requires mortgage insurance.
func (r Rules) IsHighRatio(downPaymentPercent float64) bool {
	return downPaymentPercent < r.InsuranceThresholdPercent
}

// Validate checks the snapshot for internal consistency.
func (r Rules) Validate() error {
	if r.HelocRotatingMaxLTV <= 0 || r.HelocRotatingMaxLTV > r.RefinanceMaxLTV {
		return eris.Errorf("rotating LTV ceiling %.4f must be positive and not exceed refinance ceiling %.4f",
			r.HelocRotatingMaxLTV, r.RefinanceMaxLTV)
	}
	if r.RefinanceMaxLTV > 1 {
		return eris.Errorf("refinance LTV ceiling %.4f exceeds 1", r.RefinanceMaxLTV)
	}
	if r.RefinanceMinLTV < 0 || r.RefinanceMinLTV > r.RefinanceMaxLTV {
		return eris.Errorf("refinance LTV floor %.4f must be within [0, %.4f]", r.RefinanceMinLTV, r.RefinanceMaxLTV)
	}
	if r.StressTestBuffer < 0 || r.StressTestFloor < 0 {
		return eris.New("stress test buffer and floor must be non-negative")
	}
	if r.MinCommercialDSCR <= 0 {
		return eris.New("minimum DSCR must be positive")
	}
	if r.PremiumSalesTaxRate < 0 {
		return eris.New("premium sales tax rate must be non-negative")
	}
	if r.MinAmortizationYears <= 0 || r.MinAmortizationYears > r.MLISelectMaxAmortizationYears {
		return eris.Errorf("amortization bounds [%d, %d] are inconsistent",
			r.MinAmortizationYears, r.MLISelectMaxAmortizationYears)
	}
	if r.MinTermYears <= 0 || r.MinTermYears > r.MaxTermYears {
		return eris.Errorf("term bounds [%d, %d] are inconsistent", r.MinTermYears, r.MaxTermYears)
	}

	tiers := append([]CMHCTier(nil), r.CMHCTiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinDownPaymentPercent < tiers[j].MinDownPaymentPercent })
	for i, tier := range tiers {
		if tier.MinDownPaymentPercent >= tier.MaxDownPaymentPercent {
			return eris.Errorf("CMHC tier %d has an empty band", i)
		}
		if tier.PremiumRate < 0 {
			return eris.Errorf("CMHC tier %d has a negative premium", i)
		}
		if i > 0 && tiers[i-1].MaxDownPaymentPercent > tier.MinDownPaymentPercent {
			return eris.Errorf("CMHC tiers %d and %d overlap", i-1, i)
		}
	}
	return nil
}

// Version is a short content hash identifying the snapshot, reported with
// results so a reader can tell which regime produced them.
func (r Rules) Version() string {
	payload, err := json.Marshal(r)
	if err != nil {
		return "unknown"
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:6])
}

func (r Rules) clone() Rules {
	r.CMHCTiers = append([]CMHCTier(nil), r.CMHCTiers...)
	return r
}
