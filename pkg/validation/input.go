package validation

import (
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
)

// RenoFinancing is how the renovation budget is funded.
type RenoFinancing string

// Renovation financing types.
const (
	FinancingCash        RenoFinancing = "CASH"
	FinancingHELOC       RenoFinancing = "HELOC"
	FinancingPersonalLOC RenoFinancing = "PERSONAL_LOC"
	FinancingPrivateLoan RenoFinancing = "PRIVATE_LOAN"
)

// PropertyFinancials is the raw input of one analysis. Every field is a
// pointer so that an omitted value can be told apart from an explicit zero;
// omitted optional fields take their value from Assumptions.
//
// Fields ending in Percent are whole percentages (20 means 20%). Fields
// ending in Rate are annual nominal fractions (0.0525).
//
// The shape tag marks structural requirements whose failure is a
// MalformedInputError. The validate tag marks domain ranges whose failure is
// a Violation.
type PropertyFinancials struct {
	// Acquisition
	PurchasePrice      *float64                  `json:"purchasePrice" yaml:"purchasePrice" shape:"required,finite,gte=0" validate:"gte=10000"`
	DownPaymentPercent *float64                  `json:"downPaymentPercent,omitempty" yaml:"downPaymentPercent,omitempty" shape:"omitempty,finite,gte=0" validate:"omitempty,lte=100"`
	Municipality       *transfertax.Municipality `json:"municipality,omitempty" yaml:"municipality,omitempty"`
	PostalCode         *string                   `json:"postalCode,omitempty" yaml:"postalCode,omitempty"`
	NotaryFees         *float64                  `json:"notaryFees,omitempty" yaml:"notaryFees,omitempty" shape:"omitempty,finite,gte=0"`
	InspectionFees     *float64                  `json:"inspectionFees,omitempty" yaml:"inspectionFees,omitempty" shape:"omitempty,finite,gte=0"`
	OtherClosingCosts  *float64                  `json:"otherClosingCosts,omitempty" yaml:"otherClosingCosts,omitempty" shape:"omitempty,finite,gte=0"`

	// Initial financing
	MortgageRate      *float64 `json:"mortgageRate,omitempty" yaml:"mortgageRate,omitempty" shape:"omitempty,finite,gte=0,lte=1" validate:"omitempty,lte=0.2"`
	AmortizationYears *int     `json:"amortizationYears,omitempty" yaml:"amortizationYears,omitempty" shape:"omitempty,gt=0,lte=100"`
	TermYears         *int     `json:"termYears,omitempty" yaml:"termYears,omitempty" shape:"omitempty,gt=0"`
	IsMLISelect       *bool    `json:"isMliSelect,omitempty" yaml:"isMliSelect,omitempty"`

	// Renovation
	RenovationBudget             *float64       `json:"renovationBudget,omitempty" yaml:"renovationBudget,omitempty" shape:"omitempty,finite,gte=0"`
	RenovationContingencyPercent *float64       `json:"renovationContingencyPercent,omitempty" yaml:"renovationContingencyPercent,omitempty" shape:"omitempty,finite,gte=0" validate:"omitempty,lte=50"`
	RenovationDurationMonths     *int           `json:"renovationDurationMonths,omitempty" yaml:"renovationDurationMonths,omitempty" shape:"omitempty,gte=0" validate:"omitempty,lte=24"`
	RenoFinancingType            *RenoFinancing `json:"renoFinancingType,omitempty" yaml:"renoFinancingType,omitempty" shape:"omitempty,oneof=CASH HELOC PERSONAL_LOC PRIVATE_LOAN"`
	RenoFinancingRate            *float64       `json:"renoFinancingRate,omitempty" yaml:"renoFinancingRate,omitempty" shape:"omitempty,finite,gte=0,lte=1" validate:"omitempty,lte=0.3"`

	// Rental
	ProjectedMonthlyRent *float64 `json:"projectedMonthlyRent" yaml:"projectedMonthlyRent" shape:"required,finite,gte=0"`
	VacancyRatePercent   *float64 `json:"vacancyRatePercent,omitempty" yaml:"vacancyRatePercent,omitempty" shape:"omitempty,finite,gte=0" validate:"omitempty,lte=50"`
	MunicipalTaxes       *float64 `json:"municipalTaxes" yaml:"municipalTaxes" shape:"required,finite,gte=0"`
	SchoolTaxes          *float64 `json:"schoolTaxes,omitempty" yaml:"schoolTaxes,omitempty" shape:"omitempty,finite,gte=0"`
	InsuranceAnnual      *float64 `json:"insuranceAnnual,omitempty" yaml:"insuranceAnnual,omitempty" shape:"omitempty,finite,gte=0"`
	MaintenancePercent   *float64 `json:"maintenancePercent,omitempty" yaml:"maintenancePercent,omitempty" shape:"omitempty,finite,gte=0" validate:"omitempty,lte=20"`
	ManagementPercent    *float64 `json:"managementPercent,omitempty" yaml:"managementPercent,omitempty" shape:"omitempty,finite,gte=0" validate:"omitempty,lte=15"`
	UtilitiesMonthly     *float64 `json:"utilitiesMonthly,omitempty" yaml:"utilitiesMonthly,omitempty" shape:"omitempty,finite,gte=0"`

	// Refinance
	AfterRepairValue      *float64 `json:"afterRepairValue" yaml:"afterRepairValue" shape:"required,finite,gte=0"`
	RefinanceLTVPercent   *float64 `json:"refinanceLtvPercent,omitempty" yaml:"refinanceLtvPercent,omitempty" shape:"omitempty,finite,gte=0"`
	RefinanceRate         *float64 `json:"refinanceRate,omitempty" yaml:"refinanceRate,omitempty" shape:"omitempty,finite,gte=0,lte=1" validate:"omitempty,lte=0.2"`
	RefinanceAmortYears   *int     `json:"refinanceAmortYears,omitempty" yaml:"refinanceAmortYears,omitempty" shape:"omitempty,gt=0,lte=100"`
	SeasoningMonths       *int     `json:"seasoningMonths,omitempty" yaml:"seasoningMonths,omitempty" shape:"omitempty,gte=0" validate:"omitempty,lte=24"`
	RefinanceAppraisalFee *float64 `json:"refinanceAppraisalFee,omitempty" yaml:"refinanceAppraisalFee,omitempty" shape:"omitempty,finite,gte=0"`
	RefinanceLegalFees    *float64 `json:"refinanceLegalFees,omitempty" yaml:"refinanceLegalFees,omitempty" shape:"omitempty,finite,gte=0"`

	// Context
	TotalUnits      *int  `json:"totalUnits,omitempty" yaml:"totalUnits,omitempty" shape:"omitempty,gt=0" validate:"omitempty,lte=100"`
	IsOwnerOccupied *bool `json:"isOwnerOccupied,omitempty" yaml:"isOwnerOccupied,omitempty"`
}

// Assumptions supplies the value of every optional PropertyFinancials field.
type Assumptions struct {
	DownPaymentPercent float64                  `json:"downPaymentPercent" yaml:"downPaymentPercent" mapstructure:"downPaymentPercent"`
	Municipality       transfertax.Municipality `json:"municipality" yaml:"municipality" mapstructure:"municipality"`
	NotaryFees         float64                  `json:"notaryFees" yaml:"notaryFees" mapstructure:"notaryFees"`
	InspectionFees     float64                  `json:"inspectionFees" yaml:"inspectionFees" mapstructure:"inspectionFees"`

	MortgageRate      float64 `json:"mortgageRate" yaml:"mortgageRate" mapstructure:"mortgageRate"`
	AmortizationYears int     `json:"amortizationYears" yaml:"amortizationYears" mapstructure:"amortizationYears"`
	TermYears         int     `json:"termYears" yaml:"termYears" mapstructure:"termYears"`

	RenovationContingencyPercent float64                   `json:"renovationContingencyPercent" yaml:"renovationContingencyPercent" mapstructure:"renovationContingencyPercent"`
	RenovationDurationMonths     int                       `json:"renovationDurationMonths" yaml:"renovationDurationMonths" mapstructure:"renovationDurationMonths"`
	RenoFinancingType            RenoFinancing             `json:"renoFinancingType" yaml:"renoFinancingType" mapstructure:"renoFinancingType"`
	RenoFinancingRates           map[RenoFinancing]float64 `json:"renoFinancingRates" yaml:"renoFinancingRates" mapstructure:"renoFinancingRates"`

	VacancyRatePercent float64 `json:"vacancyRatePercent" yaml:"vacancyRatePercent" mapstructure:"vacancyRatePercent"`
	SchoolTaxes        float64 `json:"schoolTaxes" yaml:"schoolTaxes" mapstructure:"schoolTaxes"`
	InsuranceAnnual    float64 `json:"insuranceAnnual" yaml:"insuranceAnnual" mapstructure:"insuranceAnnual"`
	MaintenancePercent float64 `json:"maintenancePercent" yaml:"maintenancePercent" mapstructure:"maintenancePercent"`
	ManagementPercent  float64 `json:"managementPercent" yaml:"managementPercent" mapstructure:"managementPercent"`

	RefinanceLTVPercent   float64 `json:"refinanceLtvPercent" yaml:"refinanceLtvPercent" mapstructure:"refinanceLtvPercent"`
	RefinanceRate         float64 `json:"refinanceRate" yaml:"refinanceRate" mapstructure:"refinanceRate"`
	RefinanceAmortYears   int     `json:"refinanceAmortYears" yaml:"refinanceAmortYears" mapstructure:"refinanceAmortYears"`
	SeasoningMonths       int     `json:"seasoningMonths" yaml:"seasoningMonths" mapstructure:"seasoningMonths"`
	RefinanceAppraisalFee float64 `json:"refinanceAppraisalFee" yaml:"refinanceAppraisalFee" mapstructure:"refinanceAppraisalFee"`
	RefinanceLegalFees    float64 `json:"refinanceLegalFees" yaml:"refinanceLegalFees" mapstructure:"refinanceLegalFees"`
}

// DefaultAssumptions returns the documented defaults.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		DownPaymentPercent: 20,
		Municipality:       transfertax.Montreal,
		NotaryFees:         2000,
		InspectionFees:     800,

		MortgageRate:      0.0525,
		AmortizationYears: 25,
		TermYears:         5,

		RenovationContingencyPercent: 10,
		RenovationDurationMonths:     3,
		RenoFinancingType:            FinancingHELOC,
		RenoFinancingRates: map[RenoFinancing]float64{
			FinancingCash:        0,
			FinancingHELOC:       0.0695,
			FinancingPersonalLOC: 0.0895,
			FinancingPrivateLoan: 0.12,
		},

		VacancyRatePercent: 5,
		SchoolTaxes:        500,
		InsuranceAnnual:    2400,
		MaintenancePercent: 5,
		ManagementPercent:  0,

		RefinanceLTVPercent:   80,
		RefinanceRate:         0.0525,
		RefinanceAmortYears:   25,
		SeasoningMonths:       6,
		RefinanceAppraisalFee: 400,
		RefinanceLegalFees:    1200,
	}
}

// Property is a PropertyFinancials with every default resolved.
type Property struct {
	PurchasePrice      float64                  `json:"purchasePrice"`
	DownPaymentPercent float64                  `json:"downPaymentPercent"`
	Municipality       transfertax.Municipality `json:"municipality"`
	NotaryFees         float64                  `json:"notaryFees"`
	InspectionFees     float64                  `json:"inspectionFees"`
	OtherClosingCosts  float64                  `json:"otherClosingCosts"`

	MortgageRate      float64 `json:"mortgageRate"`
	AmortizationYears int     `json:"amortizationYears"`
	TermYears         int     `json:"termYears"`
	IsMLISelect       bool    `json:"isMliSelect"`

	RenovationBudget             float64       `json:"renovationBudget"`
	RenovationContingencyPercent float64       `json:"renovationContingencyPercent"`
	RenovationDurationMonths     int           `json:"renovationDurationMonths"`
	RenoFinancingType            RenoFinancing `json:"renoFinancingType"`
	RenoFinancingRate            float64       `json:"renoFinancingRate"`

	ProjectedMonthlyRent float64 `json:"projectedMonthlyRent"`
	VacancyRatePercent   float64 `json:"vacancyRatePercent"`
	MunicipalTaxes       float64 `json:"municipalTaxes"`
	SchoolTaxes          float64 `json:"schoolTaxes"`
	InsuranceAnnual      float64 `json:"insuranceAnnual"`
	MaintenancePercent   float64 `json:"maintenancePercent"`
	ManagementPercent    float64 `json:"managementPercent"`
	UtilitiesMonthly     float64 `json:"utilitiesMonthly"`

	AfterRepairValue      float64 `json:"afterRepairValue"`
	RefinanceLTVPercent   float64 `json:"refinanceLtvPercent"`
	RefinanceRate         float64 `json:"refinanceRate"`
	RefinanceAmortYears   int     `json:"refinanceAmortYears"`
	SeasoningMonths       int     `json:"seasoningMonths"`
	RefinanceAppraisalFee float64 `json:"refinanceAppraisalFee"`
	RefinanceLegalFees    float64 `json:"refinanceLegalFees"`

	TotalUnits      int  `json:"totalUnits"`
	IsOwnerOccupied bool `json:"isOwnerOccupied"`
}

// Resolve fills every omitted field from a. It does not validate.
func (in PropertyFinancials) Resolve(a Assumptions) Property {
	financing := pick(in.RenoFinancingType, a.RenoFinancingType)
	municipality := a.Municipality
	switch {
	case in.Municipality != nil:
		municipality = *in.Municipality
	case in.PostalCode != nil && *in.PostalCode != "":
		municipality = transfertax.MunicipalityFromPostalCode(*in.PostalCode)
	}

	return Property{
		PurchasePrice:      pick(in.PurchasePrice, 0),
		DownPaymentPercent: pick(in.DownPaymentPercent, a.DownPaymentPercent),
		Municipality:       municipality,
		NotaryFees:         pick(in.NotaryFees, a.NotaryFees),
		InspectionFees:     pick(in.InspectionFees, a.InspectionFees),
		OtherClosingCosts:  pick(in.OtherClosingCosts, 0),

		MortgageRate:      pick(in.MortgageRate, a.MortgageRate),
		AmortizationYears: pick(in.AmortizationYears, a.AmortizationYears),
		TermYears:         pick(in.TermYears, a.TermYears),
		IsMLISelect:       pick(in.IsMLISelect, false),

		RenovationBudget:             pick(in.RenovationBudget, 0),
		RenovationContingencyPercent: pick(in.RenovationContingencyPercent, a.RenovationContingencyPercent),
		RenovationDurationMonths:     pick(in.RenovationDurationMonths, a.RenovationDurationMonths),
		RenoFinancingType:            financing,
		RenoFinancingRate:            pick(in.RenoFinancingRate, a.RenoFinancingRates[financing]),

		ProjectedMonthlyRent: pick(in.ProjectedMonthlyRent, 0),
		VacancyRatePercent:   pick(in.VacancyRatePercent, a.VacancyRatePercent),
		MunicipalTaxes:       pick(in.MunicipalTaxes, 0),
		SchoolTaxes:          pick(in.SchoolTaxes, a.SchoolTaxes),
		InsuranceAnnual:      pick(in.InsuranceAnnual, a.InsuranceAnnual),
		MaintenancePercent:   pick(in.MaintenancePercent, a.MaintenancePercent),
		ManagementPercent:    pick(in.ManagementPercent, a.ManagementPercent),
		UtilitiesMonthly:     pick(in.UtilitiesMonthly, 0),

		AfterRepairValue:      pick(in.AfterRepairValue, 0),
		RefinanceLTVPercent:   pick(in.RefinanceLTVPercent, a.RefinanceLTVPercent),
		RefinanceRate:         pick(in.RefinanceRate, a.RefinanceRate),
		RefinanceAmortYears:   pick(in.RefinanceAmortYears, a.RefinanceAmortYears),
		SeasoningMonths:       pick(in.SeasoningMonths, a.SeasoningMonths),
		RefinanceAppraisalFee: pick(in.RefinanceAppraisalFee, a.RefinanceAppraisalFee),
		RefinanceLegalFees:    pick(in.RefinanceLegalFees, a.RefinanceLegalFees),

		TotalUnits:      pick(in.TotalUnits, 1),
		IsOwnerOccupied: pick(in.IsOwnerOccupied, false),
	}
}

// Financials converts a resolved property back into raw input, with every
// field set. Used to re-run an analysis with perturbed values.
func (p Property) Financials() PropertyFinancials {
	municipality := p.Municipality
	financing := p.RenoFinancingType
	return PropertyFinancials{
		PurchasePrice:      &p.PurchasePrice,
		DownPaymentPercent: &p.DownPaymentPercent,
		Municipality:       &municipality,
		NotaryFees:         &p.NotaryFees,
		InspectionFees:     &p.InspectionFees,
		OtherClosingCosts:  &p.OtherClosingCosts,

		MortgageRate:      &p.MortgageRate,
		AmortizationYears: &p.AmortizationYears,
		TermYears:         &p.TermYears,
		IsMLISelect:       &p.IsMLISelect,

		RenovationBudget:             &p.RenovationBudget,
		RenovationContingencyPercent: &p.RenovationContingencyPercent,
		RenovationDurationMonths:     &p.RenovationDurationMonths,
		RenoFinancingType:            &financing,
		RenoFinancingRate:            &p.RenoFinancingRate,

		ProjectedMonthlyRent: &p.ProjectedMonthlyRent,
		VacancyRatePercent:   &p.VacancyRatePercent,
		MunicipalTaxes:       &p.MunicipalTaxes,
		SchoolTaxes:          &p.SchoolTaxes,
		InsuranceAnnual:      &p.InsuranceAnnual,
		MaintenancePercent:   &p.MaintenancePercent,
		ManagementPercent:    &p.ManagementPercent,
		UtilitiesMonthly:     &p.UtilitiesMonthly,

		AfterRepairValue:      &p.AfterRepairValue,
		RefinanceLTVPercent:   &p.RefinanceLTVPercent,
		RefinanceRate:         &p.RefinanceRate,
		RefinanceAmortYears:   &p.RefinanceAmortYears,
		SeasoningMonths:       &p.SeasoningMonths,
		RefinanceAppraisalFee: &p.RefinanceAppraisalFee,
		RefinanceLegalFees:    &p.RefinanceLegalFees,

		TotalUnits:      &p.TotalUnits,
		IsOwnerOccupied: &p.IsOwnerOccupied,
	}
}

func pick[T any](value *T, fallback T) T {
	if value == nil {
		return fallback
	}
	return *value
}
