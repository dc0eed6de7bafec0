// Package extraction maps property data read from a listing or document
// into analysis input. The figures are mapped as-is; only their shape is
// checked here, their plausibility is left to the analysis.
package extraction

import (
	"fmt"
	"strings"

	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
)

// Source identifies the system the data was extracted from.
type Source string

// Known sources.
const (
	SourceCentris   Source = "CENTRIS"
	SourceDuProprio Source = "DUPROPRIO"
	SourceRealtor   Source = "REALTOR"
	SourcePDF       Source = "PDF"
	SourceManual    Source = "MANUAL"
)

// LowConfidence is the extraction confidence below which a review warning
// is raised.
const LowConfidence = 70.0

// ExtractedPropertyData is what an extractor could read from a listing.
// Confidence is a 0-100 score of the extraction as a whole.
type ExtractedPropertyData struct {
	AskingPrice    *float64  `json:"askingPrice,omitempty" yaml:"askingPrice,omitempty" shape:"omitempty,finite,gte=0"`
	Units          *int      `json:"units,omitempty" yaml:"units,omitempty" shape:"omitempty,gt=0"`
	MonthlyRents   []float64 `json:"monthlyRents,omitempty" yaml:"monthlyRents,omitempty" shape:"omitempty,dive,finite,gte=0"`
	MunicipalTaxes *float64  `json:"municipalTaxes,omitempty" yaml:"municipalTaxes,omitempty" shape:"omitempty,finite,gte=0"`
	SchoolTaxes    *float64  `json:"schoolTaxes,omitempty" yaml:"schoolTaxes,omitempty" shape:"omitempty,finite,gte=0"`
	Address        string    `json:"address,omitempty" yaml:"address,omitempty"`
	PostalCode     string    `json:"postalCode,omitempty" yaml:"postalCode,omitempty"`
	Confidence     float64   `json:"confidence" yaml:"confidence" shape:"finite,gte=0,lte=100"`
	Source         Source    `json:"source" yaml:"source" shape:"required,oneof=CENTRIS DUPROPRIO REALTOR PDF MANUAL"`
}

// Mapping is the input built from extracted data.
type Mapping struct {
	Financials validation.PropertyFinancials `json:"financials"`
	// Municipality is the one the postal code resolves to, if any.
	Municipality *transfertax.Municipality `json:"municipality,omitempty"`
	// Missing lists the required fields that neither the extraction nor
	// the overrides supplied.
	Missing  []string `json:"missing"`
	Warnings []string `json:"warnings"`
}

// Complete reports whether the mapped input can be analyzed as is.
func (m Mapping) Complete() bool {
	return len(m.Missing) == 0
}

// Map builds analysis input from data. Fields already set in overrides win
// over extracted values.
func Map(data ExtractedPropertyData, overrides validation.PropertyFinancials) (Mapping, error) {
	if err := validation.CheckShape(data); err != nil {
		return Mapping{}, err
	}

	in := overrides
	if in.PurchasePrice == nil {
		in.PurchasePrice = data.AskingPrice
	}
	if in.TotalUnits == nil {
		in.TotalUnits = data.Units
	}
	if in.ProjectedMonthlyRent == nil && len(data.MonthlyRents) > 0 {
		total := 0.0
		for _, rent := range data.MonthlyRents {
			total += rent
		}
		in.ProjectedMonthlyRent = &total
	}
	if in.MunicipalTaxes == nil {
		in.MunicipalTaxes = data.MunicipalTaxes
	}
	if in.SchoolTaxes == nil {
		in.SchoolTaxes = data.SchoolTaxes
	}

	m := Mapping{Missing: []string{}, Warnings: []string{}}
	postal := strings.TrimSpace(data.PostalCode)
	if in.PostalCode == nil && postal != "" {
		in.PostalCode = &postal
	}
	if in.Municipality == nil && in.PostalCode != nil {
		municipality := transfertax.MunicipalityFromPostalCode(*in.PostalCode)
		m.Municipality = &municipality
	}
	m.Financials = in

	for _, req := range []struct {
		field string
		set   bool
	}{
		{"purchasePrice", in.PurchasePrice != nil},
		{"projectedMonthlyRent", in.ProjectedMonthlyRent != nil},
		{"municipalTaxes", in.MunicipalTaxes != nil},
		{"afterRepairValue", in.AfterRepairValue != nil},
	} {
		if !req.set {
			m.Missing = append(m.Missing, req.field)
		}
	}

	if data.Confidence < LowConfidence {
		m.Warnings = append(m.Warnings, fmt.Sprintf("Extraction confidence of %.0f is below %.0f: review the extracted figures",
			data.Confidence, LowConfidence))
	}
	if data.Units != nil && len(data.MonthlyRents) > 0 && len(data.MonthlyRents) != *data.Units {
		m.Warnings = append(m.Warnings, fmt.Sprintf("%d units listed but %d rents extracted: vacant units add no rent",
			*data.Units, len(data.MonthlyRents)))
	}
	return m, nil
}
