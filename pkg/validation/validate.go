// Package validation turns raw property input into validated entities.
// Structural problems (missing required fields, non-finite numbers, negative
// amounts, unknown enumerations) are fatal and reported as a
// MalformedInputError. Broken business or regulatory rules are reported as
// an ordered list of Violations alongside the entities, which are still
// built so that the caller can decide whether to proceed.
package validation

import (
	"fmt"

	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
)

// Validated is the outcome of validating one input.
type Validated struct {
	Property   Property
	Mortgage   Mortgage
	Refinance  Refinance
	Violations Violations
	// Notes are informational findings, reported as warnings.
	Notes []string
}

// IsValid reports whether no rule was violated.
func (v Validated) IsValid() bool {
	return len(v.Violations) == 0
}

// Validate checks in against its shape and every business rule. It is pure:
// validating the same input twice yields identical results.
func Validate(in PropertyFinancials, a Assumptions, r rules.Rules) (Validated, error) {
	if err := CheckShape(in); err != nil {
		return Validated{}, err
	}

	p := in.Resolve(a)
	violations := CheckFields(in)
	violations = append(violations, runRules(p, r, propertyRules)...)

	mortgage, mortgageViolations := CreateMortgageFromInput(p, r)
	violations = append(violations, mortgageViolations...)

	refinance, refinanceViolations := CreateRefinanceFromInput(p, r)
	violations = append(violations, refinanceViolations...)

	notes := append([]string(nil), mortgage.Notes...)
	if !isKnownMunicipality(p.Municipality) {
		notes = append(notes, fmt.Sprintf("Unknown municipality %q: default transfer tax brackets applied", p.Municipality))
	}

	return Validated{
		Property:   p,
		Mortgage:   mortgage,
		Refinance:  refinance,
		Violations: violations,
		Notes:      notes,
	}, nil
}

func isKnownMunicipality(m transfertax.Municipality) bool {
	return transfertax.IsKnown(m)
}
