package validation

import (
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// shapeValidator enforces the shape tag; fieldValidator enforces the
// validate tag. Both are safe for concurrent use.
var (
	shapeValidator = newValidator("shape")
	fieldValidator = newValidator("validate")
)

func newValidator(tagName string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(tagName)
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Float32 && field.Kind() != reflect.Float64 {
			return true
		}
		f := field.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// CheckShape returns a MalformedInputError for the first missing required
// field, non-finite number, negative amount or unknown enumeration value of
// a struct carrying shape tags.
func CheckShape(in any) error {
	err := shapeValidator.Struct(in)
	if err == nil {
		return nil
	}
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrors) == 0 {
		return &MalformedInputError{Reason: err.Error()}
	}
	first := fieldErrors[0]
	return &MalformedInputError{Field: first.Field(), Reason: shapeReason(first)}
}

// CheckFields returns a violation for every field of a struct carrying
// validate tags that lies outside its documented range.
func CheckFields(in any) Violations {
	err := fieldValidator.Struct(in)
	if err == nil {
		return nil
	}
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return Violations{{Field: "input", Message: err.Error()}}
	}
	violations := make(Violations, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, Violation{Field: fe.Field(), Message: rangeMessage(fe)})
	}
	return violations
}

func shapeReason(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "field is required"
	case "finite":
		return "must be a finite number"
	case "gte":
		return "must not be negative"
	case "gt":
		return "must be positive"
	case "lte":
		return "must be at most " + err.Param()
	case "oneof":
		return "must be one of: " + err.Param()
	default:
		return "failed check: " + err.Tag()
	}
}

func rangeMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "gte", "min":
		return "must be at least " + err.Param()
	case "lte", "max":
		return "must be at most " + err.Param()
	case "gt":
		return "must be greater than " + err.Param()
	case "lt":
		return "must be less than " + err.Param()
	default:
		return "failed check: " + err.Tag()
	}
}
