package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/iwvelando/brrrr-analyzer/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Input encodings accepted by Decode.
const (
	EncodingJSON = constants.OutputFormatJSON
	EncodingYAML = "yaml"
)

// Decode reads a document into v, rejecting unknown fields. Type mismatches
// and syntax errors are returned as a MalformedInputError.
func Decode(r io.Reader, encoding string, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return &MalformedInputError{Reason: err.Error()}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &MalformedInputError{Reason: "empty document"}
	}

	switch encoding {
	case EncodingYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(v); err != nil {
			return &MalformedInputError{Reason: err.Error()}
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(v); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return &MalformedInputError{Field: typeErr.Field, Reason: "expected " + typeErr.Type.String() + ", got " + typeErr.Value}
			}
			return &MalformedInputError{Reason: err.Error()}
		}
	}
	return nil
}

// DecodePropertyFinancials reads a PropertyFinancials document.
func DecodePropertyFinancials(r io.Reader, encoding string) (PropertyFinancials, error) {
	var in PropertyFinancials
	if err := Decode(r, encoding, &in); err != nil {
		return PropertyFinancials{}, err
	}
	return in, nil
}
