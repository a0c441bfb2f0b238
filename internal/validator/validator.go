// Package validator adapts go-playground/validator to Echo so handlers can
// call c.Validate on bound request bodies.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/ekharid/internal/model"
)

// FieldError describes one failed rule.
type FieldError struct {
	FailedField string
	Tag         string
	Value       string
}

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports field names by their json tag.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = f.Tag.Get("form")
		}
		return name
	})
	return &Validator{v: v}
}

// Fields runs the rules on data and lists every failure.
func (cv *Validator) Fields(data interface{}) []FieldError {
	var out []FieldError
	err := cv.v.Struct(data)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{FailedField: "body", Tag: "invalid"}}
	}
	for _, fe := range verrs {
		out = append(out, FieldError{FailedField: fe.Field(), Tag: fe.Tag(), Value: fe.Param()})
	}
	return out
}

// Validate returns nil or an error wrapping model.ErrValidation that names
// the first failed field.
func (cv *Validator) Validate(i interface{}) error {
	fields := cv.Fields(i)
	if len(fields) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", model.ErrValidation, describe(fields[0]))
}

func describe(f FieldError) string {
	switch f.Tag {
	case "required":
		return f.FailedField + " is required"
	case "email":
		return f.FailedField + " must be a valid email"
	case "eqfield":
		return f.FailedField + " must match " + strings.ToLower(f.Value[:1]) + f.Value[1:]
	case "oneof":
		return f.FailedField + " must be one of " + f.Value
	case "min", "gte":
		return f.FailedField + " must be at least " + f.Value
	case "max", "lte":
		return f.FailedField + " must be at most " + f.Value
	}
	return f.FailedField + " is invalid"
}
