package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"unicode/utf8"

	errors "github.com/Lap-DevOps/Organizational-Chart/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName       string
	Value           interface{}
	Present         bool
	Validators      []ValidatorFunc
	required        bool
	requiredMessage string
}

type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

// Field registers a typed value. Empty strings and nil pointers count as missing.
func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	return v.field(name, value, !isBlank(value))
}

// RawField registers a value taken from an untyped payload. Only an absent key or a
// null value counts as missing; an empty string is present and goes through the rules.
func (v *ValidationBuilder) RawField(name string, payload map[string]interface{}) *FieldValidator {
	value, ok := payload[name]
	return v.field(name, value, ok && value != nil)
}

func (v *ValidationBuilder) field(name string, value interface{}, present bool) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Present:    present,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

func isBlank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case *string:
		return v == nil || *v == ""
	case *int64:
		return v == nil
	}
	return false
}

// Required marks the field mandatory. A missing required field reports only this
// rule; the field's other rules are skipped.
func (fv *FieldValidator) Required() *FieldValidator {
	return fv.RequiredWithMessage("")
}

func (fv *FieldValidator) RequiredWithMessage(message string) *FieldValidator {
	fv.required = true
	fv.requiredMessage = message
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	return fv.Rules(Rule{
		Code:    errors.ErrCodeInvalidLength,
		Message: fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min),
		Test:    stringTest(func(s string) bool { return utf8.RuneCountInString(s) >= min }),
	})
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	return fv.Rules(Rule{
		Code:    errors.ErrCodeInvalidLength,
		Message: fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max),
		Test:    stringTest(func(s string) bool { return utf8.RuneCountInString(s) <= max }),
	})
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Rules appends declarative rules, evaluated in order.
func (fv *FieldValidator) Rules(rules ...Rule) *FieldValidator {
	for _, rule := range rules {
		fv.Validators = append(fv.Validators, rule.validator(fv.FieldName))
	}
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		if !field.Present {
			if field.required {
				message := field.requiredMessage
				if message == "" {
					message = fmt.Sprintf("%s is required", field.FieldName)
				}
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Code:    string(errors.ErrCodeRequired),
					Message: message,
				})
			}
			continue
		}

		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
				continue
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Code:    string(appErr.Code),
				Message: appErr.Message,
			})
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Input payload validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// Rule is one predicate+message pair. Test returns true when the value passes.
type Rule struct {
	Code    errors.ErrorCode
	Message string
	Test    func(value interface{}) bool
}

func (r Rule) validator(field string) ValidatorFunc {
	return func(value interface{}) *errors.AppError {
		if r.Test(value) {
			return nil
		}
		return errors.NewValidationFieldError(field, r.Message, r.Code)
	}
}

// FieldSpec is one row of a rule table.
type FieldSpec struct {
	Name            string
	Required        bool
	RequiredMessage string
	Rules           []Rule
}

// Schema is an ordered rule table evaluated against an untyped payload.
type Schema []FieldSpec

// Validate runs every row and collects all violations across all fields.
func (s Schema) Validate(payload map[string]interface{}) *errors.AppError {
	v := NewValidator()
	for _, spec := range s {
		fv := v.RawField(spec.Name, payload)
		if spec.Required {
			fv.RequiredWithMessage(spec.RequiredMessage)
		}
		fv.Rules(spec.Rules...)
	}
	return v.Validate()
}

// stringTest passes non-string values so that only the type rule reports them.
func stringTest(fn func(string) bool) func(interface{}) bool {
	return func(value interface{}) bool {
		s, ok := value.(string)
		if !ok {
			return true
		}
		return fn(s)
	}
}

func IsString(message string) Rule {
	return Rule{
		Code:    errors.ErrCodeInvalidType,
		Message: message,
		Test: func(value interface{}) bool {
			_, ok := value.(string)
			return ok
		},
	}
}

// Length bounds the rune count of a string, inclusive on both ends.
func Length(min, max int, message string) Rule {
	return Rule{
		Code:    errors.ErrCodeInvalidLength,
		Message: message,
		Test: stringTest(func(s string) bool {
			n := utf8.RuneCountInString(s)
			return n >= min && n <= max
		}),
	}
}

func Matches(pattern *regexp.Regexp, message string) Rule {
	return Rule{
		Code:    errors.ErrCodeInvalidPattern,
		Message: message,
		Test:    stringTest(pattern.MatchString),
	}
}

func Format(pattern *regexp.Regexp, message string) Rule {
	return Rule{
		Code:    errors.ErrCodeInvalidFormat,
		Message: message,
		Test:    stringTest(pattern.MatchString),
	}
}

// Predicate wraps an arbitrary string check under the given rule code.
func Predicate(code errors.ErrorCode, message string, fn func(string) bool) Rule {
	return Rule{Code: code, Message: message, Test: stringTest(fn)}
}

// OneOf accepts strings for which allowed returns true.
func OneOf(message string, allowed func(string) bool) Rule {
	return Rule{Code: errors.ErrCodeInvalidEnum, Message: message, Test: stringTest(allowed)}
}

// Integer accepts whole numbers as produced by encoding/json (float64 or json.Number)
// or by Go callers (int, int32, int64).
func Integer(message string) Rule {
	return Rule{
		Code:    errors.ErrCodeInvalidType,
		Message: message,
		Test: func(value interface{}) bool {
			_, ok := AsInt64(value)
			return ok
		},
	}
}

// AsInt64 converts whole-number payload values to int64.
func AsInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || v >= 1<<63 || v < -(1<<63) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}
