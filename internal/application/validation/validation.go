// Package validation holds the field rules of every CRM input in one table.
// Rules are go-playground/validator tag expressions evaluated per field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// Kind names the entity an input describes
type Kind string

const (
	KindLead          Kind = "lead"
	KindCustomer      Kind = "customer"
	KindOpportunity   Kind = "opportunity"
	KindPipelineStage Kind = "pipeline_stage"
	KindLeadSource    Kind = "lead_source"
	KindCompany       Kind = "company"
	KindUser          Kind = "user"
)

// ErrValidation is the sentinel every ValidationError unwraps to
var ErrValidation = shared.NewDomainError("VALIDATION_ERROR", "Request validation failed")

// Rule checks one field, named by its json tag. Message overrides the
// generated one.
type Rule struct {
	Field   string
	Tag     string
	Message string
}

// Table maps each kind to its rules
type Table map[Kind][]Rule

// FieldError describes one failed rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failed rule of one input
type ValidationError struct {
	Kind   Kind
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(parts, "; "))
}

// Unwrap exposes the VALIDATION_ERROR domain error
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DefaultTable returns the CRM rules
func DefaultTable() Table {
	currency := Rule{Field: "currency", Tag: "omitempty,len=3,alpha", Message: "Must be a 3-letter currency code"}
	return Table{
		KindLead: {
			{Field: "first_name", Tag: "required,max=100"},
			{Field: "last_name", Tag: "required,max=100"},
			{Field: "company_name", Tag: "omitempty,max=200"},
			{Field: "title", Tag: "omitempty,max=100"},
			{Field: "email", Tag: "omitempty,email,max=200"},
			{Field: "phone", Tag: "omitempty,max=50"},
			{Field: "mobile", Tag: "omitempty,max=50"},
			{Field: "website", Tag: "omitempty,url,max=500"},
			{Field: "city", Tag: "omitempty,max=100"},
			{Field: "state", Tag: "omitempty,max=100"},
			{Field: "country", Tag: "omitempty,max=100"},
			{Field: "postal_code", Tag: "omitempty,max=20"},
			{Field: "industry", Tag: "omitempty,max=100"},
			{Field: "estimated_value", Tag: "gte=0"},
			currency,
			{Field: "rating", Tag: "omitempty,oneof=hot warm cold"},
			{Field: "source_id", Tag: "gt=0"},
		},
		KindCustomer: {
			{Field: "name", Tag: "required,max=200"},
			{Field: "email", Tag: "omitempty,email,max=200"},
			{Field: "phone", Tag: "omitempty,max=50"},
			{Field: "city", Tag: "omitempty,max=100"},
			{Field: "country", Tag: "omitempty,max=100"},
			{Field: "latitude", Tag: "gte=-90,lte=90"},
			{Field: "longitude", Tag: "gte=-180,lte=180"},
		},
		KindOpportunity: {
			{Field: "name", Tag: "required,max=200"},
			{Field: "description", Tag: "omitempty,max=2000"},
			{Field: "amount", Tag: "gte=0"},
			currency,
			{Field: "probability", Tag: "gte=0,lte=100"},
			{Field: "pipeline_stage_id", Tag: "gt=0"},
			{Field: "customer_id", Tag: "gt=0"},
		},
		KindPipelineStage: {
			{Field: "name", Tag: "required,max=100"},
			{Field: "display_order", Tag: "gte=0"},
			{Field: "default_probability", Tag: "gte=0,lte=100"},
			{Field: "kind", Tag: "omitempty,oneof=open won lost"},
		},
		KindLeadSource: {
			{Field: "name", Tag: "required,max=100"},
			{Field: "description", Tag: "omitempty,max=500"},
		},
		KindCompany: {
			{Field: "name", Tag: "required,max=200"},
			{Field: "email", Tag: "omitempty,email"},
			{Field: "website", Tag: "omitempty,url"},
			{Field: "phone", Tag: "omitempty,max=50"},
		},
		KindUser: {
			{Field: "username", Tag: "required,min=3,max=100"},
			{Field: "email", Tag: "required,email,max=200"},
			{Field: "password", Tag: "required,min=8,max=72"},
			{Field: "display_name", Tag: "omitempty,max=200"},
		},
	}
}

// Validator evaluates a Table against input structs
type Validator struct {
	table    Table
	validate *validator.Validate
}

// New creates a Validator for table
func New(table Table) *Validator {
	return &Validator{table: table, validate: validator.New()}
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the shared Validator for DefaultTable
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New(DefaultTable())
	})
	return defaultValidator
}

// Validate checks input against the rules of kind using the default table
func Validate(kind Kind, input any) error {
	return Default().Validate(kind, input)
}

// ValidatePatch checks a partial update using the default table
func ValidatePatch(kind Kind, input any) error {
	return Default().ValidatePatch(kind, input)
}

// Validate checks input against the rules of kind.
// Fields the input does not have are skipped, as are nil pointers unless
// the rule requires a value.
func (v *Validator) Validate(kind Kind, input any) error {
	return v.check(kind, input, false)
}

// ValidatePatch is Validate for partial updates: a nil pointer means
// "unchanged" and never fails a required rule.
func (v *Validator) ValidatePatch(kind Kind, input any) error {
	return v.check(kind, input, true)
}

func (v *Validator) check(kind Kind, input any, patch bool) error {
	rules, ok := v.table[kind]
	if !ok {
		return fmt.Errorf("validation: no rules for kind %q", kind)
	}
	fields := jsonFields(input)

	var failed []FieldError
	for _, rule := range rules {
		value, present := fields[rule.Field]
		if !present {
			continue
		}
		if value.Kind() == reflect.Ptr {
			if value.IsNil() {
				if !patch && isRequired(rule.Tag) {
					failed = append(failed, FieldError{Field: rule.Field, Message: messageOr(rule, "This field is required")})
				}
				continue
			}
			value = value.Elem()
		}

		if err := v.validate.Var(numericValue(value), rule.Tag); err != nil {
			failed = append(failed, FieldError{Field: rule.Field, Message: messageOr(rule, describe(err))})
		}
	}

	if len(failed) > 0 {
		return &ValidationError{Kind: kind, Fields: failed}
	}
	return nil
}

// jsonFields indexes the exported fields of a struct by json name
func jsonFields(input any) map[string]reflect.Value {
	rv := reflect.ValueOf(input)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := make(map[string]reflect.Value)
	collect(rv, fields)
	return fields
}

func collect(rv reflect.Value, fields map[string]reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get("json") == "" {
			collect(rv.Field(i), fields)
			continue
		}
		name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		fields[name] = rv.Field(i)
	}
}

// numericValue turns decimal-like values into float64 so numeric tags apply
func numericValue(value reflect.Value) any {
	v := value.Interface()
	if f, ok := v.(interface{ InexactFloat64() float64 }); ok {
		return f.InexactFloat64()
	}
	return v
}

func isRequired(tag string) bool {
	for _, part := range strings.Split(tag, ",") {
		if part == "required" {
			return true
		}
	}
	return false
}

func messageOr(rule Rule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return Message(fieldErrs[0])
	}
	return "Invalid value"
}

// Message returns a human-readable message for a failed validator tag
func Message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "url":
		return "Invalid URL format"
	case "numeric":
		return "Must be numeric"
	case "alphanum":
		return "Must be alphanumeric"
	case "alpha":
		return "Must contain only letters"
	default:
		return "Invalid value"
	}
}
