// Package forms holds the create/edit editors for cameras and users: local field state,
// required-field validation and the network writes that follow a valid submission.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their wire names so messages line up with the API payload.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationError carries one message per invalid field, keyed by wire name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return fmt.Sprintf("please fix the errors in the form: %s", strings.Join(names, ", "))
}

// check runs the struct tags and turns failures into field messages using labels.
// A nil map means the form is valid.
func check(form any, labels map[string]string) map[string]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_form": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		label := labels[fe.Field()]
		if label == "" {
			label = fe.Field()
		}
		fields[fe.Field()] = message(label, fe)
	}
	return fields
}

func message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, fe.Param())
	case "numeric":
		return label + " must be a number"
	default:
		return label + " is invalid"
	}
}

// merge folds extra messages into fields, allocating when needed.
func merge(fields map[string]string, key, msg string) map[string]string {
	if fields == nil {
		fields = make(map[string]string)
	}
	if _, exists := fields[key]; !exists {
		fields[key] = msg
	}
	return fields
}

// Outcome replaces the blocking success/failure dialog of a submission.
type Outcome struct {
	OK       bool
	Message  string
	Redirect string            // where to go after a successful submission
	Fields   map[string]string // per-field messages when validation failed
	Err      error
}

func invalid(fields map[string]string) Outcome {
	return Outcome{
		Message: "Please fix the errors in the form",
		Fields:  fields,
		Err:     &ValidationError{Fields: fields},
	}
}

func failed(msg string, err error) Outcome {
	return Outcome{Message: msg, Err: err}
}
