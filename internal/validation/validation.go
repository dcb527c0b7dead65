// Package validation mirrors the API's field rules on the client so a form
// can show inline errors before anything is sent. The server stays the
// authority; these schemas only shape the user experience.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"taskaura/internal/models"
)

// FormField is the key used for failures that are not tied to one input.
const FormField = "form"

// Errors maps a field name (its JSON name) to one human readable message.
type Errors map[string]string

// Empty reports whether no field failed.
func (e Errors) Empty() bool { return len(e) == 0 }

// Clear drops the message of one field, as happens while the user edits it.
func (e Errors) Clear(field string) {
	delete(e, field)
}

// Clone returns an independent copy.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseDate(fl.Field().String())
		return ok
	}); err != nil {
		panic(err)
	}
	return v
}

// Schema binds an input struct to the message shown for each field/rule pair.
type Schema[T any] struct {
	messages map[string]map[string]string
}

// Validate checks input and returns the first failing rule's message per field.
func (s Schema[T]) Validate(input T) Errors {
	err := validate.Struct(input)
	if err == nil {
		return Errors{}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{FormField: err.Error()}
	}

	out := Errors{}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = s.message(field, fe.Tag())
	}
	return out
}

func (s Schema[T]) message(field, tag string) string {
	if byTag, ok := s.messages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}
	return "Invalid value"
}
