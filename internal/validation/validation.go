// Package validation holds the rules a student record must satisfy before it
// is sent to (or accepted by) the registration API.
//
// The rules live on the struct tags of types.Student and are checked by
// go-playground/validator. Two things are configured on top of the stock
// validator:
//
//   - field names in errors are the JSON keys ("email_aluno"), not the Go
//     names, so they can be matched directly against form inputs;
//   - an "email_basic" tag implementing the deliberately loose pattern the
//     registration form has always used (something@something.something).
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
)

// Tag names reported in FieldErrors.
const (
	TagRequired   = "required"
	TagEmailBasic = "email_basic"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole process.
var validate = New()

// New returns a validator configured with the JSON field names and the
// email_basic rule.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.RegisterValidation(TagEmailBasic, func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("validation.New: register %s: %v", TagEmailBasic, err))
	}

	return v
}

// ValidEmail reports whether s matches the basic email pattern.
// "a@b" is rejected, "a@b.com" is accepted.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Student checks every rule on s. The returned error, when not nil, is a
// validator.ValidationErrors.
func Student(s types.Student) error {
	return validate.Struct(s)
}

// FieldErrors maps each failing field (by JSON name) to the tag that failed.
// It returns nil when err carries no field errors.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = e.Tag()
	}
	return fields
}
