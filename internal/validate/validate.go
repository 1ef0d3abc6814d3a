package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/go-playground/validator/v10"
)

var (
	phoneRegexp  = regexp.MustCompile(`^[0-9\s\-()]+$`)
	mobileRegexp = regexp.MustCompile(`^[0-9+]{8,15}$`)
	dniRegexp    = regexp.MustCompile(`^[0-9]{7,9}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	mustRegister(v, "phone", matches(phoneRegexp))
	mustRegister(v, "mobile", matches(mobileRegexp))
	mustRegister(v, "dni", matches(dniRegexp))
	mustRegister(v, "province", func(fl validator.FieldLevel) bool {
		return slices.Contains(model.Provinces, fl.Field().String())
	})
	mustRegister(v, "status", func(fl validator.FieldLevel) bool {
		return lifecycle.Status(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Error lists the invalid fields of a form, keyed by wire name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates a request payload from the model package.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return format(err)
	}
	return nil
}

func format(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("validation failed: %w", err)
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = message(fe)
	}
	return &Error{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "eqfield":
		return "does not match"
	case "oneof":
		return "must be one of " + fe.Param()
	case "number":
		return "must contain only digits"
	case "datetime":
		return "must use the format " + fe.Param()
	case "province":
		return "is not a known province"
	case "status":
		return "is not a known status"
	}
	return "has an invalid format"
}

// Field returns the message for one field of a validation error, if any.
func Field(err error, name string) string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Fields[name]
	}
	return ""
}
