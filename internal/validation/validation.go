package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once

	hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	countryPattern  = regexp.MustCompile(`^[A-Z]{2}$`)
	timePattern     = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)
)

// Validator returns the shared validator with the custom tags registered
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		RegisterCustomValidations(validate)
	})
	return validate
}

// RegisterCustomValidations registers the domain tags on v
func RegisterCustomValidations(v *validator.Validate) {
	_ = v.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
		return IsHexColor(fl.Field().String())
	})
	_ = v.RegisterValidation("currency3", func(fl validator.FieldLevel) bool {
		return IsCurrency(fl.Field().String())
	})
	_ = v.RegisterValidation("country2", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsCountry(s)
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsClockTime(s)
	})
}

// IsHexColor reports whether s is a #RRGGBB color
func IsHexColor(s string) bool { return hexColorPattern.MatchString(s) }

// IsCurrency reports whether s is an upper-case 3-letter currency code
func IsCurrency(s string) bool { return currencyPattern.MatchString(s) }

// IsCountry reports whether s is an upper-case 2-letter country code
func IsCountry(s string) bool { return countryPattern.MatchString(s) }

// IsClockTime reports whether s is HH:MM or HH:MM:SS
func IsClockTime(s string) bool { return timePattern.MatchString(s) }

// Struct validates s and converts failures into field errors
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fieldPath(fe), message(fe))
	}
	return fields.Err()
}

func fieldPath(fe validator.FieldError) string {
	// Namespace is Struct.field.nested; drop the struct name
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "uuid", "uuid4":
		return "Must be a valid UUID."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "hexcolor6":
		return "Enter a valid hex color, e.g. #3B82F6."
	case "currency3":
		return "Enter a 3-letter currency code."
	case "country2":
		return "Enter a 2-letter country code."
	case "clock":
		return "Time has wrong format. Use HH:MM[:ss]."
	}
	return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
}

// FieldErrors collects messages per json field name
type FieldErrors map[string][]string

// Add appends a message for field
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Merge copies every message of other into f
func (f FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		f[field] = append(f[field], msgs...)
	}
}

// Err returns an *Error when any message was collected
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Fields: f}
}

// Error is a per-field validation failure
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field builds a single-field validation error
func Field(field, msg string) error {
	return &Error{Fields: FieldErrors{field: {msg}}}
}
