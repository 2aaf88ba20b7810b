// Package validation checks registration submissions and reports
// field-level errors keyed by their JSON path.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"sciencefair-registration/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var requiredMessages = map[string]string{
	"studentName":         "Student name is required",
	"teacher":             "Teacher is required",
	"parentGuardianName":  "Parent/Guardian name is required",
	"parentGuardianEmail": "Parent/Guardian email is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// only fails for a malformed tag name
	if err := v.RegisterValidation("email_format", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("consent", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate returns the field errors for req, or nil when it is acceptable.
func Validate(req *models.RegistrationRequest) []models.FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		out = append(out, models.FieldError{Field: path, Message: message(fe, path)})
	}
	return out
}

// DecodeErrors translates a JSON decoding failure into field errors.
// An empty body is not reported here; callers validate the zero request instead.
func DecodeErrors(err error) []models.FieldError {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return []models.FieldError{{
			Field:   field,
			Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type.Kind(), typeErr.Value),
		}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []models.FieldError{{Field: "body", Message: "Malformed JSON body"}}
	default:
		return []models.FieldError{{Field: "body", Message: "Invalid request body"}}
	}
}

// fieldPath turns "RegistrationRequest.additionalStudents[1].teacher"
// into "additionalStudents.1.teacher".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func message(fe validator.FieldError, path string) string {
	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[fe.Field()]; ok {
			return msg
		}
		return fmt.Sprintf("%s is required", path)
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Maximum %s additional students allowed", fe.Param())
		}
		return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	case "email_format":
		return "Invalid email format"
	case "consent":
		return "Consent must be given to register"
	}
	return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
}
