package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FieldError is one rejected field in the details of a validation error.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// FormatFieldName turns start_date into "Start Date".
func FormatFieldName(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// MapValidationError turns a gin binding failure into INVALID_INPUT. The
// message names the first failing field; details list all of them.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		details := make([]FieldError, 0, len(errs))
		for _, fe := range errs {
			details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		return fieldMessage(errs[0]).WithDetails(details)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return InvalidField(FormatFieldName(typeErr.Field))
	case errors.As(err, &syntaxErr):
		return New(CodeInvalidInput, "Request body is not valid JSON", http.StatusBadRequest)
	}
	return ErrInvalidInput
}

func fieldMessage(fe validator.FieldError) *AppError {
	field := FormatFieldName(fe.Field())
	switch fe.Tag() {
	case "required":
		return RequiredField(field)
	case "max":
		return New(CodeInvalidInput, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()), http.StatusBadRequest)
	case "min":
		return New(CodeInvalidInput, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()), http.StatusBadRequest)
	case "oneof":
		return New(CodeInvalidInput, fmt.Sprintf("%s must be one of: %s", field, fe.Param()), http.StatusBadRequest)
	default:
		return InvalidField(field)
	}
}
