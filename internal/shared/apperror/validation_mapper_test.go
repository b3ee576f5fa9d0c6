package apperror_test

import (
	"encoding/json"
	"errors"
	"testing"

	"go-leave-assistant/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatInput struct {
	Message string `json:"message" validate:"required,max=5"`
	Role    string `json:"role" validate:"omitempty,oneof=user assistant"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(apperror.JSONTagName)
	return v
}

func TestMapValidationError(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name    string
		input   chatInput
		message string
		fields  []apperror.FieldError
	}{
		{
			name:    "required",
			input:   chatInput{},
			message: "Message is required",
			fields:  []apperror.FieldError{{Field: "message", Rule: "required"}},
		},
		{
			name:    "too long",
			input:   chatInput{Message: "far too long"},
			message: "Message must be at most 5 characters",
			fields:  []apperror.FieldError{{Field: "message", Rule: "max"}},
		},
		{
			name:    "all fields are listed",
			input:   chatInput{Role: "bot"},
			message: "Message is required",
			fields:  []apperror.FieldError{{Field: "message", Rule: "required"}, {Field: "role", Rule: "oneof"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apperror.MapValidationError(v.Struct(tt.input))

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, tt.fields, appErr.Details)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		var in chatInput
		err := apperror.MapValidationError(json.Unmarshal([]byte(`{"message":`), &in))
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidInput))
	})

	t.Run("wrong json type names the field", func(t *testing.T) {
		var in struct {
			StartDate string `json:"start_date"`
		}
		err := apperror.MapValidationError(json.Unmarshal([]byte(`{"start_date":5}`), &in))
		assert.EqualError(t, err, "Start Date is invalid")
	})

	t.Run("anything else", func(t *testing.T) {
		assert.ErrorIs(t, apperror.MapValidationError(errors.New("eof")), apperror.ErrInvalidInput)
	})
}
