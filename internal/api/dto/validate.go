package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jobportal/profile-sync/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks go-playground/validator tags and reports failures as a validation
// DomainError keyed by JSON field name.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	fields := make(map[string]any, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = msgForTag(fe)
	}
	return apperrors.NewValidationError("invalid request", fields)
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must be numeric"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeStrict decodes a single JSON value into dst, rejecting unknown fields and
// trailing data, then validates it.
func DecodeStrict(body []byte, dst any) error {
	if err := decodeStrict(body, dst); err != nil {
		return err
	}
	return Validate(dst)
}

func decodeStrict(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return apperrors.NewValidationError("request body is required", nil)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("request body must contain a single JSON value", nil)
	}
	return nil
}

func decodeError(err error) error {
	const unknownPrefix = "json: unknown field "
	msg := err.Error()
	if strings.HasPrefix(msg, unknownPrefix) {
		field := strings.Trim(strings.TrimPrefix(msg, unknownPrefix), `"`)
		return apperrors.NewValidationError("unknown or immutable field", map[string]any{field: "is not allowed"})
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperrors.NewValidationError("invalid field type", map[string]any{typeErr.Field: "must be " + typeErr.Type.String()})
	}
	return apperrors.NewValidationError("malformed JSON body", nil)
}
