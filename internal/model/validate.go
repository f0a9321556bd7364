package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-openapi/strfmt"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidDocument is returned (wrapped) when a Document fails validation.
var ErrInvalidDocument = errors.New("invalid document")

var (
	validateOnce sync.Once
	validate     *validator.Validate
	validateErr  error
)

func documentValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		v := validator.New()
		if err := v.RegisterValidation("inn", innValidation); err != nil {
			validateErr = fmt.Errorf("failed to register inn validator: %w", err)
			return
		}
		if err := v.RegisterValidation("isodate", isoDateValidation); err != nil {
			validateErr = fmt.Errorf("failed to register isodate validator: %w", err)
			return
		}
		validate = v
	})
	return validate, validateErr
}

// innValidation accepts taxpayer numbers of 10 (organisations) or 12 (individuals) digits.
func innValidation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 10 && len(s) != 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isoDateValidation(fl validator.FieldLevel) bool {
	return strfmt.IsDate(fl.Field().String())
}

// Validate checks required fields and formats.
func (d *Document) Validate() error {
	v, err := documentValidator()
	if err != nil {
		return err
	}

	if err := v.Struct(d); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Namespace(), fieldErr.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(messages, "; "))
		}
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}
