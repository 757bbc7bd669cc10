package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/edvin/mailcycle/internal/model"
)

var validate = validator.New()

func init() {
	validate.RegisterValidation("account_status", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case model.StatusActive, model.StatusLocked, model.StatusClosed:
			return true
		}
		return false
	})
	validate.RegisterValidation("bulk_op", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case model.BulkOpLock, model.BulkOpClose, model.BulkOpReactivate:
			return true
		}
		return false
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// DecodeOptional is Decode for endpoints whose body may be empty; an
// empty body leaves v at its zero value.
func DecodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
