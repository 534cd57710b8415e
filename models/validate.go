package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var validate = validator.New()

// validateStruct flattens validator errors into one user-facing message.
func validateStruct(obj any) error {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fmt.Errorf("required fields missing or invalid: %s", strings.Join(fields, ", "))
}

// validatePhone accepts E.164 or a national number with DEFAULT_PHONE_REGION
// semantics; the mobile clients send whatever the OS contact picker returns.
func validatePhone(raw string, region string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if region == "" {
		region = "MM"
	}
	num, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return fmt.Errorf("invalid phone number %q: %w", raw, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return fmt.Errorf("invalid phone number %q", raw)
	}
	return nil
}
