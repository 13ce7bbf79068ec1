package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailPattern is the permissive address check the dashboard always used; the
// built-in email rule is stricter and would reject addresses the store
// already contains.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// New builds the validator instance shared across services.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("emailish", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		if value == "" {
			return true
		}
		return emailPattern.MatchString(value)
	})

	return v
}
