package services

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	apperrors "github.com/codershubham350/discover-places-backend/pkg/errors"
)

const invalidInputMessage = "Invalid input passed, please check your data."

var validate = validator.New()

// validateInput checks v against its validate tags. Field details are logged,
// clients only see the generic message.
func validateInput(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				log.Debug().Str("field", fe.Field()).Str("rule", fe.Tag()).Msg("input validation failed")
			}
		}
		return apperrors.NewValidationError(invalidInputMessage)
	}
	return nil
}
