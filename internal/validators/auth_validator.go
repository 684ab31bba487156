package validators

import (
	"socketWhiteboard/internal/errs"
	"socketWhiteboard/internal/models"
	"strings"
)

const minPasswordLength = 6

func ValidateCredentials(body *models.CredentialsRequestBody) []error {
	var errors []error
	if body == nil {
		errors = append(errors, errs.ErrInvalidUser)
		return errors
	}

	if strings.TrimSpace(body.Username) == "" {
		errors = append(errors, errs.ErrUsernameRequired)
	}

	if !ValidatePassword(body.Password) {
		errors = append(errors, errs.ErrPasswordTooShort)
	}
	return errors
}

func ValidatePassword(password string) bool {
	return len(password) >= minPasswordLength
}
