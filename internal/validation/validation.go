package validation

import (
	"regexp"
	"unicode"

	"github.com/ovchar/tradejournal/internal/models"
)

const maxEmailLength = 254

var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`,
)

func IsEmailValid(email string) bool {
	if len(email) > maxEmailLength {
		return false
	}
	return emailPattern.MatchString(email)
}

// IsPasswordStrong requires length >= 8 plus one lowercase, one uppercase, one
// digit and one symbol. Each condition stands on its own.
func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

// Availability is a case-sensitive exact match over the user set as read at
// call time. A race between concurrent registrations is possible here; the
// unique constraints in storage are what actually guarantee uniqueness.
func IsUsernameAvailable(username string, existing []models.User) bool {
	for _, u := range existing {
		if u.Username == username {
			return false
		}
	}
	return true
}

func IsEmailAvailable(email string, existing []models.User) bool {
	for _, u := range existing {
		if u.Email == email {
			return false
		}
	}
	return true
}
