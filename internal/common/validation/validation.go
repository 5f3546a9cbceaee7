// internal/common/validation/validation.go
package validation

import (
	"fmt"
	"regexp"
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern      = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
	urlPattern        = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#].[^\s]*$`)
	activityIDPattern = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)
)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePhone validates basic phone number format
func ValidatePhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidateURL validates URL format
func ValidateURL(url string) bool {
	return urlPattern.MatchString(url)
}

// ValidateActivityNaming validates activity ID follows the registry naming convention
func ValidateActivityNaming(activityID string) error {
	if !activityIDPattern.MatchString(activityID) {
		return fmt.Errorf("activity ID must be kebab-case (e.g. validate-subscription)")
	}
	return nil
}
