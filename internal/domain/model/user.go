package model

import (
	"fmt"
	"regexp"
)

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.@-]{0,127}$`)

// ValidateUserID rejects ids that cannot safely key a per-user collection
// (file paths, redis keys, table rows).
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidUser, id)
	}
	return nil
}
