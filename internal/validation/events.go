// Package validation checks the shape of raw webhook payloads before they
// reach the dispatcher.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"
)

// MaxMessageRunes caps free text accepted from the transport.
const MaxMessageRunes = 4096

var (
	commandNameRegex = regexp.MustCompile(`^[a-z][a-z_]{1,31}$`)
	accountCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidateUserID rejects the zero identity.
func ValidateUserID(id int64) error {
	if id == 0 {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// ValidateCommandName accepts lowercase snake_case names.
func ValidateCommandName(name string) error {
	if !commandNameRegex.MatchString(name) {
		return fmt.Errorf("command %q must be 2-32 lowercase letters or underscores", name)
	}
	return nil
}

// ValidateAccountCode accepts exactly six digits.
func ValidateAccountCode(code string) error {
	if !accountCodeRegex.MatchString(code) {
		return fmt.Errorf("account code must be six digits")
	}
	return nil
}

// ValidateText checks encoding and length of user-typed text.
func ValidateText(field, text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%s is not valid UTF-8", field)
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageRunes {
		return fmt.Errorf("%s is too long (%d > %d characters)", field, n, MaxMessageRunes)
	}
	return nil
}

// ParseID parses a numeric argument such as a post or user id.
func ParseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return id, nil
}
