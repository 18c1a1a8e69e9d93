package validators

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrNameEmpty   = errors.New("first and last name are required")
	ErrNameTooLong = errors.New("names can't be longer than 100 characters")
)

func NameValidator(n string) error {
	n = strings.TrimSpace(n)

	if n == "" {
		return ErrNameEmpty
	}

	if utf8.RuneCountInString(n) > 100 {
		return ErrNameTooLong
	}

	return nil
}
