package validators

import "errors"

var (
	ErrPasswordEmpty    = errors.New("no password provided")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password can't be longer than 255 characters")
)

func PasswordValidator(p string) error {
	switch {
	case p == "":
		return ErrPasswordEmpty
	case len(p) < 8:
		return ErrPasswordTooShort
	case len(p) > 255:
		return ErrPasswordTooLong
	}

	return nil
}
