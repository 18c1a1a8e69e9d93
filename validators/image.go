package validators

import (
	"errors"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrImageEmpty       = errors.New("no image provided")
	ErrImageUnsupported = errors.New("photo must be a jpeg, png or webp image")
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// ImageValidator sniffs b and returns the detected MIME type. The declared
// Content-Type of an upload is never trusted.
func ImageValidator(b []byte) (*mimetype.MIME, error) {
	if len(b) == 0 {
		return nil, ErrImageEmpty
	}

	mt := mimetype.Detect(b)
	for _, t := range allowedImageTypes {
		if mt.Is(t) {
			return mt, nil
		}
	}

	return nil, ErrImageUnsupported
}
