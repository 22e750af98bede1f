package captcha

import "errors"

var (
	// ErrConfig reports invalid or unrecognized generation options.
	ErrConfig = errors.New("captcha: invalid configuration")
	// ErrAsset reports that neither the configured nor the bundled font could be loaded.
	ErrAsset = errors.New("captcha: no usable font")
	// ErrRender reports a failure to produce the image itself.
	ErrRender = errors.New("captcha: render failed")

	// ErrMissing means no challenge is outstanding for the session,
	// either because none was issued or because it was already consumed.
	ErrMissing = errors.New("captcha: no outstanding challenge")
	// ErrIncorrect means the submitted answer did not match.
	ErrIncorrect = errors.New("captcha: incorrect answer")
)

// IsValidationError reports whether err is one of the user-facing
// validation failures (as opposed to a service failure).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissing) || errors.Is(err, ErrIncorrect)
}

// MessageKey maps a validation failure to its translation key.
func MessageKey(err error) string {
	if errors.Is(err, ErrMissing) {
		return "validation.missing"
	}
	return "validation.incorrect"
}
