package validator

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateCallbackURL checks that a client-supplied callback URL is an
// absolute http(s) URL with a host. Deeper reachability checks are left to
// the first delivery attempt.
func ValidateCallbackURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("callback URL is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid callback URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("callback URL must use http or https")
	}

	if u.Host == "" {
		return errors.New("callback URL must include a host")
	}

	return nil
}
