// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"net/url"
	"strings"
)

// URL validates that raw is an absolute URL.
func URL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("url %q has no scheme", raw)
	}
	return nil
}

// DownloadID validates a download identifier: non-empty, no whitespace.
func DownloadID(id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return fmt.Errorf("id %q contains whitespace", id)
	}
	return nil
}

// Visits validates an imported visit count.
func Visits(n int) error {
	if n < 0 {
		return fmt.Errorf("visits cannot be negative")
	}
	return nil
}
