// Package domain derives the grouping domain of a URL, the value stored in the
// history table's domain column.
package domain

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const (
	// Local is reported for file URLs.
	Local = "(local)"
	// None is reported for URLs without a host.
	None = "(none)"
)

// ExtractTopLevelDomainName returns the registrable domain of rawURL, for
// example "example.co.uk" for "https://www.example.co.uk/page".
func ExtractTopLevelDomainName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return None
	}

	if u.Scheme == "file" {
		return Local
	}

	host := u.Hostname()
	if host == "" {
		return None
	}

	return WithoutSubdomain(host)
}

// WithoutSubdomain strips every label left of the registrable domain. IP
// addresses and hosts that are themselves a public suffix (such as
// "localhost") are returned unchanged.
func WithoutSubdomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return host
	}

	if net.ParseIP(host) != nil {
		return host
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}

	return registrable
}
