// Package siteurl validates and normalizes user-submitted website addresses.
//
// Validation is structural only: an optional scheme, dot-delimited labels,
// and a final label of at least two letters. No DNS resolution happens here;
// an address that looks like a hostname is enough to start the wizard.
package siteurl

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalid reports a website address that fails the structural check.
var ErrInvalid = errors.New("invalid website address")

var hostPattern = regexp.MustCompile(`^(https?://)?([A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?\.)+[A-Za-z]{2,}(:\d+)?(/\S*)?$`)

var titleCaser = cases.Title(language.English)

// Valid reports whether the address passes the structural check.
func Valid(raw string) bool {
	return hostPattern.MatchString(strings.TrimSpace(raw))
}

// Normalize validates the address and returns it with a scheme attached.
// Addresses without a scheme default to https.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if !hostPattern.MatchString(trimmed) {
		return "", ErrInvalid
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, nil
	}
	return "https://" + trimmed, nil
}

// Host returns the bare hostname of a normalized or raw address.
func Host(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	if idx := strings.IndexAny(trimmed, "/:"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// BusinessName derives a presentable business name from the address's
// leading domain label, e.g. "acme.com" yields "Acme". A www prefix is
// skipped. Used when the backend cannot analyze the site.
func BusinessName(raw string) string {
	host := Host(raw)
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	label := labels[0]
	if strings.EqualFold(label, "www") && len(labels) > 1 {
		label = labels[1]
	}
	label = strings.ReplaceAll(label, "-", " ")
	return titleCaser.String(label)
}
