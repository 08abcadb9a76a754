// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
// The same algorithm is used for content slugs and for heading anchor ids,
// so anchors generated at render time match ids derived from heading text.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumericRun matches any run of characters that is not a
	// lowercase letter or digit. Each run collapses to a single hyphen.
	nonAlphanumericRun = regexp.MustCompile(`[^a-z0-9]+`)

	// validSlug matches a well-formed slug as accepted by the admin API.
	validSlug = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumericRun.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Valid reports whether s is a well-formed slug: non-empty, lowercase
// letters, digits, and hyphens only.
func Valid(s string) bool {
	return validSlug.MatchString(s)
}
