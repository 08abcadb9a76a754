package handlers

import (
	"strings"
	"unicode/utf8"

	"loreleaf/internal/models"
	"loreleaf/internal/slug"
)

// Validation limits for taxonomy and content fields.
const (
	maxTitleLen = 300
	maxSlugLen  = 300
	maxDescLen  = 1_000
	maxBodyLen  = 100_000
	maxTagLen   = 100
	maxTags     = 20
)

// validateSlug checks the shared slug rules: required, pattern
// ^[a-z0-9-]+$, bounded length.
func validateSlug(s string) string {
	if s == "" {
		return "Slug is required."
	}
	if utf8.RuneCountInString(s) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	if !slug.Valid(s) {
		return "Slug may only contain lowercase letters, digits, and hyphens."
	}
	return ""
}

// validateTitle checks the shared title rules.
func validateTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	return ""
}

// validateTopic checks topic inputs and returns the first error found.
func validateTopic(slugField, title, description string) string {
	if msg := validateSlug(slugField); msg != "" {
		return msg
	}
	if msg := validateTitle(title); msg != "" {
		return msg
	}
	if utf8.RuneCountInString(description) > maxDescLen {
		return "Description is too long (max 1,000 characters)."
	}
	return ""
}

// validateContent checks content inputs and returns the first error found.
func validateContent(contentType, slugField, title, body string, tags []string) string {
	if !models.KnownContentType(models.ContentType(contentType)) {
		return "Unknown content type."
	}
	if msg := validateSlug(slugField); msg != "" {
		return msg
	}
	if msg := validateTitle(title); msg != "" {
		return msg
	}
	if utf8.RuneCountInString(body) > maxBodyLen {
		return "Body is too long (max 100,000 characters)."
	}
	if len(tags) > maxTags {
		return "Too many tags (max 20)."
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return "Tags must not be empty."
		}
		if utf8.RuneCountInString(tag) > maxTagLen {
			return "Tag is too long (max 100 characters)."
		}
	}
	return ""
}
