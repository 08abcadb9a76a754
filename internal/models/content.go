// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentType discriminates the variants stored in the unified content table.
type ContentType string

const (
	ContentTypeArticle ContentType = "article"
	ContentTypeNote    ContentType = "note"
	ContentTypeSeries  ContentType = "series"
	ContentTypeLog     ContentType = "log"
	ContentTypePage    ContentType = "page"
)

// KnownContentType reports whether t is one of the recognized discriminators.
func KnownContentType(t ContentType) bool {
	switch t {
	case ContentTypeArticle, ContentTypeNote, ContentTypeSeries, ContentTypeLog, ContentTypePage:
		return true
	}
	return false
}

// Content is a single content item. Body is the authoritative markdown
// source; HTML and ReadingTime are derived caches regenerated whenever Body
// changes, never hand-edited. TopicSlug/SubtopicSlug only apply to articles
// and are soft references — an article pointing at a missing topic drops out
// of taxonomy views without erroring.
type Content struct {
	ID           uuid.UUID   `json:"id"`
	Type         ContentType `json:"type"`
	Slug         string      `json:"slug"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Body         string      `json:"body"`
	HTML         string      `json:"html"`
	Tags         []string    `json:"tags"`
	// CoverImage is an opaque URL managed by the media collaborator.
	CoverImage   *string    `json:"cover_image,omitempty"`
	TopicSlug    *string    `json:"topic_slug,omitempty"`
	SubtopicSlug *string    `json:"subtopic_slug,omitempty"`
	SortOrder    int        `json:"sort_order"`
	Published    bool       `json:"published"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	ReadingTime  int        `json:"reading_time"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsArticle returns true for content that participates in the
// topic/subtopic taxonomy.
func (c *Content) IsArticle() bool {
	return c.Type == ContentTypeArticle
}
