// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Subtopic groups articles inside a Topic. The TopicSlug reference is soft:
// the store never enforces it, so a subtopic whose topic was deleted simply
// disappears from hierarchical listings while staying addressable by slug.
// Slugs are unique per topic, not globally.
type Subtopic struct {
	ID           uuid.UUID `json:"id"`
	TopicSlug    string    `json:"topic_slug"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	SortOrder    int       `json:"sort_order"`
	Published    bool      `json:"published"`
	ArticleCount int       `json:"article_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
