// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Topic is a top-level content category (e.g. "Data Structures & Algorithms").
// ArticleCount and LastUpdated are denormalized: they are maintained by the
// store's reconciliation routine on every mutation that can change topic
// membership, never edited directly through the admin API.
type Topic struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// Icon is an opaque key resolved to a visual by the presentation
	// layer. The core never interprets it.
	Icon         string     `json:"icon"`
	SortOrder    int        `json:"sort_order"`
	Published    bool       `json:"published"`
	Featured     bool       `json:"featured"`
	ArticleCount int        `json:"article_count"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
