// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Stats is the 1:1 shadow record of a content item's counters, keyed by the
// content slug. It lives in its own table so hot counter updates never
// contend with content edits. Rows are created lazily on first view or like.
type Stats struct {
	Slug      string    `json:"slug"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
