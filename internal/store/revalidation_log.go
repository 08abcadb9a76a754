// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// revalidation_log.go records revalidation dispatches in the database for
// audit and debugging purposes. Each entry captures which content type and
// slug triggered the dispatch and the paths that were refreshed.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// RevalidationLogStore handles revalidation audit log operations.
type RevalidationLogStore struct {
	db *sql.DB
}

// NewRevalidationLogStore creates a new RevalidationLogStore.
func NewRevalidationLogStore(db *sql.DB) *RevalidationLogStore {
	return &RevalidationLogStore{db: db}
}

// Log records a revalidation dispatch. Returns an error rather than
// swallowing it — the caller decides whether logging is best-effort.
func (s *RevalidationLogStore) Log(contentType, slug string, paths []string) error {
	_, err := s.db.Exec(`
		INSERT INTO revalidation_log (content_type, slug, paths)
		VALUES ($1, $2, $3)
	`, contentType, slug, strings.Join(paths, " "))
	if err != nil {
		return fmt.Errorf("log revalidation: %w", err)
	}
	return nil
}

// RecentEntries returns the most recent revalidation dispatches for
// debugging. Limited to the specified count.
func (s *RevalidationLogStore) RecentEntries(limit int) ([]RevalidationLogEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, content_type, slug, paths, created_at
		FROM revalidation_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query revalidation log: %w", err)
	}
	defer rows.Close()

	var entries []RevalidationLogEntry
	for rows.Next() {
		var e RevalidationLogEntry
		var paths string
		if err := rows.Scan(&e.ID, &e.ContentType, &e.Slug, &paths, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revalidation log: %w", err)
		}
		e.Paths = strings.Fields(paths)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RevalidationLogEntry represents a single revalidation dispatch.
type RevalidationLogEntry struct {
	ID          int64     `json:"id"`
	ContentType string    `json:"content_type"`
	Slug        string    `json:"slug"`
	Paths       []string  `json:"paths"`
	CreatedAt   time.Time `json:"created_at"`
}
