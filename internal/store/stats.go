// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"loreleaf/internal/models"
)

// StatsStore manages the per-slug view and like counters. Both counters
// are mutated with single atomic upsert statements so concurrent requests
// never lose increments, and a counter row materializes lazily on the
// first event for a slug.
type StatsStore struct {
	db *sql.DB
}

// NewStatsStore returns a new StatsStore.
func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// Find retrieves the counters for a slug. A slug with no recorded events
// yet returns zero counters, not nil — absence of a row means zero.
func (s *StatsStore) Find(slug string) (*models.Stats, error) {
	row := s.db.QueryRow(`
		SELECT slug, views, likes, created_at, updated_at
		FROM stats WHERE slug = $1
	`, slug)
	var st models.Stats
	err := row.Scan(&st.Slug, &st.Views, &st.Likes, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.Stats{Slug: slug}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find stats: %w", err)
	}
	return &st, nil
}

// IncrementView bumps the view counter by one and returns the new total.
// The upsert is a single statement, so N concurrent calls always land at
// exactly N regardless of interleaving.
func (s *StatsStore) IncrementView(slug string) (int64, error) {
	var views int64
	err := s.db.QueryRow(`
		INSERT INTO stats (slug, views) VALUES ($1, 1)
		ON CONFLICT (slug) DO UPDATE
		SET views = stats.views + 1, updated_at = NOW()
		RETURNING views
	`, slug).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("increment view: %w", err)
	}
	return views, nil
}

// ToggleLike adjusts the like counter by delta (+1 like, -1 unlike) and
// returns the new total. The counter is clamped at zero in SQL, so an
// unlike against a zero counter is a harmless no-op. Deduplication of
// likes per visitor is the caller's concern.
func (s *StatsStore) ToggleLike(slug string, delta int64) (int64, error) {
	var likes int64
	err := s.db.QueryRow(`
		INSERT INTO stats (slug, likes) VALUES ($1, GREATEST($2, 0))
		ON CONFLICT (slug) DO UPDATE
		SET likes = GREATEST(stats.likes + $2, 0), updated_at = NOW()
		RETURNING likes
	`, slug, delta).Scan(&likes)
	if err != nil {
		return 0, fmt.Errorf("toggle like: %w", err)
	}
	return likes, nil
}

// Delete removes the counter row for a slug. Missing rows are fine —
// deleting stats for content that never got a view is a no-op.
func (s *StatsStore) Delete(slug string) error {
	if _, err := s.db.Exec(`DELETE FROM stats WHERE slug = $1`, slug); err != nil {
		return fmt.Errorf("delete stats: %w", err)
	}
	return nil
}
