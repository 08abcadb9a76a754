// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"loreleaf/internal/models"
)

// TopicStore manages topics in the database. The denormalized
// article_count and last_updated columns are owned by the ContentStore's
// reconciliation routine — nothing here writes them except the initial
// zero on create.
type TopicStore struct {
	db *sql.DB
}

// NewTopicStore returns a new TopicStore.
func NewTopicStore(db *sql.DB) *TopicStore {
	return &TopicStore{db: db}
}

const topicColumns = `slug, title, description, icon, sort_order, published, featured, article_count, last_updated, created_at, updated_at`

// scanTopic scans a row into a Topic struct.
func scanTopic(scanner interface{ Scan(...any) error }) (*models.Topic, error) {
	var t models.Topic
	err := scanner.Scan(
		&t.Slug, &t.Title, &t.Description, &t.Icon, &t.SortOrder,
		&t.Published, &t.Featured, &t.ArticleCount, &t.LastUpdated,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all published topics ordered by sort_order ascending, with
// creation time as the tie-break so repeated reads are stable.
func (s *TopicStore) List() ([]models.Topic, error) {
	return s.list(`SELECT ` + topicColumns + ` FROM topics WHERE published ORDER BY sort_order, created_at`)
}

// ListAll returns every topic regardless of published state. Used by the
// admin API.
func (s *TopicStore) ListAll() ([]models.Topic, error) {
	return s.list(`SELECT ` + topicColumns + ` FROM topics ORDER BY sort_order, created_at`)
}

func (s *TopicStore) list(query string) ([]models.Topic, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var items []models.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a topic by its slug. Returns nil if not found.
func (s *TopicStore) FindBySlug(slug string) (*models.Topic, error) {
	row := s.db.QueryRow(`SELECT `+topicColumns+` FROM topics WHERE slug = $1`, slug)
	t, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find topic by slug: %w", err)
	}
	return t, nil
}

// Create inserts a new topic and returns it. A slug already in use yields
// ErrConflict — topic slugs are globally unique.
func (s *TopicStore) Create(t *models.Topic) (*models.Topic, error) {
	row := s.db.QueryRow(`
		INSERT INTO topics (slug, title, description, icon, sort_order, published, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+topicColumns,
		t.Slug, t.Title, t.Description, t.Icon, t.SortOrder, t.Published, t.Featured,
	)
	result, err := scanTopic(row)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}
	return result, nil
}

// Update modifies an existing topic's editable fields. The denormalized
// counters are untouched. Returns ErrNotFound for an unknown slug.
func (s *TopicStore) Update(t *models.Topic) error {
	res, err := s.db.Exec(`
		UPDATE topics SET
			title = $1, description = $2, icon = $3, sort_order = $4,
			published = $5, featured = $6, updated_at = NOW()
		WHERE slug = $7
	`, t.Title, t.Description, t.Icon, t.SortOrder, t.Published, t.Featured, t.Slug)
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a topic by slug. Subtopics and articles under it are NOT
// cascade-deleted: they stay addressable by slug but vanish from
// hierarchical listings, since those resolve the topic reference at read
// time.
func (s *TopicStore) Delete(slug string) error {
	res, err := s.db.Exec(`DELETE FROM topics WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublished flips the published flag and returns the updated topic.
// Topic visibility does not affect article counts — those count published
// articles, not published topics.
func (s *TopicStore) TogglePublished(slug string) (*models.Topic, error) {
	row := s.db.QueryRow(`
		UPDATE topics SET published = NOT published, updated_at = NOW()
		WHERE slug = $1
		RETURNING `+topicColumns, slug)
	t, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle topic published: %w", err)
	}
	return t, nil
}
