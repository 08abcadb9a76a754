// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"loreleaf/internal/models"
)

// SubtopicStore manages subtopics. A subtopic's slug is unique within its
// topic, not globally, and its article_count column is owned by the
// ContentStore's reconciliation routine.
type SubtopicStore struct {
	db *sql.DB
}

// NewSubtopicStore returns a new SubtopicStore.
func NewSubtopicStore(db *sql.DB) *SubtopicStore {
	return &SubtopicStore{db: db}
}

const subtopicColumns = `id, topic_slug, slug, title, description, sort_order, published, article_count, created_at, updated_at`

// scanSubtopic scans a row into a Subtopic struct.
func scanSubtopic(scanner interface{ Scan(...any) error }) (*models.Subtopic, error) {
	var st models.Subtopic
	err := scanner.Scan(
		&st.ID, &st.TopicSlug, &st.Slug, &st.Title, &st.Description,
		&st.SortOrder, &st.Published, &st.ArticleCount, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListByTopic returns the published subtopics of a topic ordered by
// sort_order ascending, creation time as tie-break.
func (s *SubtopicStore) ListByTopic(topicSlug string) ([]models.Subtopic, error) {
	return s.list(`SELECT `+subtopicColumns+` FROM subtopics WHERE topic_slug = $1 AND published ORDER BY sort_order, created_at`, topicSlug)
}

// ListAllByTopic returns every subtopic of a topic regardless of published
// state. Used by the admin API.
func (s *SubtopicStore) ListAllByTopic(topicSlug string) ([]models.Subtopic, error) {
	return s.list(`SELECT `+subtopicColumns+` FROM subtopics WHERE topic_slug = $1 ORDER BY sort_order, created_at`, topicSlug)
}

func (s *SubtopicStore) list(query string, args ...any) ([]models.Subtopic, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subtopics: %w", err)
	}
	defer rows.Close()

	var items []models.Subtopic
	for rows.Next() {
		st, err := scanSubtopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subtopic: %w", err)
		}
		items = append(items, *st)
	}
	return items, rows.Err()
}

// FindBySlug retrieves a subtopic by its topic-scoped slug. Returns nil if
// not found.
func (s *SubtopicStore) FindBySlug(topicSlug, slug string) (*models.Subtopic, error) {
	row := s.db.QueryRow(`SELECT `+subtopicColumns+` FROM subtopics WHERE topic_slug = $1 AND slug = $2`, topicSlug, slug)
	st, err := scanSubtopic(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subtopic by slug: %w", err)
	}
	return st, nil
}

// Create inserts a new subtopic and returns it. A slug already used inside
// the same topic yields ErrConflict; the same slug under a different topic
// is fine.
func (s *SubtopicStore) Create(st *models.Subtopic) (*models.Subtopic, error) {
	row := s.db.QueryRow(`
		INSERT INTO subtopics (topic_slug, slug, title, description, sort_order, published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+subtopicColumns,
		st.TopicSlug, st.Slug, st.Title, st.Description, st.SortOrder, st.Published,
	)
	result, err := scanSubtopic(row)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("create subtopic: %w", err)
	}
	return result, nil
}

// Update modifies an existing subtopic's editable fields. Returns
// ErrNotFound for an unknown slug.
func (s *SubtopicStore) Update(st *models.Subtopic) error {
	res, err := s.db.Exec(`
		UPDATE subtopics SET
			title = $1, description = $2, sort_order = $3, published = $4,
			updated_at = NOW()
		WHERE topic_slug = $5 AND slug = $6
	`, st.Title, st.Description, st.SortOrder, st.Published, st.TopicSlug, st.Slug)
	if err != nil {
		return fmt.Errorf("update subtopic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a subtopic. Articles assigned to it keep their
// subtopic_slug reference and are excluded from subtopic listings at read
// time — no cascade.
func (s *SubtopicStore) Delete(topicSlug, slug string) error {
	res, err := s.db.Exec(`DELETE FROM subtopics WHERE topic_slug = $1 AND slug = $2`, topicSlug, slug)
	if err != nil {
		return fmt.Errorf("delete subtopic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TogglePublished flips the published flag and returns the updated subtopic.
func (s *SubtopicStore) TogglePublished(topicSlug, slug string) (*models.Subtopic, error) {
	row := s.db.QueryRow(`
		UPDATE subtopics SET published = NOT published, updated_at = NOW()
		WHERE topic_slug = $1 AND slug = $2
		RETURNING `+subtopicColumns, topicSlug, slug)
	st, err := scanSubtopic(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle subtopic published: %w", err)
	}
	return st, nil
}
