// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"loreleaf/internal/markdown"
	"loreleaf/internal/models"
)

// ContentStore handles all content-related database operations. Articles,
// notes, series, logs, and pages share the unified content table,
// discriminated by the type column.
//
// Two invariants are enforced here rather than in handlers so every caller
// gets them:
//   - html and reading_time are derived from body on every write that
//     touches body; they are caches, never authoritative.
//   - the denormalized article_count / last_updated columns on topics and
//     subtopics are recomputed after every mutation that can change topic
//     membership, scoped to the affected parents only. A reconciliation
//     failure is logged and never rolls back the primary write.
type ContentStore struct {
	db *sql.DB
}

// NewContentStore creates a new ContentStore with the given database connection.
func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

const contentColumns = `id, type, slug, title, description, body, html, tags,
	       cover_image, topic_slug, subtopic_slug, sort_order,
	       published, published_at, reading_time, created_at, updated_at`

// scanContent scans a row into a Content struct, decoding the tags JSON.
func scanContent(scanner interface{ Scan(...any) error }) (*models.Content, error) {
	var c models.Content
	var tags []byte
	err := scanner.Scan(
		&c.ID, &c.Type, &c.Slug, &c.Title, &c.Description, &c.Body, &c.HTML, &tags,
		&c.CoverImage, &c.TopicSlug, &c.SubtopicSlug, &c.SortOrder,
		&c.Published, &c.PublishedAt, &c.ReadingTime, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &c.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &c, nil
}

// encodeTags serializes the tag set for the jsonb column. A nil slice
// stores as an empty array so reads never yield null.
func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

// FindBySlug retrieves a published content item by its slug. Used for
// public rendering. Returns nil if not found or unpublished.
func (s *ContentStore) FindBySlug(slug string) (*models.Content, error) {
	row := s.db.QueryRow(`SELECT `+contentColumns+` FROM content WHERE slug = $1 AND published`, slug)
	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content by slug: %w", err)
	}
	return c, nil
}

// FindAnyBySlug retrieves a content item regardless of published state.
// Used by the admin API. Returns nil if not found.
func (s *ContentStore) FindAnyBySlug(slug string) (*models.Content, error) {
	row := s.db.QueryRow(`SELECT `+contentColumns+` FROM content WHERE slug = $1`, slug)
	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content by slug: %w", err)
	}
	return c, nil
}

// ListPublishedByType returns all published content of the given type,
// newest first. Used for public listing pages.
func (s *ContentStore) ListPublishedByType(contentType models.ContentType) ([]models.Content, error) {
	return s.list(`
		SELECT `+contentColumns+` FROM content
		WHERE type = $1 AND published
		ORDER BY published_at DESC NULLS LAST, created_at DESC
	`, contentType)
}

// ListByType returns all content of the given type regardless of published
// state, newest first. Used by the admin API.
func (s *ContentStore) ListByType(contentType models.ContentType) ([]models.Content, error) {
	return s.list(`
		SELECT `+contentColumns+` FROM content
		WHERE type = $1
		ORDER BY created_at DESC
	`, contentType)
}

// ListArticlesByTopic returns the published articles directly under a
// topic, ordered by sort_order ascending with creation time as the
// documented tie-break, so repeated reads are stable.
func (s *ContentStore) ListArticlesByTopic(topicSlug string) ([]models.Content, error) {
	return s.list(`
		SELECT `+contentColumns+` FROM content
		WHERE type = 'article' AND topic_slug = $1 AND published
		ORDER BY sort_order, created_at
	`, topicSlug)
}

// ListArticlesBySubtopic returns the published articles of one subtopic,
// same ordering as ListArticlesByTopic.
func (s *ContentStore) ListArticlesBySubtopic(topicSlug, subtopicSlug string) ([]models.Content, error) {
	return s.list(`
		SELECT `+contentColumns+` FROM content
		WHERE type = 'article' AND topic_slug = $1 AND subtopic_slug = $2 AND published
		ORDER BY sort_order, created_at
	`, topicSlug, subtopicSlug)
}

func (s *ContentStore) list(query string, args ...any) ([]models.Content, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var items []models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Create inserts a new content item and returns it with the generated ID.
// The html and reading_time caches are rendered from body here, and the
// affected parents' counters are reconciled afterwards. A duplicate slug
// yields ErrConflict — content slugs are globally unique.
func (s *ContentStore) Create(c *models.Content) (*models.Content, error) {
	rendered := markdown.Render(c.Body)
	c.HTML = rendered.HTML
	c.ReadingTime = rendered.ReadingTimeMinutes

	// If publishing, set the published_at timestamp.
	if c.Published && c.PublishedAt == nil {
		now := time.Now()
		c.PublishedAt = &now
	}

	tags, err := encodeTags(c.Tags)
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO content (type, slug, title, description, body, html, tags,
		                     cover_image, topic_slug, subtopic_slug, sort_order,
		                     published, published_at, reading_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+contentColumns,
		c.Type, c.Slug, c.Title, c.Description, c.Body, c.HTML, tags,
		c.CoverImage, c.TopicSlug, c.SubtopicSlug, c.SortOrder,
		c.Published, c.PublishedAt, c.ReadingTime,
	)
	result, err := scanContent(row)
	if isUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	s.reconcileParents(result, nil)
	return result, nil
}

// Update modifies an existing content item, identified by its slug (slugs
// are immutable once created). Body changes re-render the html and
// reading_time caches; taxonomy changes reconcile both the old and the new
// parents. Returns ErrNotFound for an unknown slug.
func (s *ContentStore) Update(c *models.Content) (*models.Content, error) {
	old, err := s.FindAnyBySlug(c.Slug)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, ErrNotFound
	}

	rendered := markdown.Render(c.Body)
	c.HTML = rendered.HTML
	c.ReadingTime = rendered.ReadingTimeMinutes

	// If transitioning to published and no published_at set, set it now.
	c.PublishedAt = old.PublishedAt
	if c.Published && c.PublishedAt == nil {
		now := time.Now()
		c.PublishedAt = &now
	}

	tags, err := encodeTags(c.Tags)
	if err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}

	row := s.db.QueryRow(`
		UPDATE content SET
			title = $1, description = $2, body = $3, html = $4, tags = $5,
			cover_image = $6, topic_slug = $7, subtopic_slug = $8,
			sort_order = $9, published = $10, published_at = $11,
			reading_time = $12, updated_at = NOW()
		WHERE slug = $13
		RETURNING `+contentColumns,
		c.Title, c.Description, c.Body, c.HTML, tags,
		c.CoverImage, c.TopicSlug, c.SubtopicSlug,
		c.SortOrder, c.Published, c.PublishedAt,
		c.ReadingTime, c.Slug,
	)
	result, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update content: %w", err)
	}

	s.reconcileParents(result, old)
	return result, nil
}

// Delete removes a content item by slug, drops its stats shadow record,
// and reconciles the parents it was counted under. Returns ErrNotFound for
// an unknown slug.
func (s *ContentStore) Delete(slug string) error {
	old, err := s.FindAnyBySlug(slug)
	if err != nil {
		return err
	}
	if old == nil {
		return ErrNotFound
	}

	if _, err := s.db.Exec(`DELETE FROM content WHERE slug = $1`, slug); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}

	// The stats record shadows the content 1:1 — remove it with its owner.
	if _, err := s.db.Exec(`DELETE FROM stats WHERE slug = $1`, slug); err != nil {
		slog.Error("delete stats record failed", "slug", slug, "error", err)
	}

	s.reconcileParents(old, nil)
	return nil
}

// TogglePublished flips the published flag, stamping published_at on the
// first publish, and reconciles the parents since counts only include
// published articles. Returns the updated item or ErrNotFound.
func (s *ContentStore) TogglePublished(slug string) (*models.Content, error) {
	row := s.db.QueryRow(`
		UPDATE content SET
			published = NOT published,
			published_at = CASE WHEN NOT published AND published_at IS NULL THEN NOW() ELSE published_at END,
			updated_at = NOW()
		WHERE slug = $1
		RETURNING `+contentColumns, slug)
	c, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggle content published: %w", err)
	}

	s.reconcileParents(c, nil)
	return c, nil
}

// reconcileParents recomputes the denormalized counters of every parent
// whose membership could have changed: the article's current topic and
// subtopic, plus — on a move — the previous ones. Failures are logged and
// deliberately not propagated: the primary write has committed, and a
// stale counter is corrected by the next reconciliation or a ResyncCounters
// run.
func (s *ContentStore) reconcileParents(c, old *models.Content) {
	if c == nil || !c.IsArticle() {
		return
	}
	now := time.Now()

	topics := map[string]bool{}
	type pair struct{ topic, subtopic string }
	subtopics := map[pair]bool{}

	collect := func(item *models.Content) {
		if item == nil || item.TopicSlug == nil {
			return
		}
		topics[*item.TopicSlug] = true
		if item.SubtopicSlug != nil {
			subtopics[pair{*item.TopicSlug, *item.SubtopicSlug}] = true
		}
	}
	collect(c)
	collect(old)

	for topic := range topics {
		if err := s.ReconcileTopic(topic, now); err != nil {
			slog.Error("topic counter reconciliation failed — counter stale until next sync",
				"topic", topic, "error", err)
		}
	}
	for st := range subtopics {
		if err := s.ReconcileSubtopic(st.topic, st.subtopic, now); err != nil {
			slog.Error("subtopic counter reconciliation failed — counter stale until next sync",
				"topic", st.topic, "subtopic", st.subtopic, "error", err)
		}
	}
}

// ReconcileTopic recomputes one topic's article_count from the published
// articles referencing it (directly, regardless of subtopic) and stamps
// last_updated with the mutation time. A no-op when the topic row does not
// exist — orphaned references are tolerated.
func (s *ContentStore) ReconcileTopic(topicSlug string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE topics SET
			article_count = (
				SELECT COUNT(*) FROM content
				WHERE type = 'article' AND topic_slug = $1 AND published
			),
			last_updated = $2
		WHERE slug = $1
	`, topicSlug, at)
	if err != nil {
		return fmt.Errorf("reconcile topic %s: %w", topicSlug, err)
	}
	return nil
}

// ReconcileSubtopic recomputes one subtopic's article_count from the
// published articles matching both its topic and its slug.
func (s *ContentStore) ReconcileSubtopic(topicSlug, subtopicSlug string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE subtopics SET
			article_count = (
				SELECT COUNT(*) FROM content
				WHERE type = 'article' AND topic_slug = $1 AND subtopic_slug = $2 AND published
			),
			updated_at = $3
		WHERE topic_slug = $1 AND slug = $2
	`, topicSlug, subtopicSlug, at)
	if err != nil {
		return fmt.Errorf("reconcile subtopic %s/%s: %w", topicSlug, subtopicSlug, err)
	}
	return nil
}

// ResyncCounters recomputes every topic and subtopic counter from scratch.
// This is the corrective action for counters left stale by a failed scoped
// reconciliation. last_updated is preserved — a full resync is maintenance,
// not a content mutation.
func (s *ContentStore) ResyncCounters() error {
	if _, err := s.db.Exec(`
		UPDATE topics t SET article_count = (
			SELECT COUNT(*) FROM content c
			WHERE c.type = 'article' AND c.topic_slug = t.slug AND c.published
		)
	`); err != nil {
		return fmt.Errorf("resync topic counters: %w", err)
	}
	if _, err := s.db.Exec(`
		UPDATE subtopics s SET article_count = (
			SELECT COUNT(*) FROM content c
			WHERE c.type = 'article' AND c.topic_slug = s.topic_slug
			  AND c.subtopic_slug = s.slug AND c.published
		)
	`); err != nil {
		return fmt.Errorf("resync subtopic counters: %w", err)
	}
	return nil
}
