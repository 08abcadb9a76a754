package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data: a sample topic
// with a subtopic and one published article, so the public API has something
// to serve on a fresh install. No-op when topics already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM topics").Scan(&count); err != nil {
		return fmt.Errorf("seed check topics: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	_, err := db.Exec(`
		INSERT INTO topics (slug, title, description, icon, sort_order, published, featured, article_count, last_updated)
		VALUES ('getting-started', 'Getting Started', 'First steps with the site.', 'rocket', 0, TRUE, TRUE, 1, NOW())
	`)
	if err != nil {
		return fmt.Errorf("seed insert topic: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO subtopics (topic_slug, slug, title, description, sort_order, published, article_count)
		VALUES ('getting-started', 'basics', 'Basics', 'The essentials.', 0, TRUE, 1)
	`)
	if err != nil {
		return fmt.Errorf("seed insert subtopic: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO content (type, slug, title, description, body, html, tags, topic_slug, subtopic_slug, sort_order, published, published_at, reading_time)
		VALUES ('article', 'hello-world', 'Hello, World', 'A first article.',
		        '# Hello, World' || E'\n\n' || 'Welcome to the site.',
		        '<h1 id="hello-world">Hello, World</h1>' || E'\n' || '<p>Welcome to the site.</p>' || E'\n',
		        '["welcome"]', 'getting-started', 'basics', 0, TRUE, NOW(), 1)
	`)
	if err != nil {
		return fmt.Errorf("seed insert article: %w", err)
	}

	slog.Info("database seeded with sample content", "topic", "getting-started", "article", "hello-world")
	return nil
}
