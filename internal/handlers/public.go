// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"loreleaf/internal/cache"
	"loreleaf/internal/models"
	"loreleaf/internal/store"
	"loreleaf/internal/toc"
)

// Public groups the read-side handlers. Responses are cached in Valkey
// keyed by the frontend path they back (the request path minus the /api
// prefix), which is the same key space the revalidation dispatcher
// invalidates.
type Public struct {
	topicStore    *store.TopicStore
	subtopicStore *store.SubtopicStore
	contentStore  *store.ContentStore
	statsStore    *store.StatsStore
	pathCache     *cache.PathCache
}

// NewPublic creates a new Public handler group.
func NewPublic(topics *store.TopicStore, subtopics *store.SubtopicStore, content *store.ContentStore, stats *store.StatsStore, pc *cache.PathCache) *Public {
	return &Public{
		topicStore:    topics,
		subtopicStore: subtopics,
		contentStore:  content,
		statsStore:    stats,
		pathCache:     pc,
	}
}

// cachePath maps the request to its cache key: the frontend path the
// response backs.
func cachePath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api")
}

// serveCached writes the cached body for the request path if present.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request) bool {
	body, ok := p.pathCache.Get(r.Context(), cachePath(r))
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(body)
	return true
}

// respondAndCache writes v as JSON and stores the body under the request
// path.
func (p *Public) respondAndCache(w http.ResponseWriter, r *http.Request, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	p.pathCache.Set(r.Context(), cachePath(r), buf.Bytes())
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(buf.Bytes())
}

// Health reports liveness.
func (p *Public) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Topics returns the published topics with their denormalized counts.
func (p *Public) Topics(w http.ResponseWriter, r *http.Request) {
	if p.serveCached(w, r) {
		return
	}

	topics, err := p.topicStore.List()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	p.respondAndCache(w, r, map[string]any{"topics": topics})
}

// TopicDetail returns one published topic with its published subtopics
// and direct articles.
func (p *Public) TopicDetail(w http.ResponseWriter, r *http.Request) {
	if p.serveCached(w, r) {
		return
	}
	topicSlug := chi.URLParam(r, "topic")

	topic, err := p.topicStore.FindBySlug(topicSlug)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if topic == nil || !topic.Published {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	subtopics, err := p.subtopicStore.ListByTopic(topicSlug)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	articles, err := p.contentStore.ListArticlesByTopic(topicSlug)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	p.respondAndCache(w, r, map[string]any{
		"topic":     topic,
		"subtopics": subtopics,
		"articles":  listItems(articles),
	})
}

// SubtopicDetail returns one published subtopic with its articles.
func (p *Public) SubtopicDetail(w http.ResponseWriter, r *http.Request) {
	if p.serveCached(w, r) {
		return
	}
	topicSlug := chi.URLParam(r, "topic")
	slugParam := chi.URLParam(r, "subtopic")

	subtopic, err := p.subtopicStore.FindBySlug(topicSlug, slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if subtopic == nil || !subtopic.Published {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	articles, err := p.contentStore.ListArticlesBySubtopic(topicSlug, slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	p.respondAndCache(w, r, map[string]any{
		"subtopic": subtopic,
		"articles": listItems(articles),
	})
}

// listItem is the reduced content shape for listings: no body or html.
type listItem struct {
	Slug         string             `json:"slug"`
	Type         models.ContentType `json:"type"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Tags         []string           `json:"tags"`
	CoverImage   *string            `json:"cover_image,omitempty"`
	TopicSlug    *string            `json:"topic_slug,omitempty"`
	SubtopicSlug *string            `json:"subtopic_slug,omitempty"`
	ReadingTime  int                `json:"reading_time"`
	PublishedAt  *time.Time         `json:"published_at,omitempty"`
}

func listItems(items []models.Content) []listItem {
	out := make([]listItem, 0, len(items))
	for _, c := range items {
		out = append(out, listItem{
			Slug:         c.Slug,
			Type:         c.Type,
			Title:        c.Title,
			Description:  c.Description,
			Tags:         c.Tags,
			CoverImage:   c.CoverImage,
			TopicSlug:    c.TopicSlug,
			SubtopicSlug: c.SubtopicSlug,
			ReadingTime:  c.ReadingTime,
			PublishedAt:  c.PublishedAt,
		})
	}
	return out
}

// Listing returns the published content of one type, newest first. The
// type is fixed when the route is registered.
func (p *Public) Listing(contentType models.ContentType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p.serveCached(w, r) {
			return
		}

		items, err := p.contentStore.ListPublishedByType(contentType)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		p.respondAndCache(w, r, map[string]any{"items": listItems(items)})
	}
}

// Detail returns the full payload for one published content item:
// content fields, rendered html, the table of contents, and the current
// counters. Every request that serves content fires an async view
// increment; request-level dedup is the caller's concern.
func (p *Public) Detail(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	// Only successful payloads are ever cached, so a cache hit proves the
	// content exists and the view counts.
	if p.serveCached(w, r) {
		p.incrementViewAsync(slugParam)
		return
	}

	content, err := p.contentStore.FindBySlug(slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if content == nil {
		// No increment here: counting unknown slugs would upsert a stats
		// row for every probe.
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	p.incrementViewAsync(slugParam)

	stats, err := p.statsStore.Find(slugParam)
	if err != nil {
		slog.Error("load stats failed", "slug", slugParam, "error", err)
		stats = &models.Stats{Slug: slugParam}
	}

	headings := toc.Extract(content.HTML, toc.DefaultMaxLevel, toc.SourceHTML)

	p.respondAndCache(w, r, map[string]any{
		"content": content,
		"toc":     headings,
		"stats": map[string]int64{
			"views": stats.Views,
			"likes": stats.Likes,
		},
	})
}

// incrementViewAsync bumps the view counter in a detached goroutine.
// Failures are logged; a lost view is acceptable, a slow page is not.
func (p *Public) incrementViewAsync(slug string) {
	go func() {
		if _, err := p.statsStore.IncrementView(slug); err != nil {
			slog.Warn("view increment failed", "slug", slug, "error", err)
		}
	}()
}

// likeInput is the body for the like endpoint.
type likeInput struct {
	Action string `json:"action"`
}

// Like toggles the like counter for a published content item and returns
// the new total. Per-visitor dedup is the frontend's job; the counter
// faithfully counts every call it receives.
func (p *Public) Like(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	var in likeInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var delta int64
	switch in.Action {
	case "like":
		delta = 1
	case "unlike":
		delta = -1
	default:
		respondError(w, http.StatusBadRequest, `action must be "like" or "unlike"`)
		return
	}

	content, err := p.contentStore.FindBySlug(slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if content == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	likes, err := p.statsStore.ToggleLike(slugParam, delta)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"likes": likes})
}
