// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"loreleaf/internal/models"
	"loreleaf/internal/revalidate"
	"loreleaf/internal/store"
)

// Admin groups the admin API handlers and their dependencies. Every
// successful mutation synchronously dispatches revalidation; a dispatch
// failure is surfaced in the response while the write stays committed.
type Admin struct {
	topicStore    *store.TopicStore
	subtopicStore *store.SubtopicStore
	contentStore  *store.ContentStore
	revalLog      *store.RevalidationLogStore
	dispatcher    *revalidate.Dispatcher
}

// NewAdmin creates a new Admin handler group with the given dependencies.
func NewAdmin(topics *store.TopicStore, subtopics *store.SubtopicStore, content *store.ContentStore, revalLog *store.RevalidationLogStore, dispatcher *revalidate.Dispatcher) *Admin {
	return &Admin{
		topicStore:    topics,
		subtopicStore: subtopics,
		contentStore:  content,
		revalLog:      revalLog,
		dispatcher:    dispatcher,
	}
}

// mutationResult is the response body for admin mutations: the updated
// entity plus the revalidation outcome.
type mutationResult struct {
	Topic       *models.Topic    `json:"topic,omitempty"`
	Subtopic    *models.Subtopic `json:"subtopic,omitempty"`
	Content     *models.Content  `json:"content,omitempty"`
	Revalidated []string         `json:"revalidated,omitempty"`
	// RevalidationError reports a failed cache invalidation. The write
	// itself has committed; public pages may serve stale data until the
	// next successful dispatch.
	RevalidationError string `json:"revalidation_error,omitempty"`
}

// dispatch runs revalidation for a committed mutation and folds the
// outcome into the result. extra carries paths beyond the type mapping,
// such as the taxonomy surfaces backed by a mutated article's parents.
func (a *Admin) dispatch(r *http.Request, res *mutationResult, contentType, slug string, extra ...string) {
	paths, err := a.dispatcher.Dispatch(r.Context(), contentType, slug, extra...)
	res.Revalidated = paths
	if err != nil {
		res.RevalidationError = err.Error()
	}
}

// contentTaxonomy collects the taxonomy surfaces backed by the given
// content rows' parents. Mutating an article changes the article counts
// shown on those surfaces, so they must be invalidated with the article
// itself. Passing both the pre- and post-mutation rows covers moves.
func contentTaxonomy(items ...*models.Content) []string {
	var paths []string
	for _, c := range items {
		if c == nil || !c.IsArticle() || c.TopicSlug == nil {
			continue
		}
		sub := ""
		if c.SubtopicSlug != nil {
			sub = *c.SubtopicSlug
		}
		paths = append(paths, revalidate.TaxonomyPaths(*c.TopicSlug, sub)...)
	}
	return paths
}

// --- Topics ---

type topicInput struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sort_order"`
	Published   bool   `json:"published"`
	Featured    bool   `json:"featured"`
}

// TopicsList returns every topic, including unpublished ones.
func (a *Admin) TopicsList(w http.ResponseWriter, r *http.Request) {
	topics, err := a.topicStore.ListAll()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

// TopicCreate creates a topic from a JSON body.
func (a *Admin) TopicCreate(w http.ResponseWriter, r *http.Request) {
	var in topicInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateTopic(in.Slug, in.Title, in.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := a.topicStore.Create(&models.Topic{
		Slug:        in.Slug,
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		SortOrder:   in.SortOrder,
		Published:   in.Published,
		Featured:    in.Featured,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Topic: created}
	a.dispatch(r, res, "topic", created.Slug)
	respondJSON(w, http.StatusCreated, res)
}

// TopicUpdate updates a topic identified by its slug.
func (a *Admin) TopicUpdate(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	var in topicInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateTopic(slugParam, in.Title, in.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	err := a.topicStore.Update(&models.Topic{
		Slug:        slugParam,
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		SortOrder:   in.SortOrder,
		Published:   in.Published,
		Featured:    in.Featured,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	updated, err := a.topicStore.FindBySlug(slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Topic: updated}
	a.dispatch(r, res, "topic", slugParam)
	respondJSON(w, http.StatusOK, res)
}

// TopicDelete removes a topic. Its subtopics and articles are not
// cascade-deleted; they drop out of hierarchical listings at read time.
func (a *Admin) TopicDelete(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	if err := a.topicStore.Delete(slugParam); err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{}
	a.dispatch(r, res, "topic", slugParam)
	respondJSON(w, http.StatusOK, res)
}

// TopicTogglePublish flips a topic's published flag.
func (a *Admin) TopicTogglePublish(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	topic, err := a.topicStore.TogglePublished(slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Topic: topic}
	a.dispatch(r, res, "topic", slugParam)
	respondJSON(w, http.StatusOK, res)
}

// --- Subtopics ---

type subtopicInput struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	Published   bool   `json:"published"`
}

// SubtopicsList returns every subtopic of a topic.
func (a *Admin) SubtopicsList(w http.ResponseWriter, r *http.Request) {
	topicSlug := chi.URLParam(r, "topic")

	subtopics, err := a.subtopicStore.ListAllByTopic(topicSlug)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"subtopics": subtopics})
}

// SubtopicCreate creates a subtopic under a topic.
func (a *Admin) SubtopicCreate(w http.ResponseWriter, r *http.Request) {
	topicSlug := chi.URLParam(r, "topic")

	var in subtopicInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateTopic(in.Slug, in.Title, in.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := a.subtopicStore.Create(&models.Subtopic{
		TopicSlug:   topicSlug,
		Slug:        in.Slug,
		Title:       in.Title,
		Description: in.Description,
		SortOrder:   in.SortOrder,
		Published:   in.Published,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Subtopic: created}
	a.dispatch(r, res, "topic", topicSlug, revalidate.TaxonomyPaths(topicSlug, created.Slug)...)
	respondJSON(w, http.StatusCreated, res)
}

// SubtopicUpdate updates a subtopic identified by its topic-scoped slug.
func (a *Admin) SubtopicUpdate(w http.ResponseWriter, r *http.Request) {
	topicSlug := chi.URLParam(r, "topic")
	slugParam := chi.URLParam(r, "slug")

	var in subtopicInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateTopic(slugParam, in.Title, in.Description); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	err := a.subtopicStore.Update(&models.Subtopic{
		TopicSlug:   topicSlug,
		Slug:        slugParam,
		Title:       in.Title,
		Description: in.Description,
		SortOrder:   in.SortOrder,
		Published:   in.Published,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	updated, err := a.subtopicStore.FindBySlug(topicSlug, slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Subtopic: updated}
	a.dispatch(r, res, "topic", topicSlug, revalidate.TaxonomyPaths(topicSlug, slugParam)...)
	respondJSON(w, http.StatusOK, res)
}

// SubtopicDelete removes a subtopic. Articles keep their references and
// are excluded from subtopic listings at read time.
func (a *Admin) SubtopicDelete(w http.ResponseWriter, r *http.Request) {
	topicSlug := chi.URLParam(r, "topic")
	slugParam := chi.URLParam(r, "slug")

	if err := a.subtopicStore.Delete(topicSlug, slugParam); err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{}
	a.dispatch(r, res, "topic", topicSlug, revalidate.TaxonomyPaths(topicSlug, slugParam)...)
	respondJSON(w, http.StatusOK, res)
}

// SubtopicTogglePublish flips a subtopic's published flag.
func (a *Admin) SubtopicTogglePublish(w http.ResponseWriter, r *http.Request) {
	topicSlug := chi.URLParam(r, "topic")
	slugParam := chi.URLParam(r, "slug")

	subtopic, err := a.subtopicStore.TogglePublished(topicSlug, slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Subtopic: subtopic}
	a.dispatch(r, res, "topic", topicSlug, revalidate.TaxonomyPaths(topicSlug, slugParam)...)
	respondJSON(w, http.StatusOK, res)
}

// --- Content ---

type contentInput struct {
	Type         string   `json:"type"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Body         string   `json:"body"`
	Tags         []string `json:"tags"`
	CoverImage   *string  `json:"cover_image"`
	TopicSlug    *string  `json:"topic_slug"`
	SubtopicSlug *string  `json:"subtopic_slug"`
	SortOrder    int      `json:"sort_order"`
	Published    bool     `json:"published"`
}

// ContentList returns all content of the type given in the ?type query
// parameter (default article), drafts included.
func (a *Admin) ContentList(w http.ResponseWriter, r *http.Request) {
	contentType := r.URL.Query().Get("type")
	if contentType == "" {
		contentType = string(models.ContentTypeArticle)
	}
	if !models.KnownContentType(models.ContentType(contentType)) {
		respondError(w, http.StatusBadRequest, "Unknown content type.")
		return
	}

	items, err := a.contentStore.ListByType(models.ContentType(contentType))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"content": items})
}

// ContentGet returns one content item by slug, drafts included.
func (a *Admin) ContentGet(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	item, err := a.contentStore.FindAnyBySlug(slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if item == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"content": item})
}

// ContentCreate creates a content item. The html and reading_time caches
// are derived from body by the store.
func (a *Admin) ContentCreate(w http.ResponseWriter, r *http.Request) {
	var in contentInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateContent(in.Type, in.Slug, in.Title, in.Body, in.Tags); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := a.contentStore.Create(&models.Content{
		Type:         models.ContentType(in.Type),
		Slug:         in.Slug,
		Title:        in.Title,
		Description:  in.Description,
		Body:         in.Body,
		Tags:         in.Tags,
		CoverImage:   in.CoverImage,
		TopicSlug:    in.TopicSlug,
		SubtopicSlug: in.SubtopicSlug,
		SortOrder:    in.SortOrder,
		Published:    in.Published,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Content: created}
	a.dispatch(r, res, string(created.Type), created.Slug, contentTaxonomy(created)...)
	respondJSON(w, http.StatusCreated, res)
}

// ContentUpdate updates a content item identified by its slug. The slug
// itself is immutable; a type change is rejected.
func (a *Admin) ContentUpdate(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	var in contentInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	existing, err := a.contentStore.FindAnyBySlug(slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if in.Type != "" && in.Type != string(existing.Type) {
		respondError(w, http.StatusBadRequest, "Content type cannot be changed.")
		return
	}
	if msg := validateContent(string(existing.Type), slugParam, in.Title, in.Body, in.Tags); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	updated, err := a.contentStore.Update(&models.Content{
		Type:         existing.Type,
		Slug:         slugParam,
		Title:        in.Title,
		Description:  in.Description,
		Body:         in.Body,
		Tags:         in.Tags,
		CoverImage:   in.CoverImage,
		TopicSlug:    in.TopicSlug,
		SubtopicSlug: in.SubtopicSlug,
		SortOrder:    in.SortOrder,
		Published:    in.Published,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Content: updated}
	a.dispatch(r, res, string(updated.Type), updated.Slug, contentTaxonomy(existing, updated)...)
	respondJSON(w, http.StatusOK, res)
}

// ContentDelete removes a content item and its stats shadow record.
func (a *Admin) ContentDelete(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	existing, err := a.contentStore.FindAnyBySlug(slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if err := a.contentStore.Delete(slugParam); err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{}
	a.dispatch(r, res, string(existing.Type), slugParam, contentTaxonomy(existing)...)
	respondJSON(w, http.StatusOK, res)
}

// ContentTogglePublish flips a content item's published flag, stamping
// published_at on first publish.
func (a *Admin) ContentTogglePublish(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	item, err := a.contentStore.TogglePublished(slugParam)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	res := &mutationResult{Content: item}
	a.dispatch(r, res, string(item.Type), item.Slug, contentTaxonomy(item)...)
	respondJSON(w, http.StatusOK, res)
}

// --- Maintenance ---

// Resync recomputes every denormalized counter from scratch and clears
// the whole path cache. This is the corrective action for counters left
// stale by a failed scoped reconciliation.
func (a *Admin) Resync(w http.ResponseWriter, r *http.Request) {
	if err := a.contentStore.ResyncCounters(); err != nil {
		respondStoreError(w, err)
		return
	}
	a.dispatcher.InvalidateAll(r.Context())
	slog.Info("counter resync completed")
	respondJSON(w, http.StatusOK, map[string]string{"status": "resynced"})
}

// Revalidations returns the most recent revalidation dispatches, newest
// first. ?limit= caps the count (default 50, max 500).
func (a *Admin) Revalidations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := a.revalLog.RecentEntries(limit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"revalidations": entries})
}
