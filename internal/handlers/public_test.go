package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"loreleaf/internal/models"
)

func TestPublicHealth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.Public.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body: got %s", rec.Body.String())
	}
}

func TestPublicTopicsListsOnlyPublished(t *testing.T) {
	env := newTestEnv(t)

	pub := "test-p-pub-" + uuid.NewString()[:8]
	draft := "test-p-draft-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanTopics(t, env.DB, pub, draft) })

	env.TopicStore.Create(&models.Topic{Slug: pub, Title: "Pub", Published: true})
	env.TopicStore.Create(&models.Topic{Slug: draft, Title: "Draft"})

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	rec := httptest.NewRecorder()
	env.Public.Topics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, pub) {
		t.Errorf("published topic missing from listing")
	}
	if strings.Contains(body, draft) {
		t.Errorf("draft topic leaked into public listing")
	}
}

func TestPublicTopicsServesFromCache(t *testing.T) {
	env := newTestEnv(t)

	// Prime the cache with a sentinel body, then hit the handler: the
	// sentinel must come back untouched.
	sentinel := []byte(`{"topics":"cached-sentinel"}`)
	env.PathCache.Set(context.Background(), "/topics", sentinel)

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	rec := httptest.NewRecorder()
	env.Public.Topics(rec, req)

	if rec.Body.String() != string(sentinel) {
		t.Errorf("expected cached body, got %s", rec.Body.String())
	}
}

func TestPublicTopicDetail(t *testing.T) {
	env := newTestEnv(t)

	topicSlug := "test-p-detail-" + uuid.NewString()[:8]
	articleSlug := topicSlug + "-a"
	t.Cleanup(func() {
		cleanContent(t, env.DB, articleSlug)
		cleanSubtopics(t, env.DB, topicSlug)
		cleanTopics(t, env.DB, topicSlug)
	})

	env.TopicStore.Create(&models.Topic{Slug: topicSlug, Title: "Detail", Published: true})
	env.SubtopicStore.Create(&models.Subtopic{TopicSlug: topicSlug, Slug: "sub", Title: "Sub", Published: true})
	ts := topicSlug
	env.ContentStore.Create(&models.Content{
		Type: models.ContentTypeArticle, Slug: articleSlug, Title: "A", Body: "x",
		TopicSlug: &ts, Published: true,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/topics/"+topicSlug, nil)
	req = withChiURLParam(req, "topic", topicSlug)
	rec := httptest.NewRecorder()
	env.Public.TopicDetail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{topicSlug, `"sub"`, articleSlug} {
		if !strings.Contains(body, want) {
			t.Errorf("detail body missing %s", want)
		}
	}
	// Listings must not carry full bodies.
	if strings.Contains(body, `"body"`) {
		t.Error("topic detail should not include article bodies")
	}
}

func TestPublicTopicDetailUnpublishedIs404(t *testing.T) {
	env := newTestEnv(t)

	topicSlug := "test-p-hidden-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanTopics(t, env.DB, topicSlug) })

	env.TopicStore.Create(&models.Topic{Slug: topicSlug, Title: "Hidden"})

	req := httptest.NewRequest(http.MethodGet, "/api/topics/"+topicSlug, nil)
	req = withChiURLParam(req, "topic", topicSlug)
	rec := httptest.NewRecorder()
	env.Public.TopicDetail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("unpublished topic: got %d, want 404", rec.Code)
	}
}

func TestPublicDetailPayload(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-p-article-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanContent(t, env.DB, slug) })

	env.ContentStore.Create(&models.Content{
		Type: models.ContentTypeArticle, Slug: slug, Title: "Deep Dive",
		Body: "## Setup\n\ntext\n\n## Usage\n\nmore", Published: true,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/articles/"+slug, nil)
	req = withChiURLParam(req, "slug", slug)
	rec := httptest.NewRecorder()
	env.Public.Detail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`"toc"`, `"setup"`, `"usage"`, `"views"`, `"likes"`, `"html"`} {
		if !strings.Contains(body, want) {
			t.Errorf("detail payload missing %s (body: %s)", want, body)
		}
	}

	// The async view increment lands shortly after the request.
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := env.StatsStore.Find(slug)
		if err == nil && st.Views >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Error("view increment never landed")
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestPublicDetailDraftIs404(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-p-draftart-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanContent(t, env.DB, slug) })

	env.ContentStore.Create(&models.Content{
		Type: models.ContentTypeArticle, Slug: slug, Title: "Draft", Body: "x",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/articles/"+slug, nil)
	req = withChiURLParam(req, "slug", slug)
	rec := httptest.NewRecorder()
	env.Public.Detail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("draft detail: got %d, want 404", rec.Code)
	}
}

func TestPublicLike(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-p-like-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanContent(t, env.DB, slug) })

	env.ContentStore.Create(&models.Content{
		Type: models.ContentTypeNote, Slug: slug, Title: "Likeable", Body: "x", Published: true,
	})

	like := func(action string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/likes/"+slug,
			strings.NewReader(`{"action":"`+action+`"}`))
		req = withChiURLParam(req, "slug", slug)
		rec := httptest.NewRecorder()
		env.Public.Like(rec, req)
		return rec
	}

	rec := like("like")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"likes":1`) {
		t.Errorf("like: got %d %s, want 200 likes=1", rec.Code, rec.Body.String())
	}

	rec = like("unlike")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"likes":0`) {
		t.Errorf("unlike: got %d %s, want 200 likes=0", rec.Code, rec.Body.String())
	}

	// Unlike at zero stays clamped.
	rec = like("unlike")
	if !strings.Contains(rec.Body.String(), `"likes":0`) {
		t.Errorf("unlike at zero: got %s, want likes=0", rec.Body.String())
	}

	rec = like("boost")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad action: got %d, want 400", rec.Code)
	}
}

func TestPublicLikeMissingContent(t *testing.T) {
	env := newTestEnv(t)

	slug := "no-such-" + uuid.NewString()[:8]
	req := httptest.NewRequest(http.MethodPost, "/api/likes/"+slug,
		strings.NewReader(`{"action":"like"}`))
	req = withChiURLParam(req, "slug", slug)
	rec := httptest.NewRecorder()
	env.Public.Like(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("like on missing content: got %d, want 404", rec.Code)
	}
}

// TestMutationDropsPublicCache exercises the full freshness loop: a
// cached public listing is invalidated by an admin mutation, so the next
// read sees the new data.
func TestMutationDropsPublicCache(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-p-fresh-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanContent(t, env.DB, slug) })

	// Prime the articles listing cache.
	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	rec := httptest.NewRecorder()
	env.Public.Listing(models.ContentTypeArticle)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("prime listing: got %d", rec.Code)
	}
	if _, ok := env.PathCache.Get(context.Background(), "/articles"); !ok {
		t.Fatal("listing should be cached after first read")
	}

	// Publish a new article through the admin handler.
	body := `{"type":"article","slug":"` + slug + `","title":"Fresh","body":"x","published":true}`
	req = httptest.NewRequest(http.MethodPost, "/admin/api/content", strings.NewReader(body))
	rec = httptest.NewRecorder()
	env.Admin.ContentCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// The cached listing is gone, and a re-read includes the new article.
	if _, ok := env.PathCache.Get(context.Background(), "/articles"); ok {
		t.Error("listing cache should be dropped by the mutation")
	}
	req = httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	rec = httptest.NewRecorder()
	env.Public.Listing(models.ContentTypeArticle)(rec, req)
	if !strings.Contains(rec.Body.String(), slug) {
		t.Error("re-read listing should include the new article")
	}
}

// TestPageMutationDropsDetailCache covers the page detail route, whose
// cache key carries the /pages prefix rather than living at the site root.
func TestPageMutationDropsDetailCache(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-p-page-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanContent(t, env.DB, slug) })

	env.ContentStore.Create(&models.Content{
		Type: models.ContentTypePage, Slug: slug, Title: "About", Body: "old body", Published: true,
	})

	// Prime the detail cache.
	req := httptest.NewRequest(http.MethodGet, "/api/pages/"+slug, nil)
	req = withChiURLParam(req, "slug", slug)
	rec := httptest.NewRecorder()
	env.Public.Detail(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("prime detail: got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if _, ok := env.PathCache.Get(context.Background(), "/pages/"+slug); !ok {
		t.Fatal("page detail should be cached under /pages/" + slug)
	}

	// Mutate the page through the admin handler.
	body := `{"title":"About","body":"new body","published":true}`
	req = httptest.NewRequest(http.MethodPut, "/admin/api/content/"+slug, strings.NewReader(body))
	req = withChiURLParam(req, "slug", slug)
	rec = httptest.NewRecorder()
	env.Admin.ContentUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "/pages/"+slug) {
		t.Errorf("revalidated paths missing /pages/%s: %s", slug, rec.Body.String())
	}

	if _, ok := env.PathCache.Get(context.Background(), "/pages/"+slug); ok {
		t.Error("page detail cache should be dropped by the mutation")
	}

	// A re-read serves the committed body.
	req = httptest.NewRequest(http.MethodGet, "/api/pages/"+slug, nil)
	req = withChiURLParam(req, "slug", slug)
	rec = httptest.NewRecorder()
	env.Public.Detail(rec, req)
	if !strings.Contains(rec.Body.String(), "new body") {
		t.Error("re-read should serve the updated body")
	}
}

// TestArticleMutationDropsTopicCaches covers the taxonomy surfaces: the
// topic index, topic detail, and subtopic detail all display article
// lists and denormalized counts, so an article mutation must drop them.
func TestArticleMutationDropsTopicCaches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	topicSlug := "test-p-taxo-" + uuid.NewString()[:8]
	articleSlug := topicSlug + "-a"
	t.Cleanup(func() {
		cleanContent(t, env.DB, articleSlug)
		cleanSubtopics(t, env.DB, topicSlug)
		cleanTopics(t, env.DB, topicSlug)
	})

	env.TopicStore.Create(&models.Topic{Slug: topicSlug, Title: "Taxo", Published: true})
	env.SubtopicStore.Create(&models.Subtopic{TopicSlug: topicSlug, Slug: "arrays", Title: "Arrays", Published: true})

	// Prime all three taxonomy caches.
	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	rec := httptest.NewRecorder()
	env.Public.Topics(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/api/topics/"+topicSlug, nil)
	req = withChiURLParam(req, "topic", topicSlug)
	rec = httptest.NewRecorder()
	env.Public.TopicDetail(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/api/topics/"+topicSlug+"/subtopics/arrays", nil)
	req = withChiURLParams(req, map[string]string{"topic": topicSlug, "subtopic": "arrays"})
	rec = httptest.NewRecorder()
	env.Public.SubtopicDetail(rec, req)

	keys := []string{"/topics", "/topics/" + topicSlug, "/topics/" + topicSlug + "/subtopics/arrays"}
	for _, key := range keys {
		if _, ok := env.PathCache.Get(ctx, key); !ok {
			t.Fatalf("%s should be cached before the mutation", key)
		}
	}

	// Publish an article under the subtopic.
	body := `{"type":"article","slug":"` + articleSlug + `","title":"A","body":"x",` +
		`"topic_slug":"` + topicSlug + `","subtopic_slug":"arrays","published":true}`
	req = httptest.NewRequest(http.MethodPost, "/admin/api/content", strings.NewReader(body))
	rec = httptest.NewRecorder()
	env.Admin.ContentCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d (body: %s)", rec.Code, rec.Body.String())
	}

	for _, key := range keys {
		if !strings.Contains(rec.Body.String(), `"`+key+`"`) {
			t.Errorf("revalidated paths missing %s: %s", key, rec.Body.String())
		}
		if _, ok := env.PathCache.Get(ctx, key); ok {
			t.Errorf("%s should be dropped by the article mutation", key)
		}
	}

	// The re-read topic detail carries the fresh count.
	req = httptest.NewRequest(http.MethodGet, "/api/topics/"+topicSlug, nil)
	req = withChiURLParam(req, "topic", topicSlug)
	rec = httptest.NewRecorder()
	env.Public.TopicDetail(rec, req)
	if !strings.Contains(rec.Body.String(), `"article_count":1`) {
		t.Errorf("re-read topic detail should show the new count: %s", rec.Body.String())
	}
}

func TestSubtopicMutationDropsSubtopicDetailCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	topicSlug := "test-p-subcache-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		cleanSubtopics(t, env.DB, topicSlug)
		cleanTopics(t, env.DB, topicSlug)
	})

	env.TopicStore.Create(&models.Topic{Slug: topicSlug, Title: "T", Published: true})
	env.SubtopicStore.Create(&models.Subtopic{TopicSlug: topicSlug, Slug: "sub", Title: "Old", Published: true})

	req := httptest.NewRequest(http.MethodGet, "/api/topics/"+topicSlug+"/subtopics/sub", nil)
	req = withChiURLParams(req, map[string]string{"topic": topicSlug, "subtopic": "sub"})
	rec := httptest.NewRecorder()
	env.Public.SubtopicDetail(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("prime subtopic detail: got %d", rec.Code)
	}

	key := "/topics/" + topicSlug + "/subtopics/sub"
	if _, ok := env.PathCache.Get(ctx, key); !ok {
		t.Fatal("subtopic detail should be cached")
	}

	body := `{"title":"Renamed","published":true}`
	req = httptest.NewRequest(http.MethodPut, "/admin/api/topics/"+topicSlug+"/subtopics/sub", strings.NewReader(body))
	req = withChiURLParams(req, map[string]string{"topic": topicSlug, "slug": "sub"})
	rec = httptest.NewRecorder()
	env.Admin.SubtopicUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d (body: %s)", rec.Code, rec.Body.String())
	}

	if _, ok := env.PathCache.Get(ctx, key); ok {
		t.Error("subtopic detail cache should be dropped by the mutation")
	}
}

// TestPublicDetailUnknownSlugCreatesNoStats pins the 404 path: probes for
// slugs that do not exist must not upsert counter rows.
func TestPublicDetailUnknownSlugCreatesNoStats(t *testing.T) {
	env := newTestEnv(t)

	slug := "no-such-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanContent(t, env.DB, slug) })

	req := httptest.NewRequest(http.MethodGet, "/api/articles/"+slug, nil)
	req = withChiURLParam(req, "slug", slug)
	rec := httptest.NewRecorder()
	env.Public.Detail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown slug: got %d, want 404", rec.Code)
	}

	// Generous margin for any stray async write.
	time.Sleep(200 * time.Millisecond)

	var count int
	if err := env.DB.QueryRow("SELECT COUNT(*) FROM stats WHERE slug = $1", slug).Scan(&count); err != nil {
		t.Fatalf("count stats: %v", err)
	}
	if count != 0 {
		t.Errorf("404 request created %d stats rows, want 0", count)
	}
}

// TestPublicDetailCacheHitStillCountsView pins the cache-hit path: a
// cached response proves the content exists, so the view still counts.
func TestPublicDetailCacheHitStillCountsView(t *testing.T) {
	env := newTestEnv(t)

	slug := "test-p-hitview-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanContent(t, env.DB, slug) })

	env.ContentStore.Create(&models.Content{
		Type: models.ContentTypeArticle, Slug: slug, Title: "Hit", Body: "x", Published: true,
	})

	get := func() {
		req := httptest.NewRequest(http.MethodGet, "/api/articles/"+slug, nil)
		req = withChiURLParam(req, "slug", slug)
		rec := httptest.NewRecorder()
		env.Public.Detail(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("detail: got %d", rec.Code)
		}
	}

	get() // miss, caches
	get() // hit

	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := env.StatsStore.Find(slug)
		if err == nil && st.Views >= 2 {
			break
		}
		if time.Now().After(deadline) {
			views := int64(0)
			if st != nil {
				views = st.Views
			}
			t.Errorf("views: got %d, want 2 (one per request, cached or not)", views)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestRevalidationEndpoint(t *testing.T) {
	env := newTestEnv(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/revalidate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.Revalidation.Handle(rec, req)
		return rec
	}

	rec := post(`{"type":"article","slug":"some-post"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("type dispatch: got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "/articles/some-post") {
		t.Errorf("response missing detail path: %s", rec.Body.String())
	}

	rec = post(`{"path":"/custom"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("path dispatch: got %d", rec.Code)
	}

	rec = post(`{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body: got %d, want 400", rec.Code)
	}

	rec = post(`{"type":"podcast"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type: got %d, want 400", rec.Code)
	}

	rec = post(`not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: got %d, want 400", rec.Code)
	}
}
