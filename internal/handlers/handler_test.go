// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"loreleaf/internal/cache"
	"loreleaf/internal/database"
	"loreleaf/internal/revalidate"
	"loreleaf/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "loreleaf")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "loreleaf")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, "path:*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB            *sql.DB
	Valkey        *redis.Client
	TopicStore    *store.TopicStore
	SubtopicStore *store.SubtopicStore
	ContentStore  *store.ContentStore
	StatsStore    *store.StatsStore
	RevalLog      *store.RevalidationLogStore
	PathCache     *cache.PathCache
	Dispatcher    *revalidate.Dispatcher
	Admin         *Admin
	Public        *Public
	Revalidation  *Revalidation
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	topicStore := store.NewTopicStore(db)
	subtopicStore := store.NewSubtopicStore(db)
	contentStore := store.NewContentStore(db)
	statsStore := store.NewStatsStore(db)
	revalLog := store.NewRevalidationLogStore(db)
	pathCache := cache.NewPathCache(vk, 1*time.Minute)
	dispatcher := revalidate.NewDispatcher(pathCache, revalLog)

	return &testEnv{
		DB:            db,
		Valkey:        vk,
		TopicStore:    topicStore,
		SubtopicStore: subtopicStore,
		ContentStore:  contentStore,
		StatsStore:    statsStore,
		RevalLog:      revalLog,
		PathCache:     pathCache,
		Dispatcher:    dispatcher,
		Admin:         NewAdmin(topicStore, subtopicStore, contentStore, revalLog, dispatcher),
		Public:        NewPublic(topicStore, subtopicStore, contentStore, statsStore, pathCache),
		Revalidation:  NewRevalidation(dispatcher),
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParams adds multiple chi URL parameters to a request.
func withChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// cleanTopics removes test topics by slug.
func cleanTopics(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM topics WHERE slug = $1", s)
	}
}

// cleanSubtopics removes every test subtopic under a topic.
func cleanSubtopics(t *testing.T, db *sql.DB, topicSlugs ...string) {
	t.Helper()
	for _, s := range topicSlugs {
		db.Exec("DELETE FROM subtopics WHERE topic_slug = $1", s)
	}
}

// cleanContent removes test content and stats by slug.
func cleanContent(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM content WHERE slug = $1", s)
		db.Exec("DELETE FROM stats WHERE slug = $1", s)
	}
}
