// Package router sets up all HTTP routes and middleware chains for the
// Loreleaf API. It organizes routes into public, admin, and revalidation
// groups with appropriate middleware stacks.
package router

import (
	"time"

	"github.com/go-chi/chi/v5"

	"loreleaf/internal/handlers"
	"loreleaf/internal/middleware"
	"loreleaf/internal/models"
)

// Config carries the router's auth tokens and rate limit settings.
type Config struct {
	AdminToken       string
	RevalidateSecret string

	// LikeLimit caps POST /api/likes/{slug} calls per client IP per
	// LikeWindow. Zero values fall back to 30/min.
	LikeLimit  int
	LikeWindow time.Duration
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. The returned limiter must be stopped on
// shutdown.
func New(cfg Config, admin *handlers.Admin, public *handlers.Public, reval *handlers.Revalidation) (chi.Router, *middleware.RateLimiter) {
	if cfg.LikeLimit == 0 {
		cfg.LikeLimit = 30
	}
	if cfg.LikeWindow == 0 {
		cfg.LikeWindow = time.Minute
	}
	likeLimiter := middleware.NewRateLimiter(cfg.LikeLimit, cfg.LikeWindow)

	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check, no auth.
	r.Get("/health", public.Health)

	// Public read API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/topics", public.Topics)
		r.Get("/topics/{topic}", public.TopicDetail)
		r.Get("/topics/{topic}/subtopics/{subtopic}", public.SubtopicDetail)

		r.Get("/articles", public.Listing(models.ContentTypeArticle))
		r.Get("/articles/{slug}", public.Detail)
		r.Get("/notes", public.Listing(models.ContentTypeNote))
		r.Get("/notes/{slug}", public.Detail)
		r.Get("/series", public.Listing(models.ContentTypeSeries))
		r.Get("/series/{slug}", public.Detail)
		r.Get("/logs", public.Listing(models.ContentTypeLog))
		r.Get("/logs/{slug}", public.Detail)
		r.Get("/pages/{slug}", public.Detail)

		r.With(likeLimiter.Middleware).Post("/likes/{slug}", public.Like)

		// Revalidation, guarded by its own secret so the frontend deploy
		// never holds the admin token.
		r.With(middleware.RequireBearer(cfg.RevalidateSecret)).
			Post("/revalidate", reval.Handle)
	})

	// Admin API, bearer token.
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(middleware.RequireBearer(cfg.AdminToken))

		r.Route("/topics", func(r chi.Router) {
			r.Get("/", admin.TopicsList)
			r.Post("/", admin.TopicCreate)
			r.Put("/{slug}", admin.TopicUpdate)
			r.Delete("/{slug}", admin.TopicDelete)
			r.Post("/{slug}/publish", admin.TopicTogglePublish)
		})

		r.Route("/topics/{topic}/subtopics", func(r chi.Router) {
			r.Get("/", admin.SubtopicsList)
			r.Post("/", admin.SubtopicCreate)
			r.Put("/{slug}", admin.SubtopicUpdate)
			r.Delete("/{slug}", admin.SubtopicDelete)
			r.Post("/{slug}/publish", admin.SubtopicTogglePublish)
		})

		r.Route("/content", func(r chi.Router) {
			r.Get("/", admin.ContentList)
			r.Post("/", admin.ContentCreate)
			r.Get("/{slug}", admin.ContentGet)
			r.Put("/{slug}", admin.ContentUpdate)
			r.Delete("/{slug}", admin.ContentDelete)
			r.Post("/{slug}/publish", admin.ContentTogglePublish)
		})

		r.Post("/resync", admin.Resync)
		r.Get("/revalidations", admin.Revalidations)
	})

	return r, likeLimiter
}
