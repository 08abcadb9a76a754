// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package revalidate maps content mutations to the frontend paths whose
// cached copies they invalidate, and executes that invalidation against
// the Valkey path cache. The mapping itself is a pure table; the
// dispatcher is the side-effecting wrapper around it.
package revalidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"loreleaf/internal/cache"
	"loreleaf/internal/store"
)

// ErrNoTarget is returned when a revalidation request yields no concrete
// path to invalidate. Silently no-op-ing here would mask a caller bug and
// leave stale content live indefinitely, so it is always an error.
var ErrNoTarget = errors.New("no revalidation target")

const (
	homePath    = "/"
	sitemapPath = "/sitemap.xml"
)

// routes describes which frontend surfaces a content type appears on.
type routes struct {
	listing string // listing page path, empty if the type has none
	home    bool   // whether the home page features this type
}

var pathTable = map[string]routes{
	"topic":   {listing: "/topics", home: true},
	"article": {listing: "/articles", home: true},
	"note":    {listing: "/notes"},
	"project": {listing: "/projects", home: true},
	"series":  {listing: "/series"},
	"log":     {listing: "/logs"},
	"page":    {},
}

// Paths returns the frontend paths a mutation to the given content type
// invalidates: the type's listing page, the home page when the type is
// featured there, the sitemap always, and the detail page when a slug is
// given. Pages have no listing; their detail lives at the site root AND
// under /pages, and both cached copies must go. An unrecognized content
// type yields ErrNoTarget.
func Paths(contentType, slug string) ([]string, error) {
	r, ok := pathTable[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrNoTarget, contentType)
	}

	var paths []string
	if r.listing != "" {
		paths = append(paths, r.listing)
	}
	if r.home {
		paths = append(paths, homePath)
	}
	paths = append(paths, sitemapPath)
	if slug != "" {
		if r.listing != "" {
			paths = append(paths, r.listing+"/"+slug)
		} else {
			paths = append(paths, "/"+slug, "/pages/"+slug)
		}
	}
	return paths, nil
}

// TaxonomyPaths returns the cached taxonomy surfaces a topic (and
// optionally one of its subtopics) backs: the topic index, the topic
// detail, and the subtopic detail. Article mutations go through here too,
// since the denormalized counts they change are displayed on exactly
// these surfaces.
func TaxonomyPaths(topicSlug, subtopicSlug string) []string {
	if topicSlug == "" {
		return nil
	}
	paths := []string{"/topics", "/topics/" + topicSlug}
	if subtopicSlug != "" {
		paths = append(paths, "/topics/"+topicSlug+"/subtopics/"+subtopicSlug)
	}
	return paths
}

// mergePaths appends extras to paths, dropping empties and duplicates
// while preserving order.
func mergePaths(paths, extras []string) []string {
	seen := make(map[string]bool, len(paths)+len(extras))
	for _, p := range paths {
		seen[p] = true
	}
	for _, p := range extras {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}

// Dispatcher executes revalidations against the path cache and records
// them in the audit log.
type Dispatcher struct {
	cache *cache.PathCache
	log   *store.RevalidationLogStore
}

// NewDispatcher returns a Dispatcher. The log store may be nil to skip
// audit logging.
func NewDispatcher(pc *cache.PathCache, log *store.RevalidationLogStore) *Dispatcher {
	return &Dispatcher{cache: pc, log: log}
}

// Dispatch invalidates every path mapped from the content type and slug,
// plus any extra paths the caller knows are backed by the mutated row
// (taxonomy surfaces, typically), returning the invalidated paths.
// Invalidation failures are returned to the caller: the triggering write
// has already committed, but the caller must know its public pages may be
// stale. The audit log entry is best-effort.
func (d *Dispatcher) Dispatch(ctx context.Context, contentType, slug string, extra ...string) ([]string, error) {
	paths, err := Paths(contentType, slug)
	if err != nil {
		return nil, err
	}
	paths = mergePaths(paths, extra)

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		g.Go(func() error {
			return d.cache.InvalidatePaths(gctx, p)
		})
	}
	if err := g.Wait(); err != nil {
		return paths, fmt.Errorf("invalidate paths: %w", err)
	}

	d.record(contentType, slug, paths)
	slog.Info("revalidation dispatched", "type", contentType, "slug", slug, "paths", paths)
	return paths, nil
}

// DispatchPath invalidates one explicit path, bypassing the mapping
// table. Used by the revalidation endpoint when the caller names the path
// directly. An empty path is ErrNoTarget.
func (d *Dispatcher) DispatchPath(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrNoTarget)
	}
	if err := d.cache.InvalidatePaths(ctx, path); err != nil {
		return nil, fmt.Errorf("invalidate path: %w", err)
	}

	d.record("path", "", []string{path})
	slog.Info("revalidation dispatched", "path", path)
	return []string{path}, nil
}

// InvalidateAll drops every cached path. Used after a full counter
// resync, when any listing could be stale.
func (d *Dispatcher) InvalidateAll(ctx context.Context) {
	d.cache.InvalidateAll(ctx)
	d.record("resync", "", []string{"*"})
}

func (d *Dispatcher) record(contentType, slug string, paths []string) {
	if d.log == nil {
		return
	}
	if err := d.log.Log(contentType, slug, paths); err != nil {
		slog.Warn("failed to log revalidation", "type", contentType, "slug", slug, "error", err)
	}
}
