// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"net/http"

	"loreleaf/internal/revalidate"
)

// Revalidation handles the external revalidation endpoint, called by the
// frontend deploy pipeline with its own bearer secret.
type Revalidation struct {
	dispatcher *revalidate.Dispatcher
}

// NewRevalidation creates a new Revalidation handler.
func NewRevalidation(dispatcher *revalidate.Dispatcher) *Revalidation {
	return &Revalidation{dispatcher: dispatcher}
}

// revalidateInput is the request body: either an explicit path, or a
// content type with an optional slug to run through the mapping table.
type revalidateInput struct {
	Path string `json:"path,omitempty"`
	Type string `json:"type,omitempty"`
	Slug string `json:"slug,omitempty"`
}

// Handle dispatches a revalidation. A request from which no concrete
// target can be derived is a 400: silently no-op-ing would mask a caller
// bug and leave stale content live indefinitely.
func (h *Revalidation) Handle(w http.ResponseWriter, r *http.Request) {
	var in revalidateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		paths []string
		err   error
	)
	switch {
	case in.Path != "":
		paths, err = h.dispatcher.DispatchPath(r.Context(), in.Path)
	case in.Type != "":
		paths, err = h.dispatcher.Dispatch(r.Context(), in.Type, in.Slug)
	default:
		respondError(w, http.StatusBadRequest, "either path or type is required")
		return
	}

	if errors.Is(err, revalidate.ErrNoTarget) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "revalidation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"revalidated": paths})
}
