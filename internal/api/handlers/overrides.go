package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adityamenon/newsdesk/internal/models"
	"github.com/adityamenon/newsdesk/internal/storage"
)

// UpsertOverride creates or replaces the user correction for an article
// URL. Fields are stored as given; an empty field clears a previously set
// correction.
func UpsertOverride(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ov models.Override
		if err := json.NewDecoder(r.Body).Decode(&ov); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if ov.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		if err := store.UpsertOverride(r.Context(), &ov); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "url": ov.URL})
	}
}

// GetOverride returns the override for the `url` query parameter.
func GetOverride(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := r.URL.Query().Get("url")
		if url == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		ov, err := store.GetOverrideByURL(r.Context(), url)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "override not found")
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ov)
	}
}

// ListOverrides returns every stored override, newest-first.
func ListOverrides(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ListOverrides(r.Context(), 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if items == nil {
			items = []models.Override{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// DeleteOverride removes the override for the `url` query parameter.
func DeleteOverride(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := r.URL.Query().Get("url")
		if url == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		ok, err := store.DeleteOverrideByURL(r.Context(), url)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "override not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "url": url})
	}
}
