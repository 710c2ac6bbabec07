package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/engine"
	"github.com/threadly/threadly/internal/httpserver/deps"
	"github.com/threadly/threadly/internal/logger"
)

type toggleRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toggleResponse struct {
	Key       string `json:"key"`
	Favorited bool   `json:"favorited"`
}

// ToggleFavorite flips the favorite flag on a snapshot message identified by
// its (role, content) pair.
func ToggleFavorite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng := d.Session.Engine()
		if eng == nil {
			writeError(w, http.StatusConflict, "no active conversation")
			return
		}

		var req toggleRequest
		if !decodeBody(w, r, &req) {
			return
		}
		role := domain.Role(strings.TrimSpace(req.Role))
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "role must be \"user\" or \"assistant\"")
			return
		}
		if req.Content == "" {
			writeError(w, http.StatusBadRequest, "content must not be empty")
			return
		}

		msg, err := eng.ToggleFavorite(role, req.Content)
		if err != nil {
			if errors.Is(err, engine.ErrMessageNotFound) {
				writeError(w, http.StatusNotFound, "message not found in current snapshot")
				return
			}
			writeError(w, http.StatusInternalServerError, "toggle failed")
			return
		}

		d.Logger.Info("favorite toggled",
			logger.String("role", string(msg.Role)),
			logger.Bool("favorited", msg.Favorited))

		writeJSON(w, http.StatusOK, toggleResponse{
			Key:       eng.KeyFor(msg.Role, msg.Content),
			Favorited: msg.Favorited,
		})
	}
}

type favoriteDTO struct {
	Role     string    `json:"role"`
	Content  string    `json:"content"`
	Platform string    `json:"platform"`
	Path     string    `json:"path"`
	SavedAt  time.Time `json:"saved_at"`
}

type favoritesResponse struct {
	Count     int           `json:"count"`
	Favorites []favoriteDTO `json:"favorites"`
}

// Favorites lists every favorited message across all platforms and
// conversations, newest first, optionally filtered by ?q= substring.
func Favorites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := d.Favorites.List(r.URL.Query().Get("q"))

		dtos := make([]favoriteDTO, 0, len(entries))
		for _, e := range entries {
			dtos = append(dtos, favoriteDTO{
				Role:     string(e.Role),
				Content:  e.Content,
				Platform: string(e.Platform),
				Path:     e.Path,
				SavedAt:  e.SavedAt,
			})
		}
		writeJSON(w, http.StatusOK, favoritesResponse{
			Count:     len(dtos),
			Favorites: dtos,
		})
	}
}
