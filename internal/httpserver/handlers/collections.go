package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/threadly/threadly/internal/httpserver/deps"
	"github.com/threadly/threadly/internal/index"
	"github.com/threadly/threadly/internal/logger"
)

type collectionDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

type collectionsResponse struct {
	Collections []collectionDTO `json:"collections"`
}

// Collections lists every collection, oldest first.
func Collections(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all := d.Favorites.Collections()
		dtos := make([]collectionDTO, 0, len(all))
		for _, c := range all {
			dtos = append(dtos, collectionDTO{
				ID:        c.ID,
				Name:      c.Name,
				Platform:  string(c.Platform),
				CreatedAt: c.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, collectionsResponse{Collections: dtos})
	}
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

// CreateCollection creates a collection tagged with the active platform.
func CreateCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng := d.Session.Engine()
		if eng == nil {
			writeError(w, http.StatusConflict, "no active conversation")
			return
		}

		var req createCollectionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		c, err := eng.CreateCollection(req.Name)
		if err != nil {
			if errors.Is(err, index.ErrEmptyCollectionName) {
				writeError(w, http.StatusBadRequest, "collection name must not be empty")
				return
			}
			writeError(w, http.StatusInternalServerError, "create failed")
			return
		}

		d.Logger.Info("collection created",
			logger.String("id", c.ID),
			logger.String("name", c.Name))

		writeJSON(w, http.StatusCreated, collectionDTO{
			ID:        c.ID,
			Name:      c.Name,
			Platform:  string(c.Platform),
			CreatedAt: c.CreatedAt,
		})
	}
}

type assignRequest struct {
	Keys         []string `json:"keys"`
	CollectionID string   `json:"collection_id"`
}

type assignResponse struct {
	Assigned int `json:"assigned"`
}

// AssignToCollection tags the referenced snapshot messages with a collection
// identifier. Keys come from the messages listing; unknown keys are skipped.
// An empty collection_id clears the assignment.
func AssignToCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng := d.Session.Engine()
		if eng == nil {
			writeError(w, http.StatusConflict, "no active conversation")
			return
		}

		var req assignRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if len(req.Keys) == 0 {
			writeError(w, http.StatusBadRequest, "keys must not be empty")
			return
		}

		assigned := eng.AssignToCollection(req.Keys, req.CollectionID)
		writeJSON(w, http.StatusOK, assignResponse{Assigned: assigned})
	}
}
