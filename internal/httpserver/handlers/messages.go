package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/threadly/threadly/internal/domain"
	"github.com/threadly/threadly/internal/engine"
	"github.com/threadly/threadly/internal/httpserver/deps"
)

type messageDTO struct {
	Key          string    `json:"key"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	CapturedAt   time.Time `json:"captured_at"`
	Favorited    bool      `json:"favorited"`
	CollectionID string    `json:"collection_id,omitempty"`
}

type messagesResponse struct {
	Platform string       `json:"platform"`
	Path     string       `json:"path"`
	Monitor  string       `json:"monitor"`
	Total    int          `json:"total"`
	Messages []messageDTO `json:"messages"`
}

// Messages serves the panel's conversation view. Filters are query params:
// role, q (substring), collection, favorites=true. Total is always the
// unfiltered snapshot size so the panel can tell "nothing captured" apart
// from "nothing matches the filter".
func Messages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eng := d.Session.Engine()
		monitorState := d.Session.MonitorState().String()

		if eng == nil {
			writeJSON(w, http.StatusOK, messagesResponse{
				Platform: string(domain.PlatformUnknown),
				Monitor:  monitorState,
				Messages: []messageDTO{},
			})
			return
		}

		filter, ok := parseFilter(w, r)
		if !ok {
			return
		}

		messages, total := eng.Messages(filter)
		dtos := make([]messageDTO, 0, len(messages))
		for _, msg := range messages {
			dtos = append(dtos, messageDTO{
				Key:          eng.KeyFor(msg.Role, msg.Content),
				Role:         string(msg.Role),
				Content:      msg.Content,
				CapturedAt:   msg.CapturedAt,
				Favorited:    msg.Favorited,
				CollectionID: msg.CollectionID,
			})
		}

		writeJSON(w, http.StatusOK, messagesResponse{
			Platform: string(eng.Platform()),
			Path:     eng.Path(),
			Monitor:  monitorState,
			Total:    total,
			Messages: dtos,
		})
	}
}

func parseFilter(w http.ResponseWriter, r *http.Request) (engine.Filter, bool) {
	var f engine.Filter

	if roleStr := strings.TrimSpace(r.URL.Query().Get("role")); roleStr != "" {
		role := domain.Role(roleStr)
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "role must be \"user\" or \"assistant\"")
			return f, false
		}
		f.Role = role
	}
	f.Query = r.URL.Query().Get("q")
	f.CollectionID = r.URL.Query().Get("collection")

	if favStr := r.URL.Query().Get("favorites"); favStr != "" {
		fav, err := strconv.ParseBool(favStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "favorites must be a boolean")
			return f, false
		}
		f.FavoritesOnly = fav
	}
	return f, true
}
