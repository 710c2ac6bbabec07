package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/threadly/threadly/internal/engine"
	"github.com/threadly/threadly/internal/httpserver/deps"
	"github.com/threadly/threadly/internal/monitor"
)

type componentStatus struct {
	OK       bool   `json:"ok"`
	Platform string `json:"platform,omitempty"`
	Path     string `json:"path,omitempty"`
	Monitor  string `json:"monitor,omitempty"`
	Messages *int   `json:"messages,omitempty"`
	Count    *int   `json:"count,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Error    string `json:"error,omitempty"`
}

type statsResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Stats reports the capture pipeline's operational state: the active
// session, the favorites index, and the persistence backend.
func Stats(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"session":   sessionStatus(d),
			"favorites": favoritesStatus(d),
			"redis":     redisStatus(d),
		}

		writeJSON(w, http.StatusOK, statsResponse{
			Mode:       overallMode(components),
			Components: components,
		})
	}
}

func sessionStatus(d deps.Deps) componentStatus {
	state := d.Session.MonitorState()
	eng := d.Session.Engine()
	if eng == nil {
		return componentStatus{
			OK:      true,
			Monitor: state.String(),
			Mode:    "idle",
		}
	}

	_, total := eng.Messages(engine.Filter{})
	return componentStatus{
		OK:       state != monitor.StateGaveUp,
		Platform: string(eng.Platform()),
		Path:     eng.Path(),
		Monitor:  state.String(),
		Messages: &total,
	}
}

func favoritesStatus(d deps.Deps) componentStatus {
	count := d.Favorites.Count()
	return componentStatus{OK: true, Count: &count}
}

func redisStatus(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:   true,
			Mode: "memory-only",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:    false,
			Mode:  "degraded",
			Error: err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "persistent"}
}

func overallMode(components map[string]componentStatus) string {
	session := components["session"]
	if session.Monitor == monitor.StateGaveUp.String() {
		return "degraded"
	}
	if session.Mode == "idle" {
		return "idle"
	}
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "degraded"
	}
	return "capturing"
}
