package handlers

import (
	"net/http"

	"github.com/threadly/threadly/internal/httpserver/deps"
	"github.com/threadly/threadly/internal/logger"
)

type reloadResponse struct {
	Status string `json:"status"`
}

// ReloadRules re-reads the rules file and applies it to the registry. The
// previous rule set stays in effect when the file fails to parse.
func ReloadRules(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Loader == nil {
			writeError(w, http.StatusConflict, "no rules file configured")
			return
		}

		if err := d.Loader.LoadInto(d.Registry); err != nil {
			d.Logger.Warn("manual rules reload failed, keeping previous rules",
				logger.Error(err))
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		d.Logger.Info("rules reloaded via endpoint",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusOK, reloadResponse{Status: "reloaded"})
	}
}
