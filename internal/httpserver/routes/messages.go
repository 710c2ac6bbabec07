package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/threadly/threadly/internal/httpserver/deps"
	"github.com/threadly/threadly/internal/httpserver/handlers"
)

func init() { Register(registerMessages) }

func registerMessages(r chi.Router, d deps.Deps) {
	r.Get("/messages", handlers.Messages(d))
}
