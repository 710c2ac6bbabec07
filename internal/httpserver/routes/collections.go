package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/threadly/threadly/internal/httpserver/deps"
	"github.com/threadly/threadly/internal/httpserver/handlers"
)

func init() { Register(registerCollections) }

func registerCollections(r chi.Router, d deps.Deps) {
	r.Get("/collections", handlers.Collections(d))
	r.Post("/collections", handlers.CreateCollection(d))
	r.Post("/collections/assign", handlers.AssignToCollection(d))
}
