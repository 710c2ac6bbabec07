package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/threadly/threadly/internal/httpserver/deps"
	"github.com/threadly/threadly/internal/httpserver/handlers"
)

func init() { Register(registerFavorites) }

func registerFavorites(r chi.Router, d deps.Deps) {
	r.Get("/favorites", handlers.Favorites(d))
	r.Post("/favorites/toggle", handlers.ToggleFavorite(d))
}
