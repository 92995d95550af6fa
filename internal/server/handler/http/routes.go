package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/foodsai/internal/middleware"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Inventory  *InventoryHandler
	Categories *CategoryHandler
	Recipes    *RecipeHandler
	History    *HistoryHandler
	Icons      *IconHandler
	Data       *DataHandler
	Session    *SessionHandler
}

// NewRouter constructs and returns an HTTP handler that serves the local
// store API under /api.
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json"): rejects non-JSON bodies
//  2. WithRequestLogging(logger): logs every request
//  3. WithSession(users): puts the current user id in the context
//
// The /api/session routes are public; everything else needs an active guest
// or account session.
func NewRouter(h Handlers, users middleware.UserResolver, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithSession(users))

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.Session.Status)
			r.Post("/guest", h.Session.EnterGuest)
			r.Delete("/guest", h.Session.ExitGuest)
			r.Post("/login", h.Session.Login)
			r.Post("/complete", h.Session.Complete)
			r.Post("/logout", h.Session.Logout)
			r.Post("/migrate", h.Session.Migrate)
			r.Get("/migration", h.Session.Migration)
			r.Post("/migration/resume", h.Session.ResumeMigration)
			r.Delete("/migration", h.Session.DiscardMigration)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", h.Inventory.List)
				r.Post("/", h.Inventory.Create)
				r.Get("/expiring", h.Inventory.Expiring)
				r.Get("/{id}", h.Inventory.Get)
				r.Put("/{id}", h.Inventory.Update)
				r.Delete("/{id}", h.Inventory.Delete)
				r.Post("/{id}/consume", h.Inventory.Consume)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.Categories.List)
				r.Post("/", h.Categories.Create)
				r.Put("/order", h.Categories.Reorder)
				r.Put("/{id}", h.Categories.Update)
				r.Delete("/{id}", h.Categories.Delete)
			})

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", h.Recipes.List)
				r.Post("/", h.Recipes.Create)
				r.Get("/{id}", h.Recipes.Get)
				r.Put("/{id}", h.Recipes.Update)
				r.Delete("/{id}", h.Recipes.Delete)
				r.Post("/{id}/duplicate", h.Recipes.Duplicate)
				r.Post("/{id}/consume", h.Recipes.Consume)
			})

			r.Route("/history", func(r chi.Router) {
				r.Get("/", h.History.List)
				r.Post("/", h.History.Create)
				r.Get("/{id}", h.History.Get)
				r.Put("/{id}", h.History.Update)
				r.Delete("/{id}", h.History.Delete)
			})

			r.Route("/icons", func(r chi.Router) {
				r.Get("/", h.Icons.List)
				r.Post("/", h.Icons.Create)
				r.Post("/import", h.Icons.Import)
				r.Get("/export", h.Icons.Export)
				r.Get("/{id}", h.Icons.Get)
				r.Put("/{id}", h.Icons.Update)
				r.Delete("/{id}", h.Icons.Delete)
			})

			r.Get("/export", h.Data.Export)
			r.Post("/import", h.Data.Import)
			r.Delete("/data", h.Data.Clear)
			r.Get("/settings", h.Data.Settings)
			r.Put("/settings", h.Data.UpdateSettings)
			r.Post("/backups", h.Data.CreateBackup)
			r.Get("/backups/latest", h.Data.LatestBackup)
		})
	})

	return r
}
