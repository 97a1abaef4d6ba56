package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes mounts the public read routes and the gated editor routes.
func setupRoutes(r chi.Router, handlers *routeHandlers, health healthHandler, logRequests bool) {
	r.Group(func(r chi.Router) {
		if logRequests {
			r.Use(ColoredHTTPLoggingMiddleware)
		}

		r.Get("/health", health.check())

		r.Get("/posts", handlers.blogPostHandler.listPosts())
		r.Get("/posts/{id}", handlers.blogPostHandler.getPost())
		r.Get("/tags", handlers.blogPostHandler.listTags())

		r.Get("/projects", handlers.projectHandler.getAllProjects())
		r.Get("/projects/{projectID}", handlers.projectHandler.getProject())

		r.Post("/contact", handlers.contactHandler.sendMessage())
		r.Post("/admin/session", handlers.adminGate.createSession())

		r.Group(func(r chi.Router) {
			r.Use(handlers.adminGate.require)

			r.Post("/posts", handlers.blogPostHandler.createPost())
			r.Put("/posts", handlers.blogPostHandler.updatePost())
			r.Put("/posts/{id}", handlers.blogPostHandler.updatePost())
			r.Delete("/posts", handlers.blogPostHandler.deletePost())
			r.Delete("/posts/{id}", handlers.blogPostHandler.deletePost())

			r.Post("/upload", handlers.uploadHandler.uploadImage())
		})
	})
}
