package api

import (
	"github.com/Amar2502/portfolio-backend/database"
)

type routeHandlers struct {
	blogPostHandler blogPostHandler
	projectHandler  projectHandler
	contactHandler  contactHandler
	uploadHandler   uploadHandler
	adminGate       adminGate
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, svc Services, gate adminGate) *routeHandlers {
	return &routeHandlers{
		blogPostHandler: newBlogPostHandler(db.Posts()),
		projectHandler:  newProjectHandler(svc.Projects),
		contactHandler:  newContactHandler(svc.Contact, svc.RateLimiter),
		uploadHandler:   newUploadHandler(svc.Uploader),
		adminGate:       gate,
	}
}
