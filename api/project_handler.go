package api

import (
	"net/http"
	"strings"

	"github.com/Amar2502/portfolio-backend/errs"
	"github.com/Amar2502/portfolio-backend/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type projectHandler struct {
	responder Responder
	logger    zerolog.Logger
	projects  []models.Project
}

func newProjectHandler(projects []models.Project) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	if projects == nil {
		projects = []models.Project{}
	}
	return projectHandler{
		responder: NewResponder(logger),
		logger:    logger,
		projects:  projects,
	}
}

// getAllProjects returns the project catalog, optionally narrowed to one tag
// @Summary Get all projects
// @Tags Projects
// @Produce json
// @Param tag query string false "Exact tag match"
// @Success 200 {array} models.Project
// @Router /projects [get]
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tag := strings.TrimSpace(r.URL.Query().Get("tag"))
		if tag == "" {
			h.responder.WriteJSON(w, h.projects)
			return
		}

		matching := []models.Project{}
		for _, project := range h.projects {
			for _, projectTag := range project.Tags {
				if projectTag == tag {
					matching = append(matching, project)
					break
				}
			}
		}
		h.responder.WriteJSON(w, matching)
	}
}

// getProject retrieves a specific project by ID
// @Summary Get project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} models.Project
// @Failure 404 {object} ErrorResponse
// @Router /projects/{projectID} [get]
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := strings.TrimSpace(chi.URLParam(r, "projectID"))

		for _, project := range h.projects {
			if project.ID == projectID {
				h.responder.WriteJSON(w, project)
				return
			}
		}

		h.responder.WriteError(w, errs.NewNotFound("project"))
	}
}
