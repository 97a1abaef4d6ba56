package models

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Project is a portfolio entry shown on the projects page.
type Project struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	GithubURL   string   `json:"githubUrl"`
	LiveURL     string   `json:"liveUrl,omitempty"`
	Image       string   `json:"image,omitempty"`
	Date        string   `json:"date"`
}

//go:embed projects.json
var projectCatalog []byte

// LoadProjects decodes a project catalog. A nil or empty source falls back to the embedded one.
func LoadProjects(source []byte) ([]Project, error) {
	if len(source) == 0 {
		source = projectCatalog
	}

	var projects []Project
	if err := json.Unmarshal(source, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode project catalog: %w", err)
	}
	return projects, nil
}
