package model

import "time"

// Project is a portfolio entry shown in the public grid.
type Project struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags"`
	ImageURL      string    `json:"imageUrl"`
	ImagePublicID string    `json:"imagePublicId,omitempty"` // set only for uploaded images
	LiveURL       string    `json:"liveUrl,omitempty"`
	RepoURL       string    `json:"repoUrl,omitempty"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	// Transient: derived from Description, not stored
	Summary string `json:"summary,omitempty"`
}

// HasUploadedImage reports whether the image is a hosted asset rather than
// the placeholder.
func (p *Project) HasUploadedImage() bool {
	return p.ImagePublicID != ""
}

// ProjectInput is the admin-editable part of a project.
type ProjectInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=20000"`
	Tags        []string `json:"tags" validate:"max=30,dive,required,max=50"`
	LiveURL     string   `json:"liveUrl" validate:"omitempty,url"`
	RepoURL     string   `json:"repoUrl" validate:"omitempty,url"`
	Featured    bool     `json:"featured"`
}

// ProjectFilter narrows the public project list.
type ProjectFilter struct {
	// Tag matches case-insensitively against any element of Tags.
	Tag          string
	FeaturedOnly bool
}
