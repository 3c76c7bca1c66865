// Package seed loads portfolio projects from YAML files into the live store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/folio/backend/internal/model"
	"github.com/folio/backend/internal/service"
	"gopkg.in/yaml.v3"
)

// File is the on-disk format:
//
//	projects:
//	  - title: Folio
//	    description: Portfolio backend
//	    tags: [Go, PostgreSQL]
//	    featured: true
type File struct {
	Projects []Project `yaml:"projects"`
}

// Project is one seed entry.
type Project struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	LiveURL     string   `yaml:"liveUrl"`
	RepoURL     string   `yaml:"repoUrl"`
	Featured    bool     `yaml:"featured"`
}

// Input converts the entry to service input.
func (p Project) Input() model.ProjectInput {
	return model.ProjectInput{
		Title:       p.Title,
		Description: p.Description,
		Tags:        p.Tags,
		LiveURL:     p.LiveURL,
		RepoURL:     p.RepoURL,
		Featured:    p.Featured,
	}
}

// Parse decodes a seed file. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, p := range f.Projects {
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("parse seed file: projects[%d]: title is required", i)
		}
	}
	return &f, nil
}

// Result summarises an Apply run.
type Result struct {
	Created []string
	Skipped []string
}

// Apply creates every project whose title is not already in the store.
// Matching is case-insensitive so re-running a seed is harmless.
func Apply(ctx context.Context, projects service.ProjectService, f *File, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	existing, err := projects.List(ctx, model.ProjectFilter{})
	if err != nil {
		return nil, fmt.Errorf("list existing projects: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[strings.ToLower(strings.TrimSpace(p.Title))] = true
	}

	res := &Result{}
	for _, p := range f.Projects {
		key := strings.ToLower(strings.TrimSpace(p.Title))
		if seen[key] {
			res.Skipped = append(res.Skipped, p.Title)
			continue
		}
		created, err := projects.Create(ctx, service.ProjectChange{Input: p.Input()})
		if err != nil {
			return res, fmt.Errorf("seed %q: %w", p.Title, err)
		}
		seen[key] = true
		res.Created = append(res.Created, created.ID)
		logger.Info("seeded project", "id", created.ID, "title", created.Title)
	}
	return res, nil
}
