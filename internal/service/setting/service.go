// Package setting manages the per-workspace seat and review limits.
package setting

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/google/uuid"

	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/result"
)

// AuditLog records unexpected failures as platform log lines; satisfied by
// the logs service.
type AuditLog interface {
	Create(ctx context.Context, description string) result.Result[domain.PlatformLog]
}

// Service handles workspace-settings workflows.
type Service struct {
	repo   repository.SettingRepository
	audit  AuditLog
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.SettingRepository, audit AuditLog, logger *slog.Logger) Service {
	return Service{repo: repo, audit: audit, logger: logger}
}

// CreateInput carries the limits of a new settings row.
type CreateInput struct {
	WorkspaceID      string `json:"-"`
	MaxManagers      int    `json:"maxManagers"`
	MaxCollaborators int    `json:"maxCollaborators"`
	FeatureReviewers int    `json:"featureReviewers"`
}

// UpdateInput carries a partial limits update; nil fields keep their value.
type UpdateInput struct {
	WorkspaceID      string `json:"-"`
	MaxManagers      *int   `json:"maxManagers"`
	MaxCollaborators *int   `json:"maxCollaborators"`
	FeatureReviewers *int   `json:"featureReviewers"`
}

// failure maps a store error onto the envelope taxonomy and records the
// unexpected ones in the platform log.
func failure[T any](ctx context.Context, s Service, err error) result.Result[T] {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return result.Fail[T](http.StatusConflict, result.DuplicateEntry)
	case errors.Is(err, repository.ErrNotFound):
		return result.NotFound[T]("")
	default:
		if audit := s.audit.Create(ctx, err.Error()); audit.Err() != "" {
			s.logger.Warn("failed to record workspace settings failure", "error", audit.Err())
		}
		return result.Normalize[T](err)
	}
}

// Create registers the settings row of a workspace. A workspace that already
// has one is the conflict-shaped envelope; success is 201.
func (s Service) Create(ctx context.Context, in CreateInput) result.Result[domain.WorkspaceSetting] {
	existing, err := s.repo.GetSettingByWorkspace(ctx, in.WorkspaceID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return failure[domain.WorkspaceSetting](ctx, s, err)
	}
	if existing != nil {
		return result.Fail[domain.WorkspaceSetting](http.StatusConflict, result.DuplicateEntry)
	}

	row := &domain.WorkspaceSetting{
		ID:               uuid.NewString(),
		WorkspaceID:      in.WorkspaceID,
		MaxManagers:      in.MaxManagers,
		MaxCollaborators: in.MaxCollaborators,
		FeatureReviewers: in.FeatureReviewers,
	}
	if err := s.repo.CreateSetting(ctx, row); err != nil {
		return failure[domain.WorkspaceSetting](ctx, s, err)
	}
	s.logger.Info("workspace settings created", "workspace_id", in.WorkspaceID)
	return result.Created(*row)
}

// GetByWorkspace fetches the settings row owned by a workspace.
func (s Service) GetByWorkspace(ctx context.Context, workspaceID string) result.Result[domain.WorkspaceSetting] {
	row, err := s.repo.GetSettingByWorkspace(ctx, workspaceID)
	if err != nil {
		return failure[domain.WorkspaceSetting](ctx, s, err)
	}
	return result.OK(*row)
}

// Update applies a partial limits update on top of the stored row.
func (s Service) Update(ctx context.Context, in UpdateInput) result.Result[domain.WorkspaceSetting] {
	current, err := s.repo.GetSettingByWorkspace(ctx, in.WorkspaceID)
	if err != nil {
		return failure[domain.WorkspaceSetting](ctx, s, err)
	}
	if in.MaxManagers != nil {
		current.MaxManagers = *in.MaxManagers
	}
	if in.MaxCollaborators != nil {
		current.MaxCollaborators = *in.MaxCollaborators
	}
	if in.FeatureReviewers != nil {
		current.FeatureReviewers = *in.FeatureReviewers
	}
	updated, err := s.repo.UpdateSetting(ctx, current)
	if err != nil {
		return failure[domain.WorkspaceSetting](ctx, s, err)
	}
	return result.OK(*updated)
}

// Delete removes the settings row of a workspace and returns it.
func (s Service) Delete(ctx context.Context, workspaceID string) result.Result[domain.WorkspaceSetting] {
	row, err := s.repo.DeleteSettingByWorkspace(ctx, workspaceID)
	if err != nil {
		return failure[domain.WorkspaceSetting](ctx, s, err)
	}
	s.logger.Info("workspace settings deleted", "workspace_id", workspaceID)
	return result.OK(*row)
}
