// Package feature implements CRUD for platform feature flags.
package feature

import (
	"context"
	"errors"
	"net/http"
	"time"

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

// Service handles feature-flag workflows.
type Service struct {
	repo   repository.FeatureRepository
	audit  AuditLog
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.FeatureRepository, audit AuditLog, logger *slog.Logger) Service {
	return Service{repo: repo, audit: audit, logger: logger}
}

// CreateInput carries the fields of a new flag; Enabled defaults to false.
type CreateInput struct {
	Feature string `json:"feature"`
	Enabled *bool  `json:"enabled"`
}

// UpdateInput carries a partial flag update; nil fields keep their value.
type UpdateInput struct {
	ID      string  `json:"-"`
	Feature *string `json:"feature"`
	Enabled *bool   `json:"enabled"`
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
			s.logger.Warn("failed to record feature failure", "error", audit.Err())
		}
		return result.Normalize[T](err)
	}
}

// Create registers a feature flag.
func (s Service) Create(ctx context.Context, in CreateInput) result.Result[domain.PlatformFeature] {
	enabled := false
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	f := &domain.PlatformFeature{
		ID:        uuid.NewString(),
		Feature:   in.Feature,
		Enabled:   enabled,
		CreatedOn: time.Now().UTC(),
	}
	if err := s.repo.CreateFeature(ctx, f); err != nil {
		return failure[domain.PlatformFeature](ctx, s, err)
	}
	s.logger.Info("feature flag created", "feature", f.Feature, "enabled", f.Enabled)
	return result.OK(*f)
}

// GetByID fetches one flag.
func (s Service) GetByID(ctx context.Context, id string) result.Result[domain.PlatformFeature] {
	f, err := s.repo.GetFeatureByID(ctx, id)
	if err != nil {
		return failure[domain.PlatformFeature](ctx, s, err)
	}
	return result.OK(*f)
}

// List returns every flag ordered by name.
func (s Service) List(ctx context.Context) result.Result[[]domain.PlatformFeature] {
	features, err := s.repo.ListFeatures(ctx)
	if err != nil {
		return failure[[]domain.PlatformFeature](ctx, s, err)
	}
	return result.OK(features)
}

// Update applies a partial flag update.
func (s Service) Update(ctx context.Context, in UpdateInput) result.Result[domain.PlatformFeature] {
	current, err := s.repo.GetFeatureByID(ctx, in.ID)
	if err != nil {
		return failure[domain.PlatformFeature](ctx, s, err)
	}
	if in.Feature != nil {
		current.Feature = *in.Feature
	}
	if in.Enabled != nil {
		current.Enabled = *in.Enabled
	}
	updated, err := s.repo.UpdateFeature(ctx, current)
	if err != nil {
		return failure[domain.PlatformFeature](ctx, s, err)
	}
	s.logger.Info("feature flag updated", "feature", updated.Feature, "enabled", updated.Enabled)
	return result.OK(*updated)
}

// Delete removes a flag and returns it.
func (s Service) Delete(ctx context.Context, id string) result.Result[domain.PlatformFeature] {
	f, err := s.repo.DeleteFeature(ctx, id)
	if err != nil {
		return failure[domain.PlatformFeature](ctx, s, err)
	}
	s.logger.Info("feature flag deleted", "feature", f.Feature)
	return result.OK(*f)
}
