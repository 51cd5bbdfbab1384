// Package code implements CRUD for platform invite codes.
package code

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

// Service handles invite-code workflows.
type Service struct {
	repo   repository.CodeRepository
	audit  AuditLog
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.CodeRepository, audit AuditLog, logger *slog.Logger) Service {
	return Service{repo: repo, audit: audit, logger: logger}
}

// CreateInput carries a new invite code; a nil ValidUntilDate expires the
// code immediately.
type CreateInput struct {
	Code           string     `json:"code"`
	ValidUntilDate *time.Time `json:"validUntilDate"`
}

// UpdateInput carries a partial code update; nil fields keep their value.
type UpdateInput struct {
	ID             string     `json:"-"`
	Code           *string    `json:"code"`
	ValidUntilDate *time.Time `json:"validUntilDate"`
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
			s.logger.Warn("failed to record invite code failure", "error", audit.Err())
		}
		return result.Normalize[T](err)
	}
}

// Create registers an invite code. A code string already on record is the
// conflict-shaped envelope; success is 201.
func (s Service) Create(ctx context.Context, in CreateInput) result.Result[domain.PlatformCode] {
	existing, err := s.repo.GetCodeByValue(ctx, in.Code)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return failure[domain.PlatformCode](ctx, s, err)
	}
	if existing != nil {
		return result.Fail[domain.PlatformCode](http.StatusConflict, result.DuplicateEntry)
	}

	validUntil := time.Now().UTC()
	if in.ValidUntilDate != nil {
		validUntil = *in.ValidUntilDate
	}
	c := &domain.PlatformCode{
		ID:             uuid.NewString(),
		Code:           in.Code,
		CreatedOn:      time.Now().UTC(),
		ValidUntilDate: validUntil,
	}
	if err := s.repo.CreateCode(ctx, c); err != nil {
		return failure[domain.PlatformCode](ctx, s, err)
	}
	s.logger.Info("invite code created", "code", c.Code, "valid_until", c.ValidUntilDate)
	return result.Created(*c)
}

// GetByID fetches one invite code.
func (s Service) GetByID(ctx context.Context, id string) result.Result[domain.PlatformCode] {
	c, err := s.repo.GetCodeByID(ctx, id)
	if err != nil {
		return failure[domain.PlatformCode](ctx, s, err)
	}
	return result.OK(*c)
}

// List returns every invite code, newest first.
func (s Service) List(ctx context.Context) result.Result[[]domain.PlatformCode] {
	codes, err := s.repo.ListCodes(ctx)
	if err != nil {
		return failure[[]domain.PlatformCode](ctx, s, err)
	}
	return result.OK(codes)
}

// Update applies a partial update on top of the stored code.
func (s Service) Update(ctx context.Context, in UpdateInput) result.Result[domain.PlatformCode] {
	current, err := s.repo.GetCodeByID(ctx, in.ID)
	if err != nil {
		return failure[domain.PlatformCode](ctx, s, err)
	}
	if in.Code != nil {
		current.Code = *in.Code
	}
	if in.ValidUntilDate != nil {
		current.ValidUntilDate = *in.ValidUntilDate
	}
	updated, err := s.repo.UpdateCode(ctx, current)
	if err != nil {
		return failure[domain.PlatformCode](ctx, s, err)
	}
	return result.OK(*updated)
}

// Delete removes an invite code; success is the bodyless 204 envelope.
func (s Service) Delete(ctx context.Context, id string) result.Result[domain.PlatformCode] {
	if err := s.repo.DeleteCode(ctx, id); err != nil {
		return failure[domain.PlatformCode](ctx, s, err)
	}
	s.logger.Info("invite code deleted", "code_id", id)
	return result.New[domain.PlatformCode](http.StatusNoContent, nil, "")
}

// Validate reports whether a code string is on record and not yet expired.
// Store failures read as invalid after being recorded in the platform log.
func (s Service) Validate(ctx context.Context, codeValue string) bool {
	c, err := s.repo.GetCodeByValue(ctx, codeValue)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			if audit := s.audit.Create(ctx, err.Error()); audit.Err() != "" {
				s.logger.Warn("failed to record invite code failure", "error", audit.Err())
			}
		}
		return false
	}
	return c.ValidUntilDate.After(time.Now())
}
