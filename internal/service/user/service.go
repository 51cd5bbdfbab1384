// Package user implements the envelope-returning store adapter for accounts.
package user

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

// Service handles user CRUD workflows.
type Service struct {
	repo   repository.UserRepository
	audit  AuditLog
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.UserRepository, audit AuditLog, logger *slog.Logger) Service {
	return Service{repo: repo, audit: audit, logger: logger}
}

// CreateInput carries the fields of a new account.
type CreateInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Avatar    []byte `json:"avatar,omitempty"`
}

// UpdateInput carries a partial profile update; nil fields keep their value.
type UpdateInput struct {
	ID        string  `json:"-"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Avatar    []byte  `json:"avatar"`
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
			s.logger.Warn("failed to record user failure", "error", audit.Err())
		}
		return result.Normalize[T](err)
	}
}

// Create registers an account with a server-generated id. A duplicate email
// surfaces as the conflict-shaped envelope.
func (s Service) Create(ctx context.Context, in CreateInput) result.Result[domain.User] {
	u := &domain.User{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Avatar:    in.Avatar,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return failure[domain.User](ctx, s, err)
	}
	s.logger.Info("user created", "user_id", u.ID)
	return result.OK(*u)
}

// GetByID fetches one account; absence is the empty not-found envelope.
func (s Service) GetByID(ctx context.Context, id string) result.Result[domain.User] {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return failure[domain.User](ctx, s, err)
	}
	return result.OK(*u)
}

// GetByEmail fetches one account by email address.
func (s Service) GetByEmail(ctx context.Context, email string) result.Result[domain.User] {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return failure[domain.User](ctx, s, err)
	}
	return result.OK(*u)
}

// List returns every account ordered by first name.
func (s Service) List(ctx context.Context) result.Result[[]domain.User] {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return failure[[]domain.User](ctx, s, err)
	}
	return result.OK(users)
}

// Update applies a partial profile update on top of the stored row.
func (s Service) Update(ctx context.Context, in UpdateInput) result.Result[domain.User] {
	current, err := s.repo.GetUserByID(ctx, in.ID)
	if err != nil {
		return failure[domain.User](ctx, s, err)
	}
	if in.FirstName != nil {
		current.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		current.LastName = *in.LastName
	}
	if in.Email != nil {
		current.Email = *in.Email
	}
	if in.Avatar != nil {
		current.Avatar = in.Avatar
	}
	updated, err := s.repo.UpdateUser(ctx, current)
	if err != nil {
		return failure[domain.User](ctx, s, err)
	}
	return result.OK(*updated)
}

// Delete removes an account and returns the deleted row. The owned credential
// is removed with it.
func (s Service) Delete(ctx context.Context, id string) result.Result[domain.User] {
	u, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return failure[domain.User](ctx, s, err)
	}
	s.logger.Info("user deleted", "user_id", id)
	return result.OK(*u)
}
