// Package member manages workspace membership rows.
package member

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

// Service handles membership workflows.
type Service struct {
	repo   repository.MemberRepository
	audit  AuditLog
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.MemberRepository, audit AuditLog, logger *slog.Logger) Service {
	return Service{repo: repo, audit: audit, logger: logger}
}

// CreateInput links a user to a workspace with a role.
type CreateInput struct {
	WorkspaceID string      `json:"workspaceId"`
	UserID      string      `json:"userId"`
	Role        domain.Role `json:"role"`
}

// failure maps a store error onto the envelope taxonomy and records the
// unexpected ones in the platform log.
func (s Service) failure(ctx context.Context, err error) result.Result[domain.WorkspaceMember] {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return result.Fail[domain.WorkspaceMember](http.StatusConflict, result.DuplicateEntry)
	case errors.Is(err, repository.ErrNotFound):
		return result.NotFound[domain.WorkspaceMember]("")
	default:
		if audit := s.audit.Create(ctx, err.Error()); audit.Err() != "" {
			s.logger.Warn("failed to record membership failure", "error", audit.Err())
		}
		return result.Normalize[domain.WorkspaceMember](err)
	}
}

// Create adds a user to a workspace. An existing membership for the same pair
// is the conflict-shaped envelope; success is 201.
func (s Service) Create(ctx context.Context, in CreateInput) result.Result[domain.WorkspaceMember] {
	existing, err := s.repo.GetMember(ctx, in.WorkspaceID, in.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return s.failure(ctx, err)
	}
	if existing != nil {
		return result.Fail[domain.WorkspaceMember](http.StatusConflict, result.DuplicateEntry)
	}

	m := &domain.WorkspaceMember{
		ID:          uuid.NewString(),
		WorkspaceID: in.WorkspaceID,
		UserID:      in.UserID,
		Role:        in.Role,
	}
	if err := s.repo.CreateMember(ctx, m); err != nil {
		return s.failure(ctx, err)
	}
	s.logger.Info("workspace member added", "workspace_id", in.WorkspaceID, "user_id", in.UserID, "role", in.Role)
	return result.Created(*m)
}

// GetByUser returns the membership held by a user.
func (s Service) GetByUser(ctx context.Context, userID string) result.Result[domain.WorkspaceMember] {
	m, err := s.repo.GetMemberByUser(ctx, userID)
	if err != nil {
		return s.failure(ctx, err)
	}
	return result.OK(*m)
}

// UpdateRole changes the role on an existing membership.
func (s Service) UpdateRole(ctx context.Context, workspaceID, userID string, role domain.Role) result.Result[domain.WorkspaceMember] {
	existing, err := s.repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return s.failure(ctx, err)
	}
	m, err := s.repo.UpdateMemberRole(ctx, existing.ID, role)
	if err != nil {
		return s.failure(ctx, err)
	}
	return result.OK(*m)
}

// Delete removes a membership row and returns it.
func (s Service) Delete(ctx context.Context, workspaceID, userID string) result.Result[domain.WorkspaceMember] {
	existing, err := s.repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return s.failure(ctx, err)
	}
	m, err := s.repo.DeleteMember(ctx, existing.ID)
	if err != nil {
		return s.failure(ctx, err)
	}
	s.logger.Info("workspace member removed", "workspace_id", workspaceID, "user_id", userID)
	return result.OK(*m)
}
