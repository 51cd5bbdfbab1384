// Package workspace implements CRUD for product workspaces.
package workspace

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"

	"log/slog"

	"github.com/google/uuid"

	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/result"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 9
)

// createAttempts bounds the join-code regeneration loop on collisions.
const createAttempts = 5

// AuditLog records unexpected failures as platform log lines; satisfied by
// the logs service.
type AuditLog interface {
	Create(ctx context.Context, description string) result.Result[domain.PlatformLog]
}

// Service handles workspace workflows.
type Service struct {
	repo   repository.WorkspaceRepository
	audit  AuditLog
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.WorkspaceRepository, audit AuditLog, logger *slog.Logger) Service {
	return Service{repo: repo, audit: audit, logger: logger}
}

// CreateInput carries the fields of a new workspace; the code is generated
// server-side.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Repository  string `json:"repository"`
	Logo        []byte `json:"logo,omitempty"`
}

// UpdateInput carries a partial workspace update; nil fields keep their value.
type UpdateInput struct {
	ID          string  `json:"-"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Repository  *string `json:"repository"`
	Logo        []byte  `json:"logo"`
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
			s.logger.Warn("failed to record workspace failure", "error", audit.Err())
		}
		return result.Normalize[T](err)
	}
}

// generateCode builds the 9-character uppercase join code.
func generateCode() string {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}

// Create registers a workspace with a fresh join code. A code collision
// regenerates the code and retries the insert; success is 201.
func (s Service) Create(ctx context.Context, in CreateInput) result.Result[domain.Workspace] {
	ws := &domain.Workspace{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Repository:  in.Repository,
		Logo:        in.Logo,
	}
	var err error
	for attempt := 0; attempt < createAttempts; attempt++ {
		ws.Code = generateCode()
		err = s.repo.CreateWorkspace(ctx, ws)
		if err == nil {
			s.logger.Info("workspace created", "workspace_id", ws.ID, "code", ws.Code)
			return result.Created(*ws)
		}
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
	}
	return failure[domain.Workspace](ctx, s, err)
}

// GetByID fetches one workspace.
func (s Service) GetByID(ctx context.Context, id string) result.Result[domain.Workspace] {
	ws, err := s.repo.GetWorkspaceByID(ctx, id)
	if err != nil {
		return failure[domain.Workspace](ctx, s, err)
	}
	return result.OK(*ws)
}

// List returns every workspace ordered by name.
func (s Service) List(ctx context.Context) result.Result[[]domain.Workspace] {
	workspaces, err := s.repo.ListWorkspaces(ctx)
	if err != nil {
		return failure[[]domain.Workspace](ctx, s, err)
	}
	return result.OK(workspaces)
}

// Update applies a partial update; the join code never changes.
func (s Service) Update(ctx context.Context, in UpdateInput) result.Result[domain.Workspace] {
	current, err := s.repo.GetWorkspaceByID(ctx, in.ID)
	if err != nil {
		return failure[domain.Workspace](ctx, s, err)
	}
	if in.Name != nil {
		current.Name = *in.Name
	}
	if in.Description != nil {
		current.Description = *in.Description
	}
	if in.Repository != nil {
		current.Repository = *in.Repository
	}
	if in.Logo != nil {
		current.Logo = in.Logo
	}
	updated, err := s.repo.UpdateWorkspace(ctx, current)
	if err != nil {
		return failure[domain.Workspace](ctx, s, err)
	}
	return result.OK(*updated)
}

// Delete removes a workspace and returns the deleted row.
func (s Service) Delete(ctx context.Context, id string) result.Result[domain.Workspace] {
	ws, err := s.repo.DeleteWorkspace(ctx, id)
	if err != nil {
		return failure[domain.Workspace](ctx, s, err)
	}
	s.logger.Info("workspace deleted", "workspace_id", id)
	return result.OK(*ws)
}
