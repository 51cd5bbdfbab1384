// Package credential implements the envelope-returning store adapter for
// login records. Plaintext passwords enter here and leave only as hashes.
package credential

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/google/uuid"

	"github.com/launchlane/launchlane/internal/crypto"
	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/result"
)

// Service handles credential CRUD workflows.
type Service struct {
	repo   repository.CredentialRepository
	hasher *crypto.Hasher
	logger *slog.Logger
}

// New constructs a Service.
func New(repo repository.CredentialRepository, hasher *crypto.Hasher, logger *slog.Logger) Service {
	return Service{repo: repo, hasher: hasher, logger: logger}
}

// CreateInput carries the fields of a new login record. Password is plaintext
// and is hashed before it reaches the store.
type CreateInput struct {
	UserID        string
	Password      string
	OnBoarding    bool
	VerifiedEmail bool
	PrivacyPolicy bool
	Role          domain.Role
}

// FlagsInput replaces the onboarding and consent flags of a credential.
type FlagsInput struct {
	UserID        string `json:"-"`
	OnBoarding    bool   `json:"onBoarding"`
	VerifiedEmail bool   `json:"verifiedEmail"`
	PrivacyPolicy bool   `json:"privacyPolicy"`
}

func failure[T any](err error) result.Result[T] {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return result.Fail[T](http.StatusConflict, result.DuplicateEntry)
	case errors.Is(err, repository.ErrNotFound):
		return result.NotFound[T]("")
	default:
		return result.Normalize[T](err)
	}
}

// Create hashes the password and stores the login record. A second credential
// for the same user surfaces as the conflict-shaped envelope.
func (s Service) Create(ctx context.Context, in CreateInput) result.Result[domain.Credential] {
	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return result.Normalize[domain.Credential](err)
	}
	cred := &domain.Credential{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Password:      hash,
		OnBoarding:    in.OnBoarding,
		VerifiedEmail: in.VerifiedEmail,
		PrivacyPolicy: in.PrivacyPolicy,
		Role:          in.Role,
	}
	if err := s.repo.CreateCredential(ctx, cred); err != nil {
		return failure[domain.Credential](err)
	}
	s.logger.Info("credential created", "user_id", in.UserID, "role", in.Role)
	return result.OK(*cred)
}

// GetByUserID fetches the credential owned by a user.
func (s Service) GetByUserID(ctx context.Context, userID string) result.Result[domain.Credential] {
	cred, err := s.repo.GetCredentialByUserID(ctx, userID)
	if err != nil {
		return failure[domain.Credential](err)
	}
	return result.OK(*cred)
}

// UpdateFlags replaces the onboarding and consent flags.
func (s Service) UpdateFlags(ctx context.Context, in FlagsInput) result.Result[domain.Credential] {
	cred, err := s.repo.UpdateCredentialFlags(ctx, in.UserID, in.OnBoarding, in.VerifiedEmail, in.PrivacyPolicy)
	if err != nil {
		return failure[domain.Credential](err)
	}
	return result.OK(*cred)
}

// UpdatePassword hashes and stores a new password.
func (s Service) UpdatePassword(ctx context.Context, userID, password string) result.Result[domain.Credential] {
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return result.Normalize[domain.Credential](err)
	}
	cred, err := s.repo.UpdateCredentialPassword(ctx, userID, hash)
	if err != nil {
		return failure[domain.Credential](err)
	}
	s.logger.Info("credential password rotated", "user_id", userID)
	return result.OK(*cred)
}

// UpdateRole stores a new role on the credential.
func (s Service) UpdateRole(ctx context.Context, userID string, role domain.Role) result.Result[domain.Credential] {
	cred, err := s.repo.UpdateCredentialRole(ctx, userID, role)
	if err != nil {
		return failure[domain.Credential](err)
	}
	s.logger.Info("credential role changed", "user_id", userID, "role", role)
	return result.OK(*cred)
}
