// Package auth composes the sign-up, sign-in and token-refresh workflows.
// Each workflow is a short linear pipeline: any failure-shaped sub-result
// returns verbatim, and a single recover boundary at the top normalizes
// whatever else escapes.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/launchlane/launchlane/internal/crypto"
	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/result"
	"github.com/launchlane/launchlane/internal/service/credential"
	"github.com/launchlane/launchlane/internal/service/user"
	"github.com/launchlane/launchlane/internal/token"
)

// UserStore is the slice of the user adapter sign-up needs.
type UserStore interface {
	Create(ctx context.Context, in user.CreateInput) result.Result[domain.User]
	Delete(ctx context.Context, id string) result.Result[domain.User]
}

// CredentialStore is the slice of the credential adapter sign-up needs.
type CredentialStore interface {
	Create(ctx context.Context, in credential.CreateInput) result.Result[domain.Credential]
}

// Directory resolves an account together with its credential; sign-in and
// refresh read through it directly.
type Directory interface {
	GetUserWithCredentialByEmail(ctx context.Context, email string) (*domain.User, *domain.Credential, error)
}

// CodeValidator checks an invite code against the platform code records;
// satisfied by the code service.
type CodeValidator interface {
	Validate(ctx context.Context, code string) bool
}

// Service orchestrates the authentication workflows.
type Service struct {
	users     UserStore
	creds     CredentialStore
	directory Directory
	codes     CodeValidator
	hasher    *crypto.Hasher
	tokens    token.Manager
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// New constructs a Service. tokenTTL is the lifetime stamped on every issued
// token; expiry is always computed here as now + tokenTTL. codes may be nil,
// which disables the invite-code gate entirely.
func New(users UserStore, creds CredentialStore, directory Directory, codes CodeValidator, hasher *crypto.Hasher, tokens token.Manager, tokenTTL time.Duration, logger *slog.Logger) Service {
	return Service{
		users:     users,
		creds:     creds,
		directory: directory,
		codes:     codes,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// SignUpInput carries the fields of a registration request. PlatformCode is
// optional; when present it must name a live invite code.
type SignUpInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Avatar       []byte
	Role         domain.Role
	PlatformCode string
}

// normalizeRecover converts a panic escaping a workflow into the
// internal-error envelope. Deferred once per workflow.
func normalizeRecover(res *result.Result[string]) {
	if v := recover(); v != nil {
		*res = result.Normalize[string](v)
	}
}

// SignUp creates the account, then its credential, then issues a token. If
// the credential step fails after the user exists, the user is deleted again
// (best-effort compensation) and the credential failure is returned verbatim.
func (s Service) SignUp(ctx context.Context, in SignUpInput) (res result.Result[string]) {
	defer normalizeRecover(&res)

	if in.PlatformCode != "" && (s.codes == nil || !s.codes.Validate(ctx, in.PlatformCode)) {
		return result.Fail[string](http.StatusForbidden, result.InvalidPlatformCode)
	}

	created := s.users.Create(ctx, user.CreateInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Avatar:    in.Avatar,
	})
	if created.Code() != http.StatusOK || created.Err() != "" {
		return result.Fail[string](created.Code(), created.Err())
	}
	account, ok := created.Data()
	if !ok || account.ID == "" {
		// adapter contract violation: success without a payload
		return result.NotFound[string]("")
	}

	credRes := s.creds.Create(ctx, credential.CreateInput{
		UserID:        account.ID,
		Password:      in.Password,
		OnBoarding:    false,
		VerifiedEmail: false,
		PrivacyPolicy: true,
		Role:          in.Role,
	})
	cred, credOK := credRes.Data()
	if credRes.Code() != http.StatusOK || !credOK || credRes.Err() != "" {
		// compensation: drop the half-created account so the email frees up
		if del := s.users.Delete(ctx, account.ID); del.Err() != "" {
			s.logger.Warn("sign-up compensation failed", "user_id", account.ID, "error", del.Err())
		}
		return result.Fail[string](credRes.Code(), credRes.Err())
	}

	tok, err := s.tokens.Issue(token.Identity{
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		Role:      cred.Role,
	}, time.Now().Add(s.tokenTTL))
	if err != nil {
		return result.Normalize[string](err)
	}
	s.logger.Info("user signed up", "user_id", account.ID, "role", cred.Role)
	return result.OK(tok)
}

// SignIn checks the password for the account behind the email and issues a
// token carrying the stored role.
func (s Service) SignIn(ctx context.Context, email, password string) (res result.Result[string]) {
	defer normalizeRecover(&res)

	account, cred, err := s.directory.GetUserWithCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result.NotFound[string]("User not found")
		}
		return result.Normalize[string](err)
	}

	match, err := s.hasher.Verify(ctx, password, cred.Password)
	if err != nil {
		return result.Normalize[string](err)
	}
	if !match {
		return result.Fail[string](http.StatusUnauthorized, "Invalid password")
	}

	tok, err := s.tokens.Issue(token.Identity{
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		Role:      cred.Role,
	}, time.Now().Add(s.tokenTTL))
	if err != nil {
		return result.Normalize[string](err)
	}
	s.logger.Info("user signed in", "user_id", account.ID)
	return result.OK(tok)
}

// Refresh exchanges a token whose signature still checks out for a fresh one.
// Expiry does not block the exchange; the role on the new token is re-read
// from the stored credential, never taken from the old token.
func (s Service) Refresh(ctx context.Context, tok string) (res result.Result[string]) {
	defer normalizeRecover(&res)

	_, err := s.tokens.Verify(tok)
	switch {
	case err == nil:
	case errors.Is(err, token.ErrExpired):
		// signature already validated; an expired token may still be exchanged
	case errors.Is(err, token.ErrMalformed):
		return result.Normalize[string](err)
	default:
		return result.Fail[string](http.StatusUnauthorized, "Invalid or expired token")
	}

	decoded := s.tokens.Decode(tok)
	if decoded == nil {
		return result.Fail[string](http.StatusUnauthorized, "Invalid or expired token")
	}

	account, cred, err := s.directory.GetUserWithCredentialByEmail(ctx, decoded.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result.NotFound[string]("User not found")
		}
		return result.Normalize[string](err)
	}

	fresh, err := s.tokens.Issue(token.Identity{
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		Role:      cred.Role,
	}, time.Now().Add(s.tokenTTL))
	if err != nil {
		return result.Normalize[string](err)
	}
	s.logger.Info("token refreshed", "user_id", account.ID)
	return result.OK(fresh)
}
