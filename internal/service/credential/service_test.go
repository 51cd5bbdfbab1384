package credential

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"log/slog"

	"github.com/launchlane/launchlane/internal/crypto"
	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/result"
)

type repoStub struct {
	byUser map[string]*domain.Credential
}

func newRepoStub() *repoStub {
	return &repoStub{byUser: make(map[string]*domain.Credential)}
}

func (r *repoStub) CreateCredential(_ context.Context, cred *domain.Credential) error {
	if _, ok := r.byUser[cred.UserID]; ok {
		return repository.ErrConflict
	}
	clone := *cred
	r.byUser[cred.UserID] = &clone
	return nil
}

func (r *repoStub) GetCredentialByUserID(_ context.Context, userID string) (*domain.Credential, error) {
	cred, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *cred
	return &clone, nil
}

func (r *repoStub) UpdateCredentialFlags(_ context.Context, userID string, onBoarding, verifiedEmail, privacyPolicy bool) (*domain.Credential, error) {
	cred, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cred.OnBoarding = onBoarding
	cred.VerifiedEmail = verifiedEmail
	cred.PrivacyPolicy = privacyPolicy
	clone := *cred
	return &clone, nil
}

func (r *repoStub) UpdateCredentialPassword(_ context.Context, userID, passwordHash string) (*domain.Credential, error) {
	cred, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cred.Password = passwordHash
	clone := *cred
	return &clone, nil
}

func (r *repoStub) UpdateCredentialRole(_ context.Context, userID string, role domain.Role) (*domain.Credential, error) {
	cred, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cred.Role = role
	clone := *cred
	return &clone, nil
}

func testService() (Service, *repoStub) {
	repo := newRepoStub()
	return New(repo, crypto.NewHasher(), slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestCreateHashesPassword(t *testing.T) {
	svc, repo := testService()

	res := svc.Create(context.Background(), CreateInput{
		UserID:        "u-1",
		Password:      "plaintext",
		PrivacyPolicy: true,
		Role:          domain.RoleCollaborator,
	})
	if !res.OK() {
		t.Fatalf("create failed: code=%d err=%q", res.Code(), res.Err())
	}
	stored := repo.byUser["u-1"]
	if stored == nil {
		t.Fatalf("credential not persisted")
	}
	if stored.Password == "plaintext" {
		t.Fatalf("plaintext must never reach the store")
	}
	if !strings.HasPrefix(stored.Password, "$2") {
		t.Fatalf("stored value does not look like a derived hash: %q", stored.Password)
	}
}

func TestCreateSecondCredentialSameUser(t *testing.T) {
	svc, _ := testService()
	in := CreateInput{UserID: "u-1", Password: "pw", Role: domain.RoleCollaborator}
	if res := svc.Create(context.Background(), in); res.Err() != "" {
		t.Fatalf("first create failed: %q", res.Err())
	}
	res := svc.Create(context.Background(), in)
	if res.Code() != http.StatusConflict || res.Err() != result.DuplicateEntry {
		t.Fatalf("expected conflict envelope, got code=%d err=%q", res.Code(), res.Err())
	}
}

func TestCreateOverlongPasswordNormalizes(t *testing.T) {
	svc, repo := testService()

	res := svc.Create(context.Background(), CreateInput{
		UserID:   "u-1",
		Password: strings.Repeat("x", 100),
	})
	if res.Code() != http.StatusInternalServerError {
		t.Fatalf("hashing failure routes through the normalizer, got code=%d", res.Code())
	}
	if res.Err() == "" || res.Err() == result.UnexpectedError {
		t.Fatalf("the primitive's message is preserved, got %q", res.Err())
	}
	if len(repo.byUser) != 0 {
		t.Fatalf("nothing must be stored when hashing fails")
	}
}

func TestUpdateFlags(t *testing.T) {
	svc, _ := testService()
	if res := svc.Create(context.Background(), CreateInput{UserID: "u-1", Password: "pw"}); res.Err() != "" {
		t.Fatalf("create failed: %q", res.Err())
	}

	res := svc.UpdateFlags(context.Background(), FlagsInput{UserID: "u-1", OnBoarding: true, VerifiedEmail: true, PrivacyPolicy: true})
	if !res.OK() {
		t.Fatalf("update failed: code=%d err=%q", res.Code(), res.Err())
	}
	cred, _ := res.Data()
	if !cred.OnBoarding || !cred.VerifiedEmail || !cred.PrivacyPolicy {
		t.Fatalf("flags not replaced: %+v", cred)
	}
}

func TestUpdatePasswordRehashes(t *testing.T) {
	svc, repo := testService()
	if res := svc.Create(context.Background(), CreateInput{UserID: "u-1", Password: "old"}); res.Err() != "" {
		t.Fatalf("create failed: %q", res.Err())
	}
	before := repo.byUser["u-1"].Password

	res := svc.UpdatePassword(context.Background(), "u-1", "new")
	if !res.OK() {
		t.Fatalf("rotate failed: code=%d err=%q", res.Code(), res.Err())
	}
	after := repo.byUser["u-1"].Password
	if after == before || after == "new" {
		t.Fatalf("password must be re-hashed on rotation")
	}
}

func TestUpdateRoleUnknownUser(t *testing.T) {
	svc, _ := testService()
	res := svc.UpdateRole(context.Background(), "ghost", domain.RoleAdmin)
	if res.Code() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code())
	}
}
