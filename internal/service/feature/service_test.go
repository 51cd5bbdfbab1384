package feature

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"log/slog"

	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/result"
)

type repoStub struct {
	byID map[string]*domain.PlatformFeature

	createErr error
}

func newRepoStub() *repoStub {
	return &repoStub{byID: make(map[string]*domain.PlatformFeature)}
}

func (r *repoStub) CreateFeature(_ context.Context, f *domain.PlatformFeature) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.Feature == f.Feature {
			return repository.ErrConflict
		}
	}
	clone := *f
	r.byID[f.ID] = &clone
	return nil
}

func (r *repoStub) GetFeatureByID(_ context.Context, id string) (*domain.PlatformFeature, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *f
	return &clone, nil
}

func (r *repoStub) ListFeatures(_ context.Context) ([]domain.PlatformFeature, error) {
	out := make([]domain.PlatformFeature, 0, len(r.byID))
	for _, f := range r.byID {
		out = append(out, *f)
	}
	return out, nil
}

func (r *repoStub) UpdateFeature(_ context.Context, f *domain.PlatformFeature) (*domain.PlatformFeature, error) {
	if _, ok := r.byID[f.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	clone := *f
	r.byID[f.ID] = &clone
	return &clone, nil
}

func (r *repoStub) DeleteFeature(_ context.Context, id string) (*domain.PlatformFeature, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.byID, id)
	return f, nil
}

type auditStub struct {
	entries []string
}

func (a *auditStub) Create(_ context.Context, description string) result.Result[domain.PlatformLog] {
	a.entries = append(a.entries, description)
	return result.OK(domain.PlatformLog{Description: description})
}

func testService(repo *repoStub) Service {
	return New(repo, &auditStub{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateDefaultsDisabled(t *testing.T) {
	svc := testService(newRepoStub())

	res := svc.Create(context.Background(), CreateInput{Feature: "beta-releases"})
	if !res.OK() {
		t.Fatalf("create failed: code=%d err=%q", res.Code(), res.Err())
	}
	f, _ := res.Data()
	if f.Enabled {
		t.Fatalf("a flag without an explicit state starts disabled")
	}
	if f.CreatedOn.IsZero() {
		t.Fatalf("creation time must be stamped")
	}
}

func TestCreateDuplicateName(t *testing.T) {
	svc := testService(newRepoStub())

	svc.Create(context.Background(), CreateInput{Feature: "dark-mode"})
	res := svc.Create(context.Background(), CreateInput{Feature: "dark-mode"})
	if res.Code() != http.StatusConflict || res.Err() != result.DuplicateEntry {
		t.Fatalf("expected conflict envelope, got code=%d err=%q", res.Code(), res.Err())
	}
}

func TestUpdateIsPartial(t *testing.T) {
	svc := testService(newRepoStub())

	created, _ := svc.Create(context.Background(), CreateInput{Feature: "canary"}).Data()

	enabled := true
	res := svc.Update(context.Background(), UpdateInput{ID: created.ID, Enabled: &enabled})
	if !res.OK() {
		t.Fatalf("update failed: code=%d err=%q", res.Code(), res.Err())
	}
	f, _ := res.Data()
	if !f.Enabled {
		t.Fatalf("enabled not updated")
	}
	if f.Feature != "canary" {
		t.Fatalf("nil fields must keep their value: %q", f.Feature)
	}
}

func TestUnexpectedFailureIsAudited(t *testing.T) {
	repo := newRepoStub()
	repo.createErr = errors.New("connection reset")
	audit := &auditStub{}
	svc := New(repo, audit, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res := svc.Create(context.Background(), CreateInput{Feature: "broken"})
	if res.Code() != http.StatusInternalServerError || res.Err() != "connection reset" {
		t.Fatalf("expected normalized failure, got code=%d err=%q", res.Code(), res.Err())
	}
	if len(audit.entries) != 1 || audit.entries[0] != "connection reset" {
		t.Fatalf("expected the failure in the platform log, got %v", audit.entries)
	}
}
