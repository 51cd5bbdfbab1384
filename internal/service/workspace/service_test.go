package workspace

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"log/slog"

	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/result"
)

type repoStub struct {
	byID     map[string]*domain.Workspace
	created  []*domain.Workspace
	attempts []string

	conflicts int
	createErr error
	getErr    error
	updateErr error
	deleteErr error
}

func newRepoStub() *repoStub {
	return &repoStub{byID: make(map[string]*domain.Workspace)}
}

func (r *repoStub) CreateWorkspace(_ context.Context, ws *domain.Workspace) error {
	r.attempts = append(r.attempts, ws.Code)
	if r.createErr != nil {
		return r.createErr
	}
	if r.conflicts > 0 {
		r.conflicts--
		return repository.ErrConflict
	}
	clone := *ws
	r.byID[ws.ID] = &clone
	r.created = append(r.created, &clone)
	return nil
}

func (r *repoStub) GetWorkspaceByID(_ context.Context, id string) (*domain.Workspace, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	ws, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *ws
	return &clone, nil
}

func (r *repoStub) ListWorkspaces(_ context.Context) ([]domain.Workspace, error) {
	out := make([]domain.Workspace, 0, len(r.byID))
	for _, ws := range r.byID {
		out = append(out, *ws)
	}
	return out, nil
}

func (r *repoStub) UpdateWorkspace(_ context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if _, ok := r.byID[ws.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	clone := *ws
	r.byID[ws.ID] = &clone
	return &clone, nil
}

func (r *repoStub) DeleteWorkspace(_ context.Context, id string) (*domain.Workspace, error) {
	if r.deleteErr != nil {
		return nil, r.deleteErr
	}
	ws, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.byID, id)
	return ws, nil
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

func TestCreateGeneratesJoinCode(t *testing.T) {
	repo := newRepoStub()
	svc := testService(repo)

	res := svc.Create(context.Background(), CreateInput{Name: "release train"})
	if res.Code() != http.StatusCreated || res.Err() != "" {
		t.Fatalf("expected 201, got code=%d err=%q", res.Code(), res.Err())
	}
	ws, ok := res.Data()
	if !ok {
		t.Fatalf("expected workspace payload")
	}
	if ws.ID == "" {
		t.Fatalf("expected server-generated id")
	}
	if len(ws.Code) != 9 {
		t.Fatalf("join code must be 9 characters, got %q", ws.Code)
	}
	if ws.Code != strings.ToUpper(ws.Code) {
		t.Fatalf("join code must be uppercase, got %q", ws.Code)
	}
	for _, c := range ws.Code {
		if !strings.ContainsRune(codeAlphabet, c) {
			t.Fatalf("join code contains %q outside the alphabet", c)
		}
	}
}

func TestCreateCodesDiffer(t *testing.T) {
	repo := newRepoStub()
	svc := testService(repo)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		res := svc.Create(context.Background(), CreateInput{Name: "ws"})
		ws, ok := res.Data()
		if !ok {
			t.Fatalf("create %d failed: %q", i, res.Err())
		}
		if seen[ws.Code] {
			t.Fatalf("join code %q repeated within 20 creations", ws.Code)
		}
		seen[ws.Code] = true
	}
}

func TestCreateRetriesOnCodeCollision(t *testing.T) {
	repo := newRepoStub()
	repo.conflicts = 2
	svc := testService(repo)

	res := svc.Create(context.Background(), CreateInput{Name: "lucky third"})
	if res.Code() != http.StatusCreated || res.Err() != "" {
		t.Fatalf("expected 201 after retries, got code=%d err=%q", res.Code(), res.Err())
	}
	if len(repo.attempts) != 3 {
		t.Fatalf("expected 3 insert attempts, got %d", len(repo.attempts))
	}
	seen := make(map[string]bool)
	for _, c := range repo.attempts {
		if seen[c] {
			t.Fatalf("a collision must regenerate the code, %q repeated", c)
		}
		seen[c] = true
	}
}

func TestCreateExhaustedCollisions(t *testing.T) {
	repo := newRepoStub()
	repo.createErr = repository.ErrConflict
	svc := testService(repo)

	res := svc.Create(context.Background(), CreateInput{Name: "dup"})
	if res.Code() != http.StatusConflict || res.Err() != result.DuplicateEntry {
		t.Fatalf("expected conflict envelope, got code=%d err=%q", res.Code(), res.Err())
	}
	if len(repo.attempts) != createAttempts {
		t.Fatalf("expected %d attempts before giving up, got %d", createAttempts, len(repo.attempts))
	}
}

func TestUnexpectedFailureIsAudited(t *testing.T) {
	repo := newRepoStub()
	repo.createErr = errors.New("connection reset")
	audit := &auditStub{}
	svc := New(repo, audit, slog.New(slog.NewTextHandler(io.Discard, nil)))

	res := svc.Create(context.Background(), CreateInput{Name: "broken"})
	if res.Code() != http.StatusInternalServerError || res.Err() != "connection reset" {
		t.Fatalf("expected normalized failure, got code=%d err=%q", res.Code(), res.Err())
	}
	if len(audit.entries) != 1 || audit.entries[0] != "connection reset" {
		t.Fatalf("expected the failure in the platform log, got %v", audit.entries)
	}
}

func TestUpdateKeepsCode(t *testing.T) {
	repo := newRepoStub()
	svc := testService(repo)

	created, _ := svc.Create(context.Background(), CreateInput{Name: "before", Description: "old"}).Data()

	name := "after"
	res := svc.Update(context.Background(), UpdateInput{ID: created.ID, Name: &name})
	if !res.OK() {
		t.Fatalf("update failed: code=%d err=%q", res.Code(), res.Err())
	}
	updated, _ := res.Data()
	if updated.Name != "after" {
		t.Fatalf("name not updated: %q", updated.Name)
	}
	if updated.Description != "old" {
		t.Fatalf("nil fields must keep their value, got %q", updated.Description)
	}
	if updated.Code != created.Code {
		t.Fatalf("join code must never change: %q -> %q", created.Code, updated.Code)
	}
}

func TestGetMissingWorkspace(t *testing.T) {
	svc := testService(newRepoStub())

	res := svc.GetByID(context.Background(), "nope")
	if res.Code() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code())
	}
	if res.Err() != "" {
		t.Fatalf("store-level not-found carries no message, got %q", res.Err())
	}
}

func TestDeleteReturnsRow(t *testing.T) {
	repo := newRepoStub()
	svc := testService(repo)

	created, _ := svc.Create(context.Background(), CreateInput{Name: "gone soon"}).Data()

	res := svc.Delete(context.Background(), created.ID)
	if !res.OK() {
		t.Fatalf("delete failed: code=%d err=%q", res.Code(), res.Err())
	}
	deleted, _ := res.Data()
	if deleted.ID != created.ID {
		t.Fatalf("expected the deleted row back, got %+v", deleted)
	}
	if _, err := repo.GetWorkspaceByID(context.Background(), created.ID); err == nil {
		t.Fatalf("row must be gone after delete")
	}
}
