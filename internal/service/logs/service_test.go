package logs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"log/slog"

	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/ws"
)

type repoStub struct {
	entries map[string]*domain.PlatformLog

	appendErr error
}

func newRepoStub() *repoStub {
	return &repoStub{entries: make(map[string]*domain.PlatformLog)}
}

func (r *repoStub) AppendLog(_ context.Context, entry *domain.PlatformLog) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	clone := *entry
	r.entries[entry.ID] = &clone
	return nil
}

func (r *repoStub) GetLogByID(_ context.Context, id string) (*domain.PlatformLog, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (r *repoStub) ListLogs(_ context.Context) ([]domain.PlatformLog, error) {
	out := make([]domain.PlatformLog, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, *entry)
	}
	return out, nil
}

func (r *repoStub) UpdateLog(_ context.Context, id, description string) (*domain.PlatformLog, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	entry.Description = description
	clone := *entry
	return &clone, nil
}

func (r *repoStub) DeleteLog(_ context.Context, id string) (*domain.PlatformLog, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.entries, id)
	return entry, nil
}

type subscriberStub struct {
	received chan []byte
}

func (s *subscriberStub) Send(payload []byte) error {
	s.received <- payload
	return nil
}

func (s *subscriberStub) Close() {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreatePersistsAndBroadcasts(t *testing.T) {
	repo := newRepoStub()
	hub := ws.NewHub(4)
	svc := New(repo, hub, testLogger())

	sub := &subscriberStub{received: make(chan []byte, 1)}
	hub.Register(Topic, sub)

	res := svc.Create(context.Background(), "deploy window opened")
	if !res.OK() {
		t.Fatalf("create failed: code=%d err=%q", res.Code(), res.Err())
	}
	entry, ok := res.Data()
	if !ok || entry.ID == "" || entry.Description != "deploy window opened" {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	select {
	case payload := <-sub.received:
		var decoded map[string]any
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("broadcast payload is not JSON: %v", err)
		}
		if decoded["id"] != entry.ID || decoded["description"] != "deploy window opened" {
			t.Fatalf("unexpected broadcast payload: %v", decoded)
		}
		if _, err := time.Parse(time.RFC3339Nano, decoded["createdOn"].(string)); err != nil {
			t.Fatalf("createdOn is not RFC3339: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a broadcast for the new entry")
	}
}

func TestCreateWithoutHub(t *testing.T) {
	svc := New(newRepoStub(), nil, testLogger())
	res := svc.Create(context.Background(), "no stream wired")
	if !res.OK() {
		t.Fatalf("nil hub must not break persistence: code=%d err=%q", res.Code(), res.Err())
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := New(newRepoStub(), nil, testLogger())
	created, _ := svc.Create(context.Background(), "first wording").Data()

	res := svc.Update(context.Background(), created.ID, "second wording")
	if !res.OK() {
		t.Fatalf("update failed: code=%d err=%q", res.Code(), res.Err())
	}
	updated, _ := res.Data()
	if updated.Description != "second wording" {
		t.Fatalf("description not replaced: %q", updated.Description)
	}

	if res := svc.Delete(context.Background(), created.ID); !res.OK() {
		t.Fatalf("delete failed: code=%d err=%q", res.Code(), res.Err())
	}
	if res := svc.GetByID(context.Background(), created.ID); res.Code() != http.StatusNotFound {
		t.Fatalf("entry must be gone, got code=%d", res.Code())
	}
}
