// Package logs implements CRUD for platform log lines and streams new
// entries to websocket subscribers.
package logs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
	"github.com/launchlane/launchlane/internal/result"
	"github.com/launchlane/launchlane/internal/ws"
)

// Topic is the hub channel new platform log entries are broadcast on.
const Topic = "platform-logs"

// Service handles log persistence and streaming.
type Service struct {
	repo   repository.LogRepository
	hub    *ws.Hub
	logger *slog.Logger
}

// New constructs a Service. The hub may be nil when streaming is not wired.
func New(repo repository.LogRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{repo: repo, hub: hub, logger: logger}
}

func failure[T any](err error) result.Result[T] {
	if errors.Is(err, repository.ErrNotFound) {
		return result.NotFound[T]("")
	}
	return result.Normalize[T](err)
}

// Create stores a log line and broadcasts it to stream subscribers.
func (s Service) Create(ctx context.Context, description string) result.Result[domain.PlatformLog] {
	entry := &domain.PlatformLog{
		ID:          uuid.NewString(),
		Description: description,
		CreatedOn:   time.Now().UTC(),
	}
	if err := s.repo.AppendLog(ctx, entry); err != nil {
		return failure[domain.PlatformLog](err)
	}
	s.broadcast(*entry)
	return result.OK(*entry)
}

// GetByID fetches one log line.
func (s Service) GetByID(ctx context.Context, id string) result.Result[domain.PlatformLog] {
	entry, err := s.repo.GetLogByID(ctx, id)
	if err != nil {
		return failure[domain.PlatformLog](err)
	}
	return result.OK(*entry)
}

// List returns all log lines, newest first.
func (s Service) List(ctx context.Context) result.Result[[]domain.PlatformLog] {
	entries, err := s.repo.ListLogs(ctx)
	if err != nil {
		return failure[[]domain.PlatformLog](err)
	}
	return result.OK(entries)
}

// Update replaces the description of a log line.
func (s Service) Update(ctx context.Context, id, description string) result.Result[domain.PlatformLog] {
	entry, err := s.repo.UpdateLog(ctx, id, description)
	if err != nil {
		return failure[domain.PlatformLog](err)
	}
	return result.OK(*entry)
}

// Delete removes a log line and returns it.
func (s Service) Delete(ctx context.Context, id string) result.Result[domain.PlatformLog] {
	entry, err := s.repo.DeleteLog(ctx, id)
	if err != nil {
		return failure[domain.PlatformLog](err)
	}
	return result.OK(*entry)
}

// Hub returns the websocket hub (useful for HTTP handlers).
func (s Service) Hub() *ws.Hub {
	return s.hub
}

func (s Service) broadcast(entry domain.PlatformLog) {
	if s.hub == nil {
		return
	}
	payload, err := MarshalEntry(entry)
	if err != nil {
		s.logger.Warn("failed to marshal log payload", "error", err)
		return
	}
	s.hub.Broadcast(Topic, payload)
}

// MarshalEntry formats a platform log for streaming payloads.
func MarshalEntry(entry domain.PlatformLog) ([]byte, error) {
	payload := map[string]any{
		"id":          entry.ID,
		"description": entry.Description,
		"createdOn":   entry.CreatedOn.Format(time.RFC3339Nano),
	}
	return json.Marshal(payload)
}
