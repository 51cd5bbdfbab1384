package domain

import "time"

// PlatformLog is a free-form audit line recorded by services.
type PlatformLog struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	CreatedOn   time.Time `json:"createdOn"`
}
