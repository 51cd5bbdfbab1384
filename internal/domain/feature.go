package domain

import "time"

// PlatformFeature is a process-wide feature flag.
type PlatformFeature struct {
	ID        string    `json:"id"`
	Feature   string    `json:"feature"`
	Enabled   bool      `json:"enabled"`
	CreatedOn time.Time `json:"createdOn"`
}
