package domain

import "time"

// PlatformCode is an invite code that admits new accounts to the platform
// while its ValidUntilDate lies in the future.
type PlatformCode struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	CreatedOn      time.Time `json:"createdOn"`
	ValidUntilDate time.Time `json:"validUntilDate"`
}
