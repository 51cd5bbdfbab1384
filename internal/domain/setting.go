package domain

// WorkspaceSetting carries the per-workspace seat and review limits.
// Each workspace holds at most one row, keyed by WorkspaceID.
type WorkspaceSetting struct {
	ID               string `json:"id"`
	WorkspaceID      string `json:"workspaceId"`
	MaxManagers      int    `json:"maxManagers"`
	MaxCollaborators int    `json:"maxCollaborators"`
	FeatureReviewers int    `json:"featureReviewers"`
}
