package domain

// Workspace groups the releases of one product under a shared code.
type Workspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Repository  string `json:"repository"`
	Logo        []byte `json:"logo,omitempty"`
	Code        string `json:"code"`
}

// WorkspaceMember links a user to a workspace with a role.
type WorkspaceMember struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
}
