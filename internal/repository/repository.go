package repository

import (
	"context"

	"github.com/launchlane/launchlane/internal/domain"
)

// UserRepository persists account identities.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetUserWithCredentialByEmail joins the one-to-one credential row.
	GetUserWithCredentialByEmail(ctx context.Context, email string) (*domain.User, *domain.Credential, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (*domain.User, error)
}

// CredentialRepository persists login records keyed by user id.
type CredentialRepository interface {
	CreateCredential(ctx context.Context, cred *domain.Credential) error
	GetCredentialByUserID(ctx context.Context, userID string) (*domain.Credential, error)
	UpdateCredentialFlags(ctx context.Context, userID string, onBoarding, verifiedEmail, privacyPolicy bool) (*domain.Credential, error)
	UpdateCredentialPassword(ctx context.Context, userID, passwordHash string) (*domain.Credential, error)
	UpdateCredentialRole(ctx context.Context, userID string, role domain.Role) (*domain.Credential, error)
}

// WorkspaceRepository persists workspaces.
type WorkspaceRepository interface {
	CreateWorkspace(ctx context.Context, ws *domain.Workspace) error
	GetWorkspaceByID(ctx context.Context, id string) (*domain.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
	UpdateWorkspace(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error)
	DeleteWorkspace(ctx context.Context, id string) (*domain.Workspace, error)
}

// MemberRepository manages workspace membership rows.
type MemberRepository interface {
	CreateMember(ctx context.Context, member *domain.WorkspaceMember) error
	GetMember(ctx context.Context, workspaceID, userID string) (*domain.WorkspaceMember, error)
	GetMemberByUser(ctx context.Context, userID string) (*domain.WorkspaceMember, error)
	UpdateMemberRole(ctx context.Context, id string, role domain.Role) (*domain.WorkspaceMember, error)
	DeleteMember(ctx context.Context, id string) (*domain.WorkspaceMember, error)
}

// FeatureRepository persists platform feature flags.
type FeatureRepository interface {
	CreateFeature(ctx context.Context, feature *domain.PlatformFeature) error
	GetFeatureByID(ctx context.Context, id string) (*domain.PlatformFeature, error)
	ListFeatures(ctx context.Context) ([]domain.PlatformFeature, error)
	UpdateFeature(ctx context.Context, feature *domain.PlatformFeature) (*domain.PlatformFeature, error)
	DeleteFeature(ctx context.Context, id string) (*domain.PlatformFeature, error)
}

// CodeRepository persists platform invite codes.
type CodeRepository interface {
	CreateCode(ctx context.Context, code *domain.PlatformCode) error
	GetCodeByID(ctx context.Context, id string) (*domain.PlatformCode, error)
	GetCodeByValue(ctx context.Context, code string) (*domain.PlatformCode, error)
	// ListCodes returns codes ordered newest first.
	ListCodes(ctx context.Context) ([]domain.PlatformCode, error)
	UpdateCode(ctx context.Context, code *domain.PlatformCode) (*domain.PlatformCode, error)
	DeleteCode(ctx context.Context, id string) error
}

// SettingRepository persists workspace settings, one row per workspace.
type SettingRepository interface {
	CreateSetting(ctx context.Context, setting *domain.WorkspaceSetting) error
	GetSettingByWorkspace(ctx context.Context, workspaceID string) (*domain.WorkspaceSetting, error)
	UpdateSetting(ctx context.Context, setting *domain.WorkspaceSetting) (*domain.WorkspaceSetting, error)
	DeleteSettingByWorkspace(ctx context.Context, workspaceID string) (*domain.WorkspaceSetting, error)
}

// LogRepository persists platform log lines.
type LogRepository interface {
	AppendLog(ctx context.Context, entry *domain.PlatformLog) error
	GetLogByID(ctx context.Context, id string) (*domain.PlatformLog, error)
	ListLogs(ctx context.Context) ([]domain.PlatformLog, error)
	UpdateLog(ctx context.Context, id, description string) (*domain.PlatformLog, error)
	DeleteLog(ctx context.Context, id string) (*domain.PlatformLog, error)
}
