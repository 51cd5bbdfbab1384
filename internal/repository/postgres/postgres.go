// Package postgres implements the persistence interfaces on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchlane/launchlane/internal/domain"
	"github.com/launchlane/launchlane/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository       = (*Repository)(nil)
	_ repository.CredentialRepository = (*Repository)(nil)
	_ repository.WorkspaceRepository  = (*Repository)(nil)
	_ repository.MemberRepository     = (*Repository)(nil)
	_ repository.FeatureRepository    = (*Repository)(nil)
	_ repository.CodeRepository       = (*Repository)(nil)
	_ repository.SettingRepository    = (*Repository)(nil)
	_ repository.LogRepository        = (*Repository)(nil)
)

const uniqueViolation = "23505"

// mapError translates driver failures to the repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrConflict
	}
	return err
}

const userColumns = "id, first_name, last_name, email, avatar"

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Avatar); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, first_name, last_name, email, avatar)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.FirstName, user.LastName, user.Email, user.Avatar)
	return mapError(err)
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserWithCredentialByEmail fetches a user and its credential in one round trip.
func (r *Repository) GetUserWithCredentialByEmail(ctx context.Context, email string) (*domain.User, *domain.Credential, error) {
	const query = `SELECT u.id, u.first_name, u.last_name, u.email, u.avatar,
			c.id, c.user_id, c.password, c.on_boarding, c.verified_email, c.privacy_policy, c.role
		FROM users u
		INNER JOIN user_credentials c ON c.user_id = u.id
		WHERE u.email = $1`
	row := r.pool.QueryRow(ctx, query, email)
	var u domain.User
	var c domain.Credential
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Avatar,
		&c.ID, &c.UserID, &c.Password, &c.OnBoarding, &c.VerifiedEmail, &c.PrivacyPolicy, &c.Role); err != nil {
		return nil, nil, mapError(err)
	}
	return &u, &c, nil
}

// ListUsers returns all users ordered by first name.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY first_name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Avatar); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser replaces the mutable profile fields and returns the stored row.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	const query = `UPDATE users SET first_name = $2, last_name = $3, email = $4, avatar = $5
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, user.ID, user.FirstName, user.LastName, user.Email, user.Avatar))
}

// DeleteUser removes a user and returns the deleted row. The credential row
// goes with it via ON DELETE CASCADE.
func (r *Repository) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	const query = `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

const credentialColumns = "id, user_id, password, on_boarding, verified_email, privacy_policy, role"

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	var c domain.Credential
	if err := row.Scan(&c.ID, &c.UserID, &c.Password, &c.OnBoarding, &c.VerifiedEmail, &c.PrivacyPolicy, &c.Role); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// CreateCredential inserts a login record.
func (r *Repository) CreateCredential(ctx context.Context, cred *domain.Credential) error {
	const query = `INSERT INTO user_credentials (id, user_id, password, on_boarding, verified_email, privacy_policy, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, cred.ID, cred.UserID, cred.Password, cred.OnBoarding, cred.VerifiedEmail, cred.PrivacyPolicy, cred.Role)
	return mapError(err)
}

// GetCredentialByUserID fetches the credential owned by a user.
func (r *Repository) GetCredentialByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	const query = `SELECT ` + credentialColumns + ` FROM user_credentials WHERE user_id = $1`
	return scanCredential(r.pool.QueryRow(ctx, query, userID))
}

// UpdateCredentialFlags replaces the onboarding and consent flags.
func (r *Repository) UpdateCredentialFlags(ctx context.Context, userID string, onBoarding, verifiedEmail, privacyPolicy bool) (*domain.Credential, error) {
	const query = `UPDATE user_credentials
		SET on_boarding = $2, verified_email = $3, privacy_policy = $4
		WHERE user_id = $1
		RETURNING ` + credentialColumns
	return scanCredential(r.pool.QueryRow(ctx, query, userID, onBoarding, verifiedEmail, privacyPolicy))
}

// UpdateCredentialPassword stores a new password hash.
func (r *Repository) UpdateCredentialPassword(ctx context.Context, userID, passwordHash string) (*domain.Credential, error) {
	const query = `UPDATE user_credentials SET password = $2 WHERE user_id = $1
		RETURNING ` + credentialColumns
	return scanCredential(r.pool.QueryRow(ctx, query, userID, passwordHash))
}

// UpdateCredentialRole stores a new role.
func (r *Repository) UpdateCredentialRole(ctx context.Context, userID string, role domain.Role) (*domain.Credential, error) {
	const query = `UPDATE user_credentials SET role = $2 WHERE user_id = $1
		RETURNING ` + credentialColumns
	return scanCredential(r.pool.QueryRow(ctx, query, userID, role))
}

const workspaceColumns = "id, name, description, repository, logo, code"

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var ws domain.Workspace
	if err := row.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.Repository, &ws.Logo, &ws.Code); err != nil {
		return nil, mapError(err)
	}
	return &ws, nil
}

// CreateWorkspace inserts a workspace.
func (r *Repository) CreateWorkspace(ctx context.Context, ws *domain.Workspace) error {
	const query = `INSERT INTO workspaces (id, name, description, repository, logo, code)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, ws.ID, ws.Name, ws.Description, ws.Repository, ws.Logo, ws.Code)
	return mapError(err)
}

// GetWorkspaceByID fetches a workspace.
func (r *Repository) GetWorkspaceByID(ctx context.Context, id string) (*domain.Workspace, error) {
	const query = `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`
	return scanWorkspace(r.pool.QueryRow(ctx, query, id))
}

// ListWorkspaces returns all workspaces ordered by name.
func (r *Repository) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	const query = `SELECT ` + workspaceColumns + ` FROM workspaces ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workspaces := make([]domain.Workspace, 0)
	for rows.Next() {
		var ws domain.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.Repository, &ws.Logo, &ws.Code); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

// UpdateWorkspace replaces the mutable fields; the code is immutable.
func (r *Repository) UpdateWorkspace(ctx context.Context, ws *domain.Workspace) (*domain.Workspace, error) {
	const query = `UPDATE workspaces SET name = $2, description = $3, repository = $4, logo = $5
		WHERE id = $1
		RETURNING ` + workspaceColumns
	return scanWorkspace(r.pool.QueryRow(ctx, query, ws.ID, ws.Name, ws.Description, ws.Repository, ws.Logo))
}

// DeleteWorkspace removes a workspace and returns the deleted row.
func (r *Repository) DeleteWorkspace(ctx context.Context, id string) (*domain.Workspace, error) {
	const query = `DELETE FROM workspaces WHERE id = $1 RETURNING ` + workspaceColumns
	return scanWorkspace(r.pool.QueryRow(ctx, query, id))
}

const memberColumns = "id, workspace_id, user_id, role"

func scanMember(row pgx.Row) (*domain.WorkspaceMember, error) {
	var m domain.WorkspaceMember
	if err := row.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role); err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

// CreateMember inserts a membership row.
func (r *Repository) CreateMember(ctx context.Context, member *domain.WorkspaceMember) error {
	const query = `INSERT INTO workspace_members (id, workspace_id, user_id, role)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, member.ID, member.WorkspaceID, member.UserID, member.Role)
	return mapError(err)
}

// GetMember fetches the membership of a user in one workspace.
func (r *Repository) GetMember(ctx context.Context, workspaceID, userID string) (*domain.WorkspaceMember, error) {
	const query = `SELECT ` + memberColumns + ` FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`
	return scanMember(r.pool.QueryRow(ctx, query, workspaceID, userID))
}

// GetMemberByUser fetches the first membership held by a user.
func (r *Repository) GetMemberByUser(ctx context.Context, userID string) (*domain.WorkspaceMember, error) {
	const query = `SELECT ` + memberColumns + ` FROM workspace_members WHERE user_id = $1 LIMIT 1`
	return scanMember(r.pool.QueryRow(ctx, query, userID))
}

// UpdateMemberRole stores a new role on a membership row.
func (r *Repository) UpdateMemberRole(ctx context.Context, id string, role domain.Role) (*domain.WorkspaceMember, error) {
	const query = `UPDATE workspace_members SET role = $2 WHERE id = $1
		RETURNING ` + memberColumns
	return scanMember(r.pool.QueryRow(ctx, query, id, role))
}

// DeleteMember removes a membership row and returns it.
func (r *Repository) DeleteMember(ctx context.Context, id string) (*domain.WorkspaceMember, error) {
	const query = `DELETE FROM workspace_members WHERE id = $1 RETURNING ` + memberColumns
	return scanMember(r.pool.QueryRow(ctx, query, id))
}

const featureColumns = "id, feature, enabled, created_on"

func scanFeature(row pgx.Row) (*domain.PlatformFeature, error) {
	var f domain.PlatformFeature
	if err := row.Scan(&f.ID, &f.Feature, &f.Enabled, &f.CreatedOn); err != nil {
		return nil, mapError(err)
	}
	return &f, nil
}

// CreateFeature inserts a feature flag.
func (r *Repository) CreateFeature(ctx context.Context, feature *domain.PlatformFeature) error {
	const query = `INSERT INTO platform_features (id, feature, enabled, created_on)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, feature.ID, feature.Feature, feature.Enabled, feature.CreatedOn)
	return mapError(err)
}

// GetFeatureByID fetches a feature flag.
func (r *Repository) GetFeatureByID(ctx context.Context, id string) (*domain.PlatformFeature, error) {
	const query = `SELECT ` + featureColumns + ` FROM platform_features WHERE id = $1`
	return scanFeature(r.pool.QueryRow(ctx, query, id))
}

// ListFeatures returns all feature flags ordered by name.
func (r *Repository) ListFeatures(ctx context.Context) ([]domain.PlatformFeature, error) {
	const query = `SELECT ` + featureColumns + ` FROM platform_features ORDER BY feature ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	features := make([]domain.PlatformFeature, 0)
	for rows.Next() {
		var f domain.PlatformFeature
		if err := rows.Scan(&f.ID, &f.Feature, &f.Enabled, &f.CreatedOn); err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// UpdateFeature replaces name and enabled state.
func (r *Repository) UpdateFeature(ctx context.Context, feature *domain.PlatformFeature) (*domain.PlatformFeature, error) {
	const query = `UPDATE platform_features SET feature = $2, enabled = $3 WHERE id = $1
		RETURNING ` + featureColumns
	return scanFeature(r.pool.QueryRow(ctx, query, feature.ID, feature.Feature, feature.Enabled))
}

// DeleteFeature removes a feature flag and returns it.
func (r *Repository) DeleteFeature(ctx context.Context, id string) (*domain.PlatformFeature, error) {
	const query = `DELETE FROM platform_features WHERE id = $1 RETURNING ` + featureColumns
	return scanFeature(r.pool.QueryRow(ctx, query, id))
}

const codeColumns = "id, code, created_on, valid_until"

func scanCode(row pgx.Row) (*domain.PlatformCode, error) {
	var c domain.PlatformCode
	if err := row.Scan(&c.ID, &c.Code, &c.CreatedOn, &c.ValidUntilDate); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// CreateCode inserts an invite code.
func (r *Repository) CreateCode(ctx context.Context, code *domain.PlatformCode) error {
	const query = `INSERT INTO platform_codes (id, code, created_on, valid_until)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, code.ID, code.Code, code.CreatedOn, code.ValidUntilDate)
	return mapError(err)
}

// GetCodeByID fetches an invite code by identifier.
func (r *Repository) GetCodeByID(ctx context.Context, id string) (*domain.PlatformCode, error) {
	const query = `SELECT ` + codeColumns + ` FROM platform_codes WHERE id = $1`
	return scanCode(r.pool.QueryRow(ctx, query, id))
}

// GetCodeByValue fetches an invite code by its code string.
func (r *Repository) GetCodeByValue(ctx context.Context, code string) (*domain.PlatformCode, error) {
	const query = `SELECT ` + codeColumns + ` FROM platform_codes WHERE code = $1`
	return scanCode(r.pool.QueryRow(ctx, query, code))
}

// ListCodes returns all invite codes, newest first.
func (r *Repository) ListCodes(ctx context.Context) ([]domain.PlatformCode, error) {
	const query = `SELECT ` + codeColumns + ` FROM platform_codes ORDER BY created_on DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]domain.PlatformCode, 0)
	for rows.Next() {
		var c domain.PlatformCode
		if err := rows.Scan(&c.ID, &c.Code, &c.CreatedOn, &c.ValidUntilDate); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// UpdateCode replaces the code string and expiry.
func (r *Repository) UpdateCode(ctx context.Context, code *domain.PlatformCode) (*domain.PlatformCode, error) {
	const query = `UPDATE platform_codes SET code = $2, valid_until = $3 WHERE id = $1
		RETURNING ` + codeColumns
	return scanCode(r.pool.QueryRow(ctx, query, code.ID, code.Code, code.ValidUntilDate))
}

// DeleteCode removes an invite code.
func (r *Repository) DeleteCode(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM platform_codes WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

const settingColumns = "id, workspace_id, max_managers, max_collaborators, feature_reviewers"

func scanSetting(row pgx.Row) (*domain.WorkspaceSetting, error) {
	var s domain.WorkspaceSetting
	if err := row.Scan(&s.ID, &s.WorkspaceID, &s.MaxManagers, &s.MaxCollaborators, &s.FeatureReviewers); err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// CreateSetting inserts the settings row of a workspace.
func (r *Repository) CreateSetting(ctx context.Context, setting *domain.WorkspaceSetting) error {
	const query = `INSERT INTO workspace_settings (id, workspace_id, max_managers, max_collaborators, feature_reviewers)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, setting.ID, setting.WorkspaceID, setting.MaxManagers, setting.MaxCollaborators, setting.FeatureReviewers)
	return mapError(err)
}

// GetSettingByWorkspace fetches the settings row owned by a workspace.
func (r *Repository) GetSettingByWorkspace(ctx context.Context, workspaceID string) (*domain.WorkspaceSetting, error) {
	const query = `SELECT ` + settingColumns + ` FROM workspace_settings WHERE workspace_id = $1`
	return scanSetting(r.pool.QueryRow(ctx, query, workspaceID))
}

// UpdateSetting replaces the limits on the settings row of a workspace.
func (r *Repository) UpdateSetting(ctx context.Context, setting *domain.WorkspaceSetting) (*domain.WorkspaceSetting, error) {
	const query = `UPDATE workspace_settings
		SET max_managers = $2, max_collaborators = $3, feature_reviewers = $4
		WHERE workspace_id = $1
		RETURNING ` + settingColumns
	return scanSetting(r.pool.QueryRow(ctx, query, setting.WorkspaceID, setting.MaxManagers, setting.MaxCollaborators, setting.FeatureReviewers))
}

// DeleteSettingByWorkspace removes the settings row of a workspace and returns it.
func (r *Repository) DeleteSettingByWorkspace(ctx context.Context, workspaceID string) (*domain.WorkspaceSetting, error) {
	const query = `DELETE FROM workspace_settings WHERE workspace_id = $1 RETURNING ` + settingColumns
	return scanSetting(r.pool.QueryRow(ctx, query, workspaceID))
}

const logColumns = "id, description, created_on"

func scanLog(row pgx.Row) (*domain.PlatformLog, error) {
	var entry domain.PlatformLog
	if err := row.Scan(&entry.ID, &entry.Description, &entry.CreatedOn); err != nil {
		return nil, mapError(err)
	}
	return &entry, nil
}

// AppendLog inserts a log line.
func (r *Repository) AppendLog(ctx context.Context, entry *domain.PlatformLog) error {
	const query = `INSERT INTO platform_logs (id, description, created_on)
		VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, entry.ID, entry.Description, entry.CreatedOn)
	return mapError(err)
}

// GetLogByID fetches a log line.
func (r *Repository) GetLogByID(ctx context.Context, id string) (*domain.PlatformLog, error) {
	const query = `SELECT ` + logColumns + ` FROM platform_logs WHERE id = $1`
	return scanLog(r.pool.QueryRow(ctx, query, id))
}

// ListLogs returns all log lines, newest first.
func (r *Repository) ListLogs(ctx context.Context) ([]domain.PlatformLog, error) {
	const query = `SELECT ` + logColumns + ` FROM platform_logs ORDER BY created_on DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.PlatformLog, 0)
	for rows.Next() {
		var entry domain.PlatformLog
		if err := rows.Scan(&entry.ID, &entry.Description, &entry.CreatedOn); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UpdateLog replaces the description of a log line.
func (r *Repository) UpdateLog(ctx context.Context, id, description string) (*domain.PlatformLog, error) {
	const query = `UPDATE platform_logs SET description = $2 WHERE id = $1
		RETURNING ` + logColumns
	return scanLog(r.pool.QueryRow(ctx, query, id, description))
}

// DeleteLog removes a log line and returns it.
func (r *Repository) DeleteLog(ctx context.Context, id string) (*domain.PlatformLog, error) {
	const query = `DELETE FROM platform_logs WHERE id = $1 RETURNING ` + logColumns
	return scanLog(r.pool.QueryRow(ctx, query, id))
}
