package domain

// Role classifies what a credential is allowed to do on the platform.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleCollaborator Role = "collaborator"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCollaborator:
		return true
	}
	return false
}

// User represents a platform account identity.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Avatar    []byte `json:"avatar,omitempty"`
}

// Credential is the login record owned one-to-one by a User.
// Password only ever holds the bcrypt hash, never plaintext.
type Credential struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Password      string `json:"-"`
	OnBoarding    bool   `json:"onBoarding"`
	VerifiedEmail bool   `json:"verifiedEmail"`
	PrivacyPolicy bool   `json:"privacyPolicy"`
	Role          Role   `json:"role"`
}
