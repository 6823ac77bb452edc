package schema

// AdminRole is the access tier of an admin account.
type AdminRole string

const (
	RoleSuperAdmin AdminRole = "Super Admin"
	RoleStaff      AdminRole = "Staf"
)

// PublicActor is the audit actor recorded for actions taken without a login.
const PublicActor = "Warga (Public)"

// AdminUser is one administrator account. The password is a plain credential
// compared on login; it is not a security mechanism.
type AdminUser struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"password,omitempty"`
	Name     string    `json:"name"`
	Role     AdminRole `json:"role"`
}
