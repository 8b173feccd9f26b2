package core

const (
	RoleSuperAdmin = "super_admin"
	RoleOwner      = "owner"
	RoleAgent      = "agent"
)

// Identity is the per-request security context extracted from the JWT.
// Super admins carry no tenant id and take the cross-tenant aggregation
// path; tenant-scoped roles go straight to their own tenant's pool.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	TenantID int64  `json:"tenant_id"`
}

func (i Identity) SuperAdmin() bool {
	return i.Role == RoleSuperAdmin
}
