package security

import (
	"fmt"
	"log/slog"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermBrowseClasses  Permission = "browse_classes"
	PermManageClasses  Permission = "manage_classes"
	PermEnroll         Permission = "enroll"
	PermViewRoster     Permission = "view_roster"
	PermManageQuota    Permission = "manage_quota"
	PermPay            Permission = "pay"
	PermViewPayments   Permission = "view_payments"
	PermIssueCheckIn   Permission = "issue_check_in"
	PermCheckIn        Permission = "check_in"
	PermEditProfile    Permission = "edit_profile"
	PermJoinGym        Permission = "join_gym"
	PermViewGymMembers Permission = "view_gym_members"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleGym: {
		PermBrowseClasses,
		PermManageClasses,
		PermViewRoster,
		PermManageQuota,
		PermViewPayments,
		PermIssueCheckIn,
		PermEditProfile,
		PermViewGymMembers,
	},
	domain.RoleClient: {
		PermBrowseClasses,
		PermEnroll,
		PermPay,
		PermCheckIn,
		PermEditProfile,
		PermJoinGym,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("%w: %s role cannot %s", ErrForbidden, role, permission)
	}
	return nil
}
