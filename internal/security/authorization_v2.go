package security

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
)

// ErrForbidden is returned by every authorization check
var ErrForbidden = errors.New("access denied")

// ResourceType identifies the kind of resource being accessed
type ResourceType string

const (
	ResourceGym     ResourceType = "gym"
	ResourceClient  ResourceType = "client"
	ResourcePayment ResourceType = "payment"
)

// ResourcePermission describes access to one gym-scoped or client-owned resource
type ResourcePermission struct {
	ResourceType ResourceType
	ResourceID   string
	OwnerID      string // gym id for gym-scoped data, client id for personal data
}

// ScopeChecker enforces gym scoping: a gym only sees its own data, a client
// only their own data plus the gym they belong to
type ScopeChecker struct {
	logger *slog.Logger
}

// NewScopeChecker creates a new scope checker
func NewScopeChecker(logger *slog.Logger) *ScopeChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeChecker{logger: logger}
}

// ValidateResourceAccess checks that the caller owns the resource or, for a
// client reading gym data, belongs to that gym
func (s *ScopeChecker) ValidateResourceAccess(userID string, role domain.Role, userGymID string, perm ResourcePermission) error {
	switch {
	case perm.OwnerID == userID:
		return nil
	case role == domain.RoleClient && perm.ResourceType == ResourceGym && perm.OwnerID == userGymID && userGymID != "":
		return nil
	}

	s.logger.Warn("resource access denied",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
		slog.String("resource_id", perm.ResourceID),
		slog.String("resource_type", string(perm.ResourceType)),
		slog.String("owner_id", perm.OwnerID),
	)
	return fmt.Errorf("%w: not allowed to access this %s", ErrForbidden, perm.ResourceType)
}
