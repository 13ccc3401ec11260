package security

import (
	"errors"
	"testing"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/logger"
)

func TestRolePermissions(t *testing.T) {
	as := NewAuthorizationService(logger.Discard())

	cases := []struct {
		role domain.Role
		perm Permission
		want bool
	}{
		{domain.RoleGym, PermManageClasses, true},
		{domain.RoleClient, PermManageClasses, false},
		{domain.RoleClient, PermEnroll, true},
		{domain.RoleGym, PermEnroll, false},
		{domain.RoleClient, PermPay, true},
		{domain.RoleGym, PermManageQuota, true},
		{domain.RoleClient, PermManageQuota, false},
		{domain.Role("admin"), PermBrowseClasses, false},
	}
	for _, c := range cases {
		if got := as.HasPermission(c.role, c.perm); got != c.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", c.role, c.perm, got, c.want)
		}
	}

	if err := as.ValidatePermission(domain.RoleClient, PermIssueCheckIn); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestValidateResourceAccess(t *testing.T) {
	sc := NewScopeChecker(logger.Discard())

	// gym reading its own classes
	if err := sc.ValidateResourceAccess("gym-1", domain.RoleGym, "gym-1", ResourcePermission{ResourceType: ResourceGym, OwnerID: "gym-1"}); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	// gym reading another gym's payments
	if err := sc.ValidateResourceAccess("gym-1", domain.RoleGym, "gym-1", ResourcePermission{ResourceType: ResourcePayment, OwnerID: "gym-2"}); err == nil {
		t.Fatalf("expected cross-gym access to be denied")
	}
	// member reading their gym
	if err := sc.ValidateResourceAccess("client-1", domain.RoleClient, "gym-1", ResourcePermission{ResourceType: ResourceGym, OwnerID: "gym-1"}); err != nil {
		t.Fatalf("member denied: %v", err)
	}
	// client reading another client
	if err := sc.ValidateResourceAccess("client-1", domain.RoleClient, "gym-1", ResourcePermission{ResourceType: ResourceClient, OwnerID: "client-2"}); err == nil {
		t.Fatalf("expected client isolation")
	}
	// client without a gym
	if err := sc.ValidateResourceAccess("client-1", domain.RoleClient, "", ResourcePermission{ResourceType: ResourceGym, OwnerID: ""}); err == nil {
		t.Fatalf("expected denial for empty gym")
	}
}
