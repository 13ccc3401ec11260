package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	s := env.authService()
	ctx := context.Background()

	gym, err := s.Register(ctx, RegisterInput{
		Role:         domain.RoleGym,
		Email:        "owner@gym.test",
		Password:     "Password123",
		BusinessName: "Iron Temple",
	})
	if err != nil {
		t.Fatalf("register gym failed: %v", err)
	}
	if gym.Token == "" || gym.User.ID() == "" {
		t.Fatalf("expected gym id and token")
	}

	client, err := s.Register(ctx, RegisterInput{
		Role:     domain.RoleClient,
		Email:    "Alice@Example.com",
		Password: "Password123",
		Name:     "Alice",
		GymName:  "  iron temple ",
	})
	if err != nil {
		t.Fatalf("register client failed: %v", err)
	}
	if client.User.Client.GymID != gym.User.ID() {
		t.Fatalf("expected client to join %s, got %q", gym.User.ID(), client.User.Client.GymID)
	}
	if client.User.Client.WeeklyGoal != defaultWeeklyGoal {
		t.Fatalf("expected default weekly goal, got %d", client.User.Client.WeeklyGoal)
	}
	if client.User.PasswordHash() != "" {
		t.Fatalf("password must not be returned")
	}

	res, err := s.Login(ctx, "alice@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := env.tokens.ValidateToken(res.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.UserID != client.User.ID() || claims.Role != domain.RoleClient || claims.GymID != gym.User.ID() {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := s.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestEnv(t).authService()
	ctx := context.Background()

	cases := []RegisterInput{
		{Role: domain.RoleClient, Email: "not-an-email", Password: "Password123", Name: "A"},
		{Role: domain.RoleClient, Email: "a@b.test", Password: "short", Name: "A"},
		{Role: domain.RoleClient, Email: "a@b.test", Password: "Password123"},
		{Role: domain.RoleGym, Email: "a@b.test", Password: "Password123"},
		{Role: "admin", Email: "a@b.test", Password: "Password123"},
	}
	for i, in := range cases {
		if _, err := s.Register(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}

	if _, err := s.Register(ctx, RegisterInput{Role: domain.RoleClient, Email: "a@b.test", Password: "Password123", Name: "A", GymName: "Nowhere"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected unknown gym to be not found, got %v", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	s := newTestEnv(t).authService()
	ctx := context.Background()

	in := RegisterInput{Role: domain.RoleGym, Email: "owner@gym.test", Password: "Password123", BusinessName: "Iron Temple"}
	if _, err := s.Register(ctx, in); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	dupEmail := in
	dupEmail.BusinessName = "Other"
	if _, err := s.Register(ctx, dupEmail); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	dupName := in
	dupName.Email = "other@gym.test"
	dupName.BusinessName = "IRON TEMPLE"
	if _, err := s.Register(ctx, dupName); !errors.Is(err, domain.ErrBusinessNameTaken) {
		t.Fatalf("expected ErrBusinessNameTaken, got %v", err)
	}

	sameEmailOtherRole := RegisterInput{Role: domain.RoleClient, Email: "owner@gym.test", Password: "Password123", Name: "Owner"}
	if _, err := s.Register(ctx, sameEmailOtherRole); err != nil {
		t.Fatalf("email should be unique per role only: %v", err)
	}
}

func TestDeviceSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	s := env.authService()
	ctx := context.Background()
	env.client(t, "bob@example.com", "")

	res, err := s.Login(ctx, "bob@example.com", "client-password")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	sess, err := s.StartDeviceSession(ctx, res, true)
	if err != nil {
		t.Fatalf("start session failed: %v", err)
	}
	if !sess.IsAuthenticated || sess.Token != res.Token || sess.CurrentUserID != res.User.ID() {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if !env.repos.Sessions.ShouldRestore(ctx) {
		t.Fatalf("remembered session should be restored")
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := env.repos.Sessions.GetSession(ctx); ok {
		t.Fatalf("session should be cleared")
	}
	if _, ok := env.repos.Users.GetUserByID(ctx, res.User.ID()); !ok {
		t.Fatalf("logout must not remove the user")
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	s := env.authService()
	ctx := context.Background()
	u := env.client(t, "carol@example.com", "")

	if err := s.ChangePassword(ctx, u.ID(), "wrong", "NewPassword1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := s.ChangePassword(ctx, u.ID(), "client-password", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := s.ChangePassword(ctx, u.ID(), "client-password", "NewPassword1"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := s.Login(ctx, "carol@example.com", "client-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password should no longer work")
	}
	if _, err := s.Login(ctx, "carol@example.com", "NewPassword1"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}
