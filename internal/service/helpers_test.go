package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/logger"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
	"github.com/MartinaC181/MiGymApp-sub000/internal/repository"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/auth"
)

type testEnv struct {
	repos  *repository.Repositories
	tokens *auth.TokenManager
	audit  *audit.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()
	return &testEnv{
		repos: repository.New(kvstore.NewMemory(), log, repository.Options{
			BcryptCost:         bcrypt.MinCost,
			DefaultQuota:       domain.QuotaSettings{Monto: 10000, Descripcion: "Cuota mensual"},
			IncludeLegacyLists: true,
		}),
		tokens: auth.NewTokenManager("test-secret", "migym"),
		audit:  audit.NewLogger(log),
	}
}

func (e *testEnv) authService() *AuthService {
	return NewAuthService(e.repos.Users, e.repos.Sessions, e.tokens, time.Hour, logger.Discard())
}

func (e *testEnv) gym(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := e.repos.Users.SaveUser(context.Background(), domain.NewGym(domain.GymUser{
		Email:        name + "@gym.test",
		Password:     "gym-password",
		BusinessName: name,
	}))
	if err != nil {
		t.Fatalf("save gym: %v", err)
	}
	return u
}

func (e *testEnv) client(t *testing.T, email, gymID string) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := e.repos.Users.SaveUser(ctx, domain.NewClient(domain.ClientUser{
		Email:      email,
		Password:   "client-password",
		Name:       "Client " + email,
		WeeklyGoal: 2,
	}))
	if err != nil {
		t.Fatalf("save client: %v", err)
	}
	if gymID != "" {
		if err := e.repos.Users.AssignClientToGym(ctx, u.ID(), gymID); err != nil {
			t.Fatalf("assign client: %v", err)
		}
		u, _ = e.repos.Users.GetUserByID(ctx, u.ID())
	}
	return u
}
