package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/logger"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
)

var errMedium = errors.New("medium offline")

// flakyStore wraps a store and fails calls on keys matching a prefix
type flakyStore struct {
	kvstore.Store
	mu        sync.Mutex
	failSet   string
	failGet   string
	failCount int
	// repeatKeys makes Keys report every key twice
	repeatKeys bool
}

func (f *flakyStore) matches(prefix, key string) bool {
	return prefix != "" && strings.HasPrefix(key, prefix)
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.matches(f.failGet, key)
	f.mu.Unlock()
	if fail {
		return "", false, errMedium
	}
	return f.Store.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.matches(f.failSet, key)
	if fail {
		f.failCount++
	}
	f.mu.Unlock()
	if fail {
		return errMedium
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := f.Store.Keys(ctx)
	f.mu.Lock()
	repeat := f.repeatKeys
	f.mu.Unlock()
	if err != nil || !repeat {
		return keys, err
	}
	return append(keys, keys...), nil
}

func (f *flakyStore) setFailures(getPrefix, setPrefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet = getPrefix
	f.failSet = setPrefix
}

type fixture struct {
	store       *flakyStore
	users       *UserRepository
	sessions    *SessionRepository
	classes     *ClassRepository
	enrollments *EnrollmentRepository
	payments    *PaymentRepository
	prefs       *PreferenceRepository
}

var fixedNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &flakyStore{Store: kvstore.NewMemory()}
	locks := kvstore.NewKeyLocks()
	log := logger.Discard()

	users := NewUserRepository(store, locks, log, bcrypt.MinCost)
	classes := NewClassRepository(store, locks, log, users)
	f := &fixture{
		store:       store,
		users:       users,
		sessions:    NewSessionRepository(store, locks, log),
		classes:     classes,
		enrollments: NewEnrollmentRepository(store, locks, log, classes, users, true),
		payments: NewPaymentRepository(store, locks, log, users, domain.QuotaSettings{
			Monto:       10000,
			Descripcion: "Cuota mensual",
		}),
		prefs: NewPreferenceRepository(store, locks, log),
	}
	for _, b := range []*base{&f.users.base, &f.sessions.base, &f.classes.base, &f.enrollments.base, &f.payments.base, &f.prefs.base} {
		b.now = func() time.Time { return fixedNow }
	}
	return f
}

func (f *fixture) gym(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.users.SaveUser(context.Background(), domain.NewGym(domain.GymUser{
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", "")) + "@gym.test",
		Password:     "secret",
		BusinessName: name,
	}))
	if err != nil {
		t.Fatalf("save gym: %v", err)
	}
	return u
}

func (f *fixture) client(t *testing.T, email, gymID string) *domain.User {
	t.Helper()
	u, err := f.users.SaveUser(context.Background(), domain.NewClient(domain.ClientUser{
		Email:      email,
		Password:   "secret",
		Name:       "Ana",
		WeeklyGoal: 2,
		GymID:      gymID,
	}))
	if err != nil {
		t.Fatalf("save client: %v", err)
	}
	return u
}
