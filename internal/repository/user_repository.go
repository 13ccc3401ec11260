package repository

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
)

// UserRepository keeps both user variants in the single usersDB collection
type UserRepository struct {
	base
	bcryptCost int
}

// NewUserRepository creates a new user repository. bcryptCost <= 0 uses bcrypt.DefaultCost.
func NewUserRepository(store kvstore.Store, locks *kvstore.KeyLocks, logger *slog.Logger, bcryptCost int) *UserRepository {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserRepository{base: newBase(store, locks, logger), bcryptCost: bcryptCost}
}

func (r *UserRepository) loadAll(ctx context.Context) []*domain.User {
	var users []*domain.User
	r.read(ctx, keyUsers, keyUsers, &users)
	return users
}

func (r *UserRepository) loadForUpdate(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	if _, err := r.readForUpdate(ctx, keyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) hashIfPlain(u *domain.User) error {
	pw := u.PasswordHash()
	if pw == "" || isBcryptHash(pw) {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), r.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.SetPasswordHash(string(hash))
	return nil
}

// SaveUser upserts by id, replacing the stored record wholesale. A user
// without an id gets a role-prefixed one.
func (r *UserRepository) SaveUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if !user.Role().Valid() {
		return nil, domain.ErrInvalidUser
	}
	u := user.Clone()
	if u.ID() == "" {
		u.SetID(u.Role().IDPrefix() + uuid.NewString())
	}
	if err := r.hashIfPlain(u); err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(keyUsers)
	defer unlock()

	users, err := r.loadForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(users, u); err != nil {
		return nil, err
	}

	idx := indexOfUser(users, u.ID())
	if idx >= 0 {
		users[idx] = u
	} else {
		users = append(users, u)
	}

	if err := r.write(ctx, keyUsers, users); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	r.logger.Debug("user saved",
		slog.String("user_id", u.ID()),
		slog.String("role", string(u.Role())),
	)
	return u.Clone(), nil
}

// GetUserByID returns the stored user
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, bool) {
	users := r.loadAll(ctx)
	if idx := indexOfUser(users, id); idx >= 0 {
		return users[idx], true
	}
	return nil, false
}

// UpdateUserProfile shallow-merges partial over the stored JSON object. The
// id and role keys are ignored; a plaintext password is hashed.
func (r *UserRepository) UpdateUserProfile(ctx context.Context, id string, partial map[string]any) (*domain.User, error) {
	unlock := r.locks.Lock(keyUsers)
	defer unlock()

	users, err := r.loadForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfUser(users, id)
	if idx < 0 {
		return nil, domain.ErrNotFound
	}

	raw, err := json.Marshal(users[idx])
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	for k, v := range partial {
		if k == "id" || k == "role" {
			continue
		}
		obj[k] = v
	}

	raw, err = json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merged user: %w", err)
	}
	merged := &domain.User{}
	if err := json.Unmarshal(raw, merged); err != nil {
		return nil, fmt.Errorf("invalid profile update: %w", err)
	}
	if err := r.hashIfPlain(merged); err != nil {
		return nil, err
	}

	others := append(append([]*domain.User{}, users[:idx]...), users[idx+1:]...)
	if err := checkUnique(others, merged); err != nil {
		return nil, err
	}

	users[idx] = merged
	if err := r.write(ctx, keyUsers, users); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return merged.Clone(), nil
}

// GetUserByCredentials scans for a user whose email and password match
func (r *UserRepository) GetUserByCredentials(ctx context.Context, email, password string) (*domain.User, bool) {
	want := domain.NormalizeEmail(email)
	for _, u := range r.loadAll(ctx) {
		if domain.NormalizeEmail(u.Email()) != want {
			continue
		}
		if passwordMatches(u.PasswordHash(), password) {
			return u, true
		}
	}
	return nil, false
}

// GetGymUserByBusinessName matches case-insensitively on the trimmed name
func (r *UserRepository) GetGymUserByBusinessName(ctx context.Context, name string) (*domain.User, bool) {
	want := domain.NormalizeBusinessName(name)
	if want == "" {
		return nil, false
	}
	for _, u := range r.loadAll(ctx) {
		if u.Role() == domain.RoleGym && domain.NormalizeBusinessName(u.Gym.BusinessName) == want {
			return u, true
		}
	}
	return nil, false
}

// ListUsers returns all users of a role, or every user when role is empty
func (r *UserRepository) ListUsers(ctx context.Context, role domain.Role) []*domain.User {
	all := r.loadAll(ctx)
	if role == "" {
		return all
	}
	out := make([]*domain.User, 0, len(all))
	for _, u := range all {
		if u.Role() == role {
			out = append(out, u)
		}
	}
	return out
}

// ListGymClients resolves a gym's members through the clients' gymId
func (r *UserRepository) ListGymClients(ctx context.Context, gymID string) []*domain.User {
	var out []*domain.User
	for _, u := range r.loadAll(ctx) {
		if u.Role() == domain.RoleClient && u.Client.GymID == gymID {
			out = append(out, u)
		}
	}
	return out
}

// AssignClientToGym sets the client's gymId and keeps both gyms' client
// lists in step. All three records share one blob so this is one write.
func (r *UserRepository) AssignClientToGym(ctx context.Context, clientID, gymID string) error {
	unlock := r.locks.Lock(keyUsers)
	defer unlock()

	users, err := r.loadForUpdate(ctx)
	if err != nil {
		return err
	}
	ci := indexOfUser(users, clientID)
	gi := indexOfUser(users, gymID)
	if ci < 0 || gi < 0 || users[ci].Role() != domain.RoleClient || users[gi].Role() != domain.RoleGym {
		return domain.ErrNotFound
	}

	client := users[ci].Client
	if prev := client.GymID; prev != "" && prev != gymID {
		if pi := indexOfUser(users, prev); pi >= 0 && users[pi].Role() == domain.RoleGym {
			users[pi].Gym.Clients = slices.DeleteFunc(users[pi].Gym.Clients, func(id string) bool { return id == clientID })
		}
	}
	client.GymID = gymID
	if !slices.Contains(users[gi].Gym.Clients, clientID) {
		users[gi].Gym.Clients = append(users[gi].Gym.Clients, clientID)
	}

	if err := r.write(ctx, keyUsers, users); err != nil {
		return fmt.Errorf("failed to assign client to gym: %w", err)
	}
	r.logger.Info("client joined gym", slog.String("client_id", clientID), slog.String("gym_id", gymID))
	return nil
}

// RecordAttendance adds day to the client's attendance and recomputes the weekly streak
func (r *UserRepository) RecordAttendance(ctx context.Context, clientID string, day time.Time) (*domain.User, error) {
	unlock := r.locks.Lock(keyUsers)
	defer unlock()

	users, err := r.loadForUpdate(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfUser(users, clientID)
	if idx < 0 || users[idx].Role() != domain.RoleClient {
		return nil, domain.ErrNotFound
	}

	client := users[idx].Client
	date := day.Format(time.DateOnly)
	if !slices.Contains(client.Attendance, date) {
		client.Attendance = append(client.Attendance, date)
		sort.Strings(client.Attendance)
	}
	client.WeeklyStreak = WeeklyStreak(client.Attendance, client.WeeklyGoal, day)

	if err := r.write(ctx, keyUsers, users); err != nil {
		return nil, fmt.Errorf("failed to record attendance: %w", err)
	}
	return users[idx].Clone(), nil
}

// SetPaymentUpToDate flips the client's isPaymentUpToDate flag
func (r *UserRepository) SetPaymentUpToDate(ctx context.Context, clientID string, upToDate bool) error {
	unlock := r.locks.Lock(keyUsers)
	defer unlock()

	users, err := r.loadForUpdate(ctx)
	if err != nil {
		return err
	}
	idx := indexOfUser(users, clientID)
	if idx < 0 || users[idx].Role() != domain.RoleClient {
		return domain.ErrNotFound
	}
	if users[idx].Client.IsPaymentUpToDate == upToDate {
		return nil
	}
	users[idx].Client.IsPaymentUpToDate = upToDate
	return r.write(ctx, keyUsers, users)
}

// WeeklyStreak counts consecutive ISO weeks, ending at now's week, in which
// attendance reached goal. A current week that has not reached the goal yet
// does not break the streak.
func WeeklyStreak(dates []string, goal int, now time.Time) int {
	if goal <= 0 {
		goal = 1
	}
	perWeek := make(map[[2]int]int)
	for _, d := range dates {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			continue
		}
		y, w := t.ISOWeek()
		perWeek[[2]int{y, w}]++
	}
	weekOf := func(t time.Time) [2]int {
		y, w := t.ISOWeek()
		return [2]int{y, w}
	}

	cursor := now
	if perWeek[weekOf(cursor)] < goal {
		cursor = cursor.AddDate(0, 0, -7)
	}
	streak := 0
	for perWeek[weekOf(cursor)] >= goal {
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}
	return streak
}

func indexOfUser(users []*domain.User, id string) int {
	if id == "" {
		return -1
	}
	for i, u := range users {
		if u.ID() == id {
			return i
		}
	}
	return -1
}

// checkUnique enforces email-per-role and gym business-name uniqueness against
// every record other than u itself
func checkUnique(users []*domain.User, u *domain.User) error {
	email := domain.NormalizeEmail(u.Email())
	for _, other := range users {
		if other.ID() == u.ID() {
			continue
		}
		if other.Role() == u.Role() && email != "" && domain.NormalizeEmail(other.Email()) == email {
			return domain.ErrEmailTaken
		}
		if u.Role() == domain.RoleGym && other.Role() == domain.RoleGym {
			name := domain.NormalizeBusinessName(u.Gym.BusinessName)
			if name != "" && domain.NormalizeBusinessName(other.Gym.BusinessName) == name {
				return domain.ErrBusinessNameTaken
			}
		}
	}
	return nil
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// passwordMatches accepts bcrypt hashes and, for records imported before
// hashing, plaintext
func passwordMatches(stored, password string) bool {
	if stored == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}
