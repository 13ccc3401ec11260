package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/auth"
)

const (
	minPasswordLength = 8
	defaultWeeklyGoal = 3
)

// AuthService handles registration, login and the device session
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionStore
	tokens   *auth.TokenManager
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	sessions domain.SessionStore,
	tokens *auth.TokenManager,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// RegisterInput carries the fields of either account type. GymName lets a
// client join a gym by its business name at sign-up.
type RegisterInput struct {
	Role         domain.Role `json:"role"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Name         string      `json:"name,omitempty"`
	WeeklyGoal   int         `json:"weeklyGoal,omitempty"`
	DNI          string      `json:"dni,omitempty"`
	GymName      string      `json:"gymName,omitempty"`
	BusinessName string      `json:"businessName,omitempty"`
	Address      string      `json:"address,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Description  string      `json:"description,omitempty"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	TokenType string       `json:"tokenType"`
}

func (in RegisterInput) validate() error {
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	switch in.Role {
	case domain.RoleClient:
		if strings.TrimSpace(in.Name) == "" {
			return fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		if in.WeeklyGoal < 0 || in.WeeklyGoal > 7 {
			return fmt.Errorf("%w: weeklyGoal must be between 1 and 7", ErrInvalidInput)
		}
	case domain.RoleGym:
		if strings.TrimSpace(in.BusinessName) == "" {
			return fmt.Errorf("%w: businessName is required", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: role must be client or gym", ErrInvalidInput)
	}
	return nil
}

// Register creates a new account and returns a session token for it
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(in.Email)

	var (
		user *domain.User
		gym  *domain.User
	)
	switch in.Role {
	case domain.RoleClient:
		if in.GymName != "" {
			g, ok := s.users.GetGymUserByBusinessName(ctx, in.GymName)
			if !ok {
				return nil, fmt.Errorf("gym %q: %w", in.GymName, domain.ErrNotFound)
			}
			gym = g
		}
		goal := in.WeeklyGoal
		if goal == 0 {
			goal = defaultWeeklyGoal
		}
		user = domain.NewClient(domain.ClientUser{
			Email:      email,
			Password:   in.Password,
			Name:       strings.TrimSpace(in.Name),
			WeeklyGoal: goal,
			DNI:        in.DNI,
		})
	case domain.RoleGym:
		user = domain.NewGym(domain.GymUser{
			Email:        email,
			Password:     in.Password,
			BusinessName: strings.TrimSpace(in.BusinessName),
			Address:      in.Address,
			Phone:        in.Phone,
			Description:  in.Description,
		})
	}

	saved, err := s.users.SaveUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if gym != nil {
		if err := s.users.AssignClientToGym(ctx, saved.ID(), gym.ID()); err != nil {
			return nil, fmt.Errorf("failed to join gym: %w", err)
		}
		if refreshed, ok := s.users.GetUserByID(ctx, saved.ID()); ok {
			saved = refreshed
		}
	}

	s.logger.Info("user registered",
		slog.String("user_id", saved.ID()),
		slog.String("role", string(saved.Role())),
	)
	return s.issue(saved)
}

// Login authenticates by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, ok := s.users.GetUserByCredentials(ctx, email, password)
	if !ok {
		s.logger.Info("login failed", slog.String("email", domain.NormalizeEmail(email)))
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID()),
		slog.String("role", string(user.Role())),
	)
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:      user.Sanitized(),
		Token:     token,
		ExpiresAt: expiresAt,
		TokenType: "Bearer",
	}, nil
}

// StartDeviceSession persists a login as the device's current session
func (s *AuthService) StartDeviceSession(ctx context.Context, res *AuthResult, rememberMe bool) (*domain.Session, error) {
	if _, err := s.sessions.SaveSession(ctx, res.User, rememberMe); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.sessions.AttachToken(ctx, res.Token, res.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to attach token: %w", err)
	}
	sess, ok := s.sessions.GetSession(ctx)
	if !ok {
		return nil, domain.ErrStorageUnavailable
	}
	return sess, nil
}

// Logout clears the device session; the users collection is untouched
func (s *AuthService) Logout(ctx context.Context) error {
	return s.sessions.ClearSession(ctx)
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	user, ok := s.users.GetUserByID(ctx, userID)
	if !ok {
		return domain.ErrNotFound
	}
	match, ok := s.users.GetUserByCredentials(ctx, user.Email(), current)
	if !ok || match.ID() != userID {
		return domain.ErrInvalidCredentials
	}
	if _, err := s.users.UpdateUserProfile(ctx, userID, map[string]any{"password": next}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to change password: %w", err)
	}
	s.logger.Info("password changed", slog.String("user_id", userID))
	return nil
}
