package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
)

const checkInAudience = "checkin"

// Claims identify the caller of an API request
type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	Email  string      `json:"email"`
	GymID  string      `json:"gym_id,omitempty"`
	jwt.RegisteredClaims
}

// CheckInClaims are carried by the QR code a gym displays at its front desk
type CheckInClaims struct {
	GymID string `json:"gym_id"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret string
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) *TokenManager {
	if secret == "" {
		secret = "change-me-in-production"
	}
	if issuer == "" {
		issuer = "migym"
	}
	return &TokenManager{secret: secret, issuer: issuer, now: time.Now}
}

// GenerateToken issues a session token for user. For clients GymID is the
// gym they belong to; for gyms it is their own id.
func (tm *TokenManager) GenerateToken(user *domain.User, expiresIn time.Duration) (string, time.Time, error) {
	if user == nil || user.ID() == "" || !user.Role().Valid() {
		return "", time.Time{}, fmt.Errorf("user id and role required")
	}
	gymID := user.ID()
	if user.Role() == domain.RoleClient {
		gymID = user.Client.GymID
	}
	now := tm.now()
	expiresAt := now.Add(expiresIn)
	claims := Claims{
		UserID: user.ID(),
		Role:   user.Role(),
		Email:  user.Email(),
		GymID:  gymID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    tm.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := tm.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if len(claims.Audience) > 0 {
		return nil, fmt.Errorf("invalid token claims")
	}
	if !claims.Role.Valid() || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// GenerateCheckInToken issues a short-lived token binding a check-in to gymID
func (tm *TokenManager) GenerateCheckInToken(gymID string, ttl time.Duration) (string, time.Time, error) {
	if gymID == "" {
		return "", time.Time{}, fmt.Errorf("gym_id required")
	}
	now := tm.now()
	expiresAt := now.Add(ttl)
	claims := CheckInClaims{
		GymID: gymID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{checkInAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    tm.issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tm.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign check-in token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateCheckInToken returns the gym a check-in token was issued for
func (tm *TokenManager) ValidateCheckInToken(tokenString string) (*CheckInClaims, error) {
	claims := &CheckInClaims{}
	if err := tm.parse(tokenString, claims, jwt.WithAudience(checkInAudience)); err != nil {
		return nil, err
	}
	if claims.GymID == "" {
		return nil, fmt.Errorf("invalid check-in token")
	}
	return claims, nil
}

func (tm *TokenManager) parse(tokenString string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	opts = append(opts, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("parse token failed: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

func ExtractToken(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
