package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/auth"
	"github.com/MartinaC181/MiGymApp-sub000/pkg/cache"
)

const qrSize = 256

// AttendanceService issues front-desk check-in QR codes and records the
// attendance of clients who scan them
type AttendanceService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	qr     *cache.Cache[[]byte]
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewAttendanceService creates a new attendance service. Check-in codes are
// valid for ttl and regenerated halfway through.
func NewAttendanceService(users domain.UserRepository, tokens *auth.TokenManager, ttl time.Duration, logger *slog.Logger) *AttendanceService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AttendanceService{
		users:  users,
		tokens: tokens,
		qr:     cache.New[[]byte](),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// CheckInQR returns a PNG QR code encoding a signed check-in token for the gym
func (s *AttendanceService) CheckInQR(ctx context.Context, gymID string) ([]byte, error) {
	gym, ok := s.users.GetUserByID(ctx, gymID)
	if !ok || gym.Role() != domain.RoleGym {
		return nil, domain.ErrNotFound
	}
	return s.qr.GetOrLoad(gymID, s.ttl/2, func() ([]byte, error) {
		token, _, err := s.tokens.GenerateCheckInToken(gymID, s.ttl)
		if err != nil {
			return nil, err
		}
		png, err := qrcode.Encode(token, qrcode.Medium, qrSize)
		if err != nil {
			return nil, fmt.Errorf("failed to encode check-in qr: %w", err)
		}
		s.logger.Debug("check-in qr generated", slog.String("gym_id", gymID))
		return png, nil
	})
}

// CheckIn records today's attendance for a client who scanned their gym's code
func (s *AttendanceService) CheckIn(ctx context.Context, clientID, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateCheckInToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	u, ok := s.users.GetUserByID(ctx, clientID)
	if !ok || u.Role() != domain.RoleClient {
		return nil, domain.ErrNotFound
	}
	if u.Client.GymID == "" || u.Client.GymID != claims.GymID {
		return nil, domain.ErrNoGym
	}

	updated, err := s.users.RecordAttendance(ctx, clientID, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("client checked in",
		slog.String("client_id", clientID),
		slog.String("gym_id", claims.GymID),
		slog.Int("weekly_streak", updated.Client.WeeklyStreak),
	)
	return updated.Sanitized(), nil
}
