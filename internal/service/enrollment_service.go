package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
)

// EnrollmentService applies the business rules the enrollment repository
// leaves to its callers: active classes, offered slots and capacity
type EnrollmentService struct {
	classes     domain.ClassRepository
	enrollments domain.EnrollmentRepository
	users       domain.UserRepository
	locks       *kvstore.KeyLocks
	audit       *audit.Logger
	logger      *slog.Logger
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(
	classes domain.ClassRepository,
	enrollments domain.EnrollmentRepository,
	users domain.UserRepository,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		classes:     classes,
		enrollments: enrollments,
		users:       users,
		locks:       kvstore.NewKeyLocks(),
		audit:       auditLog,
		logger:      logger,
	}
}

// RosterEntry is one client enrolled in a class
type RosterEntry struct {
	ClientID         string    `json:"clientId"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Horarios         []string  `json:"horarios"`
	FechaInscripcion time.Time `json:"fechaInscripcion"`
}

func (s *EnrollmentService) client(ctx context.Context, clientID string) (*domain.ClientUser, error) {
	u, ok := s.users.GetUserByID(ctx, clientID)
	if !ok || u.Role() != domain.RoleClient {
		return nil, domain.ErrNotFound
	}
	return u.Client, nil
}

// Enroll signs the client up for classID at their gym. gymID may be empty,
// in which case the client's own gym is used.
func (s *EnrollmentService) Enroll(ctx context.Context, clientID, gymID string, classID int64, slots []string) (*domain.Enrollment, error) {
	client, err := s.client(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if gymID == "" {
		gymID = client.GymID
	}
	if gymID == "" || gymID != client.GymID {
		return nil, domain.ErrNoGym
	}

	class, ok := s.classes.GetGymClass(ctx, gymID, classID)
	if !ok {
		return nil, fmt.Errorf("class %d: %w", classID, domain.ErrNotFound)
	}
	if !class.Activa {
		return nil, domain.ErrClassInactive
	}
	offered := class.Slots()
	for _, slot := range slots {
		if !offered[slot] {
			return nil, fmt.Errorf("%w: %s", domain.ErrSlotNotOffered, slot)
		}
	}

	ref := gymID + ":" + strconv.FormatInt(classID, 10)
	unlock := s.locks.Lock(ref)
	defer unlock()

	if class.CupoMaximo > 0 && !s.isEnrolled(ctx, clientID, gymID, classID) {
		if n := s.enrollments.CountClassEnrollments(ctx, gymID, classID); n >= class.CupoMaximo {
			s.audit.LogEnrollment(ctx, clientID, "enroll", ref, "full")
			return nil, domain.ErrClassFull
		}
	}

	e, err := s.enrollments.Enroll(ctx, clientID, gymID, classID, slots)
	if err != nil {
		s.audit.LogEnrollment(ctx, clientID, "enroll", ref, "error")
		return nil, err
	}
	s.audit.LogEnrollment(ctx, clientID, "enroll", ref, "success")
	return e, nil
}

func (s *EnrollmentService) isEnrolled(ctx context.Context, clientID, gymID string, classID int64) bool {
	for _, e := range s.enrollments.ListEnrollments(ctx, clientID) {
		if e.Kind == domain.EnrollmentScoped && e.GymID == gymID && e.ClaseID == classID {
			return true
		}
	}
	return false
}

// Cancel drops the client's enrollment; cancelling twice is not an error
func (s *EnrollmentService) Cancel(ctx context.Context, clientID, gymID string, classID int64) error {
	if gymID == "" {
		if client, err := s.client(ctx, clientID); err == nil {
			gymID = client.GymID
		}
	}
	if err := s.enrollments.CancelEnrollment(ctx, clientID, classID, gymID); err != nil {
		return err
	}
	s.audit.LogEnrollment(ctx, clientID, "cancel", gymID+":"+strconv.FormatInt(classID, 10), "success")
	return nil
}

// MyClasses lists the client's enrollments joined with class details
func (s *EnrollmentService) MyClasses(ctx context.Context, clientID string) []domain.EnrolledClass {
	return s.enrollments.GetClientEnrolledClassesWithDetails(ctx, clientID)
}

// Roster lists the clients enrolled in one of the gym's classes, earliest first
func (s *EnrollmentService) Roster(ctx context.Context, gymID string, classID int64) ([]RosterEntry, error) {
	if _, ok := s.classes.GetGymClass(ctx, gymID, classID); !ok {
		return nil, domain.ErrNotFound
	}
	out := []RosterEntry{}
	for _, e := range s.enrollments.GetGymEnrollments(ctx, gymID) {
		if e.ClaseID != classID {
			continue
		}
		entry := RosterEntry{ClientID: e.ClientID, Horarios: e.Horarios, FechaInscripcion: e.FechaInscripcion}
		if u, ok := s.users.GetUserByID(ctx, e.ClientID); ok {
			entry.Name = u.DisplayName()
			entry.Email = u.Email()
		} else {
			s.logger.Warn("roster entry for unknown client",
				slog.String("gym_id", gymID),
				slog.String("client_id", e.ClientID),
			)
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FechaInscripcion.Before(out[j].FechaInscripcion)
	})
	return out, nil
}
