package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/metrics"
)

// EnrollmentRepository reads and writes both enrollment schemes: the legacy
// flat list at userClasses:{userId} and the gym-scoped list at
// enrollments:{gymId}:{clientId}. New enrollments are always scoped.
type EnrollmentRepository struct {
	base
	classes       *ClassRepository
	users         *UserRepository
	includeLegacy bool
}

// NewEnrollmentRepository creates a new enrollment repository. When
// includeLegacy is false the legacy list is ignored by merged reads.
func NewEnrollmentRepository(store kvstore.Store, locks *kvstore.KeyLocks, logger *slog.Logger, classes *ClassRepository, users *UserRepository, includeLegacy bool) *EnrollmentRepository {
	return &EnrollmentRepository{
		base:          newBase(store, locks, logger),
		classes:       classes,
		users:         users,
		includeLegacy: includeLegacy,
	}
}

// SaveUserClasses replaces the legacy list wholesale
func (r *EnrollmentRepository) SaveUserClasses(ctx context.Context, userID string, list []domain.Enrollment) error {
	key := userClassesKey(userID)
	unlock := r.locks.Lock(key)
	defer unlock()

	if list == nil {
		list = []domain.Enrollment{}
	}
	for i := range list {
		if list[i].ClientID == "" {
			list[i].ClientID = userID
		}
	}
	return r.write(ctx, key, list)
}

// GetUserClasses returns the legacy list
func (r *EnrollmentRepository) GetUserClasses(ctx context.Context, userID string) []domain.Enrollment {
	var list []domain.Enrollment
	r.read(ctx, userClassesKey(userID), prefixUserClasses, &list)
	for i := range list {
		list[i].Kind = domain.EnrollmentLegacy
		if list[i].ClientID == "" {
			list[i].ClientID = userID
		}
	}
	return list
}

func (r *EnrollmentRepository) scoped(ctx context.Context, key string) []domain.Enrollment {
	var list []domain.Enrollment
	r.read(ctx, key, prefixEnrollments, &list)
	gymID, clientID, _ := parseEnrollmentsKey(key)
	for i := range list {
		list[i].Kind = domain.EnrollmentScoped
		if list[i].GymID == "" {
			list[i].GymID = gymID
		}
		if list[i].ClientID == "" {
			list[i].ClientID = clientID
		}
	}
	return list
}

// Enroll upserts the client's scoped record for classID. Re-enrolling
// replaces the chosen slots and keeps the original enrollment date.
func (r *EnrollmentRepository) Enroll(ctx context.Context, clientID, gymID string, classID int64, slots []string) (*domain.Enrollment, error) {
	key := enrollmentsKey(gymID, clientID)
	unlock := r.locks.Lock(key)
	defer unlock()

	var list []domain.Enrollment
	if _, err := r.readForUpdate(ctx, key, &list); err != nil {
		return nil, err
	}

	record := domain.Enrollment{
		Kind:             domain.EnrollmentScoped,
		ClientID:         clientID,
		ClaseID:          classID,
		GymID:            gymID,
		Horarios:         append([]string{}, slots...),
		FechaInscripcion: r.now().UTC(),
	}
	replaced := false
	for i := range list {
		if list[i].ClaseID == classID {
			record.FechaInscripcion = list[i].FechaInscripcion
			list[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, record)
	}

	if err := r.write(ctx, key, list); err != nil {
		return nil, fmt.Errorf("failed to save enrollment: %w", err)
	}
	metrics.ObserveEnrollment("enroll")
	r.logger.Info("client enrolled",
		slog.String("client_id", clientID),
		slog.String("gym_id", gymID),
		slog.Int64("class_id", classID),
	)
	return &record, nil
}

// ListEnrollments merges the scoped and legacy lists. A legacy record is
// dropped when a scoped record exists for the same class.
func (r *EnrollmentRepository) ListEnrollments(ctx context.Context, clientID string) []domain.Enrollment {
	var out []domain.Enrollment
	scopedByClass := make(map[int64][]string)

	for _, key := range r.scan(ctx, prefixEnrollments) {
		_, owner, ok := parseEnrollmentsKey(key)
		if !ok || owner != clientID {
			continue
		}
		for _, e := range r.scoped(ctx, key) {
			out = append(out, e)
			scopedByClass[e.ClaseID] = append(scopedByClass[e.ClaseID], e.GymID)
		}
	}

	if r.includeLegacy {
		seen := make(map[string]bool)
		for _, e := range r.GetUserClasses(ctx, clientID) {
			if shadowedByScoped(e, scopedByClass[e.ClaseID]) {
				continue
			}
			k := fmt.Sprintf("%s|%d", e.GymID, e.ClaseID)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FechaInscripcion.Equal(out[j].FechaInscripcion) {
			return out[i].FechaInscripcion.Before(out[j].FechaInscripcion)
		}
		return out[i].ClaseID < out[j].ClaseID
	})
	return out
}

func shadowedByScoped(legacy domain.Enrollment, scopedGyms []string) bool {
	for _, gymID := range scopedGyms {
		if legacy.GymID == "" || legacy.GymID == gymID {
			return true
		}
	}
	return false
}

// GetClientEnrolledClassesWithDetails joins each enrollment with its class.
// Catalogs are loaded once per gym; an enrollment whose class is gone comes
// back with Partial set.
func (r *EnrollmentRepository) GetClientEnrolledClassesWithDetails(ctx context.Context, clientID string) []domain.EnrolledClass {
	enrollments := r.ListEnrollments(ctx, clientID)
	out := make([]domain.EnrolledClass, 0, len(enrollments))
	if len(enrollments) == 0 {
		return out
	}

	fallbackGym := ""
	if r.users != nil {
		if u, ok := r.users.GetUserByID(ctx, clientID); ok && u.Role() == domain.RoleClient {
			fallbackGym = u.Client.GymID
		}
	}

	catalogs := make(map[string]map[int64]domain.Class)
	catalog := func(gymID string) map[int64]domain.Class {
		if c, ok := catalogs[gymID]; ok {
			return c
		}
		byID := make(map[int64]domain.Class)
		if gymID != "" && r.classes != nil {
			for _, c := range r.classes.GetGymClasses(ctx, gymID) {
				byID[c.ID] = c
			}
		}
		catalogs[gymID] = byID
		return byID
	}

	for _, e := range enrollments {
		gymID := e.GymID
		if gymID == "" {
			gymID = fallbackGym
		}
		item := domain.EnrolledClass{
			ClaseID:          e.ClaseID,
			GymID:            gymID,
			Horarios:         e.Horarios,
			FechaInscripcion: e.FechaInscripcion,
			Source:           e.Kind,
			Nombre:           e.Nombre,
		}
		if c, ok := catalog(gymID)[e.ClaseID]; ok {
			item.Nombre = c.Nombre
			item.Descripcion = c.Descripcion
			item.Imagen = c.Imagen
			item.Activa = c.Activa
			item.DiasHorarios = c.DiasHorarios
		} else {
			item.Partial = true
		}
		out = append(out, item)
	}
	return out
}

// CancelEnrollment removes the client's record for classID from the scoped
// list of gymID and any matching legacy record. Cancelling something that is
// not enrolled succeeds.
func (r *EnrollmentRepository) CancelEnrollment(ctx context.Context, clientID string, classID int64, gymID string) error {
	removed := 0

	if gymID != "" {
		n, err := r.removeFrom(ctx, enrollmentsKey(gymID, clientID), func(e domain.Enrollment) bool {
			return e.ClaseID == classID
		})
		if err != nil {
			return fmt.Errorf("failed to cancel enrollment: %w", err)
		}
		removed += n
	}

	n, err := r.removeFrom(ctx, userClassesKey(clientID), func(e domain.Enrollment) bool {
		return e.Matches(classID, gymID)
	})
	if err != nil {
		return fmt.Errorf("failed to cancel legacy enrollment: %w", err)
	}
	removed += n

	if removed > 0 {
		metrics.ObserveEnrollment("cancel")
		r.logger.Info("enrollment cancelled",
			slog.String("client_id", clientID),
			slog.String("gym_id", gymID),
			slog.Int64("class_id", classID),
		)
	}
	return nil
}

// removeFrom drops matching records from the list at key, deleting the key
// once the list is empty
func (r *EnrollmentRepository) removeFrom(ctx context.Context, key string, match func(domain.Enrollment) bool) (int, error) {
	unlock := r.locks.Lock(key)
	defer unlock()

	var list []domain.Enrollment
	found, err := r.readForUpdate(ctx, key, &list)
	if err != nil || !found {
		return 0, err
	}

	kept := list[:0]
	for _, e := range list {
		if !match(e) {
			kept = append(kept, e)
		}
	}
	removed := len(list) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if len(kept) == 0 {
		return removed, r.remove(ctx, key)
	}
	return removed, r.write(ctx, key, kept)
}

// GetGymEnrollments lists every scoped enrollment held in the gym
func (r *EnrollmentRepository) GetGymEnrollments(ctx context.Context, gymID string) []domain.Enrollment {
	var out []domain.Enrollment
	prefix := prefixEnrollments + gymID + ":"
	for _, key := range r.scan(ctx, prefix) {
		if strings.Count(strings.TrimPrefix(key, prefix), ":") > 0 {
			continue
		}
		out = append(out, r.scoped(ctx, key)...)
	}
	return out
}

// CountClassEnrollments counts the gym's scoped enrollments for classID
func (r *EnrollmentRepository) CountClassEnrollments(ctx context.Context, gymID string, classID int64) int {
	n := 0
	for _, e := range r.GetGymEnrollments(ctx, gymID) {
		if e.ClaseID == classID {
			n++
		}
	}
	return n
}
