package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
)

// gymDirectory resolves gym names for the browse view
type gymDirectory interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, bool)
}

// ClassRepository stores each gym's class catalog at gymClasses:{gymId}
type ClassRepository struct {
	base
	gyms gymDirectory
}

// NewClassRepository creates a new class repository. gyms may be nil, in
// which case available classes carry no gym name.
func NewClassRepository(store kvstore.Store, locks *kvstore.KeyLocks, logger *slog.Logger, gyms gymDirectory) *ClassRepository {
	return &ClassRepository{base: newBase(store, locks, logger), gyms: gyms}
}

// GetGymClasses lists one gym's classes
func (r *ClassRepository) GetGymClasses(ctx context.Context, gymID string) []domain.Class {
	var classes []domain.Class
	r.read(ctx, gymClassesKey(gymID), prefixGymClasses, &classes)
	if classes == nil {
		return []domain.Class{}
	}
	return classes
}

// GetGymClass returns a single class of the gym
func (r *ClassRepository) GetGymClass(ctx context.Context, gymID string, classID int64) (*domain.Class, bool) {
	for _, c := range r.GetGymClasses(ctx, gymID) {
		if c.ID == classID {
			return &c, true
		}
	}
	return nil, false
}

// AddGymClass appends class to the gym's catalog. A zero id is replaced by
// the current Unix millisecond, bumped until it is free within the gym.
func (r *ClassRepository) AddGymClass(ctx context.Context, gymID string, class domain.Class) (*domain.Class, error) {
	key := gymClassesKey(gymID)
	unlock := r.locks.Lock(key)
	defer unlock()

	var classes []domain.Class
	if _, err := r.readForUpdate(ctx, key, &classes); err != nil {
		return nil, err
	}

	used := make(map[int64]bool, len(classes))
	for _, c := range classes {
		used[c.ID] = true
	}
	if class.ID == 0 {
		class.ID = r.now().UnixMilli()
		for used[class.ID] {
			class.ID++
		}
	} else if used[class.ID] {
		return nil, domain.ErrClassExists
	}
	if class.DiasHorarios == nil {
		class.DiasHorarios = map[domain.Weekday][]string{}
	}

	classes = append(classes, class)
	if err := r.write(ctx, key, classes); err != nil {
		return nil, fmt.Errorf("failed to add class: %w", err)
	}

	r.logger.Info("class added",
		slog.String("gym_id", gymID),
		slog.Int64("class_id", class.ID),
	)
	return &class, nil
}

// UpdateGymClass replaces the stored class, keeping its id
func (r *ClassRepository) UpdateGymClass(ctx context.Context, gymID string, classID int64, class domain.Class) error {
	key := gymClassesKey(gymID)
	unlock := r.locks.Lock(key)
	defer unlock()

	var classes []domain.Class
	if _, err := r.readForUpdate(ctx, key, &classes); err != nil {
		return err
	}
	for i := range classes {
		if classes[i].ID != classID {
			continue
		}
		class.ID = classID
		if class.DiasHorarios == nil {
			class.DiasHorarios = map[domain.Weekday][]string{}
		}
		classes[i] = class
		if err := r.write(ctx, key, classes); err != nil {
			return fmt.Errorf("failed to update class: %w", err)
		}
		return nil
	}
	return domain.ErrNotFound
}

// DeleteGymClass removes the class. Enrollments referencing it are left in
// place and surface as partial records.
func (r *ClassRepository) DeleteGymClass(ctx context.Context, gymID string, classID int64) error {
	key := gymClassesKey(gymID)
	unlock := r.locks.Lock(key)
	defer unlock()

	var classes []domain.Class
	if _, err := r.readForUpdate(ctx, key, &classes); err != nil {
		return err
	}
	for i := range classes {
		if classes[i].ID == classID {
			classes = append(classes[:i], classes[i+1:]...)
			if err := r.write(ctx, key, classes); err != nil {
				return fmt.Errorf("failed to delete class: %w", err)
			}
			r.logger.Info("class deleted", slog.String("gym_id", gymID), slog.Int64("class_id", classID))
			return nil
		}
	}
	return domain.ErrNotFound
}

// GetAvailableClasses aggregates classes across every gym. Classes with
// activa=false are left out.
func (r *ClassRepository) GetAvailableClasses(ctx context.Context) []domain.AvailableClass {
	out := []domain.AvailableClass{}
	for _, key := range r.scan(ctx, prefixGymClasses) {
		gymID := strings.TrimPrefix(key, prefixGymClasses)
		if gymID == "" {
			continue
		}
		gymName := ""
		if r.gyms != nil {
			if gym, ok := r.gyms.GetUserByID(ctx, gymID); ok {
				gymName = gym.DisplayName()
			}
		}
		for _, c := range r.GetGymClasses(ctx, gymID) {
			if !c.Activa {
				continue
			}
			out = append(out, domain.AvailableClass{Class: c, GymID: gymID, GymName: gymName})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GymID != out[j].GymID {
			return out[i].GymID < out[j].GymID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
