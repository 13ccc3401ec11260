package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
)

func yoga() domain.Class {
	return domain.Class{
		Nombre:      "Yoga",
		Descripcion: "Hatha",
		CupoMaximo:  12,
		Activa:      true,
		DiasHorarios: map[domain.Weekday][]string{
			domain.Lunes:     {"08:00-09:00"},
			domain.Miercoles: {"18:00-19:00"},
		},
	}
}

func TestAddGymClassRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.classes.AddGymClass(ctx, "g1", yoga())
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), added.ID)

	classes := f.classes.GetGymClasses(ctx, "g1")
	require.Len(t, classes, 1)
	want := yoga()
	want.ID = added.ID
	assert.Equal(t, want, classes[0])
}

func TestAddGymClassAssignsNextIDAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.classes.AddGymClass(ctx, "g1", yoga())
	require.NoError(t, err)
	second, err := f.classes.AddGymClass(ctx, "g1", yoga())
	require.NoError(t, err)
	assert.Equal(t, first.ID+1, second.ID)

	explicit := yoga()
	explicit.ID = first.ID
	_, err = f.classes.AddGymClass(ctx, "g1", explicit)
	assert.ErrorIs(t, err, domain.ErrClassExists)
}

func TestGymClassesAreScopedPerGym(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.classes.AddGymClass(ctx, "gymA", yoga())
	require.NoError(t, err)

	assert.Empty(t, f.classes.GetGymClasses(ctx, "gymB"))
	assert.Len(t, f.classes.GetGymClasses(ctx, "gymA"), 1)
}

func TestUpdateGymClassPreservesID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	added, err := f.classes.AddGymClass(ctx, "g1", yoga())
	require.NoError(t, err)

	changed := domain.Class{
		ID:           999,
		Nombre:       "Pilates",
		CupoMaximo:   8,
		Activa:       false,
		DiasHorarios: map[domain.Weekday][]string{domain.Viernes: {"10:00-11:00"}},
	}
	require.NoError(t, f.classes.UpdateGymClass(ctx, "g1", added.ID, changed))

	classes := f.classes.GetGymClasses(ctx, "g1")
	require.Len(t, classes, 1)
	changed.ID = added.ID
	assert.Equal(t, changed, classes[0])

	assert.ErrorIs(t, f.classes.UpdateGymClass(ctx, "g1", 42, changed), domain.ErrNotFound)
}

func TestDeleteGymClass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	added, err := f.classes.AddGymClass(ctx, "g1", yoga())
	require.NoError(t, err)

	require.NoError(t, f.classes.DeleteGymClass(ctx, "g1", added.ID))
	assert.Empty(t, f.classes.GetGymClasses(ctx, "g1"))
	assert.ErrorIs(t, f.classes.DeleteGymClass(ctx, "g1", added.ID), domain.ErrNotFound)
}

func TestGetAvailableClassesSpansGymsAndSkipsInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gymA := f.gym(t, "Gym A")
	gymB := f.gym(t, "Gym B")

	_, err := f.classes.AddGymClass(ctx, gymA.ID(), yoga())
	require.NoError(t, err)
	closed := yoga()
	closed.Activa = false
	closed.ID = 5
	_, err = f.classes.AddGymClass(ctx, gymA.ID(), closed)
	require.NoError(t, err)
	_, err = f.classes.AddGymClass(ctx, gymB.ID(), yoga())
	require.NoError(t, err)

	available := f.classes.GetAvailableClasses(ctx)
	require.Len(t, available, 2)
	names := map[string]string{}
	for _, c := range available {
		assert.True(t, c.Activa)
		names[c.GymID] = c.GymName
	}
	assert.Equal(t, "Gym A", names[gymA.ID()])
	assert.Equal(t, "Gym B", names[gymB.ID()])
}

func TestClassReadsDegradeAndWritesFail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.classes.AddGymClass(ctx, "g1", yoga())
	require.NoError(t, err)

	f.store.setFailures(prefixGymClasses, "")
	assert.Empty(t, f.classes.GetGymClasses(ctx, "g1"))
	_, err = f.classes.AddGymClass(ctx, "g1", yoga())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	f.store.setFailures("", "")
	assert.Len(t, f.classes.GetGymClasses(ctx, "g1"), 1)
}
