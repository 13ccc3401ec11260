package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
)

func addClass7(t *testing.T, f *fixture, gymID string) {
	t.Helper()
	c := yoga()
	c.ID = 7
	_, err := f.classes.AddGymClass(context.Background(), gymID, c)
	require.NoError(t, err)
}

func TestEnrolledClassDetailsDegradeWhenClassIsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addClass7(t, f, "g1")

	_, err := f.enrollments.Enroll(ctx, "client-1", "g1", 7, []string{"08:00-09:00"})
	require.NoError(t, err)

	details := f.enrollments.GetClientEnrolledClassesWithDetails(ctx, "client-1")
	require.Len(t, details, 1)
	assert.Equal(t, "Yoga", details[0].Nombre)
	assert.Equal(t, []string{"08:00-09:00"}, details[0].Horarios)
	assert.False(t, details[0].Partial)
	assert.Equal(t, domain.EnrollmentScoped, details[0].Source)

	require.NoError(t, f.classes.DeleteGymClass(ctx, "g1", 7))

	details = f.enrollments.GetClientEnrolledClassesWithDetails(ctx, "client-1")
	require.Len(t, details, 1)
	assert.True(t, details[0].Partial)
	assert.Equal(t, int64(7), details[0].ClaseID)
	assert.Equal(t, []string{"08:00-09:00"}, details[0].Horarios)
}

func TestEnrollTwiceKeepsOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addClass7(t, f, "g1")

	first, err := f.enrollments.Enroll(ctx, "client-1", "g1", 7, []string{"08:00-09:00"})
	require.NoError(t, err)
	f.enrollments.now = func() time.Time { return fixedNow.Add(time.Hour) }
	second, err := f.enrollments.Enroll(ctx, "client-1", "g1", 7, []string{"18:00-19:00"})
	require.NoError(t, err)

	assert.Equal(t, first.FechaInscripcion, second.FechaInscripcion)
	list := f.enrollments.ListEnrollments(ctx, "client-1")
	require.Len(t, list, 1)
	assert.Equal(t, []string{"18:00-19:00"}, list[0].Horarios)
	assert.Equal(t, 1, f.enrollments.CountClassEnrollments(ctx, "g1", 7))
}

func TestRepeatedKeysDoNotDuplicateRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addClass7(t, f, "g1")
	_, err := f.enrollments.Enroll(ctx, "client-1", "g1", 7, []string{"08:00-09:00"})
	require.NoError(t, err)

	f.store.mu.Lock()
	f.store.repeatKeys = true
	f.store.mu.Unlock()

	assert.Len(t, f.enrollments.ListEnrollments(ctx, "client-1"), 1)
	assert.Len(t, f.enrollments.GetClientEnrolledClassesWithDetails(ctx, "client-1"), 1)
	assert.Len(t, f.enrollments.GetGymEnrollments(ctx, "g1"), 1)
	assert.Equal(t, 1, f.enrollments.CountClassEnrollments(ctx, "g1", 7))
	assert.Len(t, f.classes.GetAvailableClasses(ctx), 1)
}

func TestCancelEnrollmentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addClass7(t, f, "g1")
	_, err := f.enrollments.Enroll(ctx, "client-1", "g1", 7, []string{"08:00-09:00"})
	require.NoError(t, err)
	require.NoError(t, f.enrollments.SaveUserClasses(ctx, "client-1", []domain.Enrollment{
		{ClaseID: 7, Horarios: []string{"08:00-09:00"}},
	}))

	require.NoError(t, f.enrollments.CancelEnrollment(ctx, "client-1", 7, "g1"))
	require.NoError(t, f.enrollments.CancelEnrollment(ctx, "client-1", 7, "g1"))

	assert.Empty(t, f.enrollments.ListEnrollments(ctx, "client-1"))
	_, found, err := f.store.Get(ctx, enrollmentsKey("g1", "client-1"))
	require.NoError(t, err)
	assert.False(t, found, "empty scoped list should be removed")
}

func TestListEnrollmentsPrefersScopedOverLegacy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gym := f.gym(t, "Gym A")
	client := f.client(t, "ana@mail.test", gym.ID())
	addClass7(t, f, gym.ID())

	pilates := yoga()
	pilates.ID = 8
	pilates.Nombre = "Pilates"
	_, err := f.classes.AddGymClass(ctx, gym.ID(), pilates)
	require.NoError(t, err)

	require.NoError(t, f.enrollments.SaveUserClasses(ctx, client.ID(), []domain.Enrollment{
		{ClaseID: 7, Horarios: []string{"old"}},
		{ClaseID: 8, Horarios: []string{"18:00-19:00"}},
		{ClaseID: 8, Horarios: []string{"18:00-19:00"}},
	}))
	_, err = f.enrollments.Enroll(ctx, client.ID(), gym.ID(), 7, []string{"08:00-09:00"})
	require.NoError(t, err)

	list := f.enrollments.ListEnrollments(ctx, client.ID())
	require.Len(t, list, 2)
	byClass := map[int64]domain.Enrollment{}
	for _, e := range list {
		byClass[e.ClaseID] = e
	}
	assert.Equal(t, domain.EnrollmentScoped, byClass[7].Kind)
	assert.Equal(t, []string{"08:00-09:00"}, byClass[7].Horarios)
	assert.Equal(t, domain.EnrollmentLegacy, byClass[8].Kind)

	// legacy records without a gym resolve against the client's gym
	details := f.enrollments.GetClientEnrolledClassesWithDetails(ctx, client.ID())
	require.Len(t, details, 2)
	for _, d := range details {
		assert.False(t, d.Partial)
		assert.Equal(t, gym.ID(), d.GymID)
	}
}

func TestListEnrollmentsCanIgnoreLegacy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enrollments.includeLegacy = false
	require.NoError(t, f.enrollments.SaveUserClasses(ctx, "client-1", []domain.Enrollment{{ClaseID: 3}}))

	assert.Empty(t, f.enrollments.ListEnrollments(ctx, "client-1"))
	assert.Len(t, f.enrollments.GetUserClasses(ctx, "client-1"), 1)
}

func TestGetGymEnrollmentsIsScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.enrollments.Enroll(ctx, "client-1", "g1", 7, nil)
	require.NoError(t, err)
	_, err = f.enrollments.Enroll(ctx, "client-2", "g1", 7, nil)
	require.NoError(t, err)
	_, err = f.enrollments.Enroll(ctx, "client-1", "g2", 7, nil)
	require.NoError(t, err)

	assert.Len(t, f.enrollments.GetGymEnrollments(ctx, "g1"), 2)
	assert.Equal(t, 2, f.enrollments.CountClassEnrollments(ctx, "g1", 7))
	assert.Equal(t, 1, f.enrollments.CountClassEnrollments(ctx, "g2", 7))
	assert.Len(t, f.enrollments.ListEnrollments(ctx, "client-1"), 2)
}

func TestCancelEnrollmentFailsWithoutTouchingDataWhenMediumIsDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.enrollments.Enroll(ctx, "client-1", "g1", 7, nil)
	require.NoError(t, err)

	f.store.setFailures(prefixEnrollments, "")
	assert.ErrorIs(t, f.enrollments.CancelEnrollment(ctx, "client-1", 7, "g1"), domain.ErrStorageUnavailable)

	f.store.setFailures("", "")
	assert.Len(t, f.enrollments.ListEnrollments(ctx, "client-1"), 1)
}

func TestParseEnrollmentsKey(t *testing.T) {
	gym, client, ok := parseEnrollmentsKey(enrollmentsKey("gym-1", "client-2"))
	require.True(t, ok)
	assert.Equal(t, "gym-1", gym)
	assert.Equal(t, "client-2", client)

	_, _, ok = parseEnrollmentsKey("enrollments:only")
	assert.False(t, ok)
	_, _, ok = parseEnrollmentsKey("userClasses:x")
	assert.False(t, ok)
}
