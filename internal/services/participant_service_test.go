package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lulus/backend/internal/models"
)

func newTestParticipants(t *testing.T) *FileParticipantService {
	t.Helper()
	svc, err := NewFileParticipantService(t.TempDir())
	require.NoError(t, err)
	return svc
}

func birthday(month time.Month, day int) time.Time {
	return time.Date(1991, month, day, 0, 0, 0, 0, time.UTC)
}

func TestParticipants_CreateDerivesFields(t *testing.T) {
	svc := newTestParticipants(t)

	p, err := svc.Create(&models.CreateParticipantRequest{
		FullName: "Luana Pereira",
		Date:     birthday(time.September, 9),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, p.ID)
	assert.Equal(t, "09", p.Month)
	assert.Equal(t, "Luana", p.Name)
	assert.Equal(t, models.PixNone, p.PixKeyType)
}

func TestParticipants_GivesToDenormalization(t *testing.T) {
	svc := newTestParticipants(t)

	ana, err := svc.Create(&models.CreateParticipantRequest{Name: "Ana", Date: birthday(time.May, 2)})
	require.NoError(t, err)

	bia, err := svc.Create(&models.CreateParticipantRequest{
		Name:      "Bia",
		Date:      birthday(time.June, 3),
		GivesToID: ana.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", bia.GivesTo)

	// Unresolvable assignment stays nameless instead of failing.
	carla, err := svc.Create(&models.CreateParticipantRequest{
		Name:      "Carla",
		Date:      birthday(time.July, 4),
		GivesToID: 99,
	})
	require.NoError(t, err)
	assert.Empty(t, carla.GivesTo)
}

func TestParticipants_Update(t *testing.T) {
	svc := newTestParticipants(t)

	p, err := svc.Create(&models.CreateParticipantRequest{Name: "Ana", Date: birthday(time.May, 2)})
	require.NoError(t, err)

	newCity := "Curitiba"
	newDate := birthday(time.October, 30)
	got, err := svc.Update(p.ID, &models.UpdateParticipantRequest{
		City: &newCity,
		Date: &newDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "Curitiba", got.City)
	assert.Equal(t, "10", got.Month)

	_, err = svc.Update(99, &models.UpdateParticipantRequest{City: &newCity})
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestParticipants_DeleteBreaksAssignments(t *testing.T) {
	svc := newTestParticipants(t)

	ana, _ := svc.Create(&models.CreateParticipantRequest{Name: "Ana", Date: birthday(time.May, 2)})
	bia, _ := svc.Create(&models.CreateParticipantRequest{
		Name:      "Bia",
		Date:      birthday(time.June, 3),
		GivesToID: ana.ID,
	})

	require.NoError(t, svc.Delete(ana.ID))
	assert.ErrorIs(t, svc.Delete(ana.ID), ErrParticipantNotFound)

	got, err := svc.GetByID(bia.ID)
	require.NoError(t, err)
	assert.Zero(t, got.GivesToID)
	assert.Empty(t, got.GivesTo)
}

func TestParticipants_SetPhoto(t *testing.T) {
	svc := newTestParticipants(t)

	p, _ := svc.Create(&models.CreateParticipantRequest{Name: "Ana", Date: birthday(time.May, 2)})

	require.NoError(t, svc.SetPhoto(p.ID, "/uploads/x.jpg", 1234))
	got, err := svc.GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.jpg", got.PhotoURL)
	assert.EqualValues(t, 1234, got.PhotoUpdatedAt)

	assert.ErrorIs(t, svc.SetPhoto(99, "x", 1), ErrParticipantNotFound)
}

func TestParticipants_ListSortedByDate(t *testing.T) {
	svc := newTestParticipants(t)

	svc.Create(&models.CreateParticipantRequest{Name: "Duda", Date: birthday(time.December, 25)})
	svc.Create(&models.CreateParticipantRequest{Name: "Ana", Date: birthday(time.January, 30)})
	svc.Create(&models.CreateParticipantRequest{Name: "Bia", Date: birthday(time.January, 2)})

	list, err := svc.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Bia", list[0].Name)
	assert.Equal(t, "Ana", list[1].Name)
	assert.Equal(t, "Duda", list[2].Name)
}

func TestParticipants_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	svc, err := NewFileParticipantService(dir)
	require.NoError(t, err)
	created, err := svc.Create(&models.CreateParticipantRequest{Name: "Ana", Date: birthday(time.May, 2)})
	require.NoError(t, err)

	reopened, err := NewFileParticipantService(dir)
	require.NoError(t, err)

	got, err := reopened.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Name)

	// IDs keep counting from the highest persisted id.
	next, err := reopened.Create(&models.CreateParticipantRequest{Name: "Bia", Date: birthday(time.June, 3)})
	require.NoError(t, err)
	assert.Equal(t, created.ID+1, next.ID)
}
