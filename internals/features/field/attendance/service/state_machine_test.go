package service

import (
	"errors"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	geofence "ecoguard_backend/internals/features/field/geofence/service"
	geocoding "ecoguard_backend/internals/features/field/geocoding/service"
	oracle "ecoguard_backend/internals/features/field/oracle/service"
)

var (
	lakeSite   = geofence.Site{Name: "Bellandur Lake", Latitude: 12.9352, Longitude: 77.6784}
	lakeTarget = Target{Sites: []geofence.Site{lakeSite}, RadiusKm: 1}
	smNow      = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
)

func newTestMachine() *Machine {
	return NewMachine(Key{ProjectID: uuid.New(), ContributorID: uuid.New(), Date: "2026-10-16"}, oracle.AttendanceEntry)
}

func validPhoto() *Photo {
	return &Photo{Data: []byte{1}, MimeType: "image/png", Width: 100, Height: 100}
}

func TestMachine_HappyPath(t *testing.T) {
	m := newTestMachine()

	require.NoError(t, m.VerifyLocation(Fix{Latitude: 12.9360, Longitude: 77.6790}, lakeTarget, smNow, 0))
	require.NoError(t, m.AttachPlace(geocoding.Place{Address: "Bellandur, Bengaluru"}))
	require.NoError(t, m.RequestPhoto())
	require.NoError(t, m.CapturePhoto(validPhoto(), nil))
	require.NoError(t, m.BeginVerification())
	require.NoError(t, m.ApplyVerdict(oracle.Verdict{Verified: true, Confidence: oracle.ConfidenceHigh, Reason: "ok"}, nil))
	assert.True(t, m.Accepted())
	require.NoError(t, m.Commit())

	assert.Equal(t, StateCommitted, m.State())
	assert.Equal(t, []State{
		StateIdle, StateLocationPending, StateLocationVerified, StatePhotoPending,
		StatePhotoCaptured, StateVerifying, StateCommitted,
	}, m.Trail())
	assert.Equal(t, "Bellandur Lake", m.Location().SiteName)
	assert.Equal(t, "Bellandur, Bengaluru", m.Location().Place.Address)
}

func TestMachine_OutOfRangeResumesAtIdle(t *testing.T) {
	m := newTestMachine()

	err := m.VerifyLocation(Fix{Latitude: 12.99, Longitude: 77.59}, lakeTarget, smNow, 0)
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonOutOfRange, sf.Reason)
	assert.Equal(t, StateIdle, sf.ResumeState)
	require.NotNil(t, sf.DistanceKm)
	assert.Greater(t, *sf.DistanceKm, 1.0)
	assert.Equal(t, fiber.StatusUnprocessableEntity, sf.HTTPStatus())
	assert.Equal(t, StateFailed, m.State())

	require.NoError(t, m.Resume())
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.Location())
}

func TestMachine_NoSitesIsOutOfRange(t *testing.T) {
	m := newTestMachine()
	err := m.VerifyLocation(Fix{Latitude: 1, Longitude: 1}, Target{RadiusKm: 1}, smNow, 0)
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonOutOfRange, sf.Reason)
	assert.Nil(t, sf.DistanceKm)
}

func TestMachine_StaleFix(t *testing.T) {
	m := newTestMachine()
	captured := smNow.Add(-45 * time.Minute)

	err := m.VerifyLocation(Fix{Latitude: 12.9352, Longitude: 77.6784, CapturedAt: &captured}, lakeTarget, smNow, 30*time.Minute)
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonStaleLocation, sf.Reason)
	assert.Equal(t, StateIdle, sf.ResumeState)

	// fix segar lolos
	m2 := newTestMachine()
	fresh := smNow.Add(-5 * time.Minute)
	assert.NoError(t, m2.VerifyLocation(Fix{Latitude: 12.9352, Longitude: 77.6784, CapturedAt: &fresh}, lakeTarget, smNow, 30*time.Minute))
}

func verifiedMachine(t *testing.T) *Machine {
	t.Helper()
	m := newTestMachine()
	require.NoError(t, m.VerifyLocation(Fix{Latitude: 12.9352, Longitude: 77.6784}, lakeTarget, smNow, 0))
	require.NoError(t, m.RequestPhoto())
	return m
}

func TestMachine_InvalidPhotoResumesAtPhotoPending(t *testing.T) {
	m := verifiedMachine(t)

	err := m.CapturePhoto(nil, ErrPhotoEmpty)
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonInvalidPhoto, sf.Reason)
	assert.Equal(t, StatePhotoPending, sf.ResumeState)

	require.NoError(t, m.Resume())
	assert.Equal(t, StatePhotoPending, m.State())
	assert.NotNil(t, m.Location(), "location must survive a photo failure")
	assert.NoError(t, m.CapturePhoto(validPhoto(), nil))
}

func TestMachine_PhotoRejected(t *testing.T) {
	m := verifiedMachine(t)
	require.NoError(t, m.CapturePhoto(validPhoto(), nil))
	require.NoError(t, m.BeginVerification())

	err := m.ApplyVerdict(oracle.Verdict{
		Verified:    false,
		Confidence:  oracle.ConfidenceMedium,
		Reason:      "Indoor office",
		Suggestions: []string{"Take the photo outside at the site"},
	}, nil)
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonPhotoRejected, sf.Reason)
	assert.Equal(t, StatePhotoPending, sf.ResumeState)
	assert.Equal(t, "Indoor office", sf.Message)
	assert.Equal(t, []string{"Take the photo outside at the site"}, sf.Suggestions)
	assert.False(t, m.Accepted())
	assert.ErrorIs(t, m.Commit(), ErrInvalidTransition)
}

func TestMachine_OracleUnavailableRetriesWithoutNewPhoto(t *testing.T) {
	m := verifiedMachine(t)
	require.NoError(t, m.CapturePhoto(validPhoto(), nil))
	require.NoError(t, m.BeginVerification())

	err := m.ApplyVerdict(oracle.Verdict{}, oracle.ErrOracleUnavailable)
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonOracleUnavailable, sf.Reason)
	assert.Equal(t, StatePhotoCaptured, sf.ResumeState)
	assert.Equal(t, fiber.StatusServiceUnavailable, sf.HTTPStatus())

	require.NoError(t, m.Resume())
	assert.NotNil(t, m.Photo())
	require.NoError(t, m.BeginVerification())
	require.NoError(t, m.ApplyVerdict(oracle.Verdict{Verified: true, Confidence: oracle.ConfidenceLow, Reason: "ok"}, nil))
	assert.NoError(t, m.Commit())
}

func TestMachine_RejectsOutOfOrderSteps(t *testing.T) {
	m := newTestMachine()
	assert.ErrorIs(t, m.RequestPhoto(), ErrInvalidTransition)
	assert.ErrorIs(t, m.CapturePhoto(validPhoto(), nil), ErrInvalidTransition)
	assert.ErrorIs(t, m.BeginVerification(), ErrInvalidTransition)
	assert.ErrorIs(t, m.ApplyVerdict(oracle.Verdict{Verified: true}, nil), ErrInvalidTransition)
	assert.ErrorIs(t, m.Commit(), ErrInvalidTransition)
	assert.ErrorIs(t, m.Resume(), ErrInvalidTransition)
	assert.ErrorIs(t, m.AttachPlace(geocoding.Place{}), ErrInvalidTransition)
	assert.Equal(t, StateIdle, m.State())
}

func TestKey_String(t *testing.T) {
	p := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	c := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	k := Key{ProjectID: p, ContributorID: c, Date: "2026-10-16"}
	assert.Equal(t, "11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222:2026-10-16", k.String())
}
