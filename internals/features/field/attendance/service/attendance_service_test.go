package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	attModel "ecoguard_backend/internals/features/field/attendance/model"
	attRepo "ecoguard_backend/internals/features/field/attendance/repository"
	geocoding "ecoguard_backend/internals/features/field/geocoding/service"
	oracle "ecoguard_backend/internals/features/field/oracle/service"
	projectModel "ecoguard_backend/internals/features/field/projects/model"
	projectRepo "ecoguard_backend/internals/features/field/projects/repository"
	"ecoguard_backend/internals/helpers/keylock"
)

/* ===================== fakes ===================== */

type fakeProjects struct {
	project      *projectModel.ProjectModel
	contributors map[uuid.UUID]*projectModel.ProjectContributorModel
}

func (f *fakeProjects) FindByID(_ context.Context, id uuid.UUID) (*projectModel.ProjectModel, error) {
	if f.project == nil || f.project.ProjectID != id {
		return nil, projectRepo.ErrProjectNotFound
	}
	return f.project, nil
}

func (f *fakeProjects) FindContributor(_ context.Context, projectID, userID uuid.UUID) (*projectModel.ProjectContributorModel, error) {
	c, ok := f.contributors[userID]
	if !ok || f.project.ProjectID != projectID {
		return nil, projectRepo.ErrContributorNotFound
	}
	return c, nil
}

type memStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*attModel.FieldAttendanceModel
}

func newMemStore() *memStore {
	return &memStore{rows: map[uuid.UUID]*attModel.FieldAttendanceModel{}}
}

func (s *memStore) Create(_ context.Context, m *attModel.FieldAttendanceModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.FieldAttendanceProjectID == m.FieldAttendanceProjectID &&
			r.FieldAttendanceContributorID == m.FieldAttendanceContributorID &&
			r.FieldAttendanceDate == m.FieldAttendanceDate {
			return attRepo.ErrDuplicateEntry
		}
	}
	m.FieldAttendanceID = uuid.New()
	cp := *m
	s.rows[m.FieldAttendanceID] = &cp
	return nil
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*attModel.FieldAttendanceModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, attRepo.ErrAttendanceNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) FindByKey(_ context.Context, projectID, contributorID uuid.UUID, date string) (*attModel.FieldAttendanceModel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.FieldAttendanceProjectID == projectID && r.FieldAttendanceContributorID == contributorID && r.FieldAttendanceDate == date {
			cp := *r
			return &cp, nil
		}
	}
	return nil, attRepo.ErrAttendanceNotFound
}

func (s *memStore) UpdateExit(_ context.Context, id uuid.UUID, expectedVersion int, u attRepo.ExitUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok || r.FieldAttendanceVersion != expectedVersion || r.FieldAttendanceExitTime != nil {
		return attRepo.ErrVersionConflict
	}
	exit, lat, lng, ref := u.ExitTime, u.Latitude, u.Longitude, u.PhotoRef
	r.FieldAttendanceExitTime = &exit
	r.FieldAttendanceExitLatitude = &lat
	r.FieldAttendanceExitLongitude = &lng
	r.FieldAttendanceExitAddress = u.Address
	r.FieldAttendanceExitPhotoRef = &ref
	r.FieldAttendanceExitAIVerification = u.AIVerification
	r.FieldAttendanceStatus = u.Status
	r.FieldAttendanceVersion++
	return nil
}

func (s *memStore) List(_ context.Context, f attRepo.ListFilter) ([]attModel.FieldAttendanceModel, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []attModel.FieldAttendanceModel
	for _, r := range s.rows {
		if r.FieldAttendanceProjectID != f.ProjectID {
			continue
		}
		if f.ContributorID != nil && r.FieldAttendanceContributorID != *f.ContributorID {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (s *memStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]attModel.FieldAttendanceModel, error) {
	rows, _, err := s.List(ctx, attRepo.ListFilter{ProjectID: projectID})
	return rows, err
}

type scriptedOracle struct {
	mu      sync.Mutex
	verdict oracle.Verdict
	err     error
	calls   int32
}

func (o *scriptedOracle) Verify(context.Context, oracle.Request) (oracle.Verdict, error) {
	atomic.AddInt32(&o.calls, 1)
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.verdict, o.err
}

type staticGeocoder struct {
	place geocoding.Place
	err   error
}

func (g staticGeocoder) Reverse(context.Context, float64, float64) (geocoding.Place, error) {
	return g.place, g.err
}

type memPhotos struct {
	mu      sync.Mutex
	saved   map[string]bool
	deleted []string
}

func (p *memPhotos) Save(_ context.Context, key Key, kind string, _ *Photo) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref := "/uploads/attendance/" + key.ProjectID.String() + "/" + kind + "-" + uuid.NewString()
	p.saved[ref] = true
	return ref, nil
}

func (p *memPhotos) Delete(_ context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.saved, ref)
	p.deleted = append(p.deleted, ref)
	return nil
}

/* ===================== fixture ===================== */

type fixture struct {
	svc       *Service
	store     *memStore
	oracle    *scriptedOracle
	photos    *memPhotos
	projectID uuid.UUID
	staffID   uuid.UUID
	memberID  uuid.UUID
	now       time.Time
	photo     []byte
}

const (
	projLat = 12.9352
	projLng = 77.6784
	siteLat = 12.9716 // ~4 km dari koordinat proyek
	siteLng = 77.6412
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	projectID, staffID, memberID := uuid.New(), uuid.New(), uuid.New()
	project := &projectModel.ProjectModel{
		ProjectID:        projectID,
		ProjectName:      "Bellandur Lake Restoration",
		ProjectLocation:  "Bellandur Lake, Bengaluru",
		ProjectLatitude:  projLat,
		ProjectLongitude: projLng,
		ProjectStatus:    projectModel.ProjectStatusActive,
		ProjectSites: []projectModel.ProjectSiteModel{
			{ProjectSiteName: "North Inlet", ProjectSiteLatitude: siteLat, ProjectSiteLongitude: siteLng},
		},
	}
	projects := &fakeProjects{
		project: project,
		contributors: map[uuid.UUID]*projectModel.ProjectContributorModel{
			staffID:  {ProjectContributorUserID: staffID, ProjectContributorName: "Asha", ProjectContributorRole: projectModel.ContributorRoleNGOStaff},
			memberID: {ProjectContributorUserID: memberID, ProjectContributorName: "Ravi", ProjectContributorRole: projectModel.ContributorRoleCommunity},
		},
	}

	f := &fixture{
		store:     newMemStore(),
		oracle:    &scriptedOracle{verdict: oracle.Verdict{Verified: true, Confidence: oracle.ConfidenceHigh, Reason: "Lake shore"}},
		photos:    &memPhotos{saved: map[string]bool{}},
		projectID: projectID,
		staffID:   staffID,
		memberID:  memberID,
		now:       time.Date(2026, 10, 16, 3, 30, 0, 0, time.UTC), // 09:00 IST
		photo:     pngBytes(t, 100, 100),
	}
	ist := time.FixedZone("IST", 5*3600+1800)
	f.svc = NewService(projects, f.store, f.oracle,
		staticGeocoder{err: errors.New("geocoder down")}, f.photos, keylock.NewMemoryLocker(),
		Options{MaxFixAge: 30 * time.Minute, MaxPhotoBytes: 5 << 20, Location: ist}, zap.NewNop())
	f.svc.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) checkInInput(user uuid.UUID, lat, lng float64) CheckInInput {
	return CheckInInput{PhotoInput: PhotoInput{
		LocationInput: LocationInput{ProjectID: f.projectID, UserID: user, Fix: Fix{Latitude: lat, Longitude: lng}},
		Kind:          oracle.AttendanceEntry,
		Photo:         f.photo,
	}}
}

func fiberCode(t *testing.T, err error) int {
	t.Helper()
	var fe *fiber.Error
	require.True(t, errors.As(err, &fe), "expected *fiber.Error, got %v", err)
	return fe.Code
}

/* ===================== tests ===================== */

func TestComputeStatus(t *testing.T) {
	entry := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, attModel.AttendancePresent, ComputeStatus(entry, entry.Add(6*time.Hour)))
	assert.Equal(t, attModel.AttendancePresent, ComputeStatus(entry, entry.Add(9*time.Hour)))
	assert.Equal(t, attModel.AttendancePartial, ComputeStatus(entry, entry.Add(6*time.Hour-time.Millisecond)))
	assert.Equal(t, attModel.AttendancePartial, ComputeStatus(entry, entry))
}

func TestCheckIn_CommunityMemberAgainstProjectCoordinate(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, 12.9380, 77.6784)) // ~0.3 km
	require.NoError(t, err)

	rec := res.Record
	assert.Equal(t, "2026-10-16", rec.FieldAttendanceDate)
	assert.Equal(t, attModel.AttendancePartial, rec.FieldAttendanceStatus)
	assert.Equal(t, "Ravi", rec.FieldAttendanceContributorName)
	assert.Equal(t, "Bellandur Lake Restoration", rec.FieldAttendanceSiteName)
	assert.Equal(t, "Lat 12.938000, Lng 77.678400", res.Address, "geocoder failure falls back to placeholder")
	assert.NotEmpty(t, rec.FieldAttendanceEntryPhotoRef)
	assert.Contains(t, string(rec.FieldAttendanceAIVerification), `"verified":true`)
	assert.Equal(t, StateCommitted, res.Trail[len(res.Trail)-1])
}

func TestCheckIn_CommunityMemberOutsideHalfKilometre(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, 12.9420, 77.6784)) // ~0.76 km
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonOutOfRange, sf.Reason)
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.oracle.calls), "oracle must not be called when location fails")
}

func TestCheckIn_NGOStaffUsesSites(t *testing.T) {
	f := newFixture(t)

	// dekat koordinat proyek tapi jauh dari site → ditolak untuk staf
	_, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.staffID, projLat, projLng))
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, "North Inlet", sf.SiteName)

	res, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.staffID, siteLat+0.005, siteLng)) // ~0.55 km
	require.NoError(t, err)
	assert.Equal(t, "North Inlet", res.Record.FieldAttendanceSiteName)
}

func TestCheckIn_SecondEntrySameDayConflicts(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
	require.NoError(t, err)

	_, err = f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
	assert.Equal(t, fiber.StatusConflict, fiberCode(t, err))
}

func TestCheckIn_ConcurrentSubmissionsCommitOnce(t *testing.T) {
	f := newFixture(t)

	var ok, conflict int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
			var fe *fiber.Error
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.As(err, &fe) && fe.Code == fiber.StatusConflict:
				atomic.AddInt32(&conflict, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(7), conflict)
	rows, _ := f.store.ListByProject(context.Background(), f.projectID)
	assert.Len(t, rows, 1)
	assert.Len(t, f.photos.saved, 1, "photos of losing submissions are rolled back")
}

func TestCheckIn_PhotoRejectedAndOracleUnavailable(t *testing.T) {
	f := newFixture(t)

	f.oracle.verdict = oracle.Verdict{Verified: false, Confidence: oracle.ConfidenceMedium, Reason: "Screenshot detected"}
	_, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonPhotoRejected, sf.Reason)
	assert.Equal(t, StatePhotoPending, sf.ResumeState)

	f.oracle.err = oracle.ErrOracleUnavailable
	_, err = f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonOracleUnavailable, sf.Reason)
	assert.Equal(t, fiber.StatusServiceUnavailable, sf.HTTPStatus())

	rows, _ := f.store.ListByProject(context.Background(), f.projectID)
	assert.Empty(t, rows, "nothing is committed on failure")
}

func TestCheckIn_UnencodableVerdictIsNotCommitted(t *testing.T) {
	f := newFixture(t)
	// time.Time di luar tahun 0..9999 gagal di-encode JSON
	f.oracle.verdict.Timestamp = time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
	assert.Equal(t, fiber.StatusInternalServerError, fiberCode(t, err))

	rows, _ := f.store.ListByProject(context.Background(), f.projectID)
	assert.Empty(t, rows)
	assert.Empty(t, f.photos.saved)
}

func TestCheckIn_InvalidPhoto(t *testing.T) {
	f := newFixture(t)
	in := f.checkInInput(f.memberID, projLat, projLng)
	in.Photo = []byte("not an image")

	_, err := f.svc.CheckIn(context.Background(), in)
	var sf *StepFailure
	require.True(t, errors.As(err, &sf))
	assert.Equal(t, ReasonInvalidPhoto, sf.Reason)
}

func TestCheckIn_Rejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckIn(context.Background(), f.checkInInput(uuid.New(), projLat, projLng))
	assert.Equal(t, fiber.StatusForbidden, fiberCode(t, err))

	_, err = f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, 91, projLng))
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))

	in := f.checkInInput(f.memberID, projLat, projLng)
	in.ProjectID = uuid.New()
	_, err = f.svc.CheckIn(context.Background(), in)
	assert.Equal(t, fiber.StatusNotFound, fiberCode(t, err))
}

func checkOutInput(f *fixture, user, attendanceID uuid.UUID) CheckOutInput {
	return CheckOutInput{
		PhotoInput: PhotoInput{
			LocationInput: LocationInput{ProjectID: f.projectID, UserID: user, Fix: Fix{Latitude: projLat, Longitude: projLng}},
			Kind:          oracle.AttendanceExit,
			Photo:         f.photo,
		},
		AttendanceID: attendanceID,
	}
}

func TestCheckOut_StatusFromDuration(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
	require.NoError(t, err)

	f.now = f.now.Add(7 * time.Hour)
	out, err := f.svc.CheckOut(context.Background(), checkOutInput(f, f.memberID, res.Record.FieldAttendanceID))
	require.NoError(t, err)
	assert.Equal(t, attModel.AttendancePresent, out.FieldAttendanceStatus)
	require.NotNil(t, out.FieldAttendanceExitTime)
	assert.Equal(t, 2, out.FieldAttendanceVersion)

	_, err = f.svc.CheckOut(context.Background(), checkOutInput(f, f.memberID, res.Record.FieldAttendanceID))
	assert.Equal(t, fiber.StatusConflict, fiberCode(t, err))
}

func TestCheckOut_ShortDayIsPartial(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
	require.NoError(t, err)

	f.now = f.now.Add(3 * time.Hour)
	out, err := f.svc.CheckOut(context.Background(), checkOutInput(f, f.memberID, res.Record.FieldAttendanceID))
	require.NoError(t, err)
	assert.Equal(t, attModel.AttendancePartial, out.FieldAttendanceStatus)
}

func TestCheckOut_Rejections(t *testing.T) {
	f := newFixture(t)

	// exit sebelum ada entry
	_, err := f.svc.CheckOut(context.Background(), checkOutInput(f, f.memberID, uuid.New()))
	assert.Equal(t, fiber.StatusNotFound, fiberCode(t, err))

	res, err := f.svc.CheckIn(context.Background(), f.checkInInput(f.memberID, projLat, projLng))
	require.NoError(t, err)

	// record milik orang lain
	_, err = f.svc.CheckOut(context.Background(), checkOutInput(f, f.staffID, res.Record.FieldAttendanceID))
	assert.Equal(t, fiber.StatusNotFound, fiberCode(t, err))

	// exit_time sebelum entry
	in := checkOutInput(f, f.memberID, res.Record.FieldAttendanceID)
	early := f.now.Add(-time.Hour)
	in.ExitTime = &early
	_, err = f.svc.CheckOut(context.Background(), in)
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))
}

func TestVerifyLocationAndPreview_DoNotCommit(t *testing.T) {
	f := newFixture(t)

	loc, err := f.svc.VerifyLocation(context.Background(), LocationInput{
		ProjectID: f.projectID, UserID: f.memberID, Fix: Fix{Latitude: projLat, Longitude: projLng},
	})
	require.NoError(t, err)
	assert.Equal(t, StateLocationVerified, loc.State)
	assert.InDelta(t, 0, loc.DistanceKm, 1e-9)

	prev, err := f.svc.PreviewPhoto(context.Background(), f.checkInInput(f.memberID, projLat, projLng).PhotoInput)
	require.NoError(t, err)
	assert.Equal(t, StateVerifying, prev.State)
	assert.True(t, prev.Verdict.Verified)

	rows, _ := f.store.ListByProject(context.Background(), f.projectID)
	assert.Empty(t, rows)
	assert.Empty(t, f.photos.saved)
}

func TestMarkAbsent(t *testing.T) {
	f := newFixture(t)

	rec, err := f.svc.MarkAbsent(context.Background(), f.projectID, f.memberID, "2026-10-15", nil)
	require.NoError(t, err)
	assert.Equal(t, attModel.AttendanceAbsent, rec.FieldAttendanceStatus)

	_, err = f.svc.MarkAbsent(context.Background(), f.projectID, f.memberID, "2026-10-15", nil)
	assert.Equal(t, fiber.StatusConflict, fiberCode(t, err))

	_, err = f.svc.MarkAbsent(context.Background(), f.projectID, f.memberID, "2026-12-01", nil)
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))

	_, err = f.svc.MarkAbsent(context.Background(), f.projectID, f.memberID, "16/10/2026", nil)
	assert.Equal(t, fiber.StatusBadRequest, fiberCode(t, err))
}
