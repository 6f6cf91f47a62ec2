package service

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	attModel "ecoguard_backend/internals/features/field/attendance/model"
	attRepo "ecoguard_backend/internals/features/field/attendance/repository"
	geofence "ecoguard_backend/internals/features/field/geofence/service"
	geocoding "ecoguard_backend/internals/features/field/geocoding/service"
	oracle "ecoguard_backend/internals/features/field/oracle/service"
	projectModel "ecoguard_backend/internals/features/field/projects/model"
	projectRepo "ecoguard_backend/internals/features/field/projects/repository"
	"ecoguard_backend/internals/helpers/keylock"
	"ecoguard_backend/internals/metrics"
)

// PresentMinHours: durasi minimal untuk status present.
const PresentMinHours = 6.0

type ProjectLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*projectModel.ProjectModel, error)
	FindContributor(ctx context.Context, projectID, userID uuid.UUID) (*projectModel.ProjectContributorModel, error)
}

type Options struct {
	NGORadiusKm       float64
	CommunityRadiusKm float64
	MaxFixAge         time.Duration
	MaxPhotoBytes     int64
	Location          *time.Location
}

type Service struct {
	Projects ProjectLookup
	Store    attRepo.Store
	Oracle   oracle.Oracle
	Geocoder geocoding.Geocoder
	Photos   PhotoStore
	Locker   keylock.Locker
	Opts     Options
	Log      *zap.Logger
	Now      func() time.Time
}

func NewService(projects ProjectLookup, store attRepo.Store, o oracle.Oracle, g geocoding.Geocoder,
	photos PhotoStore, locker keylock.Locker, opts Options, log *zap.Logger) *Service {
	if opts.NGORadiusKm <= 0 {
		opts.NGORadiusKm = geofence.DefaultNGORadiusKm
	}
	if opts.CommunityRadiusKm <= 0 {
		opts.CommunityRadiusKm = geofence.DefaultCommunityRadiusKm
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if locker == nil {
		locker = keylock.NewMemoryLocker()
	}
	return &Service{
		Projects: projects,
		Store:    store,
		Oracle:   o,
		Geocoder: g,
		Photos:   photos,
		Locker:   locker,
		Opts:     opts,
		Log:      log.Named("attendance"),
		Now:      time.Now,
	}
}

/* ===================== inputs / outputs ===================== */

type LocationInput struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Fix       Fix
}

type PhotoInput struct {
	LocationInput
	Kind  oracle.AttendanceType
	Photo []byte
}

type CheckInInput struct {
	PhotoInput
	Notes *string
}

type CheckOutInput struct {
	PhotoInput
	AttendanceID uuid.UUID
	ExitTime     *time.Time
}

type LocationResult struct {
	State      State           `json:"state"`
	SiteName   string          `json:"site_name"`
	DistanceKm float64         `json:"distance_km"`
	Address    string          `json:"address"`
	Place      geocoding.Place `json:"place"`
	Trail      []State         `json:"trail"`
}

type PhotoPreview struct {
	State    State          `json:"state"`
	SiteName string         `json:"site_name"`
	Address  string         `json:"address"`
	Verdict  oracle.Verdict `json:"verdict"`
	Trail    []State        `json:"trail"`
}

type CheckInResult struct {
	Record  *attModel.FieldAttendanceModel `json:"record"`
	Address string                         `json:"address"`
	Trail   []State                        `json:"trail"`
}

/* ===================== helpers ===================== */

// DateKey: hari kalender di zona proyek.
func (s *Service) DateKey(t time.Time) string {
	return t.In(s.Opts.Location).Format(attModel.DateLayout)
}

// ComputeStatus: >= 6 jam present, selain itu partial.
func ComputeStatus(entry, exit time.Time) attModel.AttendanceStatus {
	hours := float64(exit.Sub(entry).Milliseconds()) / 3600000
	if hours >= PresentMinHours {
		return attModel.AttendancePresent
	}
	return attModel.AttendancePartial
}

func (s *Service) targetFor(p *projectModel.ProjectModel, c *projectModel.ProjectContributorModel) Target {
	projectSite := geofence.Site{Name: p.ProjectName, Latitude: p.ProjectLatitude, Longitude: p.ProjectLongitude}
	if c.ProjectContributorRole == projectModel.ContributorRoleNGOStaff {
		sites := make([]geofence.Site, 0, len(p.ProjectSites))
		for _, st := range p.ProjectSites {
			sites = append(sites, geofence.Site{Name: st.ProjectSiteName, Latitude: st.ProjectSiteLatitude, Longitude: st.ProjectSiteLongitude})
		}
		if len(sites) == 0 {
			sites = append(sites, projectSite)
		}
		return Target{Sites: sites, RadiusKm: s.Opts.NGORadiusKm}
	}
	return Target{Sites: []geofence.Site{projectSite}, RadiusKm: s.Opts.CommunityRadiusKm}
}

func (s *Service) loadParticipant(ctx context.Context, projectID, userID uuid.UUID) (*projectModel.ProjectModel, *projectModel.ProjectContributorModel, error) {
	p, err := s.Projects.FindByID(ctx, projectID)
	if errors.Is(err, projectRepo.ErrProjectNotFound) {
		return nil, nil, fiber.NewError(fiber.StatusNotFound, "Project tidak ditemukan")
	}
	if err != nil {
		s.Log.Error("[ATTENDANCE] gagal ambil project", zap.Stringer("project_id", projectID), zap.Error(err))
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data project")
	}
	if p.ProjectStatus != projectModel.ProjectStatusActive {
		return nil, nil, fiber.NewError(fiber.StatusUnprocessableEntity, "Project tidak aktif, absensi ditutup")
	}
	c, err := s.Projects.FindContributor(ctx, projectID, userID)
	if errors.Is(err, projectRepo.ErrContributorNotFound) {
		return nil, nil, fiber.NewError(fiber.StatusForbidden, "Anda bukan kontributor project ini")
	}
	if err != nil {
		s.Log.Error("[ATTENDANCE] gagal ambil kontributor", zap.Stringer("project_id", projectID), zap.Error(err))
		return nil, nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data kontributor")
	}
	return p, c, nil
}

func validateFix(f Fix) error {
	if !geofence.ValidCoordinate(f.Latitude, f.Longitude) {
		return fiber.NewError(fiber.StatusBadRequest, "latitude/longitude di luar rentang valid")
	}
	return nil
}

// locate: Idle → LocationVerified (+ alamat). Gagal → *StepFailure.
func (s *Service) locate(ctx context.Context, m *Machine, p *projectModel.ProjectModel, c *projectModel.ProjectContributorModel, fix Fix) error {
	if err := m.VerifyLocation(fix, s.targetFor(p, c), s.Now(), s.Opts.MaxFixAge); err != nil {
		return err
	}
	place := geocoding.ResolveAddress(ctx, s.Geocoder, fix.Latitude, fix.Longitude, s.Log)
	return m.AttachPlace(place)
}

// verifyPhoto: LocationVerified → Verifying (verdict diterima) atau *StepFailure.
func (s *Service) verifyPhoto(ctx context.Context, m *Machine, p *projectModel.ProjectModel, data []byte) error {
	if err := m.RequestPhoto(); err != nil {
		return err
	}
	photo, verr := ValidatePhoto(data, s.Opts.MaxPhotoBytes)
	if err := m.CapturePhoto(photo, verr); err != nil {
		return err
	}
	if err := m.BeginVerification(); err != nil {
		return err
	}

	start := time.Now()
	verdict, oerr := s.Oracle.Verify(ctx, oracle.Request{
		Image:            photo.Data,
		MimeType:         photo.MimeType,
		ExpectedLocation: p.ProjectLocation,
		ProjectName:      p.ProjectName,
		Type:             m.Kind,
	})
	elapsed := time.Since(start).Seconds()
	switch {
	case oerr != nil:
		metrics.RecordOracle("unavailable", elapsed)
		s.Log.Warn("[ORACLE] unavailable", zap.String("key", m.Key.String()), zap.Error(oerr))
	case verdict.Degraded:
		metrics.RecordOracle("degraded", elapsed)
		s.Log.Warn("[ORACLE] degraded reply, rejected", zap.String("key", m.Key.String()))
	case verdict.Verified:
		metrics.RecordOracle("verified", elapsed)
	default:
		metrics.RecordOracle("rejected", elapsed)
		s.Log.Info("[ORACLE] photo rejected", zap.String("key", m.Key.String()), zap.String("reason", verdict.Reason))
	}
	return m.ApplyVerdict(verdict, oerr)
}

func (s *Service) recordOutcome(kind string, err error) {
	var sf *StepFailure
	switch {
	case err == nil:
		metrics.RecordAttendance(kind, "ok")
	case errors.As(err, &sf):
		metrics.RecordAttendance(kind, string(sf.Reason))
	default:
		metrics.RecordAttendance(kind, "error")
	}
}

/* ===================== operations ===================== */

// VerifyLocation: langkah 1 saja (tanpa commit).
func (s *Service) VerifyLocation(ctx context.Context, in LocationInput) (res *LocationResult, err error) {
	defer func() { s.recordOutcome("verify_location", err) }()

	if err := validateFix(in.Fix); err != nil {
		return nil, err
	}
	p, c, err := s.loadParticipant(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return nil, err
	}
	m := NewMachine(Key{ProjectID: p.ProjectID, ContributorID: in.UserID, Date: s.DateKey(s.Now())}, oracle.AttendanceEntry)
	if err := s.locate(ctx, m, p, c, in.Fix); err != nil {
		return nil, err
	}
	loc := m.Location()
	return &LocationResult{
		State:      m.State(),
		SiteName:   loc.SiteName,
		DistanceKm: loc.DistanceKm,
		Address:    loc.Place.Address,
		Place:      loc.Place,
		Trail:      m.Trail(),
	}, nil
}

// PreviewPhoto: langkah lokasi + foto + oracle, tanpa commit.
func (s *Service) PreviewPhoto(ctx context.Context, in PhotoInput) (res *PhotoPreview, err error) {
	defer func() { s.recordOutcome("verify_photo", err) }()

	if err := validateFix(in.Fix); err != nil {
		return nil, err
	}
	p, c, err := s.loadParticipant(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return nil, err
	}
	m := NewMachine(Key{ProjectID: p.ProjectID, ContributorID: in.UserID, Date: s.DateKey(s.Now())}, in.Kind)
	if err := s.locate(ctx, m, p, c, in.Fix); err != nil {
		return nil, err
	}
	if err := s.verifyPhoto(ctx, m, p, in.Photo); err != nil {
		return nil, err
	}
	return &PhotoPreview{
		State:    m.State(),
		SiteName: m.Location().SiteName,
		Address:  m.Location().Place.Address,
		Verdict:  *m.Verdict(),
		Trail:    m.Trail(),
	}, nil
}

// CheckIn menjalankan semua langkah lalu membuat record entry.
func (s *Service) CheckIn(ctx context.Context, in CheckInInput) (res *CheckInResult, err error) {
	defer func() { s.recordOutcome("check_in", err) }()

	if err := validateFix(in.Fix); err != nil {
		return nil, err
	}
	p, c, err := s.loadParticipant(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	key := Key{ProjectID: p.ProjectID, ContributorID: in.UserID, Date: s.DateKey(now)}

	// cek murah sebelum memanggil oracle
	if _, err := s.Store.FindByKey(ctx, key.ProjectID, key.ContributorID, key.Date); err == nil {
		return nil, fiber.NewError(fiber.StatusConflict, "Sudah check-in hari ini")
	} else if !errors.Is(err, attRepo.ErrAttendanceNotFound) {
		return nil, s.persistenceError("cek absensi harian", key, err)
	}

	m := NewMachine(key, oracle.AttendanceEntry)
	if err := s.locate(ctx, m, p, c, in.Fix); err != nil {
		return nil, err
	}
	if err := s.verifyPhoto(ctx, m, p, in.Photo); err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, key.String())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusConflict, "Absensi sedang diproses, coba lagi")
	}
	defer unlock()

	aiJSON, err := sonic.Marshal(m.Verdict())
	if err != nil {
		return nil, s.persistenceError("encode verifikasi entry", key, err)
	}
	ref, err := s.Photos.Save(ctx, key, string(oracle.AttendanceEntry), m.Photo())
	if err != nil {
		return nil, s.persistenceError("simpan foto entry", key, err)
	}

	loc := m.Location()
	address := loc.Place.Address
	rec := &attModel.FieldAttendanceModel{
		FieldAttendanceProjectID:       key.ProjectID,
		FieldAttendanceContributorID:   key.ContributorID,
		FieldAttendanceDate:            key.Date,
		FieldAttendanceContributorName: c.ProjectContributorName,
		FieldAttendanceEntryTime:       now,
		FieldAttendanceEntryLatitude:   loc.Latitude,
		FieldAttendanceEntryLongitude:  loc.Longitude,
		FieldAttendanceEntryAddress:    &address,
		FieldAttendanceEntryPhotoRef:   ref,
		FieldAttendanceStatus:          attModel.AttendancePartial,
		FieldAttendanceAIVerification:  datatypes.JSON(aiJSON),
		FieldAttendanceSiteName:        loc.SiteName,
		FieldAttendanceNotes:           in.Notes,
		FieldAttendanceVersion:         1,
	}
	if err := s.Store.Create(ctx, rec); err != nil {
		_ = s.Photos.Delete(ctx, ref)
		if errors.Is(err, attRepo.ErrDuplicateEntry) {
			return nil, fiber.NewError(fiber.StatusConflict, "Sudah check-in hari ini")
		}
		return nil, s.persistenceError("simpan absensi entry", key, err)
	}
	if err := m.Commit(); err != nil {
		return nil, err
	}

	s.Log.Info("[ATTENDANCE] check-in committed",
		zap.String("key", key.String()), zap.String("site", loc.SiteName), zap.Float64("distance_km", loc.DistanceKm))
	return &CheckInResult{Record: rec, Address: address, Trail: m.Trail()}, nil
}

// CheckOut memvalidasi ulang lokasi + foto lalu mengisi field exit pada record hari itu.
func (s *Service) CheckOut(ctx context.Context, in CheckOutInput) (res *attModel.FieldAttendanceModel, err error) {
	defer func() { s.recordOutcome("check_out", err) }()

	if err := validateFix(in.Fix); err != nil {
		return nil, err
	}
	p, c, err := s.loadParticipant(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return nil, err
	}

	rec, err := s.Store.FindByID(ctx, in.AttendanceID)
	if errors.Is(err, attRepo.ErrAttendanceNotFound) ||
		(err == nil && (rec.FieldAttendanceProjectID != p.ProjectID || rec.FieldAttendanceContributorID != in.UserID)) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Belum ada check-in untuk absensi ini")
	}
	if err != nil {
		return nil, s.persistenceError("ambil absensi", Key{ProjectID: p.ProjectID, ContributorID: in.UserID}, err)
	}
	if rec.FieldAttendanceExitTime != nil {
		return nil, fiber.NewError(fiber.StatusConflict, "Sudah check-out")
	}
	if rec.FieldAttendanceStatus == attModel.AttendanceAbsent {
		return nil, fiber.NewError(fiber.StatusConflict, "Absensi ditandai absent, tidak bisa check-out")
	}

	now := s.Now()
	exitTime := now
	if in.ExitTime != nil {
		exitTime = *in.ExitTime
	}
	if exitTime.Before(rec.FieldAttendanceEntryTime) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "exit_time tidak boleh sebelum entry_time")
	}
	if exitTime.After(now.Add(5 * time.Minute)) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "exit_time tidak boleh di masa depan")
	}

	key := Key{ProjectID: rec.FieldAttendanceProjectID, ContributorID: rec.FieldAttendanceContributorID, Date: rec.FieldAttendanceDate}
	m := NewMachine(key, oracle.AttendanceExit)
	if err := s.locate(ctx, m, p, c, in.Fix); err != nil {
		return nil, err
	}
	if err := s.verifyPhoto(ctx, m, p, in.Photo); err != nil {
		return nil, err
	}

	unlock, err := s.Locker.Lock(ctx, key.String())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusConflict, "Absensi sedang diproses, coba lagi")
	}
	defer unlock()

	aiJSON, err := sonic.Marshal(m.Verdict())
	if err != nil {
		return nil, s.persistenceError("encode verifikasi exit", key, err)
	}
	ref, err := s.Photos.Save(ctx, key, string(oracle.AttendanceExit), m.Photo())
	if err != nil {
		return nil, s.persistenceError("simpan foto exit", key, err)
	}
	loc := m.Location()
	address := loc.Place.Address
	status := ComputeStatus(rec.FieldAttendanceEntryTime, exitTime)

	err = s.Store.UpdateExit(ctx, rec.FieldAttendanceID, rec.FieldAttendanceVersion, attRepo.ExitUpdate{
		ExitTime:       exitTime,
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		Address:        &address,
		PhotoRef:       ref,
		AIVerification: aiJSON,
		Status:         status,
	})
	if err != nil {
		_ = s.Photos.Delete(ctx, ref)
		if errors.Is(err, attRepo.ErrVersionConflict) {
			return nil, fiber.NewError(fiber.StatusConflict, "Absensi sudah diubah oleh request lain (sudah check-out?)")
		}
		return nil, s.persistenceError("simpan absensi exit", key, err)
	}
	if err := m.Commit(); err != nil {
		return nil, err
	}

	updated, err := s.Store.FindByID(ctx, rec.FieldAttendanceID)
	if err != nil {
		return nil, s.persistenceError("ambil absensi setelah update", key, err)
	}
	s.Log.Info("[ATTENDANCE] check-out committed",
		zap.String("key", key.String()), zap.String("status", string(status)))
	return updated, nil
}

// MarkAbsent (admin): catat absent untuk hari tanpa check-in.
func (s *Service) MarkAbsent(ctx context.Context, projectID, userID uuid.UUID, date string, notes *string) (*attModel.FieldAttendanceModel, error) {
	day, err := time.ParseInLocation(attModel.DateLayout, date, s.Opts.Location)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date harus format YYYY-MM-DD")
	}
	if day.After(s.Now()) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date tidak boleh di masa depan")
	}
	c, err := s.Projects.FindContributor(ctx, projectID, userID)
	if errors.Is(err, projectRepo.ErrContributorNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Kontributor tidak ditemukan")
	}
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data kontributor")
	}

	key := Key{ProjectID: projectID, ContributorID: userID, Date: date}
	unlock, err := s.Locker.Lock(ctx, key.String())
	if err != nil {
		return nil, fiber.NewError(fiber.StatusConflict, "Absensi sedang diproses, coba lagi")
	}
	defer unlock()

	rec := &attModel.FieldAttendanceModel{
		FieldAttendanceProjectID:       projectID,
		FieldAttendanceContributorID:   userID,
		FieldAttendanceDate:            date,
		FieldAttendanceContributorName: c.ProjectContributorName,
		FieldAttendanceEntryTime:       day,
		FieldAttendanceStatus:          attModel.AttendanceAbsent,
		FieldAttendanceNotes:           notes,
		FieldAttendanceVersion:         1,
	}
	if err := s.Store.Create(ctx, rec); err != nil {
		if errors.Is(err, attRepo.ErrDuplicateEntry) {
			return nil, fiber.NewError(fiber.StatusConflict, "Sudah ada absensi untuk hari ini")
		}
		return nil, s.persistenceError("simpan absent", key, err)
	}
	return rec, nil
}

func (s *Service) List(ctx context.Context, f attRepo.ListFilter) ([]attModel.FieldAttendanceModel, int64, error) {
	rows, total, err := s.Store.List(ctx, f)
	if err != nil {
		s.Log.Error("[ATTENDANCE] list gagal", zap.Stringer("project_id", f.ProjectID), zap.Error(err))
		return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data absensi")
	}
	return rows, total, nil
}

func (s *Service) persistenceError(op string, key Key, err error) error {
	s.Log.Error("[ATTENDANCE] "+op+" gagal", zap.String("key", key.String()), zap.Error(err))
	return fiber.NewError(fiber.StatusInternalServerError, "Gagal menyimpan absensi, silakan ulangi")
}
