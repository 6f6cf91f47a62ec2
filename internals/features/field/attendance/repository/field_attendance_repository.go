package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ecoguard_backend/internals/features/field/attendance/model"
)

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrDuplicateEntry     = errors.New("attendance entry already exists for this day")
	ErrVersionConflict    = errors.New("attendance record was modified concurrently")
)

type ListFilter struct {
	ProjectID     uuid.UUID
	ContributorID *uuid.UUID
	DateFrom      string
	DateTo        string
	Status        *model.AttendanceStatus
	Offset        int
	Limit         int
}

// ExitUpdate berisi field yang diisi saat check-out.
type ExitUpdate struct {
	ExitTime       time.Time
	Latitude       float64
	Longitude      float64
	Address        *string
	PhotoRef       string
	AIVerification []byte
	Status         model.AttendanceStatus
}

// Store = kontrak persistence absensi (dipakai state machine & reward calculator).
type Store interface {
	Create(ctx context.Context, m *model.FieldAttendanceModel) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FieldAttendanceModel, error)
	FindByKey(ctx context.Context, projectID, contributorID uuid.UUID, date string) (*model.FieldAttendanceModel, error)
	UpdateExit(ctx context.Context, id uuid.UUID, expectedVersion int, u ExitUpdate) error
	List(ctx context.Context, f ListFilter) ([]model.FieldAttendanceModel, int64, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.FieldAttendanceModel, error)
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) Create(ctx context.Context, m *model.FieldAttendanceModel) error {
	if m.FieldAttendanceVersion == 0 {
		m.FieldAttendanceVersion = 1
	}
	err := s.DB.WithContext(ctx).Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEntry
	}
	return err
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*model.FieldAttendanceModel, error) {
	var m model.FieldAttendanceModel
	err := s.DB.WithContext(ctx).Where("field_attendance_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttendanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *GormStore) FindByKey(ctx context.Context, projectID, contributorID uuid.UUID, date string) (*model.FieldAttendanceModel, error) {
	var m model.FieldAttendanceModel
	err := s.DB.WithContext(ctx).
		Where("field_attendance_project_id = ? AND field_attendance_contributor_id = ? AND field_attendance_date = ?",
			projectID, contributorID, date).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttendanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateExit: compare-and-swap di kolom version; exit hanya boleh sekali.
func (s *GormStore) UpdateExit(ctx context.Context, id uuid.UUID, expectedVersion int, u ExitUpdate) error {
	lat, lng := u.Latitude, u.Longitude
	photo := u.PhotoRef
	res := s.DB.WithContext(ctx).Model(&model.FieldAttendanceModel{}).
		Where("field_attendance_id = ? AND field_attendance_version = ? AND field_attendance_exit_time IS NULL", id, expectedVersion).
		Updates(map[string]any{
			"field_attendance_exit_time":            u.ExitTime,
			"field_attendance_exit_latitude":        &lat,
			"field_attendance_exit_longitude":       &lng,
			"field_attendance_exit_address":         u.Address,
			"field_attendance_exit_photo_ref":       &photo,
			"field_attendance_exit_ai_verification": u.AIVerification,
			"field_attendance_status":               u.Status,
			"field_attendance_version":              gorm.Expr("field_attendance_version + 1"),
			"field_attendance_updated_at":           time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, f ListFilter) ([]model.FieldAttendanceModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.FieldAttendanceModel{}).
		Where("field_attendance_project_id = ?", f.ProjectID)
	if f.ContributorID != nil {
		q = q.Where("field_attendance_contributor_id = ?", *f.ContributorID)
	}
	if f.DateFrom != "" {
		q = q.Where("field_attendance_date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("field_attendance_date <= ?", f.DateTo)
	}
	if f.Status != nil {
		q = q.Where("field_attendance_status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.FieldAttendanceModel
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}
	if err := q.Order("field_attendance_date DESC, field_attendance_entry_time DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *GormStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.FieldAttendanceModel, error) {
	var rows []model.FieldAttendanceModel
	err := s.DB.WithContext(ctx).
		Where("field_attendance_project_id = ?", projectID).
		Order("field_attendance_date ASC").
		Find(&rows).Error
	return rows, err
}
