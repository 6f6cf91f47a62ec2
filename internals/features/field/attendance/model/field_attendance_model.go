// internals/features/field/attendance/model/field_attendance_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendancePartial AttendanceStatus = "partial"
)

// DateLayout = format kolom field_attendance_date (hari kalender di zona proyek).
const DateLayout = "2006-01-02"

// Satu record per (project, contributor, hari). Dibuat saat check-in,
// diubah sekali saat check-out, tidak pernah dihapus.
type FieldAttendanceModel struct {
	FieldAttendanceID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:field_attendance_id" json:"field_attendance_id"`

	FieldAttendanceProjectID       uuid.UUID `gorm:"type:uuid;not null;column:field_attendance_project_id;uniqueIndex:uq_field_attendance_daily,priority:1" json:"field_attendance_project_id"`
	FieldAttendanceContributorID   uuid.UUID `gorm:"type:uuid;not null;column:field_attendance_contributor_id;uniqueIndex:uq_field_attendance_daily,priority:2" json:"field_attendance_contributor_id"`
	FieldAttendanceDate            string    `gorm:"type:varchar(10);not null;column:field_attendance_date;uniqueIndex:uq_field_attendance_daily,priority:3" json:"field_attendance_date"`
	FieldAttendanceContributorName string    `gorm:"type:varchar(120);not null;column:field_attendance_contributor_name" json:"field_attendance_contributor_name"`

	FieldAttendanceEntryTime time.Time  `gorm:"not null;column:field_attendance_entry_time" json:"field_attendance_entry_time"`
	FieldAttendanceExitTime  *time.Time `gorm:"column:field_attendance_exit_time" json:"field_attendance_exit_time,omitempty"`

	// GPS entry / exit
	FieldAttendanceEntryLatitude  float64  `gorm:"not null;column:field_attendance_entry_latitude" json:"field_attendance_entry_latitude"`
	FieldAttendanceEntryLongitude float64  `gorm:"not null;column:field_attendance_entry_longitude" json:"field_attendance_entry_longitude"`
	FieldAttendanceEntryAddress   *string  `gorm:"type:text;column:field_attendance_entry_address" json:"field_attendance_entry_address,omitempty"`
	FieldAttendanceExitLatitude   *float64 `gorm:"column:field_attendance_exit_latitude" json:"field_attendance_exit_latitude,omitempty"`
	FieldAttendanceExitLongitude  *float64 `gorm:"column:field_attendance_exit_longitude" json:"field_attendance_exit_longitude,omitempty"`
	FieldAttendanceExitAddress    *string  `gorm:"type:text;column:field_attendance_exit_address" json:"field_attendance_exit_address,omitempty"`

	FieldAttendanceEntryPhotoRef string  `gorm:"type:text;not null;default:'';column:field_attendance_entry_photo_ref" json:"field_attendance_entry_photo_ref"`
	FieldAttendanceExitPhotoRef  *string `gorm:"type:text;column:field_attendance_exit_photo_ref" json:"field_attendance_exit_photo_ref,omitempty"`

	FieldAttendanceStatus AttendanceStatus `gorm:"type:varchar(16);not null;default:partial;column:field_attendance_status;index:idx_field_attendance_status" json:"field_attendance_status"`

	// hasil oracle foto (verified, confidence, reason, analysis, timestamp)
	FieldAttendanceAIVerification     datatypes.JSON `gorm:"type:jsonb;column:field_attendance_ai_verification" json:"field_attendance_ai_verification,omitempty"`
	FieldAttendanceExitAIVerification datatypes.JSON `gorm:"type:jsonb;column:field_attendance_exit_ai_verification" json:"field_attendance_exit_ai_verification,omitempty"`

	FieldAttendanceSiteName string  `gorm:"type:varchar(160);column:field_attendance_site_name" json:"field_attendance_site_name"`
	FieldAttendanceNotes    *string `gorm:"type:text;column:field_attendance_notes" json:"field_attendance_notes,omitempty"`

	// optimistic concurrency
	FieldAttendanceVersion int `gorm:"not null;default:1;column:field_attendance_version" json:"field_attendance_version"`

	FieldAttendanceCreatedAt time.Time `gorm:"column:field_attendance_created_at;autoCreateTime" json:"field_attendance_created_at"`
	FieldAttendanceUpdatedAt time.Time `gorm:"column:field_attendance_updated_at;autoUpdateTime" json:"field_attendance_updated_at"`
}

func (FieldAttendanceModel) TableName() string {
	return "field_attendance"
}
