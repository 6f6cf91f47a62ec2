// file: internals/features/field/attendance/dto/field_attendance_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"ecoguard_backend/internals/features/field/attendance/model"
)

/* =========================================================
   REQUEST DTO
   ========================================================= */

// POST .../attendance/verify-location (JSON)
type VerifyLocationRequest struct {
	Latitude           *float64 `json:"latitude" form:"latitude" validate:"required,latitude"`
	Longitude          *float64 `json:"longitude" form:"longitude" validate:"required,longitude"`
	LocationCapturedAt *string  `json:"location_captured_at" form:"location_captured_at" validate:"omitempty"`
}

// multipart: verify-photo / check-in / check-out (file di field "photo")
type AttendanceFormRequest struct {
	Latitude           *float64 `form:"latitude" validate:"required,latitude"`
	Longitude          *float64 `form:"longitude" validate:"required,longitude"`
	LocationCapturedAt *string  `form:"location_captured_at" validate:"omitempty"`
	AttendanceType     *string  `form:"attendance_type" validate:"omitempty,oneof=entry exit"`
	Notes              *string  `form:"notes" validate:"omitempty,max=1000"`
	ExitTime           *string  `form:"exit_time" validate:"omitempty"`
}

// POST /a/field/projects/:project_id/attendance/absent
type MarkAbsentRequest struct {
	ContributorID uuid.UUID `json:"contributor_id" validate:"required"`
	Date          string    `json:"date" validate:"required,datetime=2006-01-02"`
	Notes         *string   `json:"notes" validate:"omitempty,max=1000"`
}

// Query list
type ListAttendanceQuery struct {
	ContributorID *string `query:"contributor_id"`
	DateFrom      *string `query:"date_from"`
	DateTo        *string `query:"date_to"`
	Status        *string `query:"status"`
}

// ParseTimePtr: RFC3339, kosong → nil.
func ParseTimePtr(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

/* =========================================================
   RESPONSE DTO
   ========================================================= */

type FieldAttendanceResponse struct {
	FieldAttendanceID              uuid.UUID              `json:"field_attendance_id"`
	FieldAttendanceProjectID       uuid.UUID              `json:"field_attendance_project_id"`
	FieldAttendanceContributorID   uuid.UUID              `json:"field_attendance_contributor_id"`
	FieldAttendanceContributorName string                 `json:"field_attendance_contributor_name"`
	FieldAttendanceDate            string                 `json:"field_attendance_date"`
	FieldAttendanceEntryTime       time.Time              `json:"field_attendance_entry_time"`
	FieldAttendanceExitTime        *time.Time             `json:"field_attendance_exit_time,omitempty"`
	FieldAttendanceGPSEntry        GPSPoint               `json:"field_attendance_gps_entry"`
	FieldAttendanceGPSExit         *GPSPoint              `json:"field_attendance_gps_exit,omitempty"`
	FieldAttendanceEntryPhotoRef   string                 `json:"field_attendance_entry_photo_ref"`
	FieldAttendanceExitPhotoRef    *string                `json:"field_attendance_exit_photo_ref,omitempty"`
	FieldAttendanceStatus          model.AttendanceStatus `json:"field_attendance_status"`
	FieldAttendanceAIVerification  any                    `json:"field_attendance_ai_verification,omitempty"`
	FieldAttendanceExitAI          any                    `json:"field_attendance_exit_ai_verification,omitempty"`
	FieldAttendanceSiteName        string                 `json:"field_attendance_site_name"`
	FieldAttendanceNotes           *string                `json:"field_attendance_notes,omitempty"`
	FieldAttendanceVersion         int                    `json:"field_attendance_version"`
}

type GPSPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
}

func FromModel(m *model.FieldAttendanceModel) FieldAttendanceResponse {
	out := FieldAttendanceResponse{
		FieldAttendanceID:              m.FieldAttendanceID,
		FieldAttendanceProjectID:       m.FieldAttendanceProjectID,
		FieldAttendanceContributorID:   m.FieldAttendanceContributorID,
		FieldAttendanceContributorName: m.FieldAttendanceContributorName,
		FieldAttendanceDate:            m.FieldAttendanceDate,
		FieldAttendanceEntryTime:       m.FieldAttendanceEntryTime,
		FieldAttendanceExitTime:        m.FieldAttendanceExitTime,
		FieldAttendanceGPSEntry: GPSPoint{
			Latitude:  m.FieldAttendanceEntryLatitude,
			Longitude: m.FieldAttendanceEntryLongitude,
			Address:   m.FieldAttendanceEntryAddress,
		},
		FieldAttendanceEntryPhotoRef: m.FieldAttendanceEntryPhotoRef,
		FieldAttendanceExitPhotoRef:  m.FieldAttendanceExitPhotoRef,
		FieldAttendanceStatus:        m.FieldAttendanceStatus,
		FieldAttendanceSiteName:      m.FieldAttendanceSiteName,
		FieldAttendanceNotes:         m.FieldAttendanceNotes,
		FieldAttendanceVersion:       m.FieldAttendanceVersion,
	}
	if m.FieldAttendanceExitLatitude != nil && m.FieldAttendanceExitLongitude != nil {
		out.FieldAttendanceGPSExit = &GPSPoint{
			Latitude:  *m.FieldAttendanceExitLatitude,
			Longitude: *m.FieldAttendanceExitLongitude,
			Address:   m.FieldAttendanceExitAddress,
		}
	}
	if len(m.FieldAttendanceAIVerification) > 0 && string(m.FieldAttendanceAIVerification) != "null" {
		out.FieldAttendanceAIVerification = m.FieldAttendanceAIVerification
	}
	if len(m.FieldAttendanceExitAIVerification) > 0 && string(m.FieldAttendanceExitAIVerification) != "null" {
		out.FieldAttendanceExitAI = m.FieldAttendanceExitAIVerification
	}
	return out
}

func FromModels(rows []model.FieldAttendanceModel) []FieldAttendanceResponse {
	out := make([]FieldAttendanceResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
