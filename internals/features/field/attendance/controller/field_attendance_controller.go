// internals/features/field/attendance/controller/field_attendance_controller.go
package controller

import (
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	attDTO "ecoguard_backend/internals/features/field/attendance/dto"
	attModel "ecoguard_backend/internals/features/field/attendance/model"
	attRepo "ecoguard_backend/internals/features/field/attendance/repository"
	attService "ecoguard_backend/internals/features/field/attendance/service"
	oracle "ecoguard_backend/internals/features/field/oracle/service"
	helper "ecoguard_backend/internals/helpers"
)

type FieldAttendanceController struct {
	Service   *attService.Service
	Validator *validator.Validate
}

func NewFieldAttendanceController(svc *attService.Service) *FieldAttendanceController {
	return &FieldAttendanceController{
		Service:   svc,
		Validator: validator.New(),
	}
}

// ===============================
// Helpers
// ===============================

// writeError: StepFailure → 422/503 + detail, selain itu lewat FromFiberError.
func writeError(c *fiber.Ctx, err error) error {
	var sf *attService.StepFailure
	if errors.As(err, &sf) {
		return helper.JsonErrorWithCode(c, sf.HTTPStatus(), string(sf.Reason), sf.Message, sf)
	}
	if errors.Is(err, attService.ErrInvalidTransition) {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return helper.FromFiberError(c, err)
}

func (ctl *FieldAttendanceController) readPhoto(c *fiber.Ctx) ([]byte, error) {
	fh, err := c.FormFile("photo")
	if err != nil {
		// foto kosong tetap diteruskan ke state machine (InvalidPhoto)
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Gagal membuka file foto")
	}
	defer f.Close()

	limit := ctl.Service.Opts.MaxPhotoBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	// +1 supaya file yang kebesaran tetap terdeteksi oleh ValidatePhoto
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Gagal membaca file foto")
	}
	return data, nil
}

func (ctl *FieldAttendanceController) parseForm(c *fiber.Ctx) (attDTO.AttendanceFormRequest, attService.PhotoInput, error) {
	var req attDTO.AttendanceFormRequest
	if err := c.BodyParser(&req); err != nil {
		return req, attService.PhotoInput{}, fiber.NewError(fiber.StatusBadRequest, "Form tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return req, attService.PhotoInput{}, err
	}

	projectID, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return req, attService.PhotoInput{}, err
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return req, attService.PhotoInput{}, err
	}
	captured, err := attDTO.ParseTimePtr(req.LocationCapturedAt)
	if err != nil {
		return req, attService.PhotoInput{}, fiber.NewError(fiber.StatusBadRequest, "location_captured_at harus RFC3339")
	}
	photo, err := ctl.readPhoto(c)
	if err != nil {
		return req, attService.PhotoInput{}, err
	}

	kind := oracle.AttendanceEntry
	if req.AttendanceType != nil {
		if k, ok := oracle.ParseAttendanceType(*req.AttendanceType); ok {
			kind = k
		}
	}
	return req, attService.PhotoInput{
		LocationInput: attService.LocationInput{
			ProjectID: projectID,
			UserID:    userID,
			Fix:       attService.Fix{Latitude: *req.Latitude, Longitude: *req.Longitude, CapturedAt: captured},
		},
		Kind:  kind,
		Photo: photo,
	}, nil
}

func (ctl *FieldAttendanceController) fail(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return helper.ValidationError(c, ve)
	}
	return writeError(c, err)
}

// ===============================
// Handlers (user)
// ===============================

// POST /api/u/field/projects/:project_id/attendance/verify-location
func (ctl *FieldAttendanceController) VerifyLocation(c *fiber.Ctx) error {
	var req attDTO.VerifyLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	projectID, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	captured, err := attDTO.ParseTimePtr(req.LocationCapturedAt)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "location_captured_at harus RFC3339")
	}

	res, err := ctl.Service.VerifyLocation(c.UserContext(), attService.LocationInput{
		ProjectID: projectID,
		UserID:    userID,
		Fix:       attService.Fix{Latitude: *req.Latitude, Longitude: *req.Longitude, CapturedAt: captured},
	})
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Lokasi terverifikasi", res)
}

// POST /api/u/field/projects/:project_id/attendance/verify-photo (multipart)
func (ctl *FieldAttendanceController) VerifyPhoto(c *fiber.Ctx) error {
	_, in, err := ctl.parseForm(c)
	if err != nil {
		return ctl.fail(c, err)
	}
	res, err := ctl.Service.PreviewPhoto(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonOK(c, "Foto terverifikasi", res)
}

// POST /api/u/field/projects/:project_id/attendance/check-in (multipart)
func (ctl *FieldAttendanceController) CheckIn(c *fiber.Ctx) error {
	req, in, err := ctl.parseForm(c)
	if err != nil {
		return ctl.fail(c, err)
	}
	in.Kind = oracle.AttendanceEntry

	res, err := ctl.Service.CheckIn(c.UserContext(), attService.CheckInInput{
		PhotoInput: in,
		Notes:      attDTO.TrimPtr(req.Notes),
	})
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonCreated(c, "Check-in berhasil", fiber.Map{
		"record":  attDTO.FromModel(res.Record),
		"address": res.Address,
		"trail":   res.Trail,
	})
}

// POST /api/u/field/projects/:project_id/attendance/:attendance_id/check-out (multipart)
func (ctl *FieldAttendanceController) CheckOut(c *fiber.Ctx) error {
	req, in, err := ctl.parseForm(c)
	if err != nil {
		return ctl.fail(c, err)
	}
	attendanceID, err := helper.ParseUUIDParam(c, "attendance_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	exitTime, err := attDTO.ParseTimePtr(req.ExitTime)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "exit_time harus RFC3339")
	}
	in.Kind = oracle.AttendanceExit

	rec, err := ctl.Service.CheckOut(c.UserContext(), attService.CheckOutInput{
		PhotoInput:   in,
		AttendanceID: attendanceID,
		ExitTime:     exitTime,
	})
	if err != nil {
		return writeError(c, err)
	}
	return helper.JsonUpdated(c, "Check-out berhasil", attDTO.FromModel(rec))
}

// GET /api/u/field/projects/:project_id/attendance
func (ctl *FieldAttendanceController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return ctl.list(c, &userID)
}

// ===============================
// Handlers (admin)
// ===============================

// GET /api/a/field/projects/:project_id/attendance
func (ctl *FieldAttendanceController) ListAll(c *fiber.Ctx) error {
	var contributor *uuid.UUID
	if raw := strings.TrimSpace(c.Query("contributor_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "contributor_id tidak valid")
		}
		contributor = &id
	}
	return ctl.list(c, contributor)
}

func (ctl *FieldAttendanceController) list(c *fiber.Ctx, contributor *uuid.UUID) error {
	projectID, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var q attDTO.ListAttendanceQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Query tidak valid")
	}

	filter := attRepo.ListFilter{ProjectID: projectID, ContributorID: contributor}
	if q.DateFrom != nil {
		filter.DateFrom = strings.TrimSpace(*q.DateFrom)
	}
	if q.DateTo != nil {
		filter.DateTo = strings.TrimSpace(*q.DateTo)
	}
	if q.Status != nil && strings.TrimSpace(*q.Status) != "" {
		st := attModel.AttendanceStatus(strings.ToLower(strings.TrimSpace(*q.Status)))
		switch st {
		case attModel.AttendancePresent, attModel.AttendanceAbsent, attModel.AttendancePartial:
			filter.Status = &st
		default:
			return helper.JsonError(c, fiber.StatusBadRequest, "status tidak valid (present/absent/partial)")
		}
	}

	paging := helper.ResolvePaging(c, 20, 100)
	filter.Offset, filter.Limit = paging.Offset, paging.Limit

	rows, total, err := ctl.Service.List(c.UserContext(), filter)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", attDTO.FromModels(rows), helper.BuildPagination(total, paging))
}

// POST /api/a/field/projects/:project_id/attendance/absent
func (ctl *FieldAttendanceController) MarkAbsent(c *fiber.Ctx) error {
	projectID, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req attDTO.MarkAbsentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	rec, err := ctl.Service.MarkAbsent(c.UserContext(), projectID, req.ContributorID, req.Date, attDTO.TrimPtr(req.Notes))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Absent dicatat", attDTO.FromModel(rec))
}
