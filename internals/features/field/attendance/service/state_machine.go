package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	geofence "ecoguard_backend/internals/features/field/geofence/service"
	geocoding "ecoguard_backend/internals/features/field/geocoding/service"
	oracle "ecoguard_backend/internals/features/field/oracle/service"
)

type State string

const (
	StateIdle             State = "idle"
	StateLocationPending  State = "location_pending"
	StateLocationVerified State = "location_verified"
	StatePhotoPending     State = "photo_pending"
	StatePhotoCaptured    State = "photo_captured"
	StateVerifying        State = "verifying"
	StateCommitted        State = "committed"
	StateFailed           State = "failed"
)

type FailureReason string

const (
	ReasonOutOfRange        FailureReason = "OUT_OF_RANGE"
	ReasonStaleLocation     FailureReason = "STALE_LOCATION"
	ReasonInvalidPhoto      FailureReason = "INVALID_PHOTO"
	ReasonPhotoRejected     FailureReason = "PHOTO_REJECTED"
	ReasonOracleUnavailable FailureReason = "ORACLE_UNAVAILABLE"
)

// resume state per reason; user tidak mengulang langkah yang sudah lolos
var resumeStates = map[FailureReason]State{
	ReasonOutOfRange:        StateIdle,
	ReasonStaleLocation:     StateIdle,
	ReasonInvalidPhoto:      StatePhotoPending,
	ReasonPhotoRejected:     StatePhotoPending,
	ReasonOracleUnavailable: StatePhotoCaptured,
}

var transitions = map[State][]State{
	StateIdle:             {StateLocationPending},
	StateLocationPending:  {StateLocationVerified, StateFailed},
	StateLocationVerified: {StatePhotoPending},
	StatePhotoPending:     {StatePhotoCaptured, StateFailed},
	StatePhotoCaptured:    {StateVerifying},
	StateVerifying:        {StateCommitted, StateFailed},
	StateFailed:           {StateIdle, StatePhotoPending, StatePhotoCaptured},
}

var ErrInvalidTransition = errors.New("invalid attendance state transition")

// StepFailure = kegagalan domain yang bisa dipulihkan user.
type StepFailure struct {
	Reason      FailureReason   `json:"reason"`
	ResumeState State           `json:"resume_state"`
	Message     string          `json:"message"`
	DistanceKm  *float64        `json:"distance_km,omitempty"`
	SiteName    string          `json:"site_name,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Verdict     *oracle.Verdict `json:"verdict,omitempty"`
}

func (f *StepFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

func (f *StepFailure) HTTPStatus() int {
	if f.Reason == ReasonOracleUnavailable {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusUnprocessableEntity
}

// Key = (project, contributor, hari kalender).
type Key struct {
	ProjectID     uuid.UUID
	ContributorID uuid.UUID
	Date          string
}

func (k Key) String() string {
	return k.ProjectID.String() + ":" + k.ContributorID.String() + ":" + k.Date
}

type Fix struct {
	Latitude   float64
	Longitude  float64
	CapturedAt *time.Time
}

// Target = titik geofence yang berlaku untuk kontributor ini.
type Target struct {
	Sites    []geofence.Site
	RadiusKm float64
}

type VerifiedLocation struct {
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	SiteName   string          `json:"site_name"`
	DistanceKm float64         `json:"distance_km"`
	Place      geocoding.Place `json:"place"`
}

// Machine memegang state satu percobaan check-in/out. Dibangun ulang tiap request.
type Machine struct {
	Key  Key
	Kind oracle.AttendanceType

	state    State
	trail    []State
	location *VerifiedLocation
	photo    *Photo
	verdict  *oracle.Verdict
	failure  *StepFailure
}

func NewMachine(key Key, kind oracle.AttendanceType) *Machine {
	return &Machine{Key: key, Kind: kind, state: StateIdle, trail: []State{StateIdle}}
}

func (m *Machine) State() State                { return m.state }
func (m *Machine) Trail() []State              { return append([]State(nil), m.trail...) }
func (m *Machine) Location() *VerifiedLocation { return m.location }
func (m *Machine) Photo() *Photo               { return m.photo }
func (m *Machine) Verdict() *oracle.Verdict    { return m.verdict }
func (m *Machine) Failure() *StepFailure       { return m.failure }

func (m *Machine) to(next State) error {
	for _, allowed := range transitions[m.state] {
		if allowed == next {
			m.state = next
			m.trail = append(m.trail, next)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
}

func (m *Machine) fail(f *StepFailure) error {
	f.ResumeState = resumeStates[f.Reason]
	if err := m.to(StateFailed); err != nil {
		return err
	}
	m.failure = f
	return f
}

// Resume: Failed → state lanjutan sesuai reason.
func (m *Machine) Resume() error {
	if m.state != StateFailed || m.failure == nil {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, m.state)
	}
	resume := m.failure.ResumeState
	if err := m.to(resume); err != nil {
		return err
	}
	m.failure = nil
	if resume == StateIdle {
		m.location = nil
	}
	if resume == StatePhotoPending {
		m.photo = nil
	}
	m.verdict = nil
	return nil
}

/* ===================== steps ===================== */

// VerifyLocation: Idle → LocationPending → LocationVerified | Failed(OutOfRange/StaleLocation).
func (m *Machine) VerifyLocation(fix Fix, target Target, now time.Time, maxFixAge time.Duration) error {
	if err := m.to(StateLocationPending); err != nil {
		return err
	}

	if fix.CapturedAt != nil && maxFixAge > 0 && now.Sub(*fix.CapturedAt) > maxFixAge {
		return m.fail(&StepFailure{
			Reason:  ReasonStaleLocation,
			Message: fmt.Sprintf("Location fix is older than %s, please refresh your GPS location", maxFixAge),
		})
	}

	match, ok := geofence.Nearest(fix.Latitude, fix.Longitude, target.Sites, target.RadiusKm)
	if !ok {
		f := &StepFailure{Reason: ReasonOutOfRange}
		if len(target.Sites) == 0 {
			f.Message = "Project has no registered site to check in against"
		} else {
			d := match.DistanceKm
			f.DistanceKm = &d
			f.SiteName = match.Site.Name
			f.Message = fmt.Sprintf("You are %.2f km from %s; check-in is allowed within %.2f km",
				d, match.Site.Name, target.RadiusKm)
		}
		return m.fail(f)
	}

	m.location = &VerifiedLocation{
		Latitude:   fix.Latitude,
		Longitude:  fix.Longitude,
		SiteName:   match.Site.Name,
		DistanceKm: match.DistanceKm,
	}
	return m.to(StateLocationVerified)
}

// AttachPlace menyimpan alamat hasil reverse geocoding (atau placeholder).
func (m *Machine) AttachPlace(p geocoding.Place) error {
	if m.state != StateLocationVerified || m.location == nil {
		return fmt.Errorf("%w: attach address in %s", ErrInvalidTransition, m.state)
	}
	m.location.Place = p
	return nil
}

func (m *Machine) RequestPhoto() error {
	return m.to(StatePhotoPending)
}

// CapturePhoto: PhotoPending → PhotoCaptured | Failed(InvalidPhoto).
func (m *Machine) CapturePhoto(p *Photo, validationErr error) error {
	if m.state != StatePhotoPending {
		return fmt.Errorf("%w: capture photo in %s", ErrInvalidTransition, m.state)
	}
	if validationErr != nil || p == nil {
		msg := "Photo is required"
		if validationErr != nil {
			msg = validationErr.Error()
		}
		return m.fail(&StepFailure{Reason: ReasonInvalidPhoto, Message: msg})
	}
	m.photo = p
	return m.to(StatePhotoCaptured)
}

func (m *Machine) BeginVerification() error {
	return m.to(StateVerifying)
}

// ApplyVerdict: hasil oracle. Tetap di Verifying kalau diterima (menunggu commit).
func (m *Machine) ApplyVerdict(v oracle.Verdict, oracleErr error) error {
	if m.state != StateVerifying {
		return fmt.Errorf("%w: verdict in %s", ErrInvalidTransition, m.state)
	}
	if oracleErr != nil {
		return m.fail(&StepFailure{
			Reason:  ReasonOracleUnavailable,
			Message: "Photo verification service is unavailable, please retry without retaking the photo",
		})
	}
	if !v.Verified {
		vv := v
		return m.fail(&StepFailure{
			Reason:      ReasonPhotoRejected,
			Message:     v.Reason,
			Suggestions: v.Suggestions,
			Verdict:     &vv,
		})
	}
	m.verdict = &v
	return nil
}

// Accepted: semua langkah lolos, siap commit.
func (m *Machine) Accepted() bool {
	return m.state == StateVerifying && m.verdict != nil && m.verdict.Verified && m.location != nil && m.photo != nil
}

func (m *Machine) Commit() error {
	if !m.Accepted() {
		return fmt.Errorf("%w: commit in %s", ErrInvalidTransition, m.state)
	}
	return m.to(StateCommitted)
}
