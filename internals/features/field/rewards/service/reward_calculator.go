package service

import (
	"math"

	"github.com/google/uuid"

	attModel "ecoguard_backend/internals/features/field/attendance/model"
	contributionModel "ecoguard_backend/internals/features/field/contributions/model"
)

const (
	BaseXP                 = 500
	HoursXPPerHour         = 10
	HoursXPCap             = 1000
	AttendanceXPPool       = 500
	PerformanceXPPool      = 500
	DefaultAvgPerformance  = 3.0
	unratedPerformanceXP   = 250
	partialAttendanceValue = 0.5
)

// ContributorStats: agregat satu kontributor dalam satu project.
type ContributorStats struct {
	ContributorID   uuid.UUID
	ContributorName string
	TotalDays       int
	PresentDays     int
	PartialDays     int
	TotalHours      float64
	Ratings         []int
}

type Breakdown struct {
	BaseXP        int `json:"base_xp"`
	HoursXP       int `json:"hours_xp"`
	AttendanceXP  int `json:"attendance_xp"`
	PerformanceXP int `json:"performance_xp"`
}

type RewardBreakdown struct {
	ContributorID   uuid.UUID `json:"contributor_id"`
	ContributorName string    `json:"contributor_name"`
	TotalHours      float64   `json:"total_hours"`
	AttendanceRate  float64   `json:"attendance_rate"`
	AvgPerformance  float64   `json:"avg_performance"`
	XPRewarded      int       `json:"xp_rewarded"`
	Breakdown       Breakdown `json:"breakdown"`
	Awarded         bool      `json:"awarded"`
}

// AttendanceRate = (present + 0.5·partial) / total hari; 0 kalau belum ada record.
func AttendanceRate(total, present, partial int) float64 {
	if total <= 0 {
		return 0
	}
	return (float64(present) + partialAttendanceValue*float64(partial)) / float64(total)
}

// ComputeReward murni; tidak menyentuh ledger.
func ComputeReward(s ContributorStats) RewardBreakdown {
	rate := AttendanceRate(s.TotalDays, s.PresentDays, s.PartialDays)

	hoursXP := int(math.Round(math.Min(s.TotalHours*HoursXPPerHour, HoursXPCap)))
	if hoursXP < 0 {
		hoursXP = 0
	}

	avg := DefaultAvgPerformance
	performanceXP := unratedPerformanceXP
	if len(s.Ratings) > 0 {
		sum := 0
		for _, r := range s.Ratings {
			sum += r
		}
		avg = float64(sum) / float64(len(s.Ratings))
		performanceXP = int(math.Round(avg / 5 * PerformanceXPPool))
	}

	b := Breakdown{
		BaseXP:        BaseXP,
		HoursXP:       hoursXP,
		AttendanceXP:  int(math.Round(rate * AttendanceXPPool)),
		PerformanceXP: performanceXP,
	}
	return RewardBreakdown{
		ContributorID:   s.ContributorID,
		ContributorName: s.ContributorName,
		TotalHours:      s.TotalHours,
		AttendanceRate:  rate,
		AvgPerformance:  avg,
		XPRewarded:      b.BaseXP + b.HoursXP + b.AttendanceXP + b.PerformanceXP,
		Breakdown:       b,
	}
}

// CollectStats mengelompokkan record absensi & kontribusi per kontributor.
func CollectStats(contributorID uuid.UUID, name string, attendance []attModel.FieldAttendanceModel, contributions []contributionModel.DailyContributionModel) ContributorStats {
	s := ContributorStats{ContributorID: contributorID, ContributorName: name}
	for _, a := range attendance {
		if a.FieldAttendanceContributorID != contributorID {
			continue
		}
		s.TotalDays++
		switch a.FieldAttendanceStatus {
		case attModel.AttendancePresent:
			s.PresentDays++
		case attModel.AttendancePartial:
			s.PartialDays++
		}
	}
	for _, c := range contributions {
		if c.DailyContributionContributorID != contributorID {
			continue
		}
		s.TotalHours += c.DailyContributionHoursWorked
		s.Ratings = append(s.Ratings, c.DailyContributionPerformanceRating)
	}
	return s
}
