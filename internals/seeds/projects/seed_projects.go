package projects

import (
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ecoguard_backend/internals/features/field/projects/model"
)

type SiteSeed struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ContributorSeed struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type ProjectSeed struct {
	Name         string            `json:"name"`
	Location     string            `json:"location"`
	Latitude     float64           `json:"latitude"`
	Longitude    float64           `json:"longitude"`
	Status       string            `json:"status"`
	Progress     float64           `json:"average_daily_progress"`
	Sites        []SiteSeed        `json:"sites"`
	Contributors []ContributorSeed `json:"contributors"`
}

// ToModel: validasi ringan, project dilewati kalau datanya rusak.
func (s ProjectSeed) ToModel() (*model.ProjectModel, error) {
	if s.Name == "" {
		return nil, errors.New("name kosong")
	}
	status := model.ProjectStatus(s.Status)
	if status == "" {
		status = model.ProjectStatusActive
	}
	p := &model.ProjectModel{
		ProjectID:                   uuid.New(),
		ProjectName:                 s.Name,
		ProjectLocation:             s.Location,
		ProjectLatitude:             s.Latitude,
		ProjectLongitude:            s.Longitude,
		ProjectStatus:               status,
		ProjectAverageDailyProgress: s.Progress,
	}
	for _, st := range s.Sites {
		p.ProjectSites = append(p.ProjectSites, model.ProjectSiteModel{
			ProjectSiteProjectID: p.ProjectID,
			ProjectSiteName:      st.Name,
			ProjectSiteLatitude:  st.Latitude,
			ProjectSiteLongitude: st.Longitude,
		})
	}
	for _, c := range s.Contributors {
		uid, err := uuid.Parse(c.UserID)
		if err != nil {
			return nil, fmt.Errorf("contributor %q: user_id tidak valid", c.Name)
		}
		role := model.ContributorRole(c.Role)
		if role != model.ContributorRoleNGOStaff && role != model.ContributorRoleCommunity {
			return nil, fmt.Errorf("contributor %q: role %q tidak dikenal", c.Name, c.Role)
		}
		p.ProjectContributors = append(p.ProjectContributors, model.ProjectContributorModel{
			ProjectContributorProjectID: p.ProjectID,
			ProjectContributorUserID:    uid,
			ProjectContributorName:      c.Name,
			ProjectContributorRole:      role,
		})
	}
	return p, nil
}

func SeedProjectsFromJSON(db *gorm.DB, filePath string, log *zap.Logger) error {
	log.Info("📥 Membaca file seed", zap.String("file", filePath))

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("baca file seed: %w", err)
	}

	var data []ProjectSeed
	if err := sonic.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	for _, item := range data {
		var existing model.ProjectModel
		if err := db.Where("project_name = ?", item.Name).First(&existing).Error; err == nil {
			log.Info("ℹ️ Project sudah ada, lewati", zap.String("name", item.Name))
			continue
		}

		p, err := item.ToModel()
		if err != nil {
			log.Warn("❌ Seed project tidak valid", zap.String("name", item.Name), zap.Error(err))
			continue
		}
		if err := db.Create(p).Error; err != nil {
			log.Error("❌ Gagal insert project", zap.String("name", item.Name), zap.Error(err))
			continue
		}
		log.Info("✅ Berhasil insert project", zap.String("name", item.Name), zap.Int("contributors", len(p.ProjectContributors)))
	}
	return nil
}
