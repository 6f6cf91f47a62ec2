package seeds

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	projects "ecoguard_backend/internals/seeds/projects"
)

const DefaultProjectsFile = "internals/seeds/projects/data_projects.json"

func RunAllSeeds(db *gorm.DB, projectsFile string, log *zap.Logger) error {
	if projectsFile == "" {
		projectsFile = DefaultProjectsFile
	}

	//* Field
	if err := projects.SeedProjectsFromJSON(db, projectsFile, log); err != nil {
		return err
	}

	return nil
}
