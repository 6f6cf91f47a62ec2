package details

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ecoguard_backend/internals/configs"
	attService "ecoguard_backend/internals/features/field/attendance/service"
	contributionService "ecoguard_backend/internals/features/field/contributions/service"
	projectRepo "ecoguard_backend/internals/features/field/projects/repository"
	rewardService "ecoguard_backend/internals/features/field/rewards/service"
	mintRepo "ecoguard_backend/internals/features/progress/mint/repository"
	mintService "ecoguard_backend/internals/features/progress/mint/service"
	progressService "ecoguard_backend/internals/features/progress/progress/service"
)

// Deps = semua service yang sudah dirakit di main, dibagikan ke route.
type Deps struct {
	DB     *gorm.DB
	Config *configs.Config
	Log    *zap.Logger

	Projects      *projectRepo.ProjectRepository
	Attendance    *attService.Service
	Contributions *contributionService.Service
	Rewards       *rewardService.Service

	Ledger *progressService.Service
	Mints  *mintRepo.MintRequestRepository
	Bridge mintService.Bridge
}
