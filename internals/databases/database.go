package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ecoguard_backend/internals/configs"
	attendanceModel "ecoguard_backend/internals/features/field/attendance/model"
	contributionModel "ecoguard_backend/internals/features/field/contributions/model"
	projectModel "ecoguard_backend/internals/features/field/projects/model"
	mintModel "ecoguard_backend/internals/features/progress/mint/model"
	pointModel "ecoguard_backend/internals/features/progress/points/model"
	progressModel "ecoguard_backend/internals/features/progress/progress/model"
)

var DB *gorm.DB

func ConnectDB(cfg *configs.Config, log *zap.Logger) (*gorm.DB, error) {
	log.Info("[DB] koneksi ke PostgreSQL...", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("gagal konek DB: %w", err)
	}
	DB = db
	log.Info("[DB] connected")
	return db, nil
}

func TunePool(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("[DB] pool tune err", zap.Error(err))
		return
	}
	// Sesuaikan dengan limit Supabase/PgBouncer
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Migrate membuat/menyesuaikan tabel modul field & progress.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&projectModel.ProjectModel{},
		&projectModel.ProjectSiteModel{},
		&projectModel.ProjectContributorModel{},
		&attendanceModel.FieldAttendanceModel{},
		&contributionModel.DailyContributionModel{},
		&progressModel.UserProgress{},
		&pointModel.UserPointLog{},
		&mintModel.MintRequestModel{},
	)
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
