package model

import (
	"time"

	"github.com/google/uuid"
)

// UserPointLog: audit append-only per AddXP (tidak dibatasi 50 seperti activity history).
type UserPointLog struct {
	UserPointLogID           uint      `gorm:"column:user_point_log_id;primaryKey" json:"user_point_log_id"`                                                     // ID unik log poin
	UserPointLogUserID       uuid.UUID `gorm:"column:user_point_log_user_id;type:uuid;not null;index:idx_user_point_logs_user" json:"user_point_log_user_id"`    // UUID user
	UserPointLogPoints       int       `gorm:"column:user_point_log_points;not null" json:"user_point_log_points"`                                               // Jumlah XP (boleh negatif untuk koreksi)
	UserPointLogActivityType string    `gorm:"column:user_point_log_activity_type;type:varchar(64);not null" json:"user_point_log_activity_type"`                // Tipe aktivitas
	UserPointLogReferenceID  *string   `gorm:"column:user_point_log_reference_id;type:varchar(128)" json:"user_point_log_reference_id,omitempty"`                // mis. project-completion:<id>
	UserPointLogDescription  string    `gorm:"column:user_point_log_description;type:text" json:"user_point_log_description"`                                    // Keterangan
	UserPointLogBalance      int       `gorm:"column:user_point_log_balance;not null" json:"user_point_log_balance"`                                             // XP setelah log ini
	CreatedAt                time.Time `gorm:"column:created_at;autoCreateTime;index:idx_user_point_logs_user" json:"created_at"`                                // Timestamp
}

func (UserPointLog) TableName() string {
	return "user_point_logs"
}
