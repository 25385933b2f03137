package entities

import (
	"time"

	"gorm.io/datatypes"
)

// TurnJob is a queued background turn. The table doubles as the work queue;
// workers claim rows with FOR UPDATE SKIP LOCKED.
type TurnJob struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID  string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	ProjectID string         `gorm:"type:varchar(64);index:idx_turn_job_project;not null"`
	Stage     int            `gorm:"not null"`
	CallerID  string         `gorm:"type:varchar(64)"`
	Params    datatypes.JSON `gorm:"type:jsonb;not null"`
	Status    string         `gorm:"type:varchar(20);index:idx_turn_job_status;not null;default:'queued'"`
	Result    datatypes.JSON `gorm:"type:jsonb"`
	Error     datatypes.JSON `gorm:"type:jsonb"`

	QueuedAt    time.Time `gorm:"not null"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time
}

// TableName specifies the table name for TurnJob.
func (TurnJob) TableName() string {
	return "turn_jobs"
}
