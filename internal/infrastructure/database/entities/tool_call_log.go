package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ToolCallLog records one tool invocation executed during a turn, for audit
// and debugging. Rows are written after the batch barrier, never read on the
// turn path.
type ToolCallLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	ContextID  uint           `gorm:"index:idx_tool_call_context;not null"`
	RunID      string         `gorm:"type:varchar(64);index:idx_tool_call_run"`
	CallID     string         `gorm:"type:varchar(64);not null"`
	Name       string         `gorm:"type:varchar(128);not null"`
	Arguments  datatypes.JSON `gorm:"type:jsonb"`
	Output     datatypes.JSON `gorm:"type:jsonb"`
	Error      string         `gorm:"type:text"`
	StartedAt  time.Time
	DurationMs int64
}

// TableName specifies the table name for ToolCallLog.
func (ToolCallLog) TableName() string {
	return "tool_call_logs"
}
