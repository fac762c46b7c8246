package history

import (
	"time"

	"gorm.io/gorm"
)

// Actions recorded for a tracked process.
const (
	ActionBoost  = "boost"
	ActionRevert = "revert"
)

// BoostEvent is one priority transition performed by the watcher.
type BoostEvent struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Timestamp    time.Time      `gorm:"not null;index" json:"timestamp"`
	PID          int            `gorm:"not null;index" json:"pid"`
	Action       string         `gorm:"not null" json:"action"` // "boost" or "revert"
	FromPriority int            `gorm:"not null" json:"from_priority"`
	ToPriority   int            `gorm:"not null" json:"to_priority"`
	Failed       bool           `gorm:"not null;default:false" json:"failed"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// ErrorLog is a recoverable failure observed while watching.
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	ErrorMsg  string    `gorm:"not null" json:"error_msg"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
