package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrImmutableLog = errors.New("admin log entries are append-only")

// SystemActor is the admin id recorded for actions the ledger takes on its own.
const SystemActor = "system"

type AdminLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AdminID   string    `json:"admin_id" gorm:"index;not null"`
	Action    string    `json:"action" gorm:"not null"`
	TargetID  string    `json:"target_id"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"date"`
}

func (l *AdminLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableLog
}

func (l *AdminLog) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableLog
}

type BroadcastRequest struct {
	Title   string `json:"title" validate:"required,min=2,max=120"`
	Message string `json:"message" validate:"required,min=2,max=1000"`
}
