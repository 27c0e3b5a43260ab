package model

import (
	"time"

	"gorm.io/datatypes"
)

// UserSession is the durable session document of one chat user
type UserSession struct {
	UserId                string         `gorm:"type:text;primaryKey"`
	HandoffActive         bool           `gorm:"not null;default:false"`
	HandoffStartedAt      time.Time      `gorm:"type:timestamptz"`
	HandoffLastActivityAt time.Time      `gorm:"type:timestamptz;index"`
	SelectedCandidateId   string         `gorm:"type:text"`
	SelectedCandidateName string         `gorm:"type:text"`
	OfferedFrom           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt             time.Time      `gorm:"autoCreateTime"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}
