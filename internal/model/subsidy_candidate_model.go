package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type SubsidyCandidate struct {
	Id        string          `gorm:"type:text;primaryKey"`
	Name      string          `gorm:"type:text;not null"`
	Summary   string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 dimensions
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (SubsidyCandidate) TableName() string {
	return "subsidy_candidates"
}
