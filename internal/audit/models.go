package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const Schema = "backoffice"

// ReviewLog is one saved admin review of a land record.
type ReviewLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LandID    string         `gorm:"not null;index" json:"land_id"`
	Status    string         `gorm:"not null;index" json:"status"` // verified, rejected, pending
	Passed    pq.StringArray `gorm:"type:text[]" json:"passed"`
	Failed    pq.StringArray `gorm:"type:text[]" json:"failed"`
	Reviewer  string         `json:"reviewer,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (ReviewLog) TableName() string { return Schema + ".review_logs" }
