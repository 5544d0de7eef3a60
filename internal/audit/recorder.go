// Package audit keeps a local history of saved review decisions. The land
// service stays the source of truth; this trail only answers who marked what.
package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/landledger/backoffice/internal/db"
	"github.com/landledger/backoffice/internal/review"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Init creates the schema and table.
func Init(gdb *gorm.DB) error {
	if err := db.EnsureSchema(gdb, Schema); err != nil {
		return err
	}
	if err := gdb.AutoMigrate(&ReviewLog{}); err != nil {
		return fmt.Errorf("auto-migrate audit tables: %w", err)
	}
	log.Println("Audit module initialized")
	return nil
}

type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRecorder(gdb *gorm.DB) *Recorder {
	return &Recorder{db: gdb, now: time.Now}
}

var _ review.Recorder = (*Recorder)(nil)

// NewLog converts a decision into its table row.
func NewLog(d review.Decision, at time.Time) ReviewLog {
	passed := pq.StringArray{}
	failed := pq.StringArray{}
	passed = append(passed, d.Passed...)
	failed = append(failed, d.Failed...)
	return ReviewLog{
		ID:        uuid.New(),
		LandID:    d.LandID,
		Status:    string(d.Status),
		Passed:    passed,
		Failed:    failed,
		Reviewer:  d.Reviewer,
		CreatedAt: at.UTC(),
	}
}

func (r *Recorder) RecordDecision(ctx context.Context, d review.Decision) error {
	row := NewLog(d, r.now())
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record review of land %s: %w", d.LandID, err)
	}
	return nil
}

// History returns the reviews of one land, newest first.
func (r *Recorder) History(ctx context.Context, landID string, limit int) ([]ReviewLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []ReviewLog
	err := r.db.WithContext(ctx).
		Where("land_id = ?", landID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load review history for land %s: %w", landID, err)
	}
	return rows, nil
}
