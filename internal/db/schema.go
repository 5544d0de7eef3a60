package db

import (
	"fmt"

	"gorm.io/gorm"
)

// EnsureSchema creates a Postgres schema if it does not exist yet.
func EnsureSchema(d *gorm.DB, schema string) error {
	if err := d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error; err != nil {
		return fmt.Errorf("ensure schema %s: %w", schema, err)
	}
	return nil
}
