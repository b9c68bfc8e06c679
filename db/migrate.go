package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/model"
)

// Migrate creates or updates the submissions and pending_approvals tables.
// Called once at startup, before any event is processed; failure is fatal.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(&model.Submission{}, &model.PendingApproval{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}
