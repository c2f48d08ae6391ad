package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// AutoMigrateAll creates every table on dialects without goose migrations (sqlite dev mode and tests).
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Component{},
		&RepairRequest{},
		&RepairRequestComponent{},
		&Notification{},
		&BlacklistedToken{},
	)
}

