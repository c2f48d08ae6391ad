package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/repairdesk-backend/pkg/db"
	"github.com/angelmondragon/repairdesk-backend/pkg/db/models"
	"github.com/angelmondragon/repairdesk-backend/pkg/enums"
	"github.com/angelmondragon/repairdesk-backend/pkg/security"
	"gorm.io/gorm"
)

// ErrAlreadyBlacklisted is returned by Add when the token was revoked before.
var ErrAlreadyBlacklisted = errors.New("token already blacklisted")

// BlacklistRepository stores fingerprints of revoked tokens. Rows are never
// updated or deleted.
type BlacklistRepository struct {
	db *gorm.DB
}

func NewBlacklistRepository(db *gorm.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

// Add records token as revoked. The unique index on the fingerprint makes
// concurrent first-uses race safely: exactly one caller succeeds.
func (r *BlacklistRepository) Add(ctx context.Context, token string, tokenType enums.TokenType) error {
	row := &models.BlacklistedToken{
		Token: security.TokenFingerprint(token),
		Type:  tokenType,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrAlreadyBlacklisted
		}
		return err
	}
	return nil
}

// Contains reports whether token has been revoked.
func (r *BlacklistRepository) Contains(ctx context.Context, token string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BlacklistedToken{}).
		Where("token = ?", security.TokenFingerprint(token)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
