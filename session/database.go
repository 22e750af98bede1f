package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aronlabs/captcha/models"
)

// DatabaseBackend stores sessions in the captcha_sessions table.
type DatabaseBackend struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewDatabaseBackend stores values with ttl.
func NewDatabaseBackend(db *gorm.DB, ttl time.Duration) *DatabaseBackend {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DatabaseBackend{db: db, ttl: ttl}
}

// Set upserts the row for key.
func (d *DatabaseBackend) Set(ctx context.Context, key, value string) error {
	row := models.CaptchaSession{
		SessionKey: key,
		Value:      value,
		ExpiresAt:  time.Now().Add(d.ttl),
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).
		Create(&row).Error
}

// GetDel locks the row, deletes it and returns its value unless expired.
func (d *DatabaseBackend) GetDel(ctx context.Context, key string) (string, bool, error) {
	var row models.CaptchaSession
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_key = ?", key).
			First(&row).Error; err != nil {
			return err
		}
		return tx.Where("session_key = ?", key).Delete(&models.CaptchaSession{}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if row.Expired(time.Now()) {
		return "", false, nil
	}
	return row.Value, true, nil
}

// PurgeExpired deletes rows past their expiry and reports how many went.
func (d *DatabaseBackend) PurgeExpired(ctx context.Context) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Limit(500).
		Delete(&models.CaptchaSession{})
	return res.RowsAffected, res.Error
}
