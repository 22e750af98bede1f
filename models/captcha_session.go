package models

import (
	"time"

	"gorm.io/gorm"
)

// CaptchaSession is one outstanding session value for the database driver.
type CaptchaSession struct {
	SessionKey string    `gorm:"primaryKey;size:191" json:"session_key"`
	Value      string    `gorm:"size:255;not null" json:"-"`
	ExpiresAt  time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (CaptchaSession) TableName() string { return "captcha_sessions" }

// Expired reports whether the row is past its expiry at now.
func (s *CaptchaSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// BeforeUpdate refreshes UpdatedAt.
func (s *CaptchaSession) BeforeUpdate(tx *gorm.DB) error {
	s.UpdatedAt = time.Now()
	return nil
}
