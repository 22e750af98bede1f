package models

import (
	"testing"
	"time"
)

func TestCaptchaSessionExpired(t *testing.T) {
	now := time.Now()
	s := CaptchaSession{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatal("fresh row reported expired")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Fatal("row at expiry reported live")
	}
	if (CaptchaSession{}).TableName() != "captcha_sessions" {
		t.Fatal("table name")
	}
}
