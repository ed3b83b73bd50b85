package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/guildpost/guildpost/models"
)

// PurgeExpiredVerifications deletes verification records older than the
// validity window. Users left inactive keep their row until they re-register.
func PurgeExpiredVerifications(db *gorm.DB, now time.Time) (int64, error) {
	cutoff := now.Add(-models.VerificationTTL)
	res := db.Where("created_at < ?", cutoff).Delete(&models.EmailVerification{})
	return res.RowsAffected, res.Error
}

// PurgeOldActionLogs deletes action log rows older than the retention period.
func PurgeOldActionLogs(db *gorm.DB, now time.Time, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	res := db.Where("created_at < ?", cutoff).Delete(&models.UserActionLog{})
	return res.RowsAffected, res.Error
}
