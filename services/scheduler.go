package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/guildpost/guildpost/config"
	"github.com/guildpost/guildpost/utils"
)

// Scheduler runs the recurring maintenance and digest jobs.
type Scheduler struct {
	cron   *cron.Cron
	db     *gorm.DB
	digest *Digest
}

// NewScheduler wires cron jobs against the database and mail sender.
func NewScheduler(db *gorm.DB, sender Sender) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		db:     db,
		digest: NewDigest(db, sender),
	}
}

// Start registers all jobs using the configured specs and launches cron.
func (s *Scheduler) Start() error {
	cfg := config.Get()

	if _, err := s.cron.AddFunc(cfg.VerificationCleanupSpec, func() {
		n, err := PurgeExpiredVerifications(s.db, time.Now())
		if err != nil {
			utils.Sugar.Warnf("verification cleanup failed: %v", err)
			return
		}
		if n > 0 {
			utils.Sugar.Infof("verification cleanup removed %d expired records", n)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(cfg.ActionLogCleanupSpec, func() {
		n, err := PurgeOldActionLogs(s.db, time.Now(), cfg.ActionLogRetentionDays)
		if err != nil {
			utils.Sugar.Warnf("action log cleanup failed: %v", err)
			return
		}
		if n > 0 {
			utils.Sugar.Infof("action log cleanup removed %d rows", n)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(cfg.DigestSpec, func() {
		s.digest.Run(time.Now())
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
