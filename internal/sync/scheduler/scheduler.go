// Package scheduler runs the global sync loop: a safety net that re-syncs
// every account on a fixed cadence regardless of logins.
package scheduler

import (
	"context"
	"log"
	"time"

	authrepo "fiwb-backend/internal/auth/repository"
	"fiwb-backend/internal/sync/usecase"
)

type Scheduler struct {
	userRepo authrepo.UserRepository
	syncer   usecase.UserSyncer

	gracePeriod time.Duration
	interval    time.Duration
	userDelay   time.Duration

	stopChan chan struct{}
}

func New(userRepo authrepo.UserRepository, syncer usecase.UserSyncer, gracePeriod, interval time.Duration) *Scheduler {
	if gracePeriod <= 0 {
		gracePeriod = time.Minute
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{
		userRepo:    userRepo,
		syncer:      syncer,
		gracePeriod: gracePeriod,
		interval:    interval,
		userDelay:   5 * time.Second,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the loop in the background. The first pass waits out the
// grace period so a restarting server does not hammer remote APIs while
// login-triggered syncs are already running.
func (s *Scheduler) Start() {
	go s.run()
	log.Printf("[Scheduler] Global sync loop started (interval %s)", s.interval)
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) run() {
	if !s.sleep(s.gracePeriod) {
		return
	}

	for {
		s.syncAllUsers()
		if !s.sleep(s.interval) {
			return
		}
	}
}

// sleep waits for d unless Stop is called first.
func (s *Scheduler) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-s.stopChan:
		log.Println("[Scheduler] Global sync loop stopped")
		return false
	}
}

// syncAllUsers walks every account sequentially. One user's failure is
// logged and never stops the pass.
func (s *Scheduler) syncAllUsers() {
	emails, err := s.userRepo.ListAllEmails()
	if err != nil {
		log.Printf("[Scheduler] User enumeration failed: %v", err)
		return
	}
	log.Printf("[Scheduler] Starting pass over %d users", len(emails))

	for i, email := range emails {
		if i > 0 && !s.sleep(s.userDelay) {
			return
		}

		user, err := s.userRepo.FindByEmail(email)
		if err != nil || user == nil {
			log.Printf("[Scheduler] User lookup failed for %s: %v", email, err)
			continue
		}

		if err := s.syncer.SyncUser(context.Background(), user); err != nil {
			log.Printf("[Scheduler] Sync failed for %s: %v", email, err)
		}
	}

	log.Printf("[Scheduler] Pass complete")
}
