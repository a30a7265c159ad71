package audit

import (
	"context"
	"sync"
	"time"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/gofiber/fiber/v2/log"
)

// Scheduler triggers the audit job at wall clock aligned offsets and exposes
// the chat registration commands
type Scheduler struct {
	job      *Job
	testMode func() bool
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	nextFire time.Time
}

// NewScheduler creates a stopped scheduler. testMode is read on every Start.
func NewScheduler(job *Job, testMode func() bool) *Scheduler {
	if testMode == nil {
		testMode = func() bool { return false }
	}
	return &Scheduler{
		job:      job,
		testMode: testMode,
		now:      time.Now,
		after:    time.After,
	}
}

// Job returns the scheduled job
func (s *Scheduler) Job() *Job {
	return s.job
}

// Start begins firing every period hours, or minutes in test mode
func (s *Scheduler) Start(period int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Error("[AuditScheduler] Payments check job already running, cannot start it")
		return ErrJobAlreadyRunning
	}

	testMode := s.testMode()
	if !ValidPeriod(period, testMode) {
		log.Errorf("[AuditScheduler] Invalid period %d for payments check job, cannot start it", period)
		return ErrInvalidPeriod
	}

	s.job.SetPeriod(period)
	offsets := Offsets(period, MaxPeriod(testMode))

	s.stopCh = make(chan struct{})
	s.running = true
	s.wg.Add(1)
	go s.worker(s.stopCh, offsets, testMode)

	unit := "hour(s)"
	if testMode {
		unit = "minute(s)"
	}
	log.Infof("[AuditScheduler] Started payments check job (period: %d %s, offsets: %v)", period, unit, offsets)
	return nil
}

// Stop removes the trigger. Registered chats are kept and a running pass completes.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		log.Error("[AuditScheduler] Payments check job not running, cannot stop it")
		return ErrJobNotRunning
	}

	close(s.stopCh)
	s.stopCh = nil
	s.running = false
	s.nextFire = time.Time{}
	log.Info("[AuditScheduler] Stopped payments check job")
	return nil
}

// Shutdown stops the trigger if needed and waits for a running pass to finish
func (s *Scheduler) Shutdown() {
	if s.IsRunning() {
		_ = s.Stop()
	}
	s.wg.Wait()
}

// IsRunning reports whether the trigger is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextFire returns the next scheduled pass, zero when stopped
func (s *Scheduler) NextFire() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextFire
}

// Period returns the period of the last start
func (s *Scheduler) Period() int {
	return s.job.Period()
}

// Chats returns the registered chats
func (s *Scheduler) Chats() []chat.Chat {
	return s.job.Chats()
}

// AddChat registers c for the audit
func (s *Scheduler) AddChat(c chat.Chat) error {
	if !s.job.AddChat(c) {
		log.Errorf("[AuditScheduler] Chat %s already present in payments check job, cannot add it", c.TitleOrID())
		return ErrChatAlreadyPresent
	}
	log.Infof("[AuditScheduler] Added chat %s to payments check job", c.TitleOrID())
	return nil
}

// RemoveChat unregisters c
func (s *Scheduler) RemoveChat(c chat.Chat) error {
	if !s.job.RemoveChat(c) {
		log.Errorf("[AuditScheduler] Chat %s not present in payments check job, cannot remove it", c.TitleOrID())
		return ErrChatNotPresent
	}
	log.Infof("[AuditScheduler] Removed chat %s from payments check job", c.TitleOrID())
	return nil
}

// RemoveAllChats unregisters every chat
func (s *Scheduler) RemoveAllChats() {
	s.job.RemoveAllChats()
	log.Info("[AuditScheduler] Removed all chats from payments check job")
}

// ChatLeft drops c after the bot left it; unknown chats are fine
func (s *Scheduler) ChatLeft(c chat.Chat) {
	s.job.RemoveChat(c)
	log.Infof("[AuditScheduler] Left chat %s", c.TitleOrID())
}

// RunNow runs a pass immediately, independent of the trigger
func (s *Scheduler) RunNow(ctx context.Context) Report {
	return s.job.RunOnce(ctx)
}

func (s *Scheduler) worker(stopCh <-chan struct{}, offsets []int, testMode bool) {
	defer s.wg.Done()

	for {
		now := s.now()
		next := NextFire(now, offsets, testMode)
		s.setNextFire(stopCh, next)
		log.Debugf("[AuditScheduler] Next payments check at %s", next.Format(time.RFC3339))

		select {
		case <-stopCh:
			log.Info("[AuditScheduler] Trigger stopping")
			return
		case <-s.after(next.Sub(now)):
			select {
			case <-stopCh:
				return
			default:
			}
			// a pass is never cancelled, Stop only prevents the next one
			s.job.RunOnce(context.Background())
		}
	}
}

func (s *Scheduler) setNextFire(stopCh <-chan struct{}, next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// ignore a worker whose trigger was already removed
	if s.stopCh == stopCh && s.running {
		s.nextFire = next
	}
}
