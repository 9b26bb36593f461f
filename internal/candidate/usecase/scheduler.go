package usecase

import (
	"context"
	"log"
	"time"
)

// AutoRejectScheduler runs the auto-reject sweep on a fixed interval.
type AutoRejectScheduler struct {
	usecase  *ScreeningUsecase
	interval time.Duration
	stopChan chan struct{}
}

func NewAutoRejectScheduler(u *ScreeningUsecase, interval time.Duration) *AutoRejectScheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &AutoRejectScheduler{
		usecase:  u,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine. One pass runs immediately so
// a restart does not delay overdue rejections by a full interval.
func (s *AutoRejectScheduler) Start() {
	log.Printf("[AutoRejectScheduler] started, interval %s", s.interval)
	go func() {
		s.run()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopChan:
				log.Println("[AutoRejectScheduler] stopped")
				return
			}
		}
	}()
}

func (s *AutoRejectScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if _, err := s.usecase.AutoRejectSweep(ctx); err != nil {
		log.Printf("[AutoRejectScheduler] sweep failed: %v", err)
	}
}

// Stop terminates the loop.
func (s *AutoRejectScheduler) Stop() {
	close(s.stopChan)
}
