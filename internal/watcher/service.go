package watcher

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"frontpriority/internal/booster"
	"frontpriority/internal/history"
)

// FocusSource delivers focus-change notifications and resolves the process
// owning the active window. Implemented by x11.Client; faked in tests.
type FocusSource interface {
	// Subscribe registers for focus-change notifications.
	Subscribe() error
	// ActivePID resolves the owning process of the currently active window.
	ActivePID() (pid int, ok bool)
	// WaitFocusChange blocks until the active window changes. It returns
	// false when the source has been closed.
	WaitFocusChange() (bool, error)
	// Close releases the source, unblocking WaitFocusChange.
	Close()
}

// Service drives the booster from windowing-system focus changes.
type Service struct {
	source   FocusSource
	booster  *booster.Booster
	repo     *history.Repository // may be nil
	stopOnce sync.Once
	stopChan chan struct{}
	running  bool
}

func NewService(source FocusSource, b *booster.Booster, repo *history.Repository) *Service {
	return &Service{
		source:   source,
		booster:  b,
		repo:     repo,
		stopChan: make(chan struct{}),
	}
}

// Start subscribes to focus changes and blocks, dispatching each change to
// the booster, until Stop is called or ctx is cancelled. Whatever is boosted
// when Start returns gets reverted on the way out.
func (s *Service) Start(ctx context.Context) error {
	if s.running {
		return fmt.Errorf("watcher is already running")
	}
	s.running = true
	defer func() { s.running = false }()

	// The revert also runs when the loop exits through an error path, so a
	// boosted process is never left behind by a dying watcher.
	defer s.booster.Revert()

	if err := s.source.Subscribe(); err != nil {
		return err
	}

	// WaitFocusChange only unblocks when the source is closed, so context
	// cancellation has to close it too.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-watchDone:
		}
	}()

	// A window usually has focus already when the watcher starts; treat it
	// as the first transition instead of waiting for the next one.
	s.dispatch()

	for {
		more, err := s.source.WaitFocusChange()
		if err != nil {
			s.storeError(err)
			continue
		}
		if !more {
			select {
			case <-ctx.Done():
				log.Println("Watcher stopped by context")
				return ctx.Err()
			default:
			}
			log.Println("Watcher stopped")
			return nil
		}

		select {
		case <-ctx.Done():
			log.Println("Watcher stopped by context")
			return ctx.Err()
		case <-s.stopChan:
			log.Println("Watcher stopped")
			return nil
		default:
		}

		s.dispatch()
	}
}

// Stop unblocks Start. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.source.Close()
	})
}

// IsRunning reports whether the event loop is active.
func (s *Service) IsRunning() bool {
	return s.running
}

func (s *Service) dispatch() {
	pid, ok := s.source.ActivePID()
	if !ok {
		pid = 0
	}
	s.booster.OnFocusChange(pid)
}

func (s *Service) storeError(err error) {
	if s.repo == nil {
		log.Printf("Watcher error: %v", err)
		return
	}

	errorLog := &history.ErrorLog{
		Timestamp: time.Now(),
		ErrorMsg:  err.Error(),
	}

	if dbErr := s.repo.CreateErrorLog(errorLog); dbErr != nil {
		log.Printf("Failed to store error in database: %v (original error: %v)", dbErr, err)
	} else {
		log.Printf("Error logged to database: %v", err)
	}
}
