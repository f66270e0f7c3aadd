// Package slideshow advances the lightbox automatically while playing.
package slideshow

import (
	"context"
	"sync"
	"time"
)

const defaultInterval = 4 * time.Second

// Manager holds the play/pause state of lightbox autoplay. It starts paused.
type Manager struct {
	mu                 sync.Mutex
	isPaused           bool
	wasPlayingBeforeOp bool // playing state captured by Pause(true)
	interval           time.Duration
	wake               chan struct{}
}

// NewManager creates a paused Manager. interval <= 0 uses the default.
func NewManager(interval time.Duration) *Manager {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Manager{
		isPaused: true,
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
}

// TogglePlayPause flips between playing and paused and reports whether the
// manager is now playing.
func (m *Manager) TogglePlayPause() bool {
	m.mu.Lock()
	m.isPaused = !m.isPaused
	m.wasPlayingBeforeOp = false // user toggle overrides any pending resume
	playing := !m.isPaused
	m.mu.Unlock()
	m.signal()
	return playing
}

// Pause stops playback. With forOperation set, the current state is
// remembered so ResumeAfterOperation can restore it.
func (m *Manager) Pause(forOperation bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if forOperation {
		m.wasPlayingBeforeOp = !m.isPaused
	}
	m.isPaused = true
}

// ResumeAfterOperation resumes only if playback was on when Pause(true) ran.
func (m *Manager) ResumeAfterOperation() {
	m.mu.Lock()
	resumed := m.wasPlayingBeforeOp
	if resumed {
		m.isPaused = false
	}
	m.wasPlayingBeforeOp = false
	m.mu.Unlock()
	if resumed {
		m.signal()
	}
}

// IsPaused reports whether playback is paused.
func (m *Manager) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isPaused
}

// Interval returns the time between automatic steps.
func (m *Manager) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// SetInterval changes the step interval; values <= 0 are ignored.
func (m *Manager) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.interval = d
	m.mu.Unlock()
	m.signal()
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Run calls step every interval while playing, until ctx is done. Becoming
// playing restarts the interval, so the first step comes one full interval
// after play is pressed.
func (m *Manager) Run(ctx context.Context, step func()) {
	timer := time.NewTimer(m.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.wake:
			timer.Reset(m.Interval())
		case <-timer.C:
			if !m.IsPaused() {
				step()
			}
			timer.Reset(m.Interval())
		}
	}
}
