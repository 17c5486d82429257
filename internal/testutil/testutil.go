// Package testutil provides helpers shared by the package tests: a scheduler
// whose timers fire only when told to, and canned HTTP responders.
package testutil

import (
	"net/http"
	"sync"
	"time"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/feedback"
)

// ManualScheduler implements feedback.Scheduler. Timers never fire on their
// own; call FireAll.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*ManualTimer
}

// ManualTimer is a timer created by ManualScheduler.
type ManualTimer struct {
	Delay time.Duration

	s       *ManualScheduler
	f       func()
	stopped bool
	fired   bool
}

// Stop prevents the timer from firing. It reports whether the timer was
// still pending.
func (t *ManualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// AfterFunc records f without scheduling it.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) feedback.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &ManualTimer{Delay: d, s: s, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Pending returns the timers that are neither stopped nor fired.
func (s *ManualScheduler) Pending() []*ManualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ManualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// FireAll runs every pending timer, in creation order, and returns how many
// ran. Callbacks run without the scheduler lock held.
func (s *ManualScheduler) FireAll() int {
	pending := s.Pending()

	s.mu.Lock()
	for _, t := range pending {
		t.fired = true
	}
	s.mu.Unlock()

	for _, t := range pending {
		t.f()
	}
	return len(pending)
}

// JSONResponder replies with status and body, declaring contentType
// (application/json when empty).
func JSONResponder(status int, body string, contentType string) http.HandlerFunc {
	if contentType == "" {
		contentType = "application/json"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
