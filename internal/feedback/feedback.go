// Package feedback implements the message banner shown at the top of both
// pages after every user action.
//
// A Banner owns one on-page Element. Success and info messages hide
// themselves after a delay; error messages stay until they are cleared or
// replaced. Timers are created through a Scheduler so tests can fire them by
// hand.
package feedback

import (
	"strings"
	"sync"
	"time"
)

// Kind is the message category. Its value is also the CSS class applied to
// the banner.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// AutoHides reports whether messages of this kind disappear on their own.
func (k Kind) AutoHides() bool {
	return k == KindSuccess || k == KindInfo
}

// DefaultHideDelay is how long success and info messages stay visible.
const DefaultHideDelay = 5 * time.Second

// State is what the banner currently displays.
type State struct {
	Text    string
	Kind    Kind
	Visible bool
}

// ClassName returns the CSS class list for the banner element,
// e.g. "mensagem-feedback show success".
func (s State) ClassName() string {
	classes := []string{"mensagem-feedback"}
	if s.Visible {
		classes = append(classes, "show")
	}
	if s.Kind != "" {
		classes = append(classes, string(s.Kind))
	}
	return strings.Join(classes, " ")
}

// Element is the page node the banner draws into.
type Element interface {
	Render(State)
	ScrollIntoView()
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules on the runtime timer heap via time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

// Banner is safe for concurrent use.
type Banner struct {
	mu    sync.Mutex
	el    Element
	sched Scheduler
	delay time.Duration

	state State
	timer Timer
	// seq identifies the message currently shown; a hide timer only acts
	// when it still matches.
	seq uint64
}

// Option configures a Banner.
type Option func(*Banner)

// WithScheduler replaces RealScheduler.
func WithScheduler(s Scheduler) Option {
	return func(b *Banner) { b.sched = s }
}

// WithHideDelay replaces DefaultHideDelay. Non-positive values are ignored.
func WithHideDelay(d time.Duration) Option {
	return func(b *Banner) {
		if d > 0 {
			b.delay = d
		}
	}
}

// NewBanner returns a hidden banner drawing into el.
func NewBanner(el Element, opts ...Option) *Banner {
	b := &Banner{
		el:    el,
		sched: RealScheduler,
		delay: DefaultHideDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Show replaces the current message with text, scrolls the banner into view
// and, for success and info, schedules it to hide.
func (b *Banner) Show(text string, kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimer()
	b.seq++
	b.state = State{Text: text, Kind: kind, Visible: true}
	b.el.Render(b.state)
	b.el.ScrollIntoView()

	if kind.AutoHides() {
		seq := b.seq
		b.timer = b.sched.AfterFunc(b.delay, func() { b.hide(seq) })
	}
}

// Clear hides the banner and empties its text.
func (b *Banner) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimer()
	b.seq++
	b.state = State{Kind: b.state.Kind}
	b.el.Render(b.state)
}

// State returns what the banner currently displays.
func (b *Banner) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Banner) hide(seq uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.seq {
		return
	}
	b.timer = nil
	b.state.Visible = false
	b.el.Render(b.state)
}

func (b *Banner) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
