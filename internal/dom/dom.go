// Package dom is the in-memory element model behind the two pages: form
// inputs with their validation marks, buttons, the feedback banner node and
// the listing table body.
//
// Controllers mutate these elements; the page handlers read them back to
// render HTML. Every element guards its own state with a mutex because
// timers (banner hide, mark clearing) touch them from other goroutines.
package dom

import (
	"slices"
	"sync"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/feedback"
)

// Mark is the validation state of an input; its value is the CSS class.
type Mark string

const (
	MarkNone    Mark = ""
	MarkError   Mark = "error"
	MarkSuccess Mark = "success"
)

// Input is a snapshot of one form input.
type Input struct {
	Name  string
	Value string
	Mark  Mark
}

// Form holds the values and marks of a fixed set of inputs.
type Form struct {
	mu     sync.Mutex
	names  []string
	values map[string]string
	marks  map[string]Mark
}

// NewForm returns an empty form with the given inputs, in display order.
func NewForm(names ...string) *Form {
	return &Form{
		names:  slices.Clone(names),
		values: make(map[string]string, len(names)),
		marks:  make(map[string]Mark, len(names)),
	}
}

func (f *Form) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

func (f *Form) SetValue(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
}

func (f *Form) Mark(name string) Mark {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marks[name]
}

func (f *Form) SetMark(name string, m Mark) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marks[name] = m
}

// RemoveMark clears the mark on name only if it currently is m.
func (f *Form) RemoveMark(name string, m Mark) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.marks[name] == m {
		f.marks[name] = MarkNone
	}
}

// Reset empties every value. Marks are left as they are.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.values)
}

// Inputs returns a snapshot of all inputs in display order.
func (f *Form) Inputs() []Input {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Input, 0, len(f.names))
	for _, n := range f.names {
		out = append(out, Input{Name: n, Value: f.values[n], Mark: f.marks[n]})
	}
	return out
}

// Button is a clickable control with a label.
type Button struct {
	mu       sync.Mutex
	label    string
	disabled bool
}

func NewButton(label string) *Button {
	return &Button{label: label}
}

// Disable disables the button and reports whether it was enabled before.
// A false return means another action already holds it.
func (b *Button) Disable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disabled {
		return false
	}
	b.disabled = true
	return true
}

func (b *Button) Enable() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disabled = false
}

func (b *Button) SetLabel(label string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.label = label
}

func (b *Button) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}

func (b *Button) Disabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

// BannerElement is the node a feedback.Banner draws into.
type BannerElement struct {
	mu      sync.Mutex
	state   feedback.State
	scrolls int
}

func (e *BannerElement) Render(s feedback.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

// ScrollIntoView asks the next rendered page to jump to the banner.
func (e *BannerElement) ScrollIntoView() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scrolls++
}

func (e *BannerElement) State() feedback.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// TakeScroll reports whether a scroll was requested since the last call.
func (e *BannerElement) TakeScroll() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.scrolls
	e.scrolls = 0
	return n > 0
}

// Row is one table body row. An Empty row spans all columns and carries a
// single message cell.
type Row struct {
	Cells []string
	Empty bool
}

// Table is a table body.
type Table struct {
	mu   sync.Mutex
	rows []Row
}

func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = nil
}

func (t *Table) AppendRow(cells ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, Row{Cells: slices.Clone(cells)})
}

// AppendEmptyRow appends the "no records" row.
func (t *Table) AppendEmptyRow(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, Row{Cells: []string{text}, Empty: true})
}

func (t *Table) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.rows)
}
