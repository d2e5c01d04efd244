// Package alerts keeps the bounded list of notable events shown on the dashboard.
package alerts

import (
	"strings"
	"sync"
)

// DefaultCapacity is the number of alerts kept before the oldest is evicted.
const DefaultCapacity = 15

// Alert titles synthesized by the detection renderer.
const (
	TitlePersonDetected = "Person Detected"
	TitleUnknownFace    = "Unknown Face"
	TitleFaceRecognized = "Face Recognized"
)

// Alert is a derived, dashboard-local notable event.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// Icon returns the icon name for the alert.
func (a Alert) Icon() string {
	return Icon(a.Title)
}

// Icon picks the icon name from the alert title.
func Icon(title string) string {
	switch {
	case strings.Contains(title, "Person"):
		return "user"
	case strings.Contains(title, "Face"):
		return "user-circle"
	default:
		return "exclamation-triangle"
	}
}

// Log is a newest-first alert list. Index 0 is the most recently added alert
// and eviction always drops the last element.
type Log struct {
	mu       sync.Mutex
	capacity int
	items    []Alert
	onAdd    func(Alert)
}

// NewLog creates a Log holding at most capacity alerts.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// OnAdd registers a hook invoked (outside the lock) for every stored alert.
func (l *Log) OnAdd(fn func(Alert)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onAdd = fn
}

// Add stores a at the front, evicting from the back past capacity.
func (l *Log) Add(a Alert) {
	l.mu.Lock()
	l.addLocked(a)
	hook := l.onAdd
	l.mu.Unlock()

	if hook != nil {
		hook(a)
	}
}

// AddUnique stores a unless an existing alert satisfies dup. It reports
// whether a was stored.
func (l *Log) AddUnique(a Alert, dup func(existing Alert) bool) bool {
	l.mu.Lock()
	for _, existing := range l.items {
		if dup(existing) {
			l.mu.Unlock()
			return false
		}
	}
	l.addLocked(a)
	hook := l.onAdd
	l.mu.Unlock()

	if hook != nil {
		hook(a)
	}
	return true
}

func (l *Log) addLocked(a Alert) {
	l.items = append([]Alert{a}, l.items...)
	if len(l.items) > l.capacity {
		l.items = l.items[:l.capacity]
	}
}

// List returns a copy of the alerts, newest first.
func (l *Log) List() []Alert {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Alert, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of stored alerts.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Capacity returns the maximum number of stored alerts.
func (l *Log) Capacity() int {
	return l.capacity
}

// Clear drops every alert.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = nil
}

// SameTitleAndTime matches alerts with the given title raised at the given time.
func SameTitleAndTime(title, time string) func(Alert) bool {
	return func(a Alert) bool {
		return a.Title == title && a.Time == time
	}
}

// SameRecognition matches a Face Recognized alert for name at the given time.
func SameRecognition(name, time string) func(Alert) bool {
	return func(a Alert) bool {
		return a.Title == TitleFaceRecognized && a.Time == time && strings.Contains(a.Message, name)
	}
}
