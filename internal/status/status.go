// Package status keeps the stack of transient status messages shown over
// the diff. Toasts expire in insertion order: the oldest one slides out,
// and only then does the next one start its own slide.
package status

import (
	"math"
	"time"
)

// Default timings.
const (
	DefaultDuration = 10 * time.Second
	DefaultSlideOut = 500 * time.Millisecond
)

// frame is the redraw interval while a toast is sliding.
const frame = time.Second / 30

// Toast is one status message.
type Toast struct {
	ID   int
	Text string
	// Retry marks a transport-failure toast offering a manual retry.
	Retry bool

	slideStart time.Time
	slideEnd   time.Time
}

// Item is a toast as it should be drawn at a given instant.
type Item struct {
	ID    int
	Text  string
	Retry bool
	// Progress of the slide-out in [0, 1), eased. 0 means fully visible.
	Progress float64
}

// Queue holds the live toasts, oldest first.
type Queue struct {
	duration time.Duration
	slideOut time.Duration
	toasts   []Toast
	nextID   int
}

// NewQueue returns an empty queue. Non-positive values select defaults.
func NewQueue(duration, slideOut time.Duration) *Queue {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if slideOut <= 0 {
		slideOut = DefaultSlideOut
	}
	return &Queue{duration: duration, slideOut: slideOut}
}

// Push appends a toast and returns its id.
func (q *Queue) Push(now time.Time, text string, retry bool) int {
	q.nextID++
	start := now.Add(q.duration)
	q.toasts = append(q.toasts, Toast{
		ID:         q.nextID,
		Text:       text,
		Retry:      retry,
		slideStart: start,
		slideEnd:   start.Add(q.slideOut),
	})
	return q.nextID
}

// ClearRetry removes the retry affordance from every toast.
func (q *Queue) ClearRetry() {
	for i := range q.toasts {
		q.toasts[i].Retry = false
	}
}

// Len returns the number of live toasts.
func (q *Queue) Len() int {
	return len(q.toasts)
}

// Tick advances time, dropping the oldest toast once its slide finished.
// It reports whether anything was removed.
func (q *Queue) Tick(now time.Time) bool {
	if len(q.toasts) == 0 || !now.After(q.toasts[0].slideEnd) {
		return false
	}
	q.toasts = q.toasts[1:]
	if len(q.toasts) > 0 {
		next := &q.toasts[0]
		if next.slideStart.Before(now) {
			next.slideStart = now
			next.slideEnd = now.Add(q.slideOut)
		}
	}
	return true
}

// Items returns the toasts to draw at now, oldest first.
func (q *Queue) Items(now time.Time) []Item {
	items := make([]Item, len(q.toasts))
	for i, t := range q.toasts {
		items[i] = Item{ID: t.ID, Text: t.Text, Retry: t.Retry}
	}
	if len(q.toasts) > 0 {
		items[0].Progress = q.progress(q.toasts[0], now)
	}
	return items
}

func (q *Queue) progress(t Toast, now time.Time) float64 {
	if !now.After(t.slideStart) {
		return 0
	}
	span := t.slideEnd.Sub(t.slideStart)
	if span <= 0 {
		return 0
	}
	p := float64(now.Sub(t.slideStart)) / float64(span)
	if p >= 1 {
		return math.Nextafter(1, 0)
	}
	return p * p * p
}

// NextWake returns how long the caller may sleep before the queue needs
// another Tick. ok is false when the queue is empty.
func (q *Queue) NextWake(now time.Time) (d time.Duration, ok bool) {
	if len(q.toasts) == 0 {
		return 0, false
	}
	head := q.toasts[0]
	if now.Before(head.slideStart) {
		return head.slideStart.Sub(now), true
	}
	return frame, true
}
