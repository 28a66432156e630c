package clock

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current instant. Stores take one so tests can pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns a Clock backed by time.Now in UTC.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a manually advanced Clock.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed returns a Clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Set pins the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.now = t.UTC()
	f.mu.Unlock()
}

// AddDays adds whole calendar days in UTC.
func AddDays(t time.Time, days int) time.Time {
	return t.UTC().AddDate(0, 0, days)
}

// DaysBetween returns (to - from) in fractional days.
func DaysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}
