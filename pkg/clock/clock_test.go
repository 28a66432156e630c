package clock

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewFixed(start)
	if !c.Now().Equal(start) {
		t.Fatalf("expected %v got %v", start, c.Now())
	}
	c.Advance(36 * time.Hour)
	if got := DaysBetween(start, c.Now()); got != 1.5 {
		t.Fatalf("expected 1.5 days, got %v", got)
	}
	c.Set(start)
	if !c.Now().Equal(start) {
		t.Fatalf("set did not pin the clock")
	}
}

func TestAddDaysIsUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	start := time.Date(2026, 2, 27, 22, 0, 0, 0, loc)
	got := AddDays(start, 5)
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC result, got %v", got.Location())
	}
	if want := start.UTC().Add(5 * 24 * time.Hour); !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestNewIDUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatalf("ids should differ")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("id should be a uuid: %v", err)
	}
}

func TestSystemClockIsUTC(t *testing.T) {
	if System().Now().Location() != time.UTC {
		t.Fatalf("system clock should report UTC")
	}
}
