package clock

import (
	"testing"
	"time"
)

func TestMockClockSetAndAdvance(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	if !c.Now().Equal(start) {
		t.Fatalf("now want %s got %s", start, c.Now())
	}
	c.Advance(90 * time.Minute)
	want := start.Add(90 * time.Minute)
	if !c.Now().Equal(want) {
		t.Fatalf("advance want %s got %s", want, c.Now())
	}
	reset := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(reset)
	if !c.Now().Equal(reset) {
		t.Fatalf("set want %s got %s", reset, c.Now())
	}
}

func TestRealClockMovesForward(t *testing.T) {
	c := NewRealClock()
	before := time.Now()
	got := c.Now()
	if got.Before(before) {
		t.Fatalf("real clock went backwards: before=%s got=%s", before, got)
	}
}
