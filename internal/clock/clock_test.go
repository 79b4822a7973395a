package clock

import (
	"testing"
	"time"
)

func TestSystemClockIsUTC(t *testing.T) {
	if loc := (SystemClock{}).Now().Location(); loc != time.UTC {
		t.Errorf("expected UTC, got %s", loc)
	}
}

func TestMockClock(t *testing.T) {
	c := &MockClock{FixedNow: time.Date(2025, 1, 20, 15, 30, 0, 0, time.UTC)}
	next := c.FixedNow.Add(24 * time.Hour)
	c.SetNow(next)
	if !c.Now().Equal(next) {
		t.Errorf("expected %s, got %s", next, c.Now())
	}
}
