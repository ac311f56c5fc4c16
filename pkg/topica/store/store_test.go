package store

import (
	"testing"
	"time"
)

func TestNewRunIDSortable(t *testing.T) {
	now := time.Now()
	a := NewRunID(now)
	b := NewRunID(now)
	c := NewRunID(now.Add(time.Second))

	if len(a) != 26 {
		t.Errorf("expected 26-char ULID, got %q", a)
	}
	if !(a < b && b < c) {
		t.Errorf("ids not monotonic: %s %s %s", a, b, c)
	}
}
