package model

import (
	"regexp"
	"testing"
)

// crockfordBase32 matches valid ULID strings (26 chars, Crockford Base32 alphabet).
var crockfordBase32 = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

func TestNewIDFormat(t *testing.T) {
	id := NewID()
	if !crockfordBase32.MatchString(id) {
		t.Errorf("NewID() = %q, does not match Crockford Base32 ULID format", id)
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("NewID() produced duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestStatusConstants(t *testing.T) {
	statuses := []struct {
		constant string
		expected string
	}{
		{StatusPending, "pending"},
		{StatusRunning, "running"},
		{StatusFinished, "finished"},
		{StatusCanceled, "canceled"},
	}
	for _, s := range statuses {
		if s.constant != s.expected {
			t.Errorf("status constant = %q, want %q", s.constant, s.expected)
		}
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusFinished, true},
		{StatusPending, StatusCanceled, true},
		{StatusRunning, StatusFinished, true},
		{StatusRunning, StatusCanceled, true},
		{StatusRunning, StatusPending, false},
		{StatusFinished, StatusRunning, false},
		{StatusFinished, StatusCanceled, false},
		{StatusCanceled, StatusFinished, false},
		{"bogus", StatusRunning, false},
	}
	for _, tt := range tests {
		if got := ValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRectGeometry(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Right: 110, Bottom: 220}

	if got := r.Width(); got != 100 {
		t.Errorf("Width() = %d, want 100", got)
	}
	if got := r.Height(); got != 200 {
		t.Errorf("Height() = %d, want 200", got)
	}
	if r.IsEmpty() {
		t.Error("IsEmpty() = true for a non-empty rect")
	}

	moved := r.OffsetTo(0, 0)
	if moved.Left != 0 || moved.Top != 0 {
		t.Errorf("OffsetTo(0,0) origin = (%d,%d), want (0,0)", moved.Left, moved.Top)
	}
	if moved.Width() != r.Width() || moved.Height() != r.Height() {
		t.Errorf("OffsetTo changed size: got %dx%d, want %dx%d",
			moved.Width(), moved.Height(), r.Width(), r.Height())
	}
}

func TestRectIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"zero", Rect{}, true},
		{"inverted", Rect{Left: 10, Top: 0, Right: 5, Bottom: 20}, true},
		{"line", Rect{Left: 0, Top: 0, Right: 100, Bottom: 0}, true},
		{"normal", Rect{Left: 0, Top: 0, Right: 1, Bottom: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.r.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAddInsets(t *testing.T) {
	a := Insets{Left: 1, Top: 2, Right: 3, Bottom: 4}
	b := Insets{Left: 10, Top: 20, Right: 30, Bottom: 40}

	sum := AddInsets(a, b)
	want := Insets{Left: 11, Top: 22, Right: 33, Bottom: 44}
	if sum != want {
		t.Errorf("AddInsets = %+v, want %+v", sum, want)
	}
}
