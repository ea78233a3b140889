package random

import "testing"

type fixed []int

func (f *fixed) Intn(n int) int {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}

func TestDraw(t *testing.T) {
	r := &fixed{1, 0}
	pool := []string{"a", "b", "c"}

	got, pool := Draw[string](r, pool)
	if got != "b" {
		t.Errorf("first draw = %q, want %q", got, "b")
	}
	if len(pool) != 2 || pool[0] != "a" || pool[1] != "c" {
		t.Errorf("pool after first draw = %v, want [a c]", pool)
	}

	got, pool = Draw[string](r, pool)
	if got != "a" {
		t.Errorf("second draw = %q, want %q", got, "a")
	}
	if len(pool) != 1 || pool[0] != "c" {
		t.Errorf("pool after second draw = %v, want [c]", pool)
	}
}

func TestCryptoIntnRange(t *testing.T) {
	r := New()
	if got := r.Intn(0); got != 0 {
		t.Errorf("Intn(0) = %d, want 0", got)
	}
	for range 100 {
		if got := r.Intn(3); got < 0 || got >= 3 {
			t.Fatalf("Intn(3) = %d, out of range", got)
		}
	}
}
