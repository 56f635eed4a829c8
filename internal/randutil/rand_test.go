package randutil

import "testing"

func TestNewDeterministic(t *testing.T) {
	a, b := New(123), New(123)
	for i := 0; i < 10; i++ {
		if a.Int64() != b.Int64() {
			t.Fatal("same seed produced different sequences")
		}
	}
}

func TestSeeds(t *testing.T) {
	first := Seeds(7, 8)
	second := Seeds(7, 8)
	if len(first) != 8 {
		t.Fatalf("got %d seeds, want 8", len(first))
	}

	seen := make(map[int64]bool)
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("same root seed produced different child seeds")
		}
		if seen[first[i]] {
			t.Fatalf("duplicate child seed %d", first[i])
		}
		seen[first[i]] = true
	}
}
