package orderedset

import "testing"

func intSet() *Set[int] {
	return New(func(a, b int) bool { return a < b }, func(a, b int) bool { return a == b })
}

func TestSet_AddKeepsSortedAndDeduped(t *testing.T) {
	s := intSet()
	for _, v := range []int{5, 1, 3, 1, 5, 2} {
		s = s.Add(v)
	}

	want := []int{1, 2, 3, 5}
	got := s.Values()
	if len(got) != len(want) {
		t.Fatalf("expected %d elements, got %d: %v", len(want), len(got), got)
	}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("index %d: got %d, want %d", i, got[i], v)
		}
	}
}

func TestSet_Union(t *testing.T) {
	a := intSet().Add(1).Add(2)
	b := intSet().Add(2).Add(3)

	merged := a.Union(b)
	got := merged.Values()
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSet_Remove(t *testing.T) {
	s := intSet().Add(1).Add(2).Add(3)
	s = s.Remove(func(v int) bool { return v == 2 })

	got := s.Values()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected [1 3], got %v", got)
	}
}

func TestQuery_FilterSortLimit(t *testing.T) {
	s := intSet()
	for _, v := range []int{10, 3, 7, 1, 9, 4} {
		s = s.Add(v)
	}

	got := s.Query().
		Filter(func(v int) bool { return v > 3 }).
		Sort(func(i, j int) bool { return i > j }).
		Limit(2).
		All()

	if len(got) != 2 || got[0] != 10 || got[1] != 9 {
		t.Fatalf("expected [10 9], got %v", got)
	}
}
