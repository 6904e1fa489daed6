package registry

import "testing"

func TestAddGetRemove(t *testing.T) {
	r := New[string]()
	a := r.Add("a")
	b := r.Add("b")
	c := r.Add("c")

	if v, ok := r.Get(b); !ok || *v != "b" {
		t.Fatalf("Get(b) = %v, %v", v, ok)
	}

	if !r.Remove(a) {
		t.Fatal("Remove(a) reported missing")
	}
	if r.Remove(a) {
		t.Fatal("double remove succeeded")
	}
	if _, ok := r.Get(a); ok {
		t.Fatal("removed id still resolvable")
	}

	// The swapped-in item must still resolve through its id.
	if v, ok := r.Get(c); !ok || *v != "c" {
		t.Fatalf("Get(c) after swap = %v, %v", v, ok)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d, want 2", r.Len())
	}
}

func TestIDsNeverReused(t *testing.T) {
	r := New[int]()
	first := r.Add(1)
	r.Remove(first)
	second := r.Add(2)
	if second == first {
		t.Fatal("id reused after removal")
	}
}

func TestForEachOrderIsStable(t *testing.T) {
	r := New[int]()
	for i := 0; i < 5; i++ {
		r.Add(i * 10)
	}

	var got []int
	r.ForEach(func(_ uint64, item *int) { got = append(got, *item) })

	want := []int{0, 10, 20, 30, 40}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("iteration order %v, want %v", got, want)
		}
	}
}
