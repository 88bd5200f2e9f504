package alta

import (
	"reflect"
	"testing"
)

func TestAugmentedSchemeP1(t *testing.T) {
	s, err := NewAugmentedScheme(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	got := s.Sources(10, nil, nil)
	want := []Index{7, 9}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sources(10) = %v, want %v", got, want)
	}
}

func TestAugmentedSchemeP2(t *testing.T) {
	s, err := NewAugmentedScheme(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	// doffsets[0] = [2, 2], doffsets[1] = [-1, 1]
	if got := s.Destinations(10, nil, nil); !reflect.DeepEqual(got, []Index{12, 12}) {
		t.Errorf("Destinations(10) = %v, want [12 12]", got)
	}
	if got := s.Destinations(11, nil, nil); !reflect.DeepEqual(got, []Index{10, 12}) {
		t.Errorf("Destinations(11) = %v, want [10 12]", got)
	}
}

func TestAugmentedSchemeOddPeriodSymmetry(t *testing.T) {
	for _, p := range []Index{3, 5, 7, 9} {
		s, err := NewAugmentedScheme(2, p)
		if err != nil {
			t.Fatalf("p=%d: %v", p, err)
		}
		for base := Index(0); base < 3*p; base++ {
			for _, dst := range s.Destinations(base, nil, nil) {
				found := false
				for _, src := range s.Sources(dst, nil, nil) {
					if src == base {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("p=%d: destination %d of %d does not list %d as a source", p, dst, base, base)
				}
			}
		}
	}
}

func TestAugmentedSchemeSourcesSorted(t *testing.T) {
	s, err := NewAugmentedScheme(3, 5)
	if err != nil {
		t.Fatal(err)
	}
	for base := Index(0); base < 20; base++ {
		srcs := s.Sources(base, nil, nil)
		for i := 1; i < len(srcs); i++ {
			if srcs[i-1] >= srcs[i] {
				t.Errorf("Sources(%d) not strictly ascending: %v", base, srcs)
			}
		}
	}
}

func TestAugmentedSchemeClipping(t *testing.T) {
	s, err := NewAugmentedScheme(2, 5)
	if err != nil {
		t.Fatal(err)
	}
	zero := Index(0)
	last := Index(8)
	got := s.Sources(9, &zero, &last)
	for _, v := range got {
		if v < 0 || v > 8 {
			t.Errorf("Sources(9, 0, 8) returned out-of-range index %d: %v", v, got)
		}
	}
}

func TestAugmentedSchemeIsReadyAndWriteWindow(t *testing.T) {
	s, err := NewAugmentedScheme(3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsReady(10, 14) {
		t.Error("IsReady(10, 14) = false, want true (latest - index == p-1)")
	}
	if s.IsReady(10, 13) {
		t.Error("IsReady(10, 13) = true, want false")
	}
	if !s.InWriteWindow(10, 25) {
		t.Error("InWriteWindow(10, 25) = false, want true (latest - index == a*p)")
	}
	if s.InWriteWindow(10, 26) {
		t.Error("InWriteWindow(10, 26) = true, want false")
	}
}

func TestAugmentedSchemeInvalidParameters(t *testing.T) {
	if _, err := NewAugmentedScheme(0, 3); err == nil {
		t.Error("NewAugmentedScheme(0, 3) succeeded, want error for a < 1")
	}
	if _, err := NewAugmentedScheme(1, 4); err == nil {
		t.Error("NewAugmentedScheme(1, 4) succeeded, want error for even p >= 3")
	}
	if _, err := NewAugmentedScheme(1, 0); err == nil {
		t.Error("NewAugmentedScheme(1, 0) succeeded, want error for p == 0")
	}
}
