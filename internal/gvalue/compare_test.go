package gvalue

import "testing"

func TestCompare_SameTagOrdering(t *testing.T) {
	cases := []struct {
		a, b Value
		want int
	}{
		{Int64(1), Int64(2), -1},
		{Int64(2), Int64(1), 1},
		{Int64(5), Int64(5), 0},
		{String("a"), String("b"), -1},
		{Uint64(10), Uint64(10), 0},
		{Bool(false), Bool(true), -1},
		{Float64(1.5), Float64(1.2), 1},
	}
	for _, c := range cases {
		got, err := Compare(c.a, c.b)
		if err != nil {
			t.Fatalf("Compare(%v, %v): %v", c.a, c.b, err)
		}
		if sign(got) != sign(c.want) {
			t.Errorf("Compare(%v, %v) = %d, want sign %d", c.a, c.b, got, c.want)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestCompare_CrossTagFails(t *testing.T) {
	_, err := Compare(Int64(1), String("1"))
	if err == nil {
		t.Fatal("expected an error comparing int64 to string")
	}
	var incomp *ErrIncomparable
	if _, ok := err.(*ErrIncomparable); !ok {
		t.Fatalf("expected *ErrIncomparable, got %T", err)
	}
	_ = incomp
}

func TestCompare_NullOrdersBeforeEverything(t *testing.T) {
	got, err := Compare(Null(), Int64(0))
	if err != nil {
		t.Fatalf("Compare(null, 0): %v", err)
	}
	if got >= 0 {
		t.Fatalf("expected null < 0, got %d", got)
	}
	got2, err := Compare(Int64(0), Null())
	if err != nil {
		t.Fatalf("Compare(0, null): %v", err)
	}
	if got2 <= 0 {
		t.Fatalf("expected 0 > null, got %d", got2)
	}
}

func TestEqual_ListsAndMaps(t *testing.T) {
	a := List([]Value{Int64(1), Int64(2)})
	b := List([]Value{Int64(1), Int64(2)})
	eq, err := Equal(a, b)
	if err != nil || !eq {
		t.Fatalf("expected equal lists, got eq=%v err=%v", eq, err)
	}

	m1 := Map(map[string]Value{"x": Int64(1)})
	m2 := Map(map[string]Value{"x": Int64(2)})
	eq2, err := Equal(m1, m2)
	if err != nil {
		t.Fatalf("Equal(m1, m2): %v", err)
	}
	if eq2 {
		t.Fatal("expected maps with differing values to be unequal")
	}
}
