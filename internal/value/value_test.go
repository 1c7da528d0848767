package value

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name     string
		val      Value
		expected string
	}{
		{"null", Null(), ""},
		{"bool", Bool(true), "true"},
		{"int", Int(42), "42"},
		{"float", Float(2.5), "2.5"},
		{"string", String("hello"), "hello"},
		{"array", Array(String("a"), Int(1)), `["a",1]`},
		{"map", Map(map[string]Value{"k": Int(3)}), `{"k":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.val.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFromAnyRoundTrip(t *testing.T) {
	in := map[string]any{
		"name":  "alpha",
		"count": int64(2),
		"ratio": 0.5,
		"flags": []any{true, nil},
		"nested": map[string]any{
			"k": "v",
		},
	}

	got := FromAny(in).ToAny()
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCopyIsDeep(t *testing.T) {
	orig := Map(map[string]Value{
		"list": Array(String("a"), String("b")),
	})
	cp := orig.Copy()

	// Mutate the copy's inner array; the original must not change.
	cp.Entries()["list"].Items()[0] = String("changed")

	first, _ := orig.Entries()["list"].At(0)
	if first.Str() != "a" {
		t.Errorf("copy mutation leaked into original: %q", first.Str())
	}
}

func TestEqual(t *testing.T) {
	a := Array(Int(1), Map(map[string]Value{"x": String("y")}))
	b := Array(Int(1), Map(map[string]Value{"x": String("y")}))
	if !a.Equal(b) {
		t.Error("expected structurally equal values")
	}
	if a.Equal(Array(Int(1))) {
		t.Error("expected length mismatch to be unequal")
	}
	if Int(1).Equal(Float(1)) {
		t.Error("int and float must not compare equal")
	}
}

func TestItemMapOrderAndCopy(t *testing.T) {
	m := NewItemMap()
	m.Set("b", Literal(Int(1)))
	m.Set("a", Literal(Int(2)))
	m.Set("b", Literal(Int(3))) // replace keeps position

	if diff := cmp.Diff([]string{"b", "a"}, m.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}

	cp := m.Copy()
	cp.Set("c", Literal(Int(4)))
	if m.Contains("c") {
		t.Error("copy mutation leaked into original map")
	}

	got, ok := m.Get("b")
	if !ok || got.Value.Int() != 3 {
		t.Errorf("expected replaced entry b=3, got %v ok=%v", got.Value, ok)
	}
}

func TestItemMapDelete(t *testing.T) {
	m := NewItemMap()
	m.Set("a", Literal(Int(1)))
	m.Set("b", Literal(Int(2)))
	m.Delete("a")

	if m.Contains("a") || m.Len() != 1 {
		t.Errorf("expected only b to remain, keys=%v", m.Keys())
	}
}

func TestNamespaceCopy(t *testing.T) {
	ns := Namespace{"k": Array(String("x"))}
	cp := ns.Copy()
	cp["k"].Items()[0] = String("mutated")

	first, _ := ns["k"].At(0)
	if first.Str() != "x" {
		t.Error("namespace copy is not deep")
	}
}
