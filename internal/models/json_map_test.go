package models

import "testing"

func TestJSONMapRoundTrip(t *testing.T) {
	m := JSONMap{"account": "acc_1", "attempt": float64(2)}

	v, err := m.Value()
	if err != nil {
		t.Fatal(err)
	}

	var got JSONMap
	if err := got.Scan(v); err != nil {
		t.Fatal(err)
	}
	if got["account"] != "acc_1" || got["attempt"] != float64(2) {
		t.Errorf("round trip = %v", got)
	}
}

func TestJSONMapNilAndEmpty(t *testing.T) {
	var m JSONMap
	v, err := m.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != nil {
		t.Errorf("nil map Value() = %v, want nil", v)
	}

	var scanned JSONMap
	if err := scanned.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if scanned != nil {
		t.Errorf("Scan(nil) = %v, want nil", scanned)
	}
	if err := scanned.Scan(""); err != nil {
		t.Fatal(err)
	}
	if scanned != nil {
		t.Errorf(`Scan("") = %v, want nil`, scanned)
	}
}

func TestJSONMapMergeOverwrites(t *testing.T) {
	m := JSONMap{"a": 1, "b": 2}
	m.Merge(JSONMap{"b": 9, "c": 3})
	if m["a"] != 1 || m["b"] != 9 || m["c"] != 3 {
		t.Errorf("merged = %v", m)
	}
}
