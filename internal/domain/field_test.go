package domain

import (
	"encoding/json"
	"testing"
)

func TestFieldDistinguishesAbsentNullAndValue(t *testing.T) {
	type payload struct {
		Title Field[string]  `json:"title"`
		Hours Field[float64] `json:"hours"`
	}

	cases := []struct {
		name    string
		body    string
		present bool
		null    bool
		value   string
	}{
		{"absent", `{"hours": 1}`, false, false, ""},
		{"null", `{"title": null}`, true, true, ""},
		{"value", `{"title": "Standup"}`, true, false, "Standup"},
		{"empty string is a value", `{"title": ""}`, true, false, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			if err := json.Unmarshal([]byte(tc.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.Title.Present() != tc.present {
				t.Errorf("Present() = %v, want %v", p.Title.Present(), tc.present)
			}
			if p.Title.Null() != tc.null {
				t.Errorf("Null() = %v, want %v", p.Title.Null(), tc.null)
			}
			v, ok := p.Title.Value()
			if ok != (tc.present && !tc.null) {
				t.Errorf("Value() ok = %v", ok)
			}
			if v != tc.value {
				t.Errorf("Value() = %q, want %q", v, tc.value)
			}
		})
	}
}

func TestFieldRejectsTypeMismatch(t *testing.T) {
	var f Field[float64]
	if err := json.Unmarshal([]byte(`"not a number"`), &f); err == nil {
		t.Fatal("expected an unmarshal error for mismatched type")
	}
}

func TestFieldConstructors(t *testing.T) {
	set := Set(3.5)
	if v, ok := set.Value(); !ok || v != 3.5 {
		t.Errorf("Set: Value() = %v, %v", v, ok)
	}

	cleared := Cleared[string]()
	if !cleared.Present() || !cleared.Null() {
		t.Error("Cleared must be present and null")
	}
	if _, ok := cleared.Value(); ok {
		t.Error("Cleared must carry no value")
	}

	var absent Field[int]
	if absent.Present() || absent.Null() {
		t.Error("zero Field must be absent")
	}
}
