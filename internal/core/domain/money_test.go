package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Money
		err  error
	}{
		{"100", 10000, nil},
		{"100.5", 10050, nil},
		{"100.50", 10050, nil},
		{"0.01", 1, nil},
		{"1e2", 10000, nil},
		{"9999999999999999.99", MaxMoney, nil},
		{"0", 0, ErrInvalidAmount},
		{"-5", 0, ErrInvalidAmount},
		{"0.001", 0, ErrAmountPrecision},
		{"100.005", 0, ErrAmountPrecision},
		{"1e17", 0, ErrAmountTooLarge},
		{"10000000000000000", 0, ErrAmountTooLarge},
		{"1e40", 0, ErrAmountTooLarge},
		{"abc", 0, ErrAmountFormat},
		{"1/3", 0, ErrAmountFormat},
		{"", 0, ErrAmountFormat},
	}

	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("%q: expected %v, got %v (value %d)", tc.in, tc.err, err, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: want %d cents, got %d", tc.in, tc.want, got)
		}
	}
}

func TestMoney_String(t *testing.T) {
	cases := map[Money]string{
		0:        "0.00",
		5:        "0.05",
		10050:    "100.50",
		-250:     "-2.50",
		MaxMoney: "9999999999999999.99",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("%d: want %q, got %q", int64(m), want, got)
		}
	}
}

func TestMoney_SumsAreExact(t *testing.T) {
	a, _ := ParseAmount("0.1")
	b, _ := ParseAmount("0.2")
	if got := (a + b).String(); got != "0.30" {
		t.Fatalf("0.1 + 0.2: want 0.30, got %s", got)
	}
}

func TestMoney_JSON(t *testing.T) {
	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12.5, "b": "7"}`), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.A != 1250 || in.B != 700 {
		t.Fatalf("unexpected values: %+v", in)
	}

	out, err := json.Marshal(map[string]Money{"amount": 1250})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"amount":12.50}` {
		t.Fatalf("unexpected json: %s", out)
	}

	if err := json.Unmarshal([]byte(`{"a": 0.001}`), &in); !errors.Is(err, ErrAmountPrecision) {
		t.Fatalf("expected precision error, got %v", err)
	}
}

func TestMoney_Scan(t *testing.T) {
	cases := []struct {
		src  any
		want Money
	}{
		{"150.25", 15025},
		{[]byte("0.00"), 0},
		{int64(3), 300},
		{float64(99.99), 9999},
	}
	for _, tc := range cases {
		var m Money
		if err := m.Scan(tc.src); err != nil {
			t.Errorf("%v: scan error %v", tc.src, err)
			continue
		}
		if m != tc.want {
			t.Errorf("%v: want %d, got %d", tc.src, tc.want, m)
		}
	}

	var m Money
	if err := m.Scan(nil); err == nil {
		t.Error("expected error scanning NULL")
	}

	v, err := Money(15025).Value()
	if err != nil || v != "150.25" {
		t.Errorf("Value: got %v, %v", v, err)
	}
}
