package pricing

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestCount_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		raw        string
		wantN      int
		wantValid  bool
		outOfRange bool
	}{
		{`4`, 4, true, false},
		{`"4"`, 4, true, false},
		{`" 7 "`, 7, true, false},
		{`"4.0"`, 4, true, false},
		{`0`, 0, true, false},
		{`"-1"`, -1, true, false},
		{`"abc"`, 0, false, false},
		{`"4.5"`, 0, false, false},
		{`""`, 0, false, false},
		{`null`, 0, false, false},
		{`true`, 0, false, false},
		{`18446744073709551620`, math.MaxInt, true, true},
		{`"18446744073709551618"`, math.MaxInt, true, true},
		{`-18446744073709551620`, math.MinInt, true, true},
		{`1e30`, math.MaxInt, true, true},
	}
	for _, tc := range cases {
		var c Count
		if err := json.Unmarshal([]byte(tc.raw), &c); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tc.raw, err)
		}
		if c.Valid != tc.wantValid || c.N != tc.wantN || c.OutOfRange != tc.outOfRange {
			t.Errorf("Unmarshal(%s) = %+v, want {N:%d Valid:%v OutOfRange:%v}", tc.raw, c, tc.wantN, tc.wantValid, tc.outOfRange)
		}
	}
}

func decodeInput(t *testing.T, body string) SelectionInput {
	t.Helper()
	var in SelectionInput
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatalf("decode input: %v", err)
	}
	return in
}

func TestNormalize_SharedSeatResolution(t *testing.T) {
	base := `"reservationType":"shared","jeepType":"basic","timeSlot":"morning","guideOption":"driver","visitorType":"local","mealOption":"without"`

	tests := []struct {
		name      string
		extra     string
		wantSeats int
		wantErr   bool
	}{
		{"string seats", `,"selectedSeats":"4","people":2`, 4, false},
		{"numeric seats", `,"selectedSeats":3`, 3, false},
		{"non-numeric seats fall back to people", `,"selectedSeats":"four","people":2`, 2, false},
		{"absent seats fall back to people", `,"people":"5"`, 5, false},
		{"zero seats", `,"selectedSeats":"0","people":2`, 0, true},
		{"eight seats", `,"selectedSeats":8`, 0, true},
		{"negative seats", `,"selectedSeats":"-1"`, 0, true},
		{"non-numeric seats and people", `,"selectedSeats":"x","people":"y"`, 0, true},
		{"nothing usable", ``, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := decodeInput(t, "{"+base+tt.extra+"}").Normalize()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSelection) {
					t.Fatalf("expected ErrInvalidSelection, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			seats, err := sel.Seats()
			if err != nil {
				t.Fatalf("Seats() error = %v", err)
			}
			if seats != tt.wantSeats {
				t.Errorf("seats = %d, want %d", seats, tt.wantSeats)
			}
		})
	}
}

func TestNormalize_OverflowingCounts(t *testing.T) {
	const enums = `"jeepType":"basic","timeSlot":"morning","guideOption":"driver","visitorType":"local","mealOption":"without"`
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"shared seats number", `"reservationType":"shared",` + enums + `,"selectedSeats":18446744073709551620,"people":2`, "selectedSeats"},
		{"shared seats string", `"reservationType":"shared",` + enums + `,"selectedSeats":"18446744073709551620","people":2`, "selectedSeats"},
		{"shared seats negative", `"reservationType":"shared",` + enums + `,"selectedSeats":-18446744073709551620,"people":2`, "selectedSeats"},
		{"shared people fallback", `"reservationType":"shared",` + enums + `,"people":18446744073709551620`, "people"},
		{"private people number", `"reservationType":"private",` + enums + `,"people":18446744073709551618`, "people"},
		{"private people string", `"reservationType":"private",` + enums + `,"people":"18446744073709551618"`, "people"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeInput(t, "{"+tt.body+"}").Normalize()
			if !errors.Is(err, ErrInvalidSelection) {
				t.Fatalf("expected ErrInvalidSelection, got %v", err)
			}
			var se *SelectionError
			if !errors.As(err, &se) || se.Field != tt.field {
				t.Fatalf("expected SelectionError on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestNormalize_Private(t *testing.T) {
	in := decodeInput(t, `{"reservationType":" private ","jeepType":"luxury","timeSlot":"fullDay",
		"guideOption":"separateGuide","visitorType":"foreign","mealOption":"with",
		"includeBreakfast":true,"people":"3","selectedSeats":"2"}`)
	sel, err := in.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if sel.ReservationType != ReservationPrivate || sel.People != 3 {
		t.Fatalf("unexpected selection %+v", sel)
	}
	if sel.SelectedSeats != nil {
		t.Errorf("selectedSeats must be ignored for private reservations")
	}

	in.People = Count{}
	if _, err := in.Normalize(); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("missing people: expected ErrInvalidSelection, got %v", err)
	}
}

func TestNormalize_UnknownEnum(t *testing.T) {
	in := decodeInput(t, `{"reservationType":"vip","jeepType":"basic","timeSlot":"morning",
		"guideOption":"driver","visitorType":"local","mealOption":"without","people":2}`)
	_, err := in.Normalize()
	var se *SelectionError
	if !errors.As(err, &se) || se.Field != "reservationType" {
		t.Fatalf("expected reservationType SelectionError, got %v", err)
	}
}

func TestConfig_JSONRoundTripValidates(t *testing.T) {
	raw, err := json.Marshal(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("decoded config invalid: %v", err)
	}
	if !cfg.Shared[4].Equal(d(5)) {
		t.Errorf("shared[4] = %s, want 5", cfg.Shared[4])
	}
}

func TestLoadConfigFile_Seed(t *testing.T) {
	cfg, err := LoadConfigFile("../../../configs/pricing.seed.json")
	if err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	got, err := Compute(cfg, privateSel(2))
	if err != nil {
		t.Fatal(err)
	}
	assertMoney(t, "totalPrice", got.TotalPrice, "9.00")
}
