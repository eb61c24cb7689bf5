package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Validate checks that every tier/slot, seat count, meal and guide key is
// present and non-negative. It never fills in defaults.
func (c Config) Validate() error {
	if c.Jeep == nil {
		return missingKey("jeep")
	}
	for _, jt := range JeepTypes {
		slots, ok := c.Jeep[jt]
		if !ok {
			return missingKey("jeep." + string(jt))
		}
		for _, ts := range TimeSlots {
			p, ok := slots[ts]
			if !ok {
				return missingKey(fmt.Sprintf("jeep.%s.%s", jt, ts))
			}
			if p.IsNegative() {
				return negativePrice(fmt.Sprintf("jeep.%s.%s", jt, ts))
			}
		}
	}

	if c.Shared == nil {
		return missingKey("shared")
	}
	for n := MinSeats; n <= MaxSeats; n++ {
		p, ok := c.Shared[n]
		if !ok {
			return missingKey(fmt.Sprintf("shared.%d", n))
		}
		if p.IsNegative() {
			return negativePrice(fmt.Sprintf("shared.%d", n))
		}
	}

	if c.Meals == nil {
		return missingKey("meals")
	}
	if !c.Meals.Breakfast.Valid {
		return missingKey("meals.breakfast")
	}
	if c.Meals.Breakfast.Decimal.IsNegative() {
		return negativePrice("meals.breakfast")
	}
	if !c.Meals.Lunch.Valid {
		return missingKey("meals.lunch")
	}
	if c.Meals.Lunch.Decimal.IsNegative() {
		return negativePrice("meals.lunch")
	}

	if c.Guide == nil {
		return missingKey("guide")
	}
	for _, g := range GuideOptions {
		p, ok := c.Guide[g]
		if !ok {
			return missingKey("guide." + string(g))
		}
		if p.IsNegative() {
			return negativePrice("guide." + string(g))
		}
	}
	return nil
}

// UnmarshalJSON drops prices given as null, so Validate reports them as
// missing instead of pricing them at zero.
func (c *Config) UnmarshalJSON(b []byte) error {
	var raw struct {
		Jeep   map[JeepType]map[TimeSlot]decimal.NullDecimal `json:"jeep"`
		Shared map[int]decimal.NullDecimal                   `json:"shared"`
		Meals  *MealRates                                    `json:"meals"`
		Guide  map[GuideOption]decimal.NullDecimal           `json:"guide"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*c = Config{Meals: raw.Meals}
	if raw.Jeep != nil {
		c.Jeep = make(map[JeepType]map[TimeSlot]decimal.Decimal, len(raw.Jeep))
		for jt, slots := range raw.Jeep {
			if slots == nil {
				continue
			}
			c.Jeep[jt] = presentPrices(slots)
		}
	}
	if raw.Shared != nil {
		c.Shared = presentPrices(raw.Shared)
	}
	if raw.Guide != nil {
		c.Guide = presentPrices(raw.Guide)
	}
	return nil
}

func presentPrices[K comparable](in map[K]decimal.NullDecimal) map[K]decimal.Decimal {
	out := make(map[K]decimal.Decimal, len(in))
	for k, p := range in {
		if p.Valid {
			out[k] = p.Decimal
		}
	}
	return out
}

// Validate checks enum membership and party size. Seat-count range for shared
// reservations is checked by Seats.
func (s Selection) Validate() error {
	if !s.ReservationType.Valid() {
		return invalidSelection("reservationType", fmt.Sprintf("unknown value %q", s.ReservationType))
	}
	if !s.JeepType.Valid() {
		return invalidSelection("jeepType", fmt.Sprintf("unknown value %q", s.JeepType))
	}
	if !s.TimeSlot.Valid() {
		return invalidSelection("timeSlot", fmt.Sprintf("unknown value %q", s.TimeSlot))
	}
	if !s.GuideOption.Valid() {
		return invalidSelection("guideOption", fmt.Sprintf("unknown value %q", s.GuideOption))
	}
	if !s.VisitorType.Valid() {
		return invalidSelection("visitorType", fmt.Sprintf("unknown value %q", s.VisitorType))
	}
	if !s.MealOption.Valid() {
		return invalidSelection("mealOption", fmt.Sprintf("unknown value %q", s.MealOption))
	}
	if s.ReservationType == ReservationPrivate && s.People < 1 {
		return invalidSelection("people", "must be at least 1")
	}
	if s.ReservationType == ReservationShared {
		if _, err := s.Seats(); err != nil {
			return err
		}
	}
	return nil
}

// Seats is the effective head count: people for private reservations, and
// selectedSeats (falling back to people) for shared ones.
func (s Selection) Seats() (int, error) {
	if s.ReservationType != ReservationShared {
		return s.People, nil
	}
	n := s.People
	if s.SelectedSeats != nil {
		n = *s.SelectedSeats
	}
	if n < MinSeats || n > MaxSeats {
		return 0, invalidSelection("selectedSeats", fmt.Sprintf("seat count must be %d..%d", MinSeats, MaxSeats))
	}
	return n, nil
}

// Count is an integer that may arrive as a JSON number or a numeric string.
// A value that does not parse leaves Valid false rather than failing decoding.
// An integer beyond the int range is Valid with N clamped and OutOfRange set.
type Count struct {
	N          int
	Valid      bool
	OutOfRange bool
}

func (c *Count) UnmarshalJSON(b []byte) error {
	*c = Count{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = s
	}
	n, ok, outOfRange := parseCount(raw)
	if ok {
		*c = Count{N: n, Valid: true, OutOfRange: outOfRange}
	}
	return nil
}

func (c Count) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.N)), nil
}

var (
	maxCount = decimal.NewFromInt(math.MaxInt)
	minCount = decimal.NewFromInt(math.MinInt)
)

// parseCount accepts integers and integral decimals like "4.0". Integers
// outside the int range are clamped, never wrapped.
func parseCount(raw string) (n int, ok, outOfRange bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, true, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() {
		return 0, false, false
	}
	switch {
	case d.GreaterThan(maxCount):
		return math.MaxInt, true, true
	case d.LessThan(minCount):
		return math.MinInt, true, true
	}
	return int(d.IntPart()), true, false
}

// SelectionInput is the loosely-typed payload a client submits. Normalize
// turns it into a Selection.
type SelectionInput struct {
	ReservationType  string `json:"reservationType"`
	JeepType         string `json:"jeepType"`
	TimeSlot         string `json:"timeSlot"`
	GuideOption      string `json:"guideOption"`
	VisitorType      string `json:"visitorType"`
	MealOption       string `json:"mealOption"`
	IncludeBreakfast bool   `json:"includeBreakfast"`
	IncludeLunch     bool   `json:"includeLunch"`
	People           Count  `json:"people"`
	SelectedSeats    Count  `json:"selectedSeats"`
}

// Normalize trims enum values, resolves counts and validates the result.
func (in SelectionInput) Normalize() (Selection, error) {
	sel := Selection{
		ReservationType:  ReservationType(strings.TrimSpace(in.ReservationType)),
		JeepType:         JeepType(strings.TrimSpace(in.JeepType)),
		TimeSlot:         TimeSlot(strings.TrimSpace(in.TimeSlot)),
		GuideOption:      GuideOption(strings.TrimSpace(in.GuideOption)),
		VisitorType:      VisitorType(strings.TrimSpace(in.VisitorType)),
		MealOption:       MealOption(strings.TrimSpace(in.MealOption)),
		IncludeBreakfast: in.IncludeBreakfast,
		IncludeLunch:     in.IncludeLunch,
	}
	if in.People.OutOfRange {
		return Selection{}, invalidSelection("people", "out of range")
	}
	if sel.ReservationType == ReservationShared && in.SelectedSeats.OutOfRange {
		return Selection{}, invalidSelection("selectedSeats", fmt.Sprintf("seat count must be %d..%d", MinSeats, MaxSeats))
	}
	if in.People.Valid {
		sel.People = in.People.N
	}
	if sel.ReservationType == ReservationShared && in.SelectedSeats.Valid {
		n := in.SelectedSeats.N
		sel.SelectedSeats = &n
	}
	if sel.ReservationType == ReservationPrivate && !in.People.Valid {
		return Selection{}, invalidSelection("people", "must be a positive integer")
	}
	if sel.ReservationType == ReservationShared && !in.SelectedSeats.Valid && !in.People.Valid {
		return Selection{}, invalidSelection("selectedSeats", fmt.Sprintf("seat count must be %d..%d", MinSeats, MaxSeats))
	}
	if err := sel.Validate(); err != nil {
		return Selection{}, err
	}
	return sel, nil
}
