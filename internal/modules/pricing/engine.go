// README: Pricing engine turns a rate card and a booking selection into an itemized price.
package pricing

import (
	"github.com/shopspring/decimal"

	"safari/internal/types"
)

// TicketRates is the per-person entrance rate by visitor type.
type TicketRates map[VisitorType]decimal.Decimal

// DefaultTicketRates is the two-tier foreign/local policy.
func DefaultTicketRates() TicketRates {
	return TicketRates{
		VisitorForeign: decimal.NewFromInt(2),
		VisitorLocal:   decimal.NewFromInt(1),
	}
}

// Engine is stateless apart from its ticket policy and is safe for
// concurrent use.
type Engine struct {
	tickets TicketRates
}

// NewEngine uses rates for visitor types it defines and the default policy
// for the rest.
func NewEngine(rates TicketRates) *Engine {
	t := DefaultTicketRates()
	for v, r := range rates {
		t[v] = r
	}
	return &Engine{tickets: t}
}

var defaultEngine = NewEngine(nil)

// Compute prices sel against cfg with the default ticket policy.
func Compute(cfg Config, sel Selection) (Breakdown, error) {
	return defaultEngine.Compute(cfg, sel)
}

// Compute validates both inputs and returns the breakdown. Sub-terms are kept
// exact and each returned field is rounded once.
func (e *Engine) Compute(cfg Config, sel Selection) (Breakdown, error) {
	if err := cfg.Validate(); err != nil {
		return Breakdown{}, err
	}
	if err := sel.Validate(); err != nil {
		return Breakdown{}, err
	}

	heads, err := sel.Seats()
	if err != nil {
		return Breakdown{}, err
	}
	n := decimal.NewFromInt(int64(heads))

	ticket := e.tickets[sel.VisitorType].Mul(n)

	var jeep, guide decimal.Decimal
	switch sel.ReservationType {
	case ReservationPrivate:
		jeep = cfg.Jeep[sel.JeepType][sel.TimeSlot]
		guide = cfg.Guide[sel.GuideOption]
	case ReservationShared:
		jeep = cfg.Shared[heads].Mul(n)
		// guide fee is split across a full vehicle; multiply first so a
		// full jeep pays exactly the flat fee
		guide = cfg.Guide[sel.GuideOption].Mul(n).Div(decimal.NewFromInt(JeepCapacity))
	}

	meals := mealsIncluded(sel)
	meal := decimal.Zero
	for _, m := range meals {
		switch m {
		case MealBreakfast:
			meal = meal.Add(cfg.Meals.Breakfast.Decimal.Mul(n))
		case MealLunch:
			meal = meal.Add(cfg.Meals.Lunch.Decimal.Mul(n))
		}
	}

	total := ticket.Add(jeep).Add(guide).Add(meal)

	return Breakdown{
		TicketPrice: types.NewMoney(ticket),
		JeepPrice:   types.NewMoney(jeep),
		GuidePrice:  types.NewMoney(guide),
		MealPrice:   types.NewMoney(meal),
		TotalPrice:  types.NewMoney(total),
		Summary: Summary{
			ReservationType: sel.ReservationType,
			People:          heads,
			JeepType:        sel.JeepType,
			TimeSlot:        sel.TimeSlot,
			GuideOption:     sel.GuideOption,
			MealsIncluded:   meals,
		},
	}, nil
}

// mealsIncluded is empty unless mealOption is "with". Both flags off prices
// as zero meals.
func mealsIncluded(sel Selection) []Meal {
	out := []Meal{}
	if sel.MealOption != MealsWith {
		return out
	}
	if sel.IncludeBreakfast {
		out = append(out, MealBreakfast)
	}
	if sel.IncludeLunch {
		out = append(out, MealLunch)
	}
	return out
}
