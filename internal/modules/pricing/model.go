// README: Pricing configuration, booking selection and price breakdown types.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"safari/internal/types"
)

type ReservationType string

const (
	ReservationPrivate ReservationType = "private"
	ReservationShared  ReservationType = "shared"
)

type JeepType string

const (
	JeepBasic       JeepType = "basic"
	JeepLuxury      JeepType = "luxury"
	JeepSuperLuxury JeepType = "superLuxury"
)

type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotExtended  TimeSlot = "extended"
	SlotFullDay   TimeSlot = "fullDay"
)

type GuideOption string

const (
	GuideDriver        GuideOption = "driver"
	GuideDriverGuide   GuideOption = "driverGuide"
	GuideSeparateGuide GuideOption = "separateGuide"
)

type VisitorType string

const (
	VisitorForeign VisitorType = "foreign"
	VisitorLocal   VisitorType = "local"
)

type MealOption string

const (
	MealsWith    MealOption = "with"
	MealsWithout MealOption = "without"
)

type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
)

// Declared value sets, in display order.
var (
	ReservationTypes = []ReservationType{ReservationPrivate, ReservationShared}
	JeepTypes        = []JeepType{JeepBasic, JeepLuxury, JeepSuperLuxury}
	TimeSlots        = []TimeSlot{SlotMorning, SlotAfternoon, SlotExtended, SlotFullDay}
	GuideOptions     = []GuideOption{GuideDriver, GuideDriverGuide, GuideSeparateGuide}
	VisitorTypes     = []VisitorType{VisitorForeign, VisitorLocal}
	MealOptions      = []MealOption{MealsWith, MealsWithout}
)

const (
	// JeepCapacity is the seat count of a full shared vehicle.
	JeepCapacity = 7
	MinSeats     = 1
	MaxSeats     = JeepCapacity
)

func (r ReservationType) Valid() bool { return r == ReservationPrivate || r == ReservationShared }

func (j JeepType) Valid() bool {
	switch j {
	case JeepBasic, JeepLuxury, JeepSuperLuxury:
		return true
	}
	return false
}

func (t TimeSlot) Valid() bool {
	switch t {
	case SlotMorning, SlotAfternoon, SlotExtended, SlotFullDay:
		return true
	}
	return false
}

func (g GuideOption) Valid() bool {
	switch g {
	case GuideDriver, GuideDriverGuide, GuideSeparateGuide:
		return true
	}
	return false
}

func (v VisitorType) Valid() bool { return v == VisitorForeign || v == VisitorLocal }

func (m MealOption) Valid() bool { return m == MealsWith || m == MealsWithout }

// MealRates are per-person prices.
type MealRates struct {
	Breakfast decimal.NullDecimal `json:"breakfast"`
	Lunch     decimal.NullDecimal `json:"lunch"`
}

// Config is the operator-maintained rate card. A calculation treats it as
// immutable input.
type Config struct {
	Jeep   map[JeepType]map[TimeSlot]decimal.Decimal `json:"jeep"`
	Shared map[int]decimal.Decimal                   `json:"shared"`
	Meals  *MealRates                                `json:"meals"`
	Guide  map[GuideOption]decimal.Decimal           `json:"guide"`
}

// Snapshot is one stored version of Config. Versions are append-only; the
// current one is the most recently created.
type Snapshot struct {
	ID        int64     `json:"id"`
	Config    Config    `json:"config"`
	CreatedAt time.Time `json:"createdAt"`
}

// Selection is a validated-shape booking selection. People and SelectedSeats
// are already integers; string parsing happens in Normalize.
type Selection struct {
	ReservationType  ReservationType `json:"reservationType"`
	JeepType         JeepType        `json:"jeepType"`
	TimeSlot         TimeSlot        `json:"timeSlot"`
	GuideOption      GuideOption     `json:"guideOption"`
	VisitorType      VisitorType     `json:"visitorType"`
	MealOption       MealOption      `json:"mealOption"`
	IncludeBreakfast bool            `json:"includeBreakfast"`
	IncludeLunch     bool            `json:"includeLunch"`
	People           int             `json:"people"`
	// SelectedSeats is nil when the caller did not supply a usable seat count.
	SelectedSeats *int `json:"selectedSeats,omitempty"`
}

// Summary is the denormalized echo of the selection returned with a price.
type Summary struct {
	ReservationType ReservationType `json:"reservationType"`
	People          int             `json:"people"`
	JeepType        JeepType        `json:"jeepType"`
	TimeSlot        TimeSlot        `json:"timeSlot"`
	GuideOption     GuideOption     `json:"guideOption"`
	MealsIncluded   []Meal          `json:"mealsIncluded"`
}

type Breakdown struct {
	TicketPrice types.Money `json:"ticketPrice"`
	JeepPrice   types.Money `json:"jeepPrice"`
	GuidePrice  types.Money `json:"guidePrice"`
	MealPrice   types.Money `json:"mealPrice"`
	TotalPrice  types.Money `json:"totalPrice"`
	Summary     Summary     `json:"breakdown"`
}

// Quote is a breakdown together with the config version that produced it.
type Quote struct {
	ConfigID  int64     `json:"configId"`
	Selection Selection `json:"selection"`
	Price     Breakdown `json:"price"`
}
