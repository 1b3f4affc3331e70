package schedule

import (
	"time"

	"github.com/hanejj/MealCheck/internal/apperr"
)

// MealType is the slot of day a schedule covers.
type MealType string

const (
	Breakfast MealType = "BREAKFAST"
	Lunch     MealType = "LUNCH"
	Dinner    MealType = "DINNER"
)

// Valid reports whether t is a known meal type.
func (t MealType) Valid() bool {
	switch t {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// DateLayout is the wire and storage form of all calendar dates. Dates
// carry no time-of-day and no timezone; "today" is resolved in the one
// fixed location the service controls.
const DateLayout = "2006-01-02"

// ParseDate validates a calendar date string.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", apperr.Newf(apperr.Validation, "invalid date %q, want YYYY-MM-DD", s)
	}
	return t.Format(DateLayout), nil
}

// Today returns the current calendar date in the service location.
func Today(loc *time.Location) string {
	return time.Now().In(loc).Format(DateLayout)
}

// Schedule is one claimable meal event. Multiple schedules may share a
// (date, meal type); each is independently claimable.
type Schedule struct {
	ID          int64     `json:"id"`
	MealDate    string    `json:"meal_date"`
	MealType    MealType  `json:"meal_type"`
	Description *string   `json:"description,omitempty"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
