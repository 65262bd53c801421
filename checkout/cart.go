package checkout

import (
	"fmt"
	"strings"
)

// Option is a selectable cart value with its display label.
type Option struct {
	Key   string
	Label string
}

var (
	Proteins = []Option{
		{"chicken", "Chicken"},
		{"beef", "Beef"},
		{"seafood", "Seafood"},
		{"vegetarian", "Vegetarian"},
	}
	MealTypes = []Option{
		{"breakfast", "Breakfast"},
		{"lunch", "Lunch"},
		{"dinner", "Dinner"},
		{"snack", "Snack"},
	}
	Calories    = []int{300, 400, 500, 600, 700}
	DaysPerWeek = []int{5, 6, 7}
	WeekCounts  = []int{1, 2, 3, 4}
)

// Cart is the customer's program selection.
type Cart struct {
	PlanID      string
	Proteins    []string
	Calories    int
	Meals       []string
	DaysPerWeek int
	Weeks       int
	StartDate   string
}

// DefaultCart is the starting selection: chicken, 400 kcal, all four meals,
// five days a week for one week.
func DefaultCart(planID string) Cart {
	return Cart{
		PlanID:      planID,
		Proteins:    []string{"chicken"},
		Calories:    400,
		Meals:       []string{"breakfast", "lunch", "dinner", "snack"},
		DaysPerWeek: 5,
		Weeks:       1,
	}
}

// MealsPerDay is the number of selected meals, never less than one.
func (c Cart) MealsPerDay() int {
	if len(c.Meals) == 0 {
		return 1
	}
	return len(c.Meals)
}

// ProgramLength is the displayed program duration ("1 WEEK", "3 WEEKS").
func (c Cart) ProgramLength() string {
	if c.Weeks == 1 {
		return "1 WEEK"
	}
	return fmt.Sprintf("%d WEEKS", c.Weeks)
}

// DurationKey is the pricing key for the cart's duration.
func (c Cart) DurationKey() string {
	if c.Weeks == 1 {
		return "1 week"
	}
	return fmt.Sprintf("%d weeks", c.Weeks)
}

// Validate checks every selection against the offered options.
func (c Cart) Validate() error {
	if len(c.Proteins) == 0 {
		return fmt.Errorf("select at least one protein")
	}
	for _, p := range c.Proteins {
		if !hasKey(Proteins, p) {
			return fmt.Errorf("unknown protein %q", p)
		}
	}
	for _, m := range c.Meals {
		if !hasKey(MealTypes, m) {
			return fmt.Errorf("unknown meal type %q", m)
		}
	}
	if !hasInt(Calories, c.Calories) {
		return fmt.Errorf("unsupported calories %d", c.Calories)
	}
	if !hasInt(DaysPerWeek, c.DaysPerWeek) {
		return fmt.Errorf("unsupported days per week %d", c.DaysPerWeek)
	}
	if !hasInt(WeekCounts, c.Weeks) {
		return fmt.Errorf("unsupported week count %d", c.Weeks)
	}
	return nil
}

func labels(options []Option, keys []string) string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		label := k
		for _, o := range options {
			if o.Key == k {
				label = o.Label
				break
			}
		}
		out = append(out, label)
	}
	return strings.ToUpper(strings.Join(out, ", "))
}

func hasKey(options []Option, key string) bool {
	for _, o := range options {
		if o.Key == key {
			return true
		}
	}
	return false
}

func hasInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
