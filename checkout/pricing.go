package checkout

import (
	"math"
	"strconv"

	"github.com/jrsteele09/storefront-client/catalog"
)

const (
	VATRate           = 0.05
	DeliveryChargeAED = 0.0

	basePerMealAED   = 30.0
	baseMealCalories = 400.0
)

// Summary is the order breakdown shown before payment. Money is in AED.
type Summary struct {
	ProgramName       string
	DietaryPreference string
	MealsPerDay       string
	CaloriePerMeal    int
	CaloriePerDay     int
	ProgramLength     string
	DaysOfFood        int
	WeeksOfFood       int
	StartDate         string
	DeliveryTimeSlot  string
	SubTotal          float64
	VAT               float64
	DeliveryCharge    float64
	PromoAmount       float64
}

// EstimatePrice is the placeholder price used when a plan has no usable
// pricing: 30 AED per 400 kcal meal, scaled by calories.
func EstimatePrice(calories, mealsPerDay, daysPerWeek, weeks int) float64 {
	perMeal := basePerMealAED * (float64(calories) / baseMealCalories)
	return perMeal * float64(mealsPerDay*daysPerWeek*weeks)
}

// PlanSubTotal sums the plan's price for each selected meal at the cart's
// duration. ok is false when the plan has no positive price for the cart.
func PlanSubTotal(plan *catalog.Plan, cart Cart) (total float64, ok bool) {
	if plan == nil || len(plan.Pricing) == 0 {
		return 0, false
	}
	key := cart.DurationKey()
	for _, meal := range cart.Meals {
		prices, found := plan.Pricing[meal]
		if !found {
			continue
		}
		price, found := prices[key]
		if !found {
			price = prices[strconv.Itoa(cart.Weeks)]
		}
		if price > 0 {
			total += price
		}
	}
	return total, total > 0
}

// BuildSummary derives the order summary from a cart. plan may be nil.
func BuildSummary(cart Cart, plan *catalog.Plan, programName, timeSlot string, promo float64) Summary {
	if programName == "" {
		programName = "Program"
	}
	subTotal, ok := PlanSubTotal(plan, cart)
	if !ok {
		subTotal = EstimatePrice(cart.Calories, cart.MealsPerDay(), cart.DaysPerWeek, cart.Weeks)
	}
	startDate := cart.StartDate
	if startDate == "" {
		startDate = "-"
	}
	return Summary{
		ProgramName:       programName,
		DietaryPreference: labels(Proteins, cart.Proteins),
		MealsPerDay:       labels(MealTypes, cart.Meals),
		CaloriePerMeal:    cart.Calories,
		CaloriePerDay:     cart.Calories * cart.MealsPerDay(),
		ProgramLength:     cart.ProgramLength(),
		DaysOfFood:        cart.DaysPerWeek * cart.Weeks,
		WeeksOfFood:       cart.Weeks,
		StartDate:         startDate,
		DeliveryTimeSlot:  timeSlot,
		SubTotal:          subTotal,
		VAT:               subTotal * VATRate,
		DeliveryCharge:    DeliveryChargeAED,
		PromoAmount:       promo,
	}
}

// Payable returns the amount due in AED and in fils, the unit checkout
// sessions are created in.
func (s Summary) Payable() (totalAED float64, totalFils int64) {
	totalAED = s.SubTotal + s.VAT + s.DeliveryCharge - s.PromoAmount
	return totalAED, int64(math.Round(totalAED * 100))
}
