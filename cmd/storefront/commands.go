package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/storefront-client/auth"
	"github.com/jrsteele09/storefront-client/catalog"
	"github.com/jrsteele09/storefront-client/checkout"
	ierrors "github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/internal/utils"
	"github.com/jrsteele09/storefront-client/users"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":    {"Sign in with a one-time code sent by SMS or email", runLogin},
	"whoami":   {"Show the signed-in customer", runWhoami},
	"plans":    {"List subscription plans", runPlans},
	"menu":     {"Show the weekly menu for a plan", runMenu},
	"checkout": {"Price a program and start a payment session", runCheckout},
	"order":    {"Show the status of a payment session", runOrder},
	"logout":   {"Sign out and forget stored tokens", runLogout},
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	phone := fs.String("phone", "", "mobile number")
	country := fs.String("country", "+971", "country calling code for -phone")
	email := fs.String("email", "", "email address")
	otp := fs.String("otp", "", "one-time code already received; skips sending a new one")
	name := fs.String("name", "", "full name, used when a new account is created")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if u := a.session.User(); u != nil {
		fmt.Fprintf(a.out, "Already signed in as %s.\n", u.DisplayName())
		return nil
	}
	byPhone := *phone != ""
	switch {
	case byPhone && *email != "":
		return errors.New("use either -phone or -email, not both")
	case !byPhone && *email == "":
		return errors.New("one of -phone or -email is required")
	}

	code := *otp
	if code == "" {
		var err error
		if byPhone {
			err = a.passwordless.SendPhoneOTP(ctx, *phone, *country)
		} else {
			err = a.passwordless.SendEmailOTP(ctx, *email)
		}
		if err != nil {
			return describe(err)
		}
		if code, err = a.prompt("Enter the code you received"); err != nil {
			return err
		}
	}

	var (
		res *auth.VerifyResult
		err error
	)
	if byPhone {
		res, err = a.passwordless.VerifyPhoneOTP(ctx, *phone, *country, code)
	} else {
		res, err = a.passwordless.VerifyEmailOTP(ctx, *email, code)
	}
	if err != nil {
		return describe(err)
	}

	user := res.User
	if res.Outcome == auth.OutcomeNeedsRegistration {
		fmt.Fprintln(a.out, "Welcome! Finish creating your account.")
		fullName := *name
		if fullName == "" {
			if fullName, err = a.prompt("Full name"); err != nil {
				return err
			}
		}
		reg := users.Registration{Name: fullName}
		if byPhone {
			reg.Phone, reg.CountryCode = *phone, *country
		} else {
			reg.Email = *email
		}
		if user, err = a.passwordless.CompleteRegistration(ctx, reg); err != nil {
			return describe(err)
		}
	}

	if user == nil {
		fmt.Fprintln(a.out, "Signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", user.DisplayName())
	return nil
}

func runWhoami(_ context.Context, a *app, _ []string) error {
	s := a.session.State()
	u := s.User
	switch {
	case u != nil:
	case !s.Ready():
		fmt.Fprintln(a.out, "Session is still starting.")
		return nil
	case s.HasTokens():
		fmt.Fprintln(a.out, "Not signed in. A stored session exists but could not be restored; try again when the storefront is reachable.")
		return nil
	default:
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Name\t%s\n", u.DisplayName())
	if u.Email != "" {
		fmt.Fprintf(w, "Email\t%s\n", u.Email)
	}
	if u.Phone != "" {
		fmt.Fprintf(w, "Phone\t%s %s\n", u.CountryCode, u.Phone)
	}
	if u.Goal != "" {
		fmt.Fprintf(w, "Goal\t%s\n", u.Goal)
	}
	if u.HeightCm != nil || u.WeightKg != nil {
		fmt.Fprintf(w, "Height / weight\t%.0f cm / %.0f kg\n", utils.ValueOr(u.HeightCm, 0), utils.ValueOr(u.WeightKg, 0))
	}
	fmt.Fprintf(w, "Tenant\t%s\n", a.session.TenantID())
	return w.Flush()
}

// plans returns the catalog, or the guest program when it is empty or
// unavailable.
func (a *app) plans(ctx context.Context) catalog.Plans {
	plans, err := a.catalog.Plans(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Plan catalog unavailable")
	}
	if len(plans) == 0 {
		return catalog.Fallback("")
	}
	return plans
}

func runPlans(ctx context.Context, a *app, _ []string) error {
	plans := a.plans(ctx)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tGOAL\tDIET")
	for _, p := range plans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Title, dash(p.GoalType), dash(p.DietType))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		fmt.Fprintln(a.out, "Sign in to see every program.")
	}
	return nil
}

type menuItem struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (m menuItem) label() string {
	return utils.FirstNonEmpty(m.Name, m.Title, "-")
}

func runMenu(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	planID := fs.String("plan", "", "plan id; defaults to the first plan")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id := a.plans(ctx).Effective(*planID)
	menu, err := a.catalog.Menu(ctx, id)
	if err != nil {
		return err
	}
	if menu == nil {
		fmt.Fprintln(a.out, "No menu available. Sign in and pick a plan to see its menu.")
		return nil
	}
	for _, raw := range menu.Recipes {
		var item menuItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		fmt.Fprintf(a.out, "- %s\n", item.label())
	}
	fmt.Fprintf(a.out, "%d recipes, %d templates\n", len(menu.Recipes), len(menu.Templates))
	return nil
}

func runCheckout(ctx context.Context, a *app, args []string) error {
	def := checkout.DefaultCart("")
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	planID := fs.String("plan", "", "plan id; defaults to the first plan")
	proteins := fs.String("protein", strings.Join(def.Proteins, ","), "comma separated proteins")
	meals := fs.String("meals", strings.Join(def.Meals, ","), "comma separated meal types")
	calories := fs.Int("calories", def.Calories, "calories per meal")
	days := fs.Int("days", def.DaysPerWeek, "delivery days per week")
	weeks := fs.Int("weeks", def.Weeks, "number of weeks")
	start := fs.String("start", "", "start date (YYYY-MM-DD)")
	slot := fs.String("slot", "", "delivery time slot")
	origin := fs.String("origin", "http://localhost:3000", "storefront origin for the payment return URLs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	plans := a.plans(ctx)
	cart := checkout.Cart{
		PlanID:      plans.Effective(*planID),
		Proteins:    splitList(*proteins),
		Calories:    *calories,
		Meals:       splitList(*meals),
		DaysPerWeek: *days,
		Weeks:       *weeks,
		StartDate:   *start,
	}
	if err := cart.Validate(); err != nil {
		return err
	}
	if plans.Find(cart.PlanID) == nil {
		return errors.Wrapf(ierrors.ErrPlanNotFound, "plan %q", cart.PlanID)
	}

	summary := checkout.BuildSummary(cart, plans.Find(cart.PlanID), plans.Label(cart.PlanID), *slot, 0)
	totalAED, totalFils := summary.Payable()

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Program\t%s\n", summary.ProgramName)
	fmt.Fprintf(w, "Dietary preference\t%s\n", summary.DietaryPreference)
	fmt.Fprintf(w, "Meals per day\t%s\n", summary.MealsPerDay)
	fmt.Fprintf(w, "Calories\t%d per meal, %d per day\n", summary.CaloriePerMeal, summary.CaloriePerDay)
	fmt.Fprintf(w, "Program length\t%s (%d days of food)\n", summary.ProgramLength, summary.DaysOfFood)
	fmt.Fprintf(w, "Start date\t%s\n", summary.StartDate)
	fmt.Fprintf(w, "Subtotal\tAED %.2f\n", summary.SubTotal)
	fmt.Fprintf(w, "VAT\tAED %.2f\n", summary.VAT)
	fmt.Fprintf(w, "Delivery\tAED %.2f\n", summary.DeliveryCharge)
	fmt.Fprintf(w, "Total\tAED %.2f\n", totalAED)
	if err := w.Flush(); err != nil {
		return err
	}

	successURL, cancelURL := checkout.ReturnURLs(*origin)
	redirect, err := a.checkout.Create(ctx, checkout.Order{
		PlanID:      cart.PlanID,
		ProductName: checkout.ProductName(summary.ProgramName, cart.Weeks),
		AmountFils:  totalFils,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
	})
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "\nOrder %s created. Complete payment at:\n%s\n", redirect.OrderID, redirect.URL)
	return nil
}

func runOrder(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	sessionID := fs.String("session", "", "payment session id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := *sessionID
	if id == "" {
		id = fs.Arg(0)
	}

	ps, err := a.checkout.Get(ctx, id)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Session\t%s\n", ps.ID)
	fmt.Fprintf(w, "Order\t%s\n", dash(ps.OrderID()))
	fmt.Fprintf(w, "Status\t%s\n", ps.DisplayStatus())
	fmt.Fprintf(w, "Amount\t%s %.2f\n", strings.ToUpper(ps.Currency), float64(ps.AmountTotal)/100)
	fmt.Fprintf(w, "Paid\t%t\n", ps.Paid())
	return w.Flush()
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	a.session.ClearTokens(ctx)
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
