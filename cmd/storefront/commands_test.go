package main

import (
	"bytes"
	"context"
	"net/http"
	"path"
	"strings"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/storefront-client/internal/config"
	ierrors "github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/internal/testbackend"
	"github.com/jrsteele09/storefront-client/users"
)

func newTestApp(t *testing.T, backend *testbackend.Backend, vars map[string]string, stdin string) (*app, *bytes.Buffer) {
	t.Helper()
	environment := map[string]string{
		"STOREFRONT_API_BASE_URL":  backend.URL(),
		"STOREFRONT_TOKEN_BACKEND": "memory",
	}
	for k, v := range vars {
		environment[k] = v
	}
	c, err := config.FromEnvironment(env.Options{Environment: environment})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	a, err := newApp(context.Background(), c, strings.NewReader(stdin), out)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, out
}

func TestLogin_RegistersNewCustomer(t *testing.T) {
	backend := testbackend.New(t)
	a, out := newTestApp(t, backend, nil, "1234\nOmar Khalid\n")
	ctx := context.Background()

	require.NoError(t, runLogin(ctx, a, []string{"-email", "omar@example.com"}))
	require.Contains(t, out.String(), "Finish creating your account")
	require.Contains(t, out.String(), "Signed in as Omar Khalid.")
	require.Equal(t, 1, backend.Hits(testbackend.RouteSendEmailOTP))
	require.Equal(t, 1, backend.Hits(testbackend.RouteRegister))

	out.Reset()
	require.NoError(t, runWhoami(ctx, a, nil))
	require.Contains(t, out.String(), "omar@example.com")
	require.Contains(t, out.String(), "tenant-1")
}

func TestLogin_ExistingCustomerWithCode(t *testing.T) {
	backend := testbackend.New(t)
	backend.AddUser(users.User{Name: "Sara Ahmed", Phone: "501234567", CountryCode: "+971"})
	a, out := newTestApp(t, backend, nil, "")

	require.NoError(t, runLogin(context.Background(), a, []string{"-phone", "501234567", "-otp", "1234"}))
	require.Contains(t, out.String(), "Signed in as Sara Ahmed.")
	require.Zero(t, backend.Hits(testbackend.RouteSendPhoneOTP), "a supplied code skips sending")
}

func TestLogin_Errors(t *testing.T) {
	backend := testbackend.New(t)
	a, _ := newTestApp(t, backend, nil, "")
	ctx := context.Background()

	require.Error(t, runLogin(ctx, a, nil))
	require.Error(t, runLogin(ctx, a, []string{"-phone", "501234567", "-email", "a@b.co"}))

	err := runLogin(ctx, a, []string{"-email", "sara@example.com", "-otp", "9999"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Otp: Invalid or expired code")
}

func TestLogin_SessionSurvivesRestart(t *testing.T) {
	backend := testbackend.New(t)
	backend.AddUser(users.User{Name: "Sara Ahmed", Email: "sara@example.com"})
	vars := map[string]string{
		"STOREFRONT_TOKEN_BACKEND": "file",
		"STOREFRONT_DATA_FOLDER":   t.TempDir(),
	}

	first, _ := newTestApp(t, backend, vars, "")
	require.NoError(t, runLogin(context.Background(), first, []string{"-email", "sara@example.com", "-otp", "1234"}))
	first.Close()

	second, out := newTestApp(t, backend, vars, "")
	require.True(t, second.session.IsAuthenticated(), "refresh token restores the session")
	require.NoError(t, runWhoami(context.Background(), second, nil))
	require.Contains(t, out.String(), "Sara Ahmed")

	require.NoError(t, runLogout(context.Background(), second, nil))
	third, _ := newTestApp(t, backend, vars, "")
	require.False(t, third.session.IsAuthenticated())
}

func TestWhoami_BackendDownAtStartup(t *testing.T) {
	backend := testbackend.New(t)
	backend.AddUser(users.User{Name: "Sara Ahmed", Email: "sara@example.com"})
	vars := map[string]string{
		"STOREFRONT_TOKEN_BACKEND": "file",
		"STOREFRONT_DATA_FOLDER":   t.TempDir(),
	}

	first, _ := newTestApp(t, backend, vars, "")
	require.NoError(t, runLogin(context.Background(), first, []string{"-email", "sara@example.com", "-otp", "1234"}))
	first.Close()

	backend.FailNext(testbackend.RouteRefresh, http.StatusServiceUnavailable)
	second, out := newTestApp(t, backend, vars, "")
	require.False(t, second.session.IsAuthenticated())
	require.NoError(t, runWhoami(context.Background(), second, nil))
	require.Contains(t, out.String(), "could not be restored")
}

func TestPlans_GuestFallback(t *testing.T) {
	backend := testbackend.New(t)
	a, out := newTestApp(t, backend, nil, "")

	require.NoError(t, runPlans(context.Background(), a, nil))
	require.Contains(t, out.String(), "Signature Program")
	require.Contains(t, out.String(), "Sign in to see every program.")
	require.Zero(t, backend.Hits(testbackend.RoutePlans))
}

func TestCheckoutAndOrder(t *testing.T) {
	backend := testbackend.New(t)
	a, out := newTestApp(t, backend, nil, "")
	ctx := context.Background()

	require.NoError(t, runCheckout(ctx, a, []string{"-weeks", "2", "-meals", "lunch,dinner"}))
	require.Contains(t, out.String(), "Complete payment at:")

	req, ok := backend.LastRequest(testbackend.RouteCreateCheckout)
	require.True(t, ok)
	body := req.JSON()
	require.Equal(t, "default", body["templateId"])
	require.Equal(t, "Signature Program - 2 weeks", body["productName"])
	require.Equal(t, 63000.0, body["amount"], "30 AED x 2 meals x 5 days x 2 weeks plus VAT, in fils")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	sessionID := path.Base(lines[len(lines)-1])
	require.True(t, backend.CompletePayment(sessionID))

	out.Reset()
	require.NoError(t, runOrder(ctx, a, []string{sessionID}))
	require.Contains(t, out.String(), "paid")
	require.Contains(t, out.String(), "AED 630.00")

	require.Error(t, runCheckout(ctx, a, []string{"-calories", "450"}))
	require.ErrorIs(t, runCheckout(ctx, a, []string{"-plan", "no-such-plan"}), ierrors.ErrPlanNotFound)
}

func TestMenu_Anonymous(t *testing.T) {
	backend := testbackend.New(t)
	a, out := newTestApp(t, backend, nil, "")

	require.NoError(t, runMenu(context.Background(), a, nil))
	require.Contains(t, out.String(), "No menu available")
	require.Zero(t, backend.Hits(testbackend.RouteMenu))
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitList(" a, ,b,"))
	require.Nil(t, splitList(""))
}
