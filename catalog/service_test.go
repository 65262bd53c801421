package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/storefront-client/api"
	"github.com/jrsteele09/storefront-client/catalog"
	"github.com/jrsteele09/storefront-client/internal/testbackend"
	"github.com/jrsteele09/storefront-client/users"
)

type staticSession struct {
	token string
}

func (s staticSession) IsAuthenticated() bool { return s.token != "" }
func (s staticSession) AccessToken() string   { return s.token }

func setupService(t *testing.T, signedIn bool) (*testbackend.Backend, *catalog.Service) {
	t.Helper()
	backend := testbackend.New(t)
	session := staticSession{}
	if signedIn {
		u := backend.AddUser(users.User{Name: "Sara", Email: "sara@example.com"})
		session.token, _ = backend.IssueTokens(u.ID)
	}
	return backend, catalog.NewService(api.New(backend.URL()), session)
}

func TestService_Plans(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		backend, svc := setupService(t, false)
		plans, err := svc.Plans(context.Background())
		require.NoError(t, err)
		require.NotNil(t, plans)
		require.Empty(t, plans)
		require.Zero(t, backend.Hits(testbackend.RoutePlans))
	})

	t.Run("signed in", func(t *testing.T) {
		backend, svc := setupService(t, true)
		backend.SetPlans(catalog.Plans{
			{ID: "p1", Title: "Lean", GoalType: "lose_weight", Pricing: catalog.Pricing{"4": {"1 week": 420}}},
			{ID: "p2", Title: "Bulk"},
		})

		plans, err := svc.Plans(context.Background())
		require.NoError(t, err)
		require.Len(t, plans, 2)
		require.Equal(t, "Lean", plans.Label("p1"))
		require.Equal(t, 420.0, plans.Find("p1").Pricing["4"]["1 week"])

		req, _ := backend.LastRequest(testbackend.RoutePlans)
		require.Contains(t, req.Header.Get("Authorization"), "Bearer ")
	})

	t.Run("empty catalog", func(t *testing.T) {
		_, svc := setupService(t, true)
		plans, err := svc.Plans(context.Background())
		require.NoError(t, err)
		require.Empty(t, plans)
	})

	t.Run("data that is not a list", func(t *testing.T) {
		for _, body := range []string{
			`{"status_code":200,"message":"ok","data":{"plans":[{"_id":"p1"}]}}`,
			`{"status_code":200,"message":"ok","data":"none"}`,
			`{"status_code":200,"message":"ok","data":null}`,
		} {
			backend, svc := setupService(t, true)
			backend.RespondNext(testbackend.RoutePlans, http.StatusOK, body)
			plans, err := svc.Plans(context.Background())
			require.NoError(t, err, body)
			require.NotNil(t, plans)
			require.Empty(t, plans)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		backend, svc := setupService(t, true)
		backend.FailNext(testbackend.RoutePlans, http.StatusInternalServerError)
		plans, err := svc.Plans(context.Background())
		require.True(t, api.IsStatus(err, http.StatusInternalServerError))
		require.Empty(t, plans)
	})
}

func TestService_Menu(t *testing.T) {
	t.Run("placeholder plan", func(t *testing.T) {
		backend, svc := setupService(t, true)
		for _, id := range []string{"", " ", catalog.DefaultPlanID} {
			menu, err := svc.Menu(context.Background(), id)
			require.NoError(t, err)
			require.Nil(t, menu)
		}
		require.Zero(t, backend.Hits(testbackend.RouteMenu))
	})

	t.Run("anonymous", func(t *testing.T) {
		backend, svc := setupService(t, false)
		menu, err := svc.Menu(context.Background(), "p1")
		require.NoError(t, err)
		require.Nil(t, menu)
		require.Zero(t, backend.Hits(testbackend.RouteMenu))
	})

	t.Run("signed in", func(t *testing.T) {
		backend, svc := setupService(t, true)
		backend.SetMenu(&catalog.Menu{
			Recipes: []json.RawMessage{json.RawMessage(`{"name":"Chicken shawarma bowl","kcal":480}`)},
		})

		menu, err := svc.Menu(context.Background(), "p1")
		require.NoError(t, err)
		require.Len(t, menu.Recipes, 1)
		require.JSONEq(t, `{"name":"Chicken shawarma bowl","kcal":480}`, string(menu.Recipes[0]))
		require.Empty(t, menu.Templates)
	})

	t.Run("no menu yet", func(t *testing.T) {
		_, svc := setupService(t, true)
		menu, err := svc.Menu(context.Background(), "p1")
		require.NoError(t, err)
		require.Nil(t, menu)
	})
}
