package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/storefront-client/api"
	ierrors "github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/internal/metrics"
)

// fakeHandler records every AuthHandler call.
type fakeHandler struct {
	lock         sync.Mutex
	refreshToken string
	onRefresh    func()
	refreshCalls int
	clearCalls   int
	expiredCalls int
}

func (h *fakeHandler) GetToken(context.Context) string { return "" }

func (h *fakeHandler) RefreshAuth(context.Context) (string, bool) {
	if h.onRefresh != nil {
		h.onRefresh()
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	h.refreshCalls++
	return h.refreshToken, h.refreshToken != ""
}

func (h *fakeHandler) ClearTokens(context.Context) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.clearCalls++
}

func (h *fakeHandler) OnSessionExpired(context.Context) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.expiredCalls++
}

func (h *fakeHandler) counts() (refresh, clear, expired int) {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.refreshCalls, h.clearCalls, h.expiredCalls
}

type testServer struct {
	*httptest.Server
	hits    atomic.Int32
	lock    sync.Mutex
	headers []http.Header
	paths   []string
}

func (s *testServer) recorded() ([]http.Header, []string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]http.Header(nil), s.headers...), append([]string(nil), s.paths...)
}

// newServer serves responses in order; the last one repeats.
func newServer(t *testing.T, responses ...func(w http.ResponseWriter, r *http.Request)) *testServer {
	t.Helper()
	s := &testServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(s.hits.Add(1)) - 1
		s.lock.Lock()
		s.headers = append(s.headers, r.Header.Clone())
		s.paths = append(s.paths, r.URL.Path)
		s.lock.Unlock()
		if n >= len(responses) {
			n = len(responses) - 1
		}
		responses[n](w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func reply(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

const (
	okBody           = `{"status_code":200,"message":"OK","data":{"name":"Sara"}}`
	unauthorizedBody = `{"status_code":401,"message":"Unauthorized","data":null}`
)

type profile struct {
	Name string `json:"name"`
}

func TestClient_URL(t *testing.T) {
	c := api.New("http://api.example.com/")
	require.Equal(t, "http://api.example.com/api/v1/user/profile", c.URL("user/profile"))
	require.Equal(t, "http://api.example.com/api/v1/user/profile", c.URL("/user/profile"))
	require.Equal(t, "http://api.example.com/api/v1/user/profile", c.URL("/api/v1/user/profile"), "no double prefix")
	require.Equal(t, "http://api.example.com/api/v1/api/v1x/foo", c.URL("/api/v1x/foo"), "only a whole prefix segment counts")

	bare := api.New("http://api.example.com", api.WithPrefix(""))
	require.Equal(t, "http://api.example.com/user/profile", bare.URL("user/profile"))
}

func TestClient_Headers(t *testing.T) {
	srv := newServer(t, reply(http.StatusOK, okBody))
	c := api.New(srv.URL)
	ctx := context.Background()

	_, err := c.Get(ctx, "user/profile", api.RequestOptions{Token: "tok", TenantID: "tenant-1"})
	require.NoError(t, err)
	_, err = c.Post(ctx, "auth/otp", map[string]string{"phone": "0501234567"}, api.RequestOptions{})
	require.NoError(t, err)

	headers, paths := srv.recorded()
	require.Equal(t, []string{"/api/v1/user/profile", "/api/v1/auth/otp"}, paths)

	require.Equal(t, "application/json", headers[0].Get("Content-Type"))
	require.Equal(t, "Bearer tok", headers[0].Get("Authorization"))
	require.Equal(t, "tenant-1", headers[0].Get("X-Tenant-Id"))
	_, err = uuid.Parse(headers[0].Get(api.RequestIDHeader))
	require.NoError(t, err)

	require.Empty(t, headers[1].Get("Authorization"), "no token, no Authorization header")
	require.Empty(t, headers[1].Get("X-Tenant-Id"), "no tenant, no tenant header")
	require.NotEqual(t, headers[0].Get(api.RequestIDHeader), headers[1].Get(api.RequestIDHeader))
}

func TestClient_CustomTenantHeader(t *testing.T) {
	srv := newServer(t, reply(http.StatusOK, okBody))
	c := api.New(srv.URL, api.WithTenantHeader("X-Brand"))
	_, err := c.Get(context.Background(), "tenant/list", api.RequestOptions{TenantID: "t1"})
	require.NoError(t, err)
	headers, _ := srv.recorded()
	require.Equal(t, "t1", headers[0].Get("X-Brand"))
}

func TestClient_PostBody(t *testing.T) {
	var (
		method string
		got    map[string]string
	)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&got)
		reply(http.StatusOK, okBody)(w, r)
	})
	_, err := api.New(srv.URL).Put(context.Background(), "auth/email", map[string]string{"email": "a@b.co"}, api.RequestOptions{})
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, method)
	require.Equal(t, "a@b.co", got["email"])
}

func TestClient_Envelopes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
		wantMsg  string
		wantData bool
	}{
		{"raw envelope", 200, okBody, 200, "OK", true},
		{"raw envelope status differs from http", 200, `{"status_code":201,"message":"Created","data":{"name":"x"}}`, 201, "Created", true},
		{"legacy object", 200, `{"message":"fine","data":{"name":"x"}}`, 200, "fine", true},
		{"legacy without message", 200, `{"data":{"name":"x"}}`, 200, "OK", true},
		{"non json", 200, `hello`, 200, "OK", false},
		{"empty body", 200, ``, 200, "OK", false},
		{"string status_code is legacy", 200, `{"status_code":"200","message":"m"}`, 200, "m", false},
		{"unknown status text", 299, `not json`, 299, "Request failed", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, reply(tt.status, tt.body))
			env, err := api.New(srv.URL).Get(context.Background(), "x", api.RequestOptions{})
			require.NoError(t, err)
			require.Equal(t, tt.wantCode, env.StatusCode)
			require.Equal(t, tt.wantMsg, env.Message)
			require.Equal(t, tt.wantData, env.HasData())
		})
	}
}

func TestClient_TypedResponse(t *testing.T) {
	srv := newServer(t, reply(http.StatusOK, okBody), reply(http.StatusOK, `{"status_code":200,"message":"OK","data":null}`), reply(http.StatusOK, `{"status_code":200,"message":"OK","data":"oops"}`))
	c := api.New(srv.URL)
	ctx := context.Background()

	res, err := api.Get[profile](ctx, c, "user/profile", api.RequestOptions{})
	require.NoError(t, err)
	require.Equal(t, "Sara", res.Data.Name)

	res, err = api.Get[profile](ctx, c, "user/profile", api.RequestOptions{})
	require.NoError(t, err)
	require.Nil(t, res.Data)

	_, err = api.Get[profile](ctx, c, "user/profile", api.RequestOptions{})
	require.ErrorIs(t, err, ierrors.ErrInvalidResponse)
}

func TestClient_HTTPErrors(t *testing.T) {
	t.Run("field errors", func(t *testing.T) {
		srv := newServer(t, reply(http.StatusBadRequest, `{"status_code":400,"message":"Validation failed","data":[{"path":"body.email","message":"bad email"}]}`))
		_, err := api.New(srv.URL).Post(context.Background(), "auth/email", nil, api.RequestOptions{})

		apiErr, ok := api.AsError(err)
		require.True(t, ok)
		require.Equal(t, 400, apiErr.StatusCode)
		require.Equal(t, "Validation failed", apiErr.Message)
		require.Equal(t, []api.FieldError{{Path: "body.email", Message: "bad email"}}, apiErr.FieldErrors)
		require.True(t, api.IsStatus(err, 400))
	})

	t.Run("legacy error uses status text", func(t *testing.T) {
		srv := newServer(t, reply(http.StatusInternalServerError, `<html>boom</html>`))
		_, err := api.New(srv.URL).Get(context.Background(), "x", api.RequestOptions{})
		apiErr, ok := api.AsError(err)
		require.True(t, ok)
		require.Equal(t, 500, apiErr.StatusCode)
		require.Equal(t, "Internal Server Error", apiErr.Message)
		require.Nil(t, apiErr.FieldErrors)
	})

	t.Run("object data is not field errors", func(t *testing.T) {
		srv := newServer(t, reply(http.StatusConflict, `{"status_code":409,"message":"","data":{"x":1}}`))
		_, err := api.New(srv.URL).Get(context.Background(), "x", api.RequestOptions{})
		apiErr, ok := api.AsError(err)
		require.True(t, ok)
		require.Equal(t, "Request failed", apiErr.Message)
		require.Nil(t, apiErr.FieldErrors)
	})
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	h := &fakeHandler{refreshToken: "new"}
	_, err := api.New(url, api.WithAuthHandler(h)).Get(context.Background(), "x", api.RequestOptions{Token: "tok"})
	require.Error(t, err)
	_, isAPI := api.AsError(err)
	require.False(t, isAPI, "transport failures are not *api.Error")

	refresh, _, _ := h.counts()
	require.Equal(t, 0, refresh)
}

func TestClient_RecoveryRefreshesAndRetries(t *testing.T) {
	srv := newServer(t, reply(http.StatusUnauthorized, unauthorizedBody), reply(http.StatusOK, okBody))
	h := &fakeHandler{refreshToken: "fresh"}
	c := api.New(srv.URL, api.WithAuthHandler(h))

	res, err := api.Get[profile](context.Background(), c, "user/profile", api.RequestOptions{Token: "stale"})
	require.NoError(t, err)
	require.Equal(t, "Sara", res.Data.Name)

	headers, _ := srv.recorded()
	require.Len(t, headers, 2)
	require.Equal(t, "Bearer stale", headers[0].Get("Authorization"))
	require.Equal(t, "Bearer fresh", headers[1].Get("Authorization"))

	refresh, clear, expired := h.counts()
	require.Equal(t, 1, refresh)
	require.Equal(t, 0, clear)
	require.Equal(t, 0, expired)
}

func TestClient_RecoverySingleRetry(t *testing.T) {
	srv := newServer(t, reply(http.StatusUnauthorized, unauthorizedBody))
	h := &fakeHandler{refreshToken: "fresh"}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := api.New(srv.URL, api.WithAuthHandler(h), api.WithMetrics(m))

	_, err := c.Get(context.Background(), "user/profile", api.RequestOptions{Token: "stale"})
	require.True(t, api.IsStatus(err, http.StatusUnauthorized))

	require.Equal(t, int32(2), srv.hits.Load(), "original request plus exactly one retry")
	refresh, clear, expired := h.counts()
	require.Equal(t, 1, refresh, "never a second refresh")
	require.Equal(t, 1, clear)
	require.Equal(t, 1, expired)
	require.Equal(t, 1.0, testutil.ToFloat64(m.SessionExpired))
	require.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "401")))
}

func TestClient_RecoveryRefreshYieldsNothing(t *testing.T) {
	srv := newServer(t, reply(http.StatusUnauthorized, `{"status_code":401,"message":"first","data":null}`))
	h := &fakeHandler{}
	c := api.New(srv.URL, api.WithAuthHandler(h))

	_, err := c.Get(context.Background(), "user/profile", api.RequestOptions{Token: "stale"})
	apiErr, ok := api.AsError(err)
	require.True(t, ok)
	require.Equal(t, "first", apiErr.Message, "original error is returned")
	require.Equal(t, int32(1), srv.hits.Load(), "no retry without a new token")

	refresh, clear, expired := h.counts()
	require.Equal(t, 1, refresh)
	require.Equal(t, 1, clear)
	require.Equal(t, 1, expired)
}

func TestClient_RecoveryCallerCancelled(t *testing.T) {
	srv := newServer(t, reply(http.StatusUnauthorized, unauthorizedBody))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := &fakeHandler{onRefresh: cancel}
	c := api.New(srv.URL, api.WithAuthHandler(h))

	_, err := c.Get(ctx, "user/profile", api.RequestOptions{Token: "stale"})
	require.ErrorIs(t, err, context.Canceled)
	_, isAPIErr := api.AsError(err)
	require.False(t, isAPIErr)
	require.Equal(t, int32(1), srv.hits.Load(), "no retry")

	refresh, clear, expired := h.counts()
	require.Equal(t, 1, refresh)
	require.Zero(t, clear, "a cancelled caller keeps the session")
	require.Zero(t, expired)
}

func TestClient_RecoveryRetryOtherFailure(t *testing.T) {
	srv := newServer(t, reply(http.StatusUnauthorized, unauthorizedBody), reply(http.StatusForbidden, `{"status_code":403,"message":"nope","data":null}`))
	h := &fakeHandler{refreshToken: "fresh"}
	c := api.New(srv.URL, api.WithAuthHandler(h))

	_, err := c.Get(context.Background(), "user/profile", api.RequestOptions{Token: "stale"})
	require.True(t, api.IsStatus(err, http.StatusForbidden), "retry error propagates unchanged")

	_, clear, expired := h.counts()
	require.Equal(t, 0, clear)
	require.Equal(t, 0, expired)
}

func TestClient_NoRecovery(t *testing.T) {
	tests := []struct {
		name    string
		opts    api.RequestOptions
		handler bool
	}{
		{"no token sent", api.RequestOptions{}, true},
		{"no handler registered", api.RequestOptions{Token: "stale"}, false},
		{"recovery skipped", api.RequestOptions{Token: "stale", SkipAuthRecovery: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, reply(http.StatusUnauthorized, unauthorizedBody))
			h := &fakeHandler{refreshToken: "fresh"}
			c := api.New(srv.URL)
			if tt.handler {
				c.SetAuthHandler(h)
			}

			_, err := c.Get(context.Background(), "x", tt.opts)
			require.True(t, api.IsStatus(err, http.StatusUnauthorized))
			require.Equal(t, int32(1), srv.hits.Load())
			refresh, clear, expired := h.counts()
			require.Zero(t, refresh+clear+expired)
		})
	}
}

func TestClient_AuthHandlerRegistration(t *testing.T) {
	c := api.New("http://unused")
	first, second := &fakeHandler{}, &fakeHandler{}

	require.Nil(t, c.AuthHandler())
	c.SetAuthHandler(first)
	c.SetAuthHandler(second)
	require.Same(t, second, c.AuthHandler(), "last write wins")

	require.False(t, c.ReplaceAuthHandler(first, nil), "stale owner can't unregister")
	require.Same(t, second, c.AuthHandler())
	require.True(t, c.ReplaceAuthHandler(second, nil))
	require.Nil(t, c.AuthHandler())

	c.SetAuthHandler(first)
	c.SetAuthHandler(nil)
	require.Nil(t, c.AuthHandler())
}
