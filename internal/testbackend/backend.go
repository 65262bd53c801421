// Package testbackend is an in-process fake of the storefront backend for
// tests. It speaks the {status_code, message, data} envelope, issues JWT
// token pairs with rotation, and lets tests queue failures per route.
package testbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/storefront-client/catalog"
	"github.com/jrsteele09/storefront-client/tenants"
	tenantrepofakes "github.com/jrsteele09/storefront-client/tenants/repofakes"
	"github.com/jrsteele09/storefront-client/users"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// Request is a recorded request.
type Request struct {
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into a generic map.
func (r Request) JSON() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(r.Body, &out)
	return out
}

type cannedResponse struct {
	status int
	body   string
}

type issuedPair struct {
	userID string
	access string
}

type checkoutSession struct {
	ID            string
	OrderID       string
	Amount        int64
	Currency      string
	PaymentStatus string
	Status        string
}

// Backend is the fake server.
type Backend struct {
	server    *httptest.Server
	mux       *http.ServeMux
	tenants   *tenantrepofakes.FakeTenantRepo
	signer    *accessSigner
	accessTTL time.Duration
	otp       string

	lock          sync.Mutex
	users         map[string]*users.User
	contacts      map[string]string // email or phone -> user id
	accessTokens  map[string]string // access token -> user id
	refreshTokens map[string]issuedPair
	registrations map[string]string // registration token -> contact
	plans         catalog.Plans
	menu          *catalog.Menu
	sessions      map[string]*checkoutSession
	hits          map[string]int
	canned        map[string][]cannedResponse
	delays        map[string]time.Duration
	last          map[string]Request
}

type Option func(*Backend)

// WithTenants replaces the default tenant list.
func WithTenants(list ...*tenants.Tenant) Option {
	return func(b *Backend) {
		b.tenants = tenantrepofakes.NewFakeTenantRepo(list...)
	}
}

// WithOTP sets the code every OTP verification accepts.
func WithOTP(code string) Option {
	return func(b *Backend) {
		b.otp = code
	}
}

// WithAccessTTL sets the lifetime written into issued access tokens.
func WithAccessTTL(ttl time.Duration) Option {
	return func(b *Backend) {
		b.accessTTL = ttl
	}
}

// New starts a backend that is closed when the test ends.
func New(t testing.TB, options ...Option) *Backend {
	t.Helper()
	b := &Backend{
		mux:           http.NewServeMux(),
		tenants:       tenantrepofakes.NewFakeTenantRepo(&tenants.Tenant{ID: "tenant-1", Name: "Livit", Brand: "Livit", Status: "active"}),
		accessTTL:     15 * time.Minute,
		otp:           defaultOTP,
		users:         make(map[string]*users.User),
		contacts:      make(map[string]string),
		accessTokens:  make(map[string]string),
		refreshTokens: make(map[string]issuedPair),
		registrations: make(map[string]string),
		sessions:      make(map[string]*checkoutSession),
		hits:          make(map[string]int),
		canned:        make(map[string][]cannedResponse),
		delays:        make(map[string]time.Duration),
		last:          make(map[string]Request),
	}
	for _, opt := range options {
		opt(b)
	}
	b.signer = newAccessSigner(uuid.NewString(), b.accessTTL)
	b.initRoutes()
	b.server = httptest.NewServer(b.mux)
	t.Cleanup(b.server.Close)
	return b
}

// URL is the backend base URL, without the API prefix.
func (b *Backend) URL() string {
	return b.server.URL
}

// Tenants exposes the tenant directory so tests can change it.
func (b *Backend) Tenants() *tenantrepofakes.FakeTenantRepo {
	return b.tenants
}

// RegisterRouteFunc mounts handler under route with the standard middleware.
func (b *Backend) RegisterRouteFunc(route string, handler http.HandlerFunc) {
	b.mux.HandleFunc(route, ChainMiddleware(handler, b.recordMiddleware(route), b.loggingMiddleware, b.delayMiddleware(route), b.cannedMiddleware(route)))
}

// ChainMiddleware wraps routeFunction so the first middleware runs first.
func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chained := routeFunction
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}

func (b *Backend) recordMiddleware(route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))

			b.lock.Lock()
			b.hits[route]++
			b.last[route] = Request{Header: r.Header.Clone(), Body: body}
			b.lock.Unlock()

			next(w, r)
		}
	}
}

func (b *Backend) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("testbackend")
		next(w, r)
	}
}

func (b *Backend) delayMiddleware(route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.lock.Lock()
			d := b.delays[route]
			b.lock.Unlock()

			if d > 0 {
				select {
				case <-time.After(d):
				case <-r.Context().Done():
					return
				}
			}
			next(w, r)
		}
	}
}

func (b *Backend) cannedMiddleware(route string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.lock.Lock()
			queue := b.canned[route]
			var canned *cannedResponse
			if len(queue) > 0 {
				canned = &queue[0]
				b.canned[route] = queue[1:]
			}
			b.lock.Unlock()

			if canned == nil {
				next(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.status)
			_, _ = io.WriteString(w, canned.body)
		}
	}
}

func (b *Backend) requireTenant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(TenantHeader) == "" {
			writeError(w, http.StatusBadRequest, "tenant header is required", nil)
			return
		}
		next(w, r)
	}
}

func (b *Backend) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := b.bearerUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func (b *Backend) bearerUser(r *http.Request) (string, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return "", false
	}
	subject, err := b.signer.Subject(raw)
	if err != nil {
		return "", false
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	userID, ok := b.accessTokens[raw]
	return userID, ok && userID == subject
}

// Hits is the number of requests route has received.
func (b *Backend) Hits(route string) int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.hits[route]
}

// LastRequest is the most recent request to route.
func (b *Backend) LastRequest(route string) (Request, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	r, ok := b.last[route]
	return r, ok
}

// FailNext queues error envelopes with the given statuses for route's next
// requests.
func (b *Backend) FailNext(route string, statuses ...int) {
	for _, status := range statuses {
		body, _ := json.Marshal(envelope{StatusCode: status, Message: http.StatusText(status)})
		b.RespondNext(route, status, string(body))
	}
}

// Delay holds every later request to route for d before it is served.
func (b *Backend) Delay(route string, d time.Duration) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.delays[route] = d
}

// RespondNext queues a raw response for route's next request.
func (b *Backend) RespondNext(route string, status int, body string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.canned[route] = append(b.canned[route], cannedResponse{status: status, body: body})
}

// AddUser registers an existing customer reachable by their email and phone.
func (b *Backend) AddUser(u users.User) *users.User {
	b.lock.Lock()
	defer b.lock.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	stored := u.Clone()
	b.users[u.ID] = stored
	if u.Email != "" {
		b.contacts[strings.ToLower(u.Email)] = u.ID
	}
	if u.Phone != "" {
		b.contacts[u.CountryCode+u.Phone] = u.ID
	}
	return stored.Clone()
}

// IssueTokens mints a valid pair for userID, as a sign-in would.
func (b *Backend) IssueTokens(userID string) (access, refresh string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.issue(userID)
}

func (b *Backend) issue(userID string) (access, refresh string) {
	access, err := b.signer.Sign(userID)
	if err != nil {
		panic(err)
	}
	refresh = "rt_" + uuid.NewString()
	b.accessTokens[access] = userID
	b.refreshTokens[refresh] = issuedPair{userID: userID, access: access}
	return access, refresh
}

// ExpireAccessTokens invalidates every access token; refresh tokens still work.
func (b *Backend) ExpireAccessTokens() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.accessTokens = make(map[string]string)
}

// RevokeRefreshTokens invalidates every refresh token.
func (b *Backend) RevokeRefreshTokens() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.refreshTokens = make(map[string]issuedPair)
}

// ValidPair reports whether access and refresh were issued together and
// are both still live.
func (b *Backend) ValidPair(access, refresh string) bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	pair, ok := b.refreshTokens[refresh]
	if !ok || pair.access != access {
		return false
	}
	_, ok = b.accessTokens[access]
	return ok
}

// SetPlans replaces the plan catalog.
func (b *Backend) SetPlans(plans catalog.Plans) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.plans = plans
}

// SetMenu replaces the weekly menu.
func (b *Backend) SetMenu(menu *catalog.Menu) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.menu = menu
}

// CompletePayment marks a checkout session as paid.
func (b *Backend) CompletePayment(sessionID string) bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	s, ok := b.sessions[sessionID]
	if ok {
		s.PaymentStatus = "paid"
		s.Status = "complete"
	}
	return ok
}

type envelope struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{StatusCode: status, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string, fieldErrors []map[string]string) {
	var data any
	if len(fieldErrors) > 0 {
		data = fieldErrors
	}
	writeJSON(w, status, message, data)
}
