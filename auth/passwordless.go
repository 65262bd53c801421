package auth

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jrsteele09/storefront-client/api"
	ierrors "github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/token"
	"github.com/jrsteele09/storefront-client/users"
	"github.com/jrsteele09/storefront-client/validation"
)

const (
	PathPhoneOTP = "auth/otp"
	PathEmailOTP = "auth/email"
	PathRegister = "auth/register"

	defaultOTPInterval = 30 * time.Second
)

// Outcome is where an OTP verification leaves the user.
type Outcome int

const (
	// OutcomeSignedIn means tokens were issued and the session is authenticated.
	OutcomeSignedIn Outcome = iota + 1
	// OutcomeNeedsRegistration means the user is new and must complete a
	// profile; the registration token has been stored.
	OutcomeNeedsRegistration
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSignedIn:
		return "signed_in"
	case OutcomeNeedsRegistration:
		return "needs_registration"
	default:
		return "unknown"
	}
}

// VerifyResult is the result of a successful OTP verification.
type VerifyResult struct {
	Outcome Outcome
	User    *users.User
}

type verifyResponse struct {
	IsNewUser         bool        `json:"isNewUser"`
	AccessToken       string      `json:"accessToken,omitempty"`
	RefreshToken      string      `json:"refreshToken,omitempty"`
	User              *users.User `json:"user,omitempty"`
	RegistrationToken string      `json:"registrationToken,omitempty"`
}

type registerResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *users.User `json:"user,omitempty"`
}

type phoneOTPRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
	OTP         string `json:"otp,omitempty"`
	TenantID    string `json:"tenantId"`
}

type emailOTPRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp,omitempty"`
	TenantID string `json:"tenantId"`
}

// Passwordless signs users in with one-time passcodes sent by SMS or email,
// and completes registration for first-time users.
type Passwordless struct {
	client  *api.Client
	session *Controller
	store   *token.Store
	logger  zerolog.Logger

	phoneLimiter *rate.Limiter
	emailLimiter *rate.Limiter
}

type PasswordlessOption func(*Passwordless)

// WithOTPInterval sets the minimum time between two OTP sends on the same
// channel. Zero disables throttling.
func WithOTPInterval(d time.Duration) PasswordlessOption {
	return func(p *Passwordless) {
		p.phoneLimiter = newLimiter(d)
		p.emailLimiter = newLimiter(d)
	}
}

func WithPasswordlessLogger(logger zerolog.Logger) PasswordlessOption {
	return func(p *Passwordless) {
		p.logger = logger
	}
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

func NewPasswordless(session *Controller, options ...PasswordlessOption) (*Passwordless, error) {
	if session == nil {
		return nil, errors.New("[NewPasswordless] session controller is required")
	}
	p := &Passwordless{
		client:       session.client,
		session:      session,
		store:        session.store,
		logger:       session.logger,
		phoneLimiter: newLimiter(defaultOTPInterval),
		emailLimiter: newLimiter(defaultOTPInterval),
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

func (p *Passwordless) tenant() (string, error) {
	tenantID := p.session.TenantID()
	if tenantID == "" {
		return "", ierrors.ErrTenantNotReady
	}
	return tenantID, nil
}

// SendPhoneOTP asks the backend to text a code to phone.
func (p *Passwordless) SendPhoneOTP(ctx context.Context, phone, countryCode string) error {
	phone = strings.TrimSpace(phone)
	if err := validation.NewValidator().Phone("phone", phone).Err(); err != nil {
		return err
	}
	tenantID, err := p.tenant()
	if err != nil {
		return err
	}
	if !p.phoneLimiter.Allow() {
		return ierrors.ErrOTPThrottled
	}
	body := phoneOTPRequest{Phone: phone, CountryCode: countryCode, TenantID: tenantID}
	if _, err := p.client.Post(ctx, PathPhoneOTP, body, api.RequestOptions{TenantID: tenantID}); err != nil {
		return errors.Wrap(err, "[SendPhoneOTP]")
	}
	p.logger.Debug().Str("channel", "phone").Msg("OTP sent")
	return nil
}

// SendEmailOTP asks the backend to email a code to email.
func (p *Passwordless) SendEmailOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validation.NewValidator().Email("email", email).Err(); err != nil {
		return err
	}
	tenantID, err := p.tenant()
	if err != nil {
		return err
	}
	if !p.emailLimiter.Allow() {
		return ierrors.ErrOTPThrottled
	}
	body := emailOTPRequest{Email: email, TenantID: tenantID}
	if _, err := p.client.Post(ctx, PathEmailOTP, body, api.RequestOptions{TenantID: tenantID}); err != nil {
		return errors.Wrap(err, "[SendEmailOTP]")
	}
	p.logger.Debug().Str("channel", "email").Msg("OTP sent")
	return nil
}

// VerifyPhoneOTP exchanges a texted code for a session or a registration token.
func (p *Passwordless) VerifyPhoneOTP(ctx context.Context, phone, countryCode, otp string) (*VerifyResult, error) {
	phone, otp = strings.TrimSpace(phone), strings.TrimSpace(otp)
	if err := validation.NewValidator().Phone("phone", phone).OTP("otp", otp).Err(); err != nil {
		return nil, err
	}
	tenantID, err := p.tenant()
	if err != nil {
		return nil, err
	}
	body := phoneOTPRequest{Phone: phone, CountryCode: countryCode, OTP: otp, TenantID: tenantID}
	res, err := api.Put[verifyResponse](ctx, p.client, PathPhoneOTP, body, api.RequestOptions{TenantID: tenantID})
	if err != nil {
		return nil, errors.Wrap(err, "[VerifyPhoneOTP]")
	}
	return p.complete(ctx, res.Data)
}

// VerifyEmailOTP exchanges an emailed code for a session or a registration token.
func (p *Passwordless) VerifyEmailOTP(ctx context.Context, email, otp string) (*VerifyResult, error) {
	email, otp = strings.TrimSpace(email), strings.TrimSpace(otp)
	if err := validation.NewValidator().Email("email", email).OTP("otp", otp).Err(); err != nil {
		return nil, err
	}
	tenantID, err := p.tenant()
	if err != nil {
		return nil, err
	}
	body := emailOTPRequest{Email: email, OTP: otp, TenantID: tenantID}
	res, err := api.Put[verifyResponse](ctx, p.client, PathEmailOTP, body, api.RequestOptions{TenantID: tenantID})
	if err != nil {
		return nil, errors.Wrap(err, "[VerifyEmailOTP]")
	}
	return p.complete(ctx, res.Data)
}

func (p *Passwordless) complete(ctx context.Context, data *verifyResponse) (*VerifyResult, error) {
	switch {
	case data == nil:
		return nil, ierrors.ErrInvalidResponse
	case data.IsNewUser && data.RegistrationToken != "":
		p.store.Set(ctx, token.KindRegistration, data.RegistrationToken)
		return &VerifyResult{Outcome: OutcomeNeedsRegistration}, nil
	case !data.IsNewUser && data.AccessToken != "" && data.RefreshToken != "":
		user := p.signIn(ctx, data.AccessToken, data.RefreshToken, data.User)
		return &VerifyResult{Outcome: OutcomeSignedIn, User: user}, nil
	default:
		return nil, ierrors.ErrSignInIncomplete
	}
}

// signIn adopts a token pair and the user that came with it, fetching the
// profile when the response carried none.
func (p *Passwordless) signIn(ctx context.Context, access, refresh string, user *users.User) *users.User {
	p.session.SetTokens(ctx, access, refresh)
	if user != nil {
		p.session.SetUser(user)
		return user.Clone()
	}
	return p.session.FetchProfile(ctx, access)
}

// HasRegistrationToken reports whether a verified new user is waiting to
// complete registration.
func (p *Passwordless) HasRegistrationToken(ctx context.Context) bool {
	_, ok := p.store.Get(ctx, token.KindRegistration)
	return ok
}

// CompleteRegistration submits the new user's profile with the stored
// registration token and signs them in.
func (p *Passwordless) CompleteRegistration(ctx context.Context, profile users.Registration) (*users.User, error) {
	regToken, ok := p.store.Get(ctx, token.KindRegistration)
	if !ok {
		return nil, ierrors.ErrNoRegistrationToken
	}

	v := validation.NewValidator().Name("name", profile.Name)
	if profile.Email != "" {
		v.Email("email", profile.Email)
	}
	if profile.Phone != "" {
		v.Phone("phone", profile.Phone)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	profile.Name = strings.TrimSpace(profile.Name)
	profile.RegistrationToken = regToken
	opts := api.RequestOptions{}
	if tenantID := p.session.TenantID(); tenantID != "" {
		profile.TenantID = tenantID
		opts.TenantID = tenantID
	}

	res, err := api.Post[registerResponse](ctx, p.client, PathRegister, profile, opts)
	if err != nil {
		return nil, errors.Wrap(err, "[CompleteRegistration]")
	}
	if res.Data == nil || res.Data.AccessToken == "" || res.Data.RefreshToken == "" {
		return nil, ierrors.ErrSignInIncomplete
	}

	p.store.Delete(ctx, token.KindRegistration)
	user := p.signIn(ctx, res.Data.AccessToken, res.Data.RefreshToken, res.Data.User)
	if user == nil {
		return nil, ierrors.ErrSignInIncomplete
	}
	return user, nil
}
