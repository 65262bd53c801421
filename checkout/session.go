package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/storefront-client/api"
	ierrors "github.com/jrsteele09/storefront-client/internal/errors"
	"github.com/jrsteele09/storefront-client/users"
)

const (
	PathSession = "checkout/session"

	Currency = "aed"

	// SessionIDPlaceholder is substituted by the payment provider in the
	// success URL.
	SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"
)

// Session supplies the signed-in state for checkout. Guests may check out.
type Session interface {
	IsAuthenticated() bool
	AccessToken() string
	TenantID() string
	User() *users.User
}

// Order is what the customer is paying for.
type Order struct {
	PlanID      string
	ProductName string
	AmountFils  int64
	SuccessURL  string
	CancelURL   string
}

type createSessionRequest struct {
	TemplateID  string `json:"templateId"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ProductName string `json:"productName"`
	SuccessURL  string `json:"successUrl"`
	CancelURL   string `json:"cancelUrl"`
	UserID      string `json:"userId,omitempty"`
	TenantID    string `json:"tenantId,omitempty"`
}

// Redirect is a created payment session.
type Redirect struct {
	URL     string `json:"url"`
	OrderID string `json:"orderId"`
}

// PaymentSession is the state of a payment session as reported by the backend.
type PaymentSession struct {
	ID            string          `json:"id"`
	PaymentStatus string          `json:"payment_status,omitempty"`
	Status        string          `json:"status,omitempty"`
	Metadata      SessionMetadata `json:"metadata,omitempty"`
	AmountTotal   int64           `json:"amount_total,omitempty"`
	Currency      string          `json:"currency,omitempty"`
}

type SessionMetadata struct {
	OrderID string `json:"orderId,omitempty"`
}

// Paid reports whether payment has been captured.
func (p *PaymentSession) Paid() bool {
	return p != nil && (p.PaymentStatus == "paid" || p.Status == "complete")
}

// OrderID is the storefront order the session pays for.
func (p *PaymentSession) OrderID() string {
	if p == nil {
		return ""
	}
	return p.Metadata.OrderID
}

// DisplayStatus is the payment status, falling back to the session status.
func (p *PaymentSession) DisplayStatus() string {
	if p == nil {
		return ""
	}
	if p.PaymentStatus != "" {
		return p.PaymentStatus
	}
	if p.Status != "" {
		return p.Status
	}
	return "-"
}

// Service creates and inspects payment sessions.
type Service struct {
	client  *api.Client
	session Session
}

func NewService(client *api.Client, session Session) *Service {
	return &Service{client: client, session: session}
}

// ProductName is the line item shown by the payment provider.
func ProductName(programName string, weeks int) string {
	return fmt.Sprintf("%s - %d weeks", programName, weeks)
}

// ReturnURLs builds the success and cancel URLs under origin.
func ReturnURLs(origin string) (successURL, cancelURL string) {
	origin = strings.TrimRight(origin, "/")
	return origin + "/Home/CheckoutSuccess?session_id=" + SessionIDPlaceholder, origin + "/Home/CheckoutCancel"
}

// Create starts a payment session for order. Signed-in customers are
// attached to the order; guests check out anonymously.
func (s *Service) Create(ctx context.Context, order Order) (*Redirect, error) {
	if strings.TrimSpace(order.PlanID) == "" {
		return nil, errors.Wrap(ierrors.ErrInvalidOrder, "select a plan first")
	}
	if order.AmountFils <= 0 {
		return nil, errors.Wrap(ierrors.ErrInvalidOrder, "order total must be greater than zero")
	}

	body := createSessionRequest{
		TemplateID:  order.PlanID,
		Amount:      order.AmountFils,
		Currency:    Currency,
		ProductName: order.ProductName,
		SuccessURL:  order.SuccessURL,
		CancelURL:   order.CancelURL,
	}
	var opts api.RequestOptions
	if s.session != nil {
		if s.session.IsAuthenticated() {
			opts.Token = s.session.AccessToken()
			if u := s.session.User(); u != nil {
				body.UserID = u.ID
			}
		}
		body.TenantID = s.session.TenantID()
	}

	res, err := api.Post[Redirect](ctx, s.client, PathSession, body, opts)
	if err != nil {
		return nil, errors.Wrap(err, "[checkout.Create]")
	}
	if res.Data == nil || res.Data.URL == "" {
		return nil, ierrors.ErrInvalidResponse
	}
	return res.Data, nil
}

// Get polls a payment session by id.
func (s *Service) Get(ctx context.Context, sessionID string) (*PaymentSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.Wrap(ierrors.ErrInvalidInput, "session id is required")
	}
	res, err := api.Get[PaymentSession](ctx, s.client, PathSession+"/"+url.PathEscape(sessionID), api.RequestOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "[checkout.Get]")
	}
	if res.Data == nil {
		return nil, ierrors.ErrNotFound
	}
	return res.Data, nil
}
