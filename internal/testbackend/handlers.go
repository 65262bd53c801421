package testbackend

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jrsteele09/storefront-client/users"
)

type channel int

const (
	channelPhone channel = iota
	channelEmail
)

type otpRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	TenantID    string `json:"tenantId"`
}

func (o otpRequest) contact(c channel) string {
	if c == channelEmail {
		return strings.ToLower(strings.TrimSpace(o.Email))
	}
	return o.CountryCode + o.Phone
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func (b *Backend) TenantListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := b.tenants.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		writeJSON(w, http.StatusOK, "OK", list)
	}
}

func (b *Backend) SendOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if !decode(r, &req) || (req.Phone == "" && req.Email == "") {
			writeError(w, http.StatusBadRequest, "Validation failed", []map[string]string{
				{"path": "body.phone", "message": "Phone or email is required"},
			})
			return
		}
		writeJSON(w, http.StatusOK, "OTP sent", nil)
	}
}

func (b *Backend) VerifyOTPHandler(c channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req otpRequest
		if !decode(r, &req) {
			writeError(w, http.StatusBadRequest, "Invalid body", nil)
			return
		}
		if req.OTP != b.otp {
			writeError(w, http.StatusBadRequest, "Invalid OTP", []map[string]string{
				{"path": "body.otp", "message": "Invalid or expired code"},
			})
			return
		}

		contact := req.contact(c)
		b.lock.Lock()
		defer b.lock.Unlock()

		userID, known := b.contacts[contact]
		if !known {
			regToken := "reg_" + uuid.NewString()
			b.registrations[regToken] = contact
			writeJSON(w, http.StatusOK, "OK", map[string]any{
				"isNewUser":         true,
				"registrationToken": regToken,
			})
			return
		}

		access, refresh := b.issue(userID)
		writeJSON(w, http.StatusOK, "OK", map[string]any{
			"isNewUser":    false,
			"accessToken":  access,
			"refreshToken": refresh,
			"user":         b.users[userID],
		})
	}
}

func (b *Backend) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.Registration
		if !decode(r, &req) {
			writeError(w, http.StatusBadRequest, "Invalid body", nil)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "Validation failed", []map[string]string{
				{"path": "body.name", "message": "Name is required"},
			})
			return
		}

		b.lock.Lock()
		defer b.lock.Unlock()

		contact, ok := b.registrations[req.RegistrationToken]
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid registration token", nil)
			return
		}
		delete(b.registrations, req.RegistrationToken)

		u := &users.User{
			ID:             uuid.NewString(),
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			CountryCode:    req.CountryCode,
			Gender:         req.Gender,
			DOB:            req.DOB,
			HeightCm:       req.HeightCm,
			WeightKg:       req.WeightKg,
			TargetWeightKg: req.TargetWeightKg,
			Goal:           req.Goal,
			ActivityLevel:  req.ActivityLevel,
			DietPreference: req.DietPreference,
			Allergies:      req.Allergies,
			Conditions:     req.Conditions,
		}
		b.users[u.ID] = u
		b.contacts[contact] = u.ID

		access, refresh := b.issue(u.ID)
		writeJSON(w, http.StatusCreated, "Registered", map[string]any{
			"accessToken":  access,
			"refreshToken": refresh,
			"user":         u,
		})
	}
}

// RefreshHandler rotates the pair. The presented refresh token stops working;
// its access token stays live until it expires or ExpireAccessTokens is called.
func (b *Backend) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if !decode(r, &req) || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "refreshToken is required", nil)
			return
		}

		b.lock.Lock()
		defer b.lock.Unlock()

		pair, ok := b.refreshTokens[req.RefreshToken]
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token", nil)
			return
		}
		delete(b.refreshTokens, req.RefreshToken)

		access, refresh := b.issue(pair.userID)
		writeJSON(w, http.StatusOK, "OK", map[string]string{
			"accessToken":  access,
			"refreshToken": refresh,
		})
	}
}

func (b *Backend) ProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value(userIDKey).(string)
		b.lock.Lock()
		u, ok := b.users[userID]
		b.lock.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, "OK", u)
	}
}

func (b *Backend) PlansHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		plans := b.plans
		b.lock.Unlock()
		if plans == nil {
			writeJSON(w, http.StatusOK, "OK", []any{})
			return
		}
		writeJSON(w, http.StatusOK, "OK", plans)
	}
}

func (b *Backend) MenuHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		menu := b.menu
		b.lock.Unlock()
		writeJSON(w, http.StatusOK, "OK", menu)
	}
}

func (b *Backend) CreateCheckoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TemplateID  string `json:"templateId"`
			Amount      int64  `json:"amount"`
			Currency    string `json:"currency"`
			ProductName string `json:"productName"`
			SuccessURL  string `json:"successUrl"`
			CancelURL   string `json:"cancelUrl"`
		}
		if !decode(r, &req) {
			writeError(w, http.StatusBadRequest, "Invalid body", nil)
			return
		}
		var fieldErrors []map[string]string
		if req.TemplateID == "" {
			fieldErrors = append(fieldErrors, map[string]string{"path": "body.templateId", "message": "Template is required"})
		}
		if req.Amount <= 0 {
			fieldErrors = append(fieldErrors, map[string]string{"path": "body.amount", "message": "Amount must be positive"})
		}
		if len(fieldErrors) > 0 {
			writeError(w, http.StatusBadRequest, "Validation failed", fieldErrors)
			return
		}
		// A bearer token, when sent, must be live.
		if r.Header.Get("Authorization") != "" {
			if _, ok := b.bearerUser(r); !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
		}

		s := &checkoutSession{
			ID:            checkoutSessionTag + uuid.NewString(),
			OrderID:       "ord_" + uuid.NewString(),
			Amount:        req.Amount,
			Currency:      req.Currency,
			PaymentStatus: "unpaid",
			Status:        "open",
		}
		b.lock.Lock()
		b.sessions[s.ID] = s
		b.lock.Unlock()

		writeJSON(w, http.StatusOK, "OK", map[string]string{
			"url":     checkoutURLPrefix + s.ID,
			"orderId": s.OrderID,
		})
	}
}

func (b *Backend) GetCheckoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.lock.Lock()
		s, ok := b.sessions[id]
		var data map[string]any
		if ok {
			data = map[string]any{
				"id":             s.ID,
				"payment_status": s.PaymentStatus,
				"status":         s.Status,
				"metadata":       map[string]string{"orderId": s.OrderID},
				"amount_total":   s.Amount,
				"currency":       s.Currency,
			}
		}
		b.lock.Unlock()

		if !ok {
			writeError(w, http.StatusNotFound, "Session not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, "OK", data)
	}
}
