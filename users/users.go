package users

import (
	"strings"

	"github.com/jrsteele09/storefront-client/internal/utils"
)

// User is the customer profile returned by the backend. It is only ever
// populated from a server response.
type User struct {
	ID             string   `json:"_id"`
	Name           string   `json:"name,omitempty"`
	Email          string   `json:"email,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	CountryCode    string   `json:"countryCode,omitempty"`
	Gender         string   `json:"gender,omitempty"`
	DOB            string   `json:"dob,omitempty"` // ISO date, YYYY-MM-DD
	HeightCm       *float64 `json:"heightCm,omitempty"`
	WeightKg       *float64 `json:"weightKg,omitempty"`
	TargetWeightKg *float64 `json:"targetWeightKg,omitempty"`
	Goal           string   `json:"goal,omitempty"`
	ActivityLevel  string   `json:"activityLevel,omitempty"`
	DietPreference string   `json:"dietPreference,omitempty"`
	Allergies      []string `json:"allergies,omitempty"`
	Conditions     []string `json:"conditions,omitempty"`
}

// Registration is the profile a first-time user submits together with the
// registration token issued by OTP verification.
type Registration struct {
	RegistrationToken string   `json:"registrationToken"`
	Name              string   `json:"name"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	CountryCode       string   `json:"countryCode,omitempty"`
	Gender            string   `json:"gender,omitempty"`
	DOB               string   `json:"dob,omitempty"`
	HeightCm          *float64 `json:"heightCm,omitempty"`
	WeightKg          *float64 `json:"weightKg,omitempty"`
	TargetWeightKg    *float64 `json:"targetWeightKg,omitempty"`
	Goal              string   `json:"goal,omitempty"`
	ActivityLevel     string   `json:"activityLevel,omitempty"`
	DietPreference    string   `json:"dietPreference,omitempty"`
	Allergies         []string `json:"allergies,omitempty"`
	Conditions        []string `json:"conditions,omitempty"`
	TenantID          string   `json:"tenantId,omitempty"`
}

// DisplayName is the name shown for the user, falling back to email then phone.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	phone := ""
	if u.Phone != "" {
		phone = strings.TrimSpace(u.CountryCode + " " + u.Phone)
	}
	return utils.FirstNonEmpty(strings.TrimSpace(u.Name), u.Email, phone, u.ID)
}

// FirstName returns the first word of Name.
func (u *User) FirstName() string {
	if u == nil {
		return ""
	}
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// LastName returns everything in Name after the first word.
func (u *User) LastName() string {
	if u == nil {
		return ""
	}
	fields := strings.Fields(u.Name)
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

// Clone returns a deep copy so callers can't mutate shared session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.HeightCm = utils.CopyPtr(u.HeightCm)
	c.WeightKg = utils.CopyPtr(u.WeightKg)
	c.TargetWeightKg = utils.CopyPtr(u.TargetWeightKg)
	if u.Allergies != nil {
		c.Allergies = append([]string(nil), u.Allergies...)
	}
	if u.Conditions != nil {
		c.Conditions = append([]string(nil), u.Conditions...)
	}
	return &c
}
