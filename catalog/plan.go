package catalog

import "encoding/json"

// DefaultPlanID is the placeholder program offered to guests before any plan
// list is available. It never reaches the menu endpoint.
const DefaultPlanID = "default"

// Pricing maps a meal type to its prices in AED keyed by duration
// ("1 week", "2 weeks", ...).
type Pricing map[string]map[string]float64

// Plan is a subscription plan template from the catalog.
type Plan struct {
	ID        string          `json:"_id"`
	Title     string          `json:"title"`
	GoalType  string          `json:"goalType,omitempty"`
	DietType  string          `json:"dietType,omitempty"`
	Structure json.RawMessage `json:"structure,omitempty"`
	Pricing   Pricing         `json:"pricing,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
}

// Menu is the weekly menu for a plan. Items are passed through as the
// backend sends them.
type Menu struct {
	Recipes   []json.RawMessage `json:"recipes,omitempty"`
	Templates []json.RawMessage `json:"templates,omitempty"`
}

// Plans is an ordered plan list.
type Plans []Plan

// Find returns the plan with id, or nil.
func (p Plans) Find(id string) *Plan {
	for i := range p {
		if p[i].ID == id {
			return &p[i]
		}
	}
	return nil
}

// Label returns the title of the plan with id, or "".
func (p Plans) Label(id string) string {
	if plan := p.Find(id); plan != nil {
		return plan.Title
	}
	return ""
}

// Effective returns id when it names a real plan choice, otherwise the first
// plan in the list. Empty and placeholder ids fall through to the list.
func (p Plans) Effective(id string) string {
	if !IsPlaceholder(id) {
		return id
	}
	if len(p) > 0 {
		return p[0].ID
	}
	return ""
}

// IsPlaceholder reports whether id is empty or the guest placeholder.
func IsPlaceholder(id string) bool {
	return id == "" || id == DefaultPlanID
}

// Fallback is the single guest program. templateID is the configured default
// template, if any.
func Fallback(templateID string) Plans {
	if templateID == "" {
		templateID = DefaultPlanID
	}
	return Plans{{ID: templateID, Title: "Signature Program"}}
}
