package tenants

// Tenant is a brand scope on the backend. Requests made on behalf of a tenant
// carry its ID in the tenant header.
type Tenant struct {
	ID     string `json:"_id"`
	Name   string `json:"name,omitempty"`
	Brand  string `json:"brand,omitempty"`
	Status string `json:"status,omitempty"`
}

// DisplayName prefers the brand over the tenant name.
func (t *Tenant) DisplayName() string {
	if t == nil {
		return ""
	}
	if t.Brand != "" {
		return t.Brand
	}
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
