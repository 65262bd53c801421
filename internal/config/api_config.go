package config

import (
	"strings"
	"time"
)

const (
	apiBaseURLVar = "STOREFRONT_API_BASE_URL"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPIPrefix() string
	GetTenantID() string
	GetTenantHeader() string
	GetRequestTimeout() time.Duration
}

type API struct {
	BaseURL        string        `env:"STOREFRONT_API_BASE_URL"`
	Prefix         string        `env:"STOREFRONT_API_PREFIX" envDefault:"/api/v1"`
	TenantID       string        `env:"STOREFRONT_TENANT_ID"`
	TenantHeader   string        `env:"STOREFRONT_TENANT_HEADER" envDefault:"X-Tenant-Id"`
	RequestTimeout time.Duration `env:"STOREFRONT_REQUEST_TIMEOUT" envDefault:"15s"`
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the backend base URL without a trailing slash.
func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
}

func (a API) GetAPIPrefix() string {
	return a.Prefix
}

// GetTenantID returns the statically configured tenant, or "" when the tenant
// must be resolved from the tenant list.
func (a API) GetTenantID() string {
	return strings.TrimSpace(a.TenantID)
}

func (a API) GetTenantHeader() string {
	return a.TenantHeader
}

func (a API) GetRequestTimeout() time.Duration {
	return a.RequestTimeout
}
