package testbackend

// Route patterns served by the backend. They double as keys for Hits,
// FailNext and LastRequest.
const (
	Prefix = "/api/v1"

	RouteTenantList     = "GET " + Prefix + "/tenant/list"
	RouteSendPhoneOTP   = "POST " + Prefix + "/auth/otp"
	RouteVerifyPhoneOTP = "PUT " + Prefix + "/auth/otp"
	RouteSendEmailOTP   = "POST " + Prefix + "/auth/email"
	RouteVerifyEmailOTP = "PUT " + Prefix + "/auth/email"
	RouteRegister       = "POST " + Prefix + "/auth/register"
	RouteRefresh        = "POST " + Prefix + "/auth/refresh"
	RouteProfile        = "GET " + Prefix + "/user/profile"
	RoutePlans          = "GET " + Prefix + "/menu/plans"
	RouteMenu           = "GET " + Prefix + "/menu/list"
	RouteCreateCheckout = "POST " + Prefix + "/checkout/session"
	RouteGetCheckout    = "GET " + Prefix + "/checkout/session/{id}"
)

const (
	TenantHeader = "X-Tenant-Id"

	defaultOTP         = "1234"
	checkoutURLPrefix  = "https://pay.example.test/c/"
	checkoutSessionTag = "cs_test_"
)

func (b *Backend) initRoutes() {
	b.RegisterRouteFunc(RouteTenantList, b.TenantListHandler())

	b.RegisterRouteFunc(RouteSendPhoneOTP, ChainMiddleware(b.SendOTPHandler(), b.requireTenant))
	b.RegisterRouteFunc(RouteVerifyPhoneOTP, ChainMiddleware(b.VerifyOTPHandler(channelPhone), b.requireTenant))
	b.RegisterRouteFunc(RouteSendEmailOTP, ChainMiddleware(b.SendOTPHandler(), b.requireTenant))
	b.RegisterRouteFunc(RouteVerifyEmailOTP, ChainMiddleware(b.VerifyOTPHandler(channelEmail), b.requireTenant))
	b.RegisterRouteFunc(RouteRegister, b.RegisterHandler())
	b.RegisterRouteFunc(RouteRefresh, b.RefreshHandler())

	b.RegisterRouteFunc(RouteProfile, ChainMiddleware(b.ProfileHandler(), b.requireBearer))
	b.RegisterRouteFunc(RoutePlans, ChainMiddleware(b.PlansHandler(), b.requireBearer))
	b.RegisterRouteFunc(RouteMenu, ChainMiddleware(b.MenuHandler(), b.requireBearer))

	b.RegisterRouteFunc(RouteCreateCheckout, b.CreateCheckoutHandler())
	b.RegisterRouteFunc(RouteGetCheckout, b.GetCheckoutHandler())
}
