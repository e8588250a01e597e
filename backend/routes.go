package backend

// REST endpoint paths exposed by the MathCode backend.
const (
	RouteLogin          = "/api/users/login"
	RouteRegister       = "/api/users/register"
	RouteMe             = "/api/users/me"
	RouteLogout         = "/api/users/logout"
	RouteGoogleInit     = "/api/users/auth/google/init"
	RouteGoogleComplete = "/api/users/auth/google/complete"
	RouteForgotPassword = "/api/users/forgot-password"
	RouteResetPassword  = "/api/users/reset-password"

	RoutePackages  = "/api/packages/"
	RouteSessions  = "/api/sessions/"
	RouteBilling   = "/api/billing/"
	RouteInquiries = "/api/inquiries"
)
