package entity

import "strings"

// RouteClass is how the page gate treats a path.
type RouteClass int

const (
	// RoutePublic needs nothing.
	RoutePublic RouteClass = iota
	// RouteVerifyStep is the PIN entry page. It needs a session.
	RouteVerifyStep
	// RouteAccount needs a session with a verified second factor.
	RouteAccount
	// RouteAdmin needs a session with the admin role and address.
	RouteAdmin
	// RouteGuestAuth covers sign-in pages that verified sessions skip.
	RouteGuestAuth
)

func (c RouteClass) String() string {
	switch c {
	case RouteVerifyStep:
		return "VerifyStep"
	case RouteAccount:
		return "Account"
	case RouteAdmin:
		return "Admin"
	case RouteGuestAuth:
		return "GuestAuth"
	default:
		return "Public"
	}
}

// Routes are the page prefixes and redirect targets used by the gate.
type Routes struct {
	Home       string
	Account    string
	Admin      string
	AdminLogin string
	Auth       string
	Login      string
	VerifyStep string
}

func DefaultRoutes() Routes {
	return Routes{
		Home:       "/",
		Account:    "/account",
		Admin:      "/admin",
		AdminLogin: "/admin/login",
		Auth:       "/auth",
		Login:      "/auth/login",
		VerifyStep: "/auth/2fa",
	}
}

// Classify maps a request path to its route class. The admin sign-in page
// is public and the verification step wins over the wider auth prefix.
func (r Routes) Classify(path string) RouteClass {
	switch {
	case under(path, r.AdminLogin):
		return RoutePublic
	case under(path, r.Admin):
		return RouteAdmin
	case under(path, r.Account):
		return RouteAccount
	case under(path, r.VerifyStep):
		return RouteVerifyStep
	case under(path, r.Auth):
		return RouteGuestAuth
	default:
		return RoutePublic
	}
}

// under reports whether path is prefix itself or nested below it, so
// "/accounting" is not treated as "/account".
func under(path, prefix string) bool {
	if prefix == "" || prefix == "/" {
		return false
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
