// Package clock provides a tiny time abstraction.
//
// Business code depends on Clocker instead of calling time.Now directly, so
// expiry and lockout windows can be driven by a Manual clock in tests.
package clock
