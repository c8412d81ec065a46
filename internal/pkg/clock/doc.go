// Package clock provides a tiny time abstraction.
//
// Expiry windows and rate-limit windows are computed from a Clocker instead of
// time.Now so they can be driven deterministically with Fixed in tests.
package clock
