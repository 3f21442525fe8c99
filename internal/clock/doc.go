// Package clock abstracts wall time so polling and pacing loops can be
// driven deterministically in tests.
//
// Production code takes a Clock and uses Real(); tests pass a Fake whose
// After channel fires immediately while advancing the fake time.
package clock
