// Package feed reads one author's submitted posts from a Reddit-style
// listing API.
//
// Client.ListPage fetches a single page keyed by an opaque cursor. Requests
// carry a bearer token from Credentials, which caches a password-grant token
// until shortly before it expires. A 401 surfaces as ErrUnauthorized so the
// caller can refresh once and retry the same page.
package feed
