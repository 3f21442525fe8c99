// Package debrid is a small client for the Real-Debrid REST API.
//
// It covers the calls needed to turn a magnet reference into direct links:
// listing and inspecting torrents, adding a magnet, selecting its files, and
// unrestricting hoster links. Requests are paced by a token-bucket limiter
// configured in requests per minute.
package debrid
