// Package resolver turns a magnet reference into playable stream URLs.
//
// A Resolver drives one reference through the debrid service: it reuses the
// job a previous pass recorded, or any job with the same info-hash, and
// submits a new one only when neither exists. It then polls the job on a
// fixed cadence for a bounded number of attempts and unrestricts the
// finished links. Every poll is written to a ProgressRecorder so the next
// pass can see that a job is already in flight. Exhausting the attempts is a
// deferral, not a failure.
package resolver
