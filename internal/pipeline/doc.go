// Package pipeline runs ingestion passes: it pages through the feed, groups
// posts by event, stops early once the newest event is complete, and drives
// each post through the parser, the resolver, and the store.
//
// Passes are serialized in-process with a mutex and across processes with a
// file lock in the data directory.
package pipeline
