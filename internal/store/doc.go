// Package store persists the stream catalog and the processed-post ledger in
// SQLite.
//
// Events, sessions and stream links form an ownership chain keyed by natural
// keys: saving an existing (name, round) or (event, session name) updates the
// row in place and returns the id it already had, so foreign keys held by
// dependent rows never dangle. Stream links are insert-or-ignore. Deleting an
// event cascades to its sessions and links; the ledger has no foreign key and
// is cleared explicitly.
//
// The ledger records every (post, quality) an ingest pass has touched along
// with resolver job progress, which is what lets repeated passes skip finished
// work and avoid resubmitting in-flight jobs.
//
// Schema changes bump the version in schema.go; users delete the database to
// adopt the new schema.
package store
