// Package main hosts the pitlane CLI entrypoint and command graph.
//
// The Cobra command tree runs single ingestion passes, the cron daemon,
// catalog and ledger inspection, and configuration scaffolding. Wiring of
// the feed, debrid, resolver, store, and pipeline packages lives here so
// subcommands stay declarative.
package main
