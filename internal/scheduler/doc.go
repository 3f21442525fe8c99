// Package scheduler runs named jobs on cron schedules. A job that is still
// running when its next tick arrives is skipped, so ingestion passes never
// overlap inside one daemon.
package scheduler
