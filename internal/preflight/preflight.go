package preflight

import (
	"context"

	"pitlane/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// RunLocal executes the checks that need no network access.
func RunLocal(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckCredentials(cfg),
		CheckDatabase(ctx, cfg),
	}
}

// RunAll executes the local checks followed by the remote service checks.
// Remote checks are skipped when credentials are missing.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := RunLocal(ctx, cfg)
	if cfg.ValidateCredentials() != nil {
		return results
	}
	results = append(results, CheckFeed(ctx, cfg.Feed))
	results = append(results, CheckDebrid(ctx, cfg.Debrid))
	return results
}
