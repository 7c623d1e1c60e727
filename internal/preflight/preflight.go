package preflight

import (
	"context"

	"winelens/internal/config"
	"winelens/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional results never fail the overall run.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckSnapshot(cfg.IndexSnapshotPath()),
	}
	if cfg.Search.Enabled {
		results = append(results, CheckSearch(ctx, cfg))
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   depDetail(status),
			Optional: status.Optional,
		})
	}
	return results
}

// Failed reports whether any required check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}

func depDetail(status deps.Status) string {
	if status.Available {
		return status.Command + " found"
	}
	if status.Detail != "" {
		return status.Detail + " (" + status.Description + ")"
	}
	return status.Description
}
