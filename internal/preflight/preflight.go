// Package preflight runs environment checks before the worker starts:
// directory access, metadata provider reachability, and the verification
// endpoint when enabled. The doctor command prints the same results.
package preflight

import (
	"context"

	"shelver/internal/config"
)

// Result reports the outcome of a single check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check applicable to the given configuration.
// Provider checks only run for enabled providers.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, root := range cfg.Paths.LibraryRoots {
		results = append(results, CheckDirectoryAccess("Library root", root))
	}
	results = append(results, CheckDirectoryAccess("Database directory", cfg.Paths.DatabaseDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Audnexus.Enabled {
		results = append(results, CheckEndpoint(ctx, "Audnexus", cfg.Audnexus.BaseURL))
	}
	if cfg.OpenLibrary.Enabled {
		results = append(results, CheckEndpoint(ctx, "Open Library", cfg.OpenLibrary.BaseURL))
	}
	if cfg.GoogleBooks.Enabled {
		results = append(results, CheckEndpoint(ctx, "Google Books", cfg.GoogleBooks.BaseURL))
	}
	if cfg.Hardcover.Enabled {
		results = append(results, CheckEndpoint(ctx, "Hardcover", cfg.Hardcover.BaseURL))
	}
	if cfg.LLM.Enabled {
		results = append(results, CheckVerifier(ctx, cfg.GetLLM()))
	}

	return results
}

// AllPassed reports whether every result passed. An empty slice passes.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
