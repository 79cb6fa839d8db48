package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weft/internal/driver"
	"weft/internal/observ"
	"weft/internal/typeorder"
)

// runAnalysis resolves the shared flags and performs one analysis run.
func runAnalysis(cmd *cobra.Command, path string) (*driver.Result, *observ.Timer, error) {
	systemName, err := cmd.Root().PersistentFlags().GetString("system")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get system flag: %w", err)
	}
	system, err := typeorder.ParseTypeSystem(systemName)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noCache, err := cmd.Root().PersistentFlags().GetBool("no-cache")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get timings flag: %w", err)
	}

	opts := driver.Options{System: system, Jobs: jobs}
	if !noCache {
		cache, err := driver.OpenDiskCache("weft")
		if err == nil {
			opts.Cache = cache
		}
		// A cache that cannot be opened just means recomputation.
	}
	if timings {
		opts.Timer = observ.NewTimer()
	}

	res, err := driver.Analyze(path, opts)
	if err != nil {
		return nil, nil, err
	}
	return res, opts.Timer, nil
}
