// Package preflight runs the environment checks performed before a pipeline
// run: external binary availability, directory access, and free disk space.
package preflight

import (
	"fmt"

	"golang.org/x/sys/unix"

	"seqmart/internal/config"
	"seqmart/internal/deps"
)

// Result is the outcome of one preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the disk headroom required under the data directory.
// FASTQ extraction for a single run can need tens of gigabytes.
const minFreeBytes = 10 << 30

// Run executes every preflight check for the configuration.
func Run(cfg *config.Config) []Result {
	results := make([]Result, 0, 8)

	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		} else if status.Optional {
			result.Passed = true
			result.Detail = status.Detail + " (optional)"
		}
		results = append(results, result)
	}

	results = append(results, CheckDirectory("data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectory("cache directory", cfg.Paths.CacheDir))
	results = append(results, CheckDiskSpace(cfg.Paths.DataDir, minFreeBytes))
	return results
}

// CheckDirectory verifies the directory exists and is fully accessible.
func CheckDirectory(name, path string) Result {
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s: %v", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDiskSpace verifies at least min bytes are free on path's filesystem.
func CheckDiskSpace(path string, min uint64) Result {
	const name = "disk space"
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs %s: %v", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%.1f GiB free at %s", float64(free)/(1<<30), path)
	if free < min {
		return Result{Name: name, Detail: detail + fmt.Sprintf(" (need %.0f GiB)", float64(min)/(1<<30))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}
