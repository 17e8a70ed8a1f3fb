// Package deps reports the availability of the external binaries the
// pipeline delegates to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"seqmart/internal/config"
)

// Requirement defines an external dependency seqmart relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the external tools for the configured pipeline.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "SRA prefetch", Command: cfg.PrefetchBinary(), Description: "downloads .sra archives from NCBI"},
		{Name: "SRA validate", Command: cfg.ValidateBinary(), Description: "verifies prefetched archives"},
		{Name: "FASTQ dump", Command: cfg.DumpBinary(), Description: "extracts FASTQ files from .sra archives"},
		{Name: "mothur", Command: cfg.MothurBinary(), Description: "quality filtering, merging, and preprocessing"},
		{Name: "Rscript", Command: cfg.RscriptBinary(), Description: "phyloseq plotting", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
