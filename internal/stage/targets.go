// Package stage holds the idempotence gate shared by every pipeline stage:
// a stage declares its output file set up front and is skipped when all of
// those files already exist. File presence is the sole completion signal —
// no checksums, timestamps, or version markers are consulted — which makes
// every stage safely re-runnable.
package stage

import (
	"path/filepath"
	"sort"

	"seqmart/internal/fileutil"
)

// TargetPathSet maps logical output roles to absolute file paths.
type TargetPathSet map[string]string

// Complete reports whether every declared path exists on disk. Partial
// presence counts as incomplete so an interrupted stage reruns in full.
func (t TargetPathSet) Complete() bool {
	if len(t) == 0 {
		return false
	}
	for _, path := range t {
		if !fileutil.Exists(path) {
			return false
		}
	}
	return true
}

// Missing returns the sorted roles whose paths do not exist yet.
func (t TargetPathSet) Missing() []string {
	var missing []string
	for role, path := range t {
		if !fileutil.Exists(path) {
			missing = append(missing, role)
		}
	}
	sort.Strings(missing)
	return missing
}

// Roles returns the sorted logical role names.
func (t TargetPathSet) Roles() []string {
	roles := make([]string, 0, len(t))
	for role := range t {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Filter output roles.
const (
	RoleFasta   = "fasta"
	RoleGroup   = "group"
	RoleSummary = "summary"
)

// FilterTargets declares the filtered output set for one run directory.
func FilterTargets(runDir string) TargetPathSet {
	return TargetPathSet{
		RoleFasta:   filepath.Join(runDir, "filtered.fasta"),
		RoleGroup:   filepath.Join(runDir, "filtered.group"),
		RoleSummary: filepath.Join(runDir, "filtered.summary"),
	}
}

// MergeTargets declares the batch-level merged output set.
func MergeTargets(dataDir string) TargetPathSet {
	return TargetPathSet{
		RoleFasta: filepath.Join(dataDir, "merged.fasta"),
		RoleGroup: filepath.Join(dataDir, "merged.group"),
	}
}

// Preprocess output roles.
const (
	RoleAlignment = "alignment"
	RoleCount     = "count"
)

// PreprocessTargets declares the screened alignment and count table the
// preprocessing stage leaves in its output directory.
func PreprocessTargets(outDir string) TargetPathSet {
	return TargetPathSet{
		RoleAlignment: filepath.Join(outDir, "merged.unique.good.align"),
		RoleCount:     filepath.Join(outDir, "merged.count_table"),
	}
}
