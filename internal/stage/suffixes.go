package stage

import "seqmart/internal/dataset"

// Suffixes names the fixed filename suffixes the filtering tool appends to
// the chosen prefix. They differ between the paired and single command
// branches of the filter script.
type Suffixes struct {
	Fasta   string
	Group   string
	Summary string
}

var filterSuffixes = map[dataset.Layout]Suffixes{
	dataset.LayoutPaired: {
		Fasta:   ".trim.contigs.trim.good.fasta",
		Group:   ".contigs.good.groups",
		Summary: ".trim.contigs.trim.good.summary",
	},
	dataset.LayoutSingle: {
		Fasta:   ".trim.good.fasta",
		Group:   ".good.group",
		Summary: ".trim.good.summary",
	},
}

// FilterSuffixes returns the expected output suffixes for a layout.
func FilterSuffixes(layout dataset.Layout) (Suffixes, bool) {
	s, ok := filterSuffixes[layout]
	return s, ok
}
