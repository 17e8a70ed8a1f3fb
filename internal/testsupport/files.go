package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"seqmart/internal/dataset"
)

// WriteFile creates path with the given content, making parent directories
// as needed.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFastq drops a minimal FASTQ read into path.
func WriteFastq(t testing.TB, path string) {
	t.Helper()
	WriteFile(t, path, "@read1\nACGTACGT\n+\nIIIIIIII\n")
}

// WriteSampleSheet writes a sample sheet CSV with the given samples and
// returns its path.
func WriteSampleSheet(t testing.TB, path string, samples ...dataset.Sample) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("sra,layout,primer_f,primer_r,trimmed,min_length,max_length\n")
	for _, s := range samples {
		trimmed := "false"
		if s.Trimmed {
			trimmed = "true"
		}
		sb.WriteString(strings.Join([]string{
			s.Run, string(s.Layout), s.PrimerF, s.PrimerR, trimmed,
			strconv.Itoa(s.MinLength), strconv.Itoa(s.MaxLength),
		}, ","))
		sb.WriteString("\n")
	}
	WriteFile(t, path, sb.String())
	return path
}
