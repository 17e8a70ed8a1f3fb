package silva

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"seqmart/internal/config"
	"seqmart/internal/logging"
)

func seedArchive(t *testing.T, version string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	content := []byte(">ref\nACGT\n")
	if err := tw.WriteHeader(&tar.Header{
		Name:     "silva.seed_v" + version + ".align",
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(content)),
	}); err != nil {
		t.Fatalf("write tar header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("write tar body: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

func goldArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create("silva.gold.align")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := entry.Write([]byte(">gold\nACGT\n")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func testConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Silva.SeedURL = serverURL + "/silva.seed_v{version}.tgz"
	cfg.Silva.GoldURL = serverURL + "/silva.gold.bacteria.zip"
	return &cfg
}

func TestInstallExtractsBothArchives(t *testing.T) {
	var seedHits, goldHits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/silva.seed_v138.tgz":
			seedHits++
			w.Write(seedArchive(t, "138"))
		case "/silva.gold.bacteria.zip":
			goldHits++
			w.Write(goldArchive(t))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	inst := New(cfg, logging.NewNop(), WithHTTPClient(server.Client()))

	if err := inst.Install(t.Context()); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if seedHits != 1 || goldHits != 1 {
		t.Fatalf("expected one download each, got seed=%d gold=%d", seedHits, goldHits)
	}
	if _, err := os.Stat(inst.SeedAlignment()); err != nil {
		t.Fatalf("seed alignment missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(inst.GoldDir(), "silva.gold.align")); err != nil {
		t.Fatalf("gold alignment missing: %v", err)
	}

	// A second install must not download again.
	if err := inst.Install(t.Context()); err != nil {
		t.Fatalf("Install() second run error: %v", err)
	}
	if seedHits != 1 || goldHits != 1 {
		t.Fatalf("idempotent install re-downloaded: seed=%d gold=%d", seedHits, goldHits)
	}
}

func TestInstallOnlyFetchesMissingDataset(t *testing.T) {
	var goldHits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/silva.gold.bacteria.zip" {
			t.Errorf("unexpected request %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		goldHits++
		w.Write(goldArchive(t))
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	inst := New(cfg, logging.NewNop(), WithHTTPClient(server.Client()))
	if err := os.MkdirAll(inst.SeedDir(), 0o755); err != nil {
		t.Fatalf("mkdir seed: %v", err)
	}

	if err := inst.Install(t.Context()); err != nil {
		t.Fatalf("Install() error: %v", err)
	}
	if goldHits != 1 {
		t.Fatalf("expected one gold download, got %d", goldHits)
	}
}

func TestInstallReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	inst := New(cfg, logging.NewNop(), WithHTTPClient(server.Client()))
	if err := inst.Install(t.Context()); err == nil {
		t.Fatal("expected error for missing archive")
	}
}

func TestSafeJoinRejectsEscape(t *testing.T) {
	if _, err := safeJoin("/data/ref", "../outside"); err == nil {
		t.Fatal("expected traversal rejection")
	}
	if _, err := safeJoin("/data/ref", "inner/file.align"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
}
