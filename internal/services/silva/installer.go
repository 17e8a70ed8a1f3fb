// Package silva installs the versioned SILVA reference datasets the
// preprocessing stage aligns against: the seed alignment archive and the
// companion gold-standard bacteria set. Installation is idempotent by
// presence of the extracted directories.
package silva

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"seqmart/internal/config"
	"seqmart/internal/fileutil"
	"seqmart/internal/logging"
	"seqmart/internal/services"
)

// Option configures the installer.
type Option func(*Installer)

// WithHTTPClient injects a custom HTTP client (primarily for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(i *Installer) {
		if client != nil {
			i.client = client
		}
	}
}

// Installer downloads and extracts the reference archives.
type Installer struct {
	client  *http.Client
	dataDir string
	version string
	seedURL string
	goldURL string
	logger  *slog.Logger
}

// New constructs an installer for the configured reference release.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Installer {
	inst := &Installer{
		client:  http.DefaultClient,
		dataDir: cfg.Paths.DataDir,
		version: cfg.Silva.Version,
		seedURL: cfg.SeedArchiveURL(),
		goldURL: cfg.Silva.GoldURL,
		logger:  logging.NewComponentLogger(logger, "silva"),
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// SeedDir is where the seed alignment archive extracts to.
func (i *Installer) SeedDir() string {
	return filepath.Join(i.dataDir, "silva.seed_v"+i.version)
}

// SeedAlignment is the alignment file the preprocessing script references.
func (i *Installer) SeedAlignment() string {
	return filepath.Join(i.SeedDir(), "silva.seed_v"+i.version+".align")
}

// GoldDir is where the gold-standard bacteria set extracts to.
func (i *Installer) GoldDir() string {
	return filepath.Join(i.dataDir, "silva.gold.bacteria")
}

// Install ensures both reference datasets are present locally, downloading
// and extracting whichever directory is missing.
func (i *Installer) Install(ctx context.Context) error {
	if fileutil.Exists(i.SeedDir()) && fileutil.Exists(i.GoldDir()) {
		i.logger.Info("reference datasets already installed",
			logging.String("seed", i.SeedDir()),
			logging.String("gold", i.GoldDir()))
		return nil
	}

	if !fileutil.Exists(i.SeedDir()) {
		i.logger.Info("installing seed alignment",
			logging.String("version", i.version),
			logging.String("url", i.seedURL))
		if err := i.installSeed(ctx); err != nil {
			return services.Wrap(services.ErrExternalTool, "reference", "install seed", i.seedURL, err)
		}
	}
	if !fileutil.Exists(i.GoldDir()) {
		i.logger.Info("installing gold bacteria set", logging.String("url", i.goldURL))
		if err := i.installGold(ctx); err != nil {
			return services.Wrap(services.ErrExternalTool, "reference", "install gold", i.goldURL, err)
		}
	}
	return nil
}

func (i *Installer) installSeed(ctx context.Context) error {
	body, err := i.download(ctx, i.seedURL)
	if err != nil {
		return err
	}
	defer body.Close()
	return extractTarGz(body, i.SeedDir())
}

func (i *Installer) installGold(ctx context.Context) error {
	body, err := i.download(ctx, i.goldURL)
	if err != nil {
		return err
	}
	defer body.Close()

	// archive/zip needs random access; spool to a temp file first.
	tmp, err := os.CreateTemp(i.dataDir, "silva-gold-*.zip")
	if err != nil {
		return fmt.Errorf("create spool file: %w", err)
	}
	defer func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, body)
	if err != nil {
		return fmt.Errorf("spool archive: %w", err)
	}
	return extractZip(tmp, size, i.GoldDir())
}

func (i *Installer) download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}
		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, reader); err != nil {
				return err
			}
		}
	}
	return nil
}

func extractZip(r io.ReaderAt, size int64, dest string) error {
	reader, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}
	for _, file := range reader.File {
		target, err := safeJoin(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			continue
		}
		entry, err := file.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", file.Name, err)
		}
		err = writeEntry(target, entry)
		entry.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.Clean(name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	return out.Close()
}
