package diag

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/renameio/v2"
	"golang.org/x/sync/errgroup"

	"medkit/internal/logging"
)

// Packager creates diagnostic ZIP packages
type Packager struct {
	config    *Config
	collector *Collector
	logger    *logging.Logger
}

// NewPackager creates a new diagnostic packager
func NewPackager(config *Config, versions VersionCollector, gpus GPUDetector, logger *logging.Logger) *Packager {
	return &Packager{
		config:    config,
		collector: NewCollector(config, versions, gpus, logger),
		logger:    logger,
	}
}

type section struct {
	name    string
	collect func() (map[string][]byte, error)
}

// CreatePackage collects every section and writes the ZIP atomically.
// A failing section is logged and left out; the package is still written.
func (p *Packager) CreatePackage(ctx context.Context) (string, error) {
	p.logger.Info("diag.package.start", "Creating diagnostic package", map[string]interface{}{
		"output": p.config.OutputPath,
	})

	sections := []section{
		{"versions", p.collector.CollectVersions},
		{"gpu", p.collector.CollectGPU},
		{"config", p.collector.CollectConfig},
		{"sysinfo", p.collector.CollectSystemInfo},
	}

	// One result slot per section; merged after Wait.
	results := make([]map[string][]byte, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sections {
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files, err := s.collect()
			if err != nil {
				p.logger.Error("diag.package."+s.name+"_error", "Failed to collect "+s.name, map[string]interface{}{
					"error": err.Error(),
				})
			}
			results[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("diagnostic collection aborted: %w", err)
	}

	allFiles := make(map[string][]byte)
	for _, files := range results {
		for path, content := range files {
			allFiles[path] = content
		}
	}

	manifestJSON, err := json.MarshalIndent(p.createManifest(allFiles), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	allFiles[manifestFile] = manifestJSON

	archive, err := buildZIP(allFiles)
	if err != nil {
		return "", fmt.Errorf("failed to create ZIP: %w", err)
	}

	if err := renameio.WriteFile(p.config.OutputPath, archive, 0o600); err != nil {
		return "", fmt.Errorf("failed to write package: %w", err)
	}

	p.logger.Info("diag.package.complete", "Diagnostic package created", map[string]interface{}{
		"output":     p.config.OutputPath,
		"file_count": len(allFiles),
	})

	return p.config.OutputPath, nil
}

// createManifest generates the diagnostic manifest, sorted by path
func (p *Packager) createManifest(files map[string][]byte) *Manifest {
	manifest := &Manifest{
		Timestamp:     p.collector.now().UTC().Format(time.RFC3339),
		Host:          hostname(),
		MedkitVersion: p.config.Version,
		Files:         make([]ManifestFile, 0, len(files)),
	}

	for _, path := range sortedKeys(files) {
		content := files[path]
		manifest.Files = append(manifest.Files, ManifestFile{
			Path:      path,
			SizeBytes: int64(len(content)),
			SHA256:    CalculateSHA256(content),
		})
	}

	return manifest
}

// buildZIP renders the archive in memory so the file on disk is replaced in one rename
func buildZIP(files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	for _, path := range sortedKeys(files) {
		writer, err := zipWriter.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", path, err)
		}
		if _, err := writer.Write(files[path]); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return buf.Bytes(), nil
}

func sortedKeys(files map[string][]byte) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
