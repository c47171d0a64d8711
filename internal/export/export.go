// Package export builds a downloadable zip of the workspace tree. The
// sidecar's own infrastructure (its service directory, proxy config, boot
// scripts) is stripped out, and compose.yaml is rewritten so the exported
// project stands alone.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/shipable/workspaced/internal/config"
)

// Exporter writes workspace archives.
type Exporter struct {
	root          string
	excludedDirs  map[string]bool
	excludedFiles map[string]bool
	dropServices  []string
	log           zerolog.Logger
}

// NewExporter creates an Exporter. Search exclusions and export-specific
// exclusions are combined: anything hidden from search has no place in an
// exported project either.
func NewExporter(cfg *config.Config, log zerolog.Logger) *Exporter {
	if cfg == nil {
		panic("config is required")
	}

	dirs := make(map[string]bool)
	for _, d := range cfg.Search.ExcludedDirs {
		dirs[d] = true
	}
	for _, d := range cfg.Workspace.ExportExcludedDirs {
		dirs[d] = true
	}

	files := make(map[string]bool)
	for _, f := range cfg.Search.ExcludedFiles {
		files[f] = true
	}
	for _, f := range cfg.Workspace.ExportExcludedFiles {
		files[f] = true
	}

	return &Exporter{
		root:          cfg.Workspace.Root,
		excludedDirs:  dirs,
		excludedFiles: files,
		dropServices:  cfg.Workspace.ExportDropServices,
		log:           log,
	}
}

// Filename returns the timestamped archive name for a download started now.
func (e *Exporter) Filename(now time.Time) string {
	return "workspace-" + now.Format("2006-01-02-15-04-05") + ".zip"
}

// WriteZip streams the archive to w. compose.yaml files are rewritten with
// the orchestration services removed; everything else is copied as-is.
func (e *Exporter) WriteZip(w io.Writer) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != e.root && e.excludeDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if e.excludedFiles[name] {
			return nil
		}
		// Non-regular files (sockets, device nodes) cannot be archived.
		if !d.Type().IsRegular() {
			return nil
		}

		arcname, err := filepath.Rel(e.root, path)
		if err != nil {
			return err
		}

		if name == "compose.yaml" {
			return e.addCompose(zw, path, arcname)
		}
		return e.addFile(zw, path, arcname)
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("walk workspace: %w", err)
	}
	return zw.Close()
}

func (e *Exporter) excludeDir(name string) bool {
	if e.excludedDirs[name] {
		return true
	}
	// ".*" in the exclusion set means any dot-directory.
	return e.excludedDirs[".*"] && strings.HasPrefix(name, ".")
}

func (e *Exporter) addFile(zw *zip.Writer, path, arcname string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dst, err := zw.Create(arcname)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, f)
	return err
}

func (e *Exporter) addCompose(zw *zip.Writer, path, arcname string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rewritten, err := dropComposeServices(data, e.dropServices)
	if err != nil {
		// An unparsable compose file is exported untouched rather than
		// blocking the whole archive.
		e.log.Warn().Err(err).Str("path", path).Msg("could not rewrite compose file")
		rewritten = data
	}

	dst, err := zw.Create(arcname)
	if err != nil {
		return err
	}
	_, err = dst.Write(rewritten)
	return err
}

// dropComposeServices removes the named entries from the top-level services
// mapping. The document is edited as a yaml.Node tree so key order and the
// rest of the file survive the round trip.
func dropComposeServices(data []byte, services []string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return data, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value != "services" {
				continue
			}
			pruneMappingKeys(root.Content[i+1], services)
			break
		}
	}

	var out strings.Builder
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return []byte(out.String()), nil
}

func pruneMappingKeys(node *yaml.Node, keys []string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	kept := node.Content[:0]
	for i := 0; i+1 < len(node.Content); i += 2 {
		if slices.Contains(keys, node.Content[i].Value) {
			continue
		}
		kept = append(kept, node.Content[i], node.Content[i+1])
	}
	node.Content = kept
}
