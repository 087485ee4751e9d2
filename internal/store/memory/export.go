package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/framemark/framemark/internal/model"
)

// SessionExport is the per-session JSON structure. The root document maps
// session names to these records.
type SessionExport struct {
	Points *model.PointsTable `json:"points"`
	Arrows *model.ArrowsTable `json:"arrows"`
}

// exportJSON writes all session tables to a date-stamped annotations
// file. Callers must hold the lock.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	filename := fmt.Sprintf("annotations-%s.json", time.Now().Format("02012006"))
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() map[string]SessionExport {
	export := make(map[string]SessionExport, len(b.sessions))
	for name, record := range b.sessions {
		export[name] = SessionExport{
			Points: record.Points,
			Arrows: record.Arrows,
		}
	}
	return export
}

func (b *Backend) writeJSON(path string, data map[string]SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "    ")
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data map[string]SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	encoder.SetIndent("", "    ")
	return encoder.Encode(data)
}
