package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// ManifestPrefix prefixes every manifest blob name.
	ManifestPrefix = "MANIFEST-"

	// IndexDir holds the index blobs.
	IndexDir = "indexes/"

	// FormatVersion is the version of the manifest format.
	FormatVersion = 1
)

// Manifest describes one saved index version.
type Manifest struct {
	FormatVersion int               `json:"format_version" yaml:"format_version"`
	ID            uint64            `json:"id" yaml:"id"`
	BuildID       string            `json:"build_id" yaml:"build_id"`
	CreatedAt     time.Time         `json:"created_at" yaml:"created_at"`
	Codec         string            `json:"codec" yaml:"codec"`
	Compression   string            `json:"compression" yaml:"compression"`
	IndexPath     string            `json:"index_path" yaml:"index_path"`
	IndexSize     int64             `json:"index_size" yaml:"index_size"`
	Checksum      uint32            `json:"checksum" yaml:"checksum"`
	Entries       int               `json:"entries" yaml:"entries"`
	QuantileGap   int               `json:"quantile_gap" yaml:"quantile_gap"`
	MaxDepth      int               `json:"max_depth" yaml:"max_depth"`
	Categorical   []string          `json:"filter_features" yaml:"filter_features"`
	Numeric       []string          `json:"bucket_features" yaml:"bucket_features"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Labels        map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

// Meta is caller-provided manifest metadata.
type Meta struct {
	Description string
	Labels      map[string]string
}

func manifestName(id uint64) string {
	return fmt.Sprintf("%s%06d.json", ManifestPrefix, id)
}

func indexName(id uint64) string {
	return fmt.Sprintf("%sIDX-%06d.qbi", IndexDir, id)
}

// parseManifestName extracts the version ID from a manifest blob name.
func parseManifestName(name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, ManifestPrefix)
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".json")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
