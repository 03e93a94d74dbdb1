package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	manifestFileName    = ".localize-manifest.json"
	manifestFileVersion = 1
)

// buildManifest records what the last build wrote.
type buildManifest struct {
	Version     int              `json:"version"`
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Outputs     []manifestOutput `json:"outputs"`
}

type manifestOutput struct {
	ID         string `json:"id"`
	Page       string `json:"page,omitempty"`
	Locale     string `json:"locale,omitempty"`
	Output     string `json:"output"`
	Category   string `json:"category"`
	Checksum   string `json:"checksum"`
	Size       int64  `json:"size"`
	Unresolved int    `json:"unresolved,omitempty"`
}

func newBuildManifest(runID uuid.UUID, generatedAt time.Time) *buildManifest {
	return &buildManifest{
		Version:     manifestFileVersion,
		RunID:       runID.String(),
		GeneratedAt: generatedAt.UTC(),
	}
}

func (m *buildManifest) add(entry manifestOutput) {
	m.Outputs = append(m.Outputs, entry)
}

// checksum returns the recorded checksum for output, or "" when unknown.
func (m *buildManifest) checksum(output string) string {
	if m == nil {
		return ""
	}
	for _, entry := range m.Outputs {
		if entry.Output == output {
			return entry.Checksum
		}
	}
	return ""
}

func (m *buildManifest) marshal() ([]byte, error) {
	ordered := *m
	ordered.Outputs = append([]manifestOutput(nil), m.Outputs...)
	sort.SliceStable(ordered.Outputs, func(i, j int) bool {
		return ordered.Outputs[i].Output < ordered.Outputs[j].Output
	})
	data, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func parseManifest(data []byte) (*buildManifest, error) {
	var manifest buildManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("render: parse manifest: %w", err)
	}
	if manifest.Version == 0 {
		manifest.Version = manifestFileVersion
	}
	return &manifest, nil
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
