package bundler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is written to the output directory after every build.
const ManifestFile = "manifest.json"

// Manifest records what a build emitted.
type Manifest struct {
	BuildID     string           `json:"buildId"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Mode        string           `json:"mode"`
	Chunks      map[string]Chunk `json:"chunks"`
	Assets      []string         `json:"assets,omitempty"`
	Pages       []string         `json:"pages,omitempty"`
	Bytes       int64            `json:"bytes"`
	Cleaned     int              `json:"cleaned,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// Chunk lists the files of one entry chunk, relative to the output
// directory.
type Chunk struct {
	Scripts []string `json:"scripts"`
	Styles  []string `json:"styles,omitempty"`
}

// Files returns the number of files the build wrote, the manifest excluded.
func (m *Manifest) Files() int {
	n := len(m.Assets) + len(m.Pages)
	for _, c := range m.Chunks {
		n += len(c.Scripts) + len(c.Styles)
	}
	return n
}

// ReadManifest loads the manifest from an output directory.
func ReadManifest(outdir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outdir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	return &m, nil
}

func writeManifest(outdir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(outdir, ManifestFile), data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
