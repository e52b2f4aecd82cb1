package assets

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
)

const manifestName = "manifest.json"

// Manifest lists every file of a build with its checksum. Fingerprint
// changes whenever any file name or content changes.
type Manifest struct {
	Version     int            `json:"version"`
	Fingerprint string         `json:"fingerprint"`
	Files       []ManifestFile `json:"files"`
}

type ManifestFile struct {
	Path  string `json:"path"`
	Size  int    `json:"size"`
	CRC64 string `json:"crc64nvme"`
}

type outputFile struct {
	Path     string
	Contents []byte
}

func newManifest(outDir string, files []outputFile) (*Manifest, error) {
	m := &Manifest{Version: 1, Files: make([]ManifestFile, 0, len(files))}

	for _, f := range files {
		rel, err := filepath.Rel(outDir, f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to relativise %s: %w", f.Path, err)
		}

		h := crc64nvme.New()
		_, _ = h.Write(f.Contents)

		m.Files = append(m.Files, ManifestFile{
			Path:  filepath.ToSlash(rel),
			Size:  len(f.Contents),
			CRC64: fmt.Sprintf("%016x", h.Sum64()),
		})
	}

	sort.Slice(m.Files, func(i, j int) bool {
		return m.Files[i].Path < m.Files[j].Path
	})

	hash := sha256.New()
	for _, f := range m.Files {
		fmt.Fprintf(hash, "%s\x00%s\n", f.Path, f.CRC64)
	}
	m.Fingerprint = base58.Encode(hash.Sum(nil))

	return m, nil
}

func (m *Manifest) write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec
}
