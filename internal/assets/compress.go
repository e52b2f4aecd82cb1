package assets

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// minCompressSize skips files too small to benefit from compression.
const minCompressSize = 1024

var compressible = map[string]bool{
	".js":   true,
	".css":  true,
	".html": true,
	".svg":  true,
	".json": true,
	".map":  true,
}

// compressOutputs writes .gz and .zst siblings next to every compressible
// output so a static file server can hand out precompressed responses.
func compressOutputs(files []outputFile) error {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create encoder: %w", err)
	}
	defer enc.Close()

	for _, f := range files {
		if !compressible[filepath.Ext(f.Path)] || len(f.Contents) < minCompressSize {
			continue
		}

		gz, err := gzipBytes(f.Contents)
		if err != nil {
			return fmt.Errorf("failed to gzip %s: %w", f.Path, err)
		}

		if err := writeSibling(f.Path+".gz", gz); err != nil {
			return err
		}
		if err := writeSibling(f.Path+".zst", enc.EncodeAll(f.Contents, nil)); err != nil {
			return err
		}

		log.Debug().
			Str("file", f.Path).
			Int("size", len(f.Contents)).
			Int("gzip", len(gz)).
			Msg("Compressed output")
	}

	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSibling(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec
}

// encodings are tried in order of preference.
var encodings = []struct {
	ext      string
	encoding string
}{
	{ext: ".zst", encoding: "zstd"},
	{ext: ".gz", encoding: "gzip"},
}

// servePrecompressed serves the .zst or .gz sibling of name when one exists
// and the client accepts its encoding.
func servePrecompressed(w http.ResponseWriter, r *http.Request, name string) bool {
	accept := r.Header.Get("Accept-Encoding")

	for _, enc := range encodings {
		if !acceptsEncoding(accept, enc.encoding) {
			continue
		}

		f, err := os.Open(name + enc.ext)
		if err != nil {
			continue
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			continue
		}

		ctype := mime.TypeByExtension(filepath.Ext(name))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Content-Encoding", enc.encoding)
		w.Header().Add("Vary", "Accept-Encoding")
		http.ServeContent(w, r, filepath.Base(name), info.ModTime(), f)
		f.Close()
		return true
	}

	return false
}

func acceptsEncoding(header, encoding string) bool {
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(name), encoding) {
			continue
		}
		q := strings.ReplaceAll(params, " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}
