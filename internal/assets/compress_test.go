package assets

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/adminpack/internal/bundler"
)

func TestCompressOutputs(t *testing.T) {
	dir := t.TempDir()
	large := []byte(strings.Repeat("export const value = 'admin';\n", 100))

	files := []outputFile{
		{Path: filepath.Join(dir, "main.js"), Contents: large},
		{Path: filepath.Join(dir, "tiny.js"), Contents: []byte("export {}")},
		{Path: filepath.Join(dir, "logo.png"), Contents: large},
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(f.Path, f.Contents, 0o600))
	}

	require.NoError(t, compressOutputs(files))

	gz, err := os.Open(filepath.Join(dir, "main.js.gz"))
	require.NoError(t, err)
	defer gz.Close()
	gr, err := gzip.NewReader(gz)
	require.NoError(t, err)
	got, err := io.ReadAll(gr)
	require.NoError(t, err)
	require.Equal(t, large, got)

	zst, err := os.ReadFile(filepath.Join(dir, "main.js.zst"))
	require.NoError(t, err)
	dec, err := zstd.NewReader(bytes.NewReader(zst))
	require.NoError(t, err)
	defer dec.Close()
	got, err = io.ReadAll(dec)
	require.NoError(t, err)
	require.Equal(t, large, got)

	for _, name := range []string{"tiny.js.gz", "tiny.js.zst", "logo.png.gz", "logo.png.zst"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.True(t, os.IsNotExist(err), "%s should not exist", name)
	}
}

func TestAcceptsEncoding(t *testing.T) {
	tests := []struct {
		header   string
		encoding string
		expected bool
	}{
		{header: "gzip, deflate, br, zstd", encoding: "zstd", expected: true},
		{header: "gzip, deflate, br", encoding: "zstd", expected: false},
		{header: "GZIP", encoding: "gzip", expected: true},
		{header: "gzip;q=0.5, zstd;q=0", encoding: "zstd", expected: false},
		{header: "gzip;q=0.5, zstd;q=0", encoding: "gzip", expected: true},
		{header: "", encoding: "gzip", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.header+"/"+tt.encoding, func(t *testing.T) {
			require.Equal(t, tt.expected, acceptsEncoding(tt.header, tt.encoding))
		})
	}
}

func TestHandler_Precompressed(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "build")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	large := []byte(strings.Repeat("export const value = 'admin';\n", 100))
	files := []outputFile{{Path: filepath.Join(outDir, "main.bundle.js"), Contents: large}}
	require.NoError(t, os.WriteFile(files[0].Path, large, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "index.html"), []byte("<html></html>"), 0o600))
	require.NoError(t, compressOutputs(files))

	p, err := New(DefaultConfig(), bundler.Config{
		Entry:  []string{"app.js"},
		AppDir: dir,
		Output: bundler.Output{Path: "build", PublicPath: "/admin/"},
	}, nil)
	require.NoError(t, err)
	handler := p.Handler()

	tests := []struct {
		name     string
		accept   string
		encoding string
	}{
		{name: "zstd preferred", accept: "gzip, zstd", encoding: "zstd"},
		{name: "gzip", accept: "gzip", encoding: "gzip"},
		{name: "identity", accept: "", encoding: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/main.bundle.js", nil)
			if tt.accept != "" {
				r.Header.Set("Accept-Encoding", tt.accept)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.encoding, w.Header().Get("Content-Encoding"))
			assert.Contains(t, w.Header().Get("Content-Type"), "javascript")

			body := w.Body.Bytes()
			switch tt.encoding {
			case "zstd":
				dec, err := zstd.NewReader(nil)
				require.NoError(t, err)
				defer dec.Close()
				body, err = dec.DecodeAll(body, nil)
				require.NoError(t, err)
			case "gzip":
				gr, err := gzip.NewReader(bytes.NewReader(body))
				require.NoError(t, err)
				body, err = io.ReadAll(gr)
				require.NoError(t, err)
			}
			require.Equal(t, large, body)
		})
	}
	t.Run("missing copy falls through", func(t *testing.T) {
		require.NoError(t, os.Remove(files[0].Path+".zst"))

		r := httptest.NewRequest(http.MethodGet, "/admin/main.bundle.js", nil)
		r.Header.Set("Accept-Encoding", "zstd, gzip")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	})
}
