package assets

type Config struct {
	// File name of the esbuild metafile, written to the output directory
	MetafileName string
	// File name of the generated HTML document
	IndexName string
	// Whether to write manifest.json with output checksums
	Manifest bool
	// Whether to write .gz and .zst copies of text outputs
	Compress bool
	// Environment passed to the type checker process, nil inherits ours
	Environ []string
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		MetafileName: "meta.json",
		IndexName:    "index.html",
		Manifest:     true,
		Compress:     false,
	}
}
