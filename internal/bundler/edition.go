package bundler

import (
	"path/filepath"
	"regexp"
)

var editionSpecifierRegexp = regexp.MustCompile(`(['"])ee_else_ce/`)

// EditionRoot returns the absolute directory ee_else_ce imports resolve to
// for the configured edition.
func (c Config) EditionRoot() string {
	root := c.Roots.Root(c.Admin.Edition)
	if filepath.IsAbs(root) {
		return filepath.Clean(root)
	}
	return filepath.Join(c.AppDir, root)
}

// RewriteEditionImports replaces every quoted ee_else_ce/ specifier prefix in
// src with root.
func RewriteEditionImports(src []byte, root string) []byte {
	prefix := filepath.ToSlash(root) + "/"
	return editionSpecifierRegexp.ReplaceAllFunc(src, func(match []byte) []byte {
		return append([]byte{match[0]}, prefix...)
	})
}
