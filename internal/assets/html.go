package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/adminpack/internal/bundler"
)

// page is the data the HTML template is executed with.
type page struct {
	AdminPath string
	Backend   string
	Scripts   []string
	Preloads  []string
	Styles    []string
}

var templateFuncs = template.FuncMap{
	"marshal": marshal,
	"safe": func(s string) template.HTML {
		return template.HTML(s) //nolint:gosec
	},
}

// renderIndex executes the HTML template and, when inject is set, adds the
// entry's stylesheets, preloads and scripts.
func (p *Pipeline) renderIndex(descriptor bundler.Plugin) ([]byte, error) {
	templatePath, _ := descriptor.Options["template"].(string)
	inject, _ := descriptor.Options["inject"].(bool)

	p.mu.RLock()
	scripts, _, err := p.loadScripts(EntryPoint)
	styles := p.styles(EntryPoint)
	p.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	data := page{
		AdminPath: p.bundle.Admin.AdminPath,
		Backend:   p.bundle.Admin.Backend,
		Styles:    styles,
	}
	if len(scripts) > 0 {
		data.Scripts = scripts[:1]
		data.Preloads = scripts[1:]
	}

	tmpl, err := template.New(filepath.Base(templatePath)).Funcs(templateFuncs).ParseFiles(p.abs(templatePath))
	if err != nil {
		return nil, fmt.Errorf("failed to load html template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render html template: %w", err)
	}

	if !inject {
		return buf.Bytes(), nil
	}
	return []byte(injectTags(buf.String(), data)), nil
}

func injectTags(doc string, data page) string {
	var head, body strings.Builder
	for _, href := range data.Styles {
		fmt.Fprintf(&head, `<link rel="stylesheet" href="%s">`, template.HTMLEscapeString(href))
	}
	for _, href := range data.Preloads {
		fmt.Fprintf(&head, `<link rel="modulepreload" href="%s">`, template.HTMLEscapeString(href))
	}
	for _, src := range data.Scripts {
		fmt.Fprintf(&body, `<script type="module" src="%s"></script>`, template.HTMLEscapeString(src))
	}

	doc = insertBefore(doc, "</head>", head.String())
	return insertBefore(doc, "</body>", body.String())
}

// insertBefore inserts s before the last occurrence of marker, or appends it.
func insertBefore(doc, marker, s string) string {
	if s == "" {
		return doc
	}
	i := strings.LastIndex(strings.ToLower(doc), marker)
	if i < 0 {
		return doc + s
	}
	return doc[:i] + s + doc[i:]
}

func (p *Pipeline) writeIndex(descriptor bundler.Plugin) (string, error) {
	doc, err := p.renderIndex(descriptor)
	if err != nil {
		return "", err
	}

	path := filepath.Join(p.OutputDir(), p.config.IndexName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil { //nolint:gosec
		return "", err
	}
	return path, nil
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
