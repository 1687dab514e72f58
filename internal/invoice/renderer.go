package invoice

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"strings"

	"quote-service/internal/domain"
)

const (
	TemplateVATInvoice = "vat_invoice"
	TemplateQuote      = "quote"

	templateExt = ".html.tmpl"
)

//go:embed templates/*.html.tmpl
var embedded embed.FS

// Renderer executes named HTML templates against a Document. Templates are
// read on every call so edits in an override directory apply without restart.
type Renderer struct {
	fsys fs.FS
}

// NewRenderer serves templates from dir when set, falling back to the built-in
// templates for ids the directory does not provide.
func NewRenderer(dir string) *Renderer {
	builtin, _ := fs.Sub(embedded, "templates")
	if dir == "" {
		return &Renderer{fsys: builtin}
	}
	return &Renderer{fsys: layeredFS{os.DirFS(dir), builtin}}
}

// NewRendererFS serves templates from fsys only.
func NewRendererFS(fsys fs.FS) *Renderer {
	return &Renderer{fsys: fsys}
}

// Render executes template id with doc.
func (r *Renderer) Render(doc Document, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return "", fmt.Errorf("%w: invalid template id %q", domain.ErrTemplate, id)
	}
	src, err := fs.ReadFile(r.fsys, id+templateExt)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrTemplate, id, err)
	}
	tmpl, err := template.New(id).Funcs(funcs).Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %v", domain.ErrTemplate, id, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("%w: execute %s: %v", domain.ErrTemplate, id, err)
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	"join": strings.Join,
}

type layeredFS []fs.FS

func (l layeredFS) Open(name string) (fs.File, error) {
	var firstErr error
	for _, f := range l {
		file, err := f.Open(name)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
