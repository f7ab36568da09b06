package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"wework-hub/internal/domain"
	appmiddleware "wework-hub/middleware"
)

//go:embed templates
var templateFS embed.FS

// Page is the data every layout-based template receives.
type Page struct {
	Title       string
	CSRF        string
	User        *domain.User
	Routes      domain.Routes
	Notice      string
	Error       string
	FieldErrors map[string]string
	Values      map[string]string
	// Action is the form target for sign-in/up and profile pages.
	Action string
	Kind   domain.AccountKind
}

// Renderer renders the embedded HTML templates. Implements echo.Renderer.
type Renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// NewRenderer parses every page together with the shared layout. The
// loading page is standalone.
func NewRenderer() (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}

	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}

	loading, err := template.New("loading.html").ParseFS(templateFS, "templates/loading.html")
	if err != nil {
		return nil, fmt.Errorf("parse loading page: %w", err)
	}
	r.pages[appmiddleware.LoadingTemplate] = loading

	return r, nil
}

// Render executes the named page.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if name == appmiddleware.LoadingTemplate {
		return t.Execute(w, data)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
