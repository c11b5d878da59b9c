package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"campusBooker/internal/session"

	"github.com/gorilla/csrf"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	PageHome     = "home"
	PageLogin    = "login"
	PageRegister = "register"
	PageBooking  = "booking"
)

var pageNames = []string{PageHome, PageLogin, PageRegister, PageBooking}

// Page is the data every template receives. User and CSRFField are filled in
// by Render from the request.
type Page struct {
	Title     string
	User      string
	Flash     *session.Flash
	Form      map[string]string
	CSRFField template.HTML
}

type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	const op = "views.New"

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tpl, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("%s: parse %s: %w", op, name, err)
		}
		pages[name] = tpl
	}

	return &Renderer{pages: pages}, nil
}

// Render executes the named page into a buffer first so a template error never
// leaves a half-written response.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, page Page) error {
	const op = "views.Render"

	tpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("%s: unknown page %q", op, name)
	}

	if username, ok := session.UserFromContext(r.Context()); ok {
		page.User = username
	}
	page.CSRFField = csrf.TemplateField(r)

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("%s: execute %s: %w", op, name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)

	return err
}

// Static serves the embedded assets; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
