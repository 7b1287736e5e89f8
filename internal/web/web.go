package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/eurobrokers/leadcapture/internal/domain"
)

//go:embed templates static
var files embed.FS

// Page names accepted by Render.
const (
	PageIndex     = "index.html"
	PageThanks    = "thanks.html"
	PageLogin     = "admin/login.html"
	PageDashboard = "admin/dashboard.html"
	PageLead      = "admin/lead.html"
)

var pages = []string{PageIndex, PageThanks, PageLogin, PageDashboard, PageLead}

// Agent is the contact shown on the public form.
type Agent struct {
	Name  string
	Title string
	Phone string
	Email string
	Photo string
}

var DefaultAgent = Agent{
	Name:  "Rostislav Kandel",
	Title: "Realitní makléř",
	Phone: "+420 777 224 185",
	Email: "rkandel@mmreality.cz",
	Photo: "/static/img/agent.svg",
}

type IndexPage struct {
	Agent Agent
}

type LoginPage struct {
	Error string
	Email string
}

type DashboardPage struct {
	Leads []domain.Lead
}

type LeadPage struct {
	Lead *domain.Lead
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"area": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2. 1. 2006 15:04")
	},
	"dash": func(s string) string {
		if s == "" {
			return "–"
		}
		return s
	},
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[p] = t
	}
	return r, nil
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(files, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
