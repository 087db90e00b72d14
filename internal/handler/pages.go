// Package handler contains the HTTP handlers: server-rendered pages for
// browsers and the JSON API mirror.
//
// Handlers parse the request, call a service, and translate the result
// into a page, a redirect with a flash message, or JSON. Business rules
// live in internal/service.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/session"
)

// Page template names.
const (
	pageIndex    = "index.html"
	pageParks    = "parks.html"
	pageLogin    = "login.html"
	pageParkForm = "park_form.html"
	pageChat     = "chat.html"
)

// Renderer holds one parsed template set per page. Every page is parsed
// together with layout.html so it can fill the "content" block.
type Renderer struct {
	pages    map[string]*template.Template
	sessions *session.Manager
	logger   *slog.Logger
}

// NewRenderer parses the templates found in fsys under templates/.
func NewRenderer(fsys fs.FS, sessions *session.Manager, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"yesNo": model.YesNo,
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{pageIndex, pageParks, pageLogin, pageParkForm, pageChat} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages, sessions: sessions, logger: logger}, nil
}

// pageData is what every template receives. Pages ignore the fields they
// don't use.
type pageData struct {
	Title    string
	LoggedIn bool
	Flashes  []model.Flash

	Form   url.Values
	Errors form.Errors

	Parks      []model.Park
	Transcript []model.ChatTurn

	// park form
	Action       string
	Editing      bool
	RatingFields []ratingField
	Ratings      []int

	GitHubEnabled bool
}

type ratingField struct {
	Name  string
	Label string
}

var ratingFields = []ratingField{
	{"playground_condition", "Playground condition"},
	{"playground_variety", "Playground variety"},
	{"security", "Security"},
	{"tree_coverage", "Tree coverage"},
}

func ratingScale() []int {
	scale := make([]int, 0, model.MaxRating-model.MinRating+1)
	for n := model.MinRating; n <= model.MaxRating; n++ {
		scale = append(scale, n)
	}
	return scale
}

// render executes page into a buffer first so a template error can still
// become a clean 500. Pending flashes are consumed and the session saved.
func (rd *Renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown page template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess := session.FromContext(r.Context())
	data.LoggedIn = sess.Authenticated()
	if sess != nil {
		if data.Flashes = sess.PopFlashes(); len(data.Flashes) > 0 {
			rd.save(r, sess)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// flashRedirect queues a flash message and redirects with 303 See Other.
func (rd *Renderer) flashRedirect(w http.ResponseWriter, r *http.Request, category, message, to string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.AddFlash(category, message)
		rd.save(r, sess)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (rd *Renderer) save(r *http.Request, sess *model.Session) {
	if err := rd.sessions.Save(r.Context(), sess); err != nil {
		rd.logger.Error("failed to save session", slog.String("error", err.Error()))
	}
}
