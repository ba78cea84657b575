package render

import (
	"bytes"
	"io"
	"net/http"

	"github.com/flosch/pongo2"
	"github.com/gobuffalo/packr"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SessionName is the cookie session shared by flashes and login state.
const SessionName = "pupjourney"

type Context map[string]interface{}

// ContextFunc can inject values into every rendered context.
type ContextFunc func(r *http.Request, ctx Context)

type boxLoader struct {
	boxes []packr.Box
}

func (l *boxLoader) Abs(base, name string) string {
	return name
}

func (l *boxLoader) Get(path string) (io.Reader, error) {
	for _, box := range l.boxes {
		if box.Has(path) {
			return bytes.NewReader(box.Bytes(path)), nil
		}
	}
	return nil, errors.Errorf("template %s not found", path)
}

type Render struct {
	store        sessions.Store
	log          *logrus.Logger
	loader       *boxLoader
	set          *pongo2.TemplateSet
	contextFuncs []ContextFunc
}

func New(store sessions.Store, log *logrus.Logger, isProd bool) *Render {
	loader := &boxLoader{}
	set := pongo2.NewSet("pupjourney", loader)
	set.Debug = !isProd

	return &Render{
		store:  store,
		log:    log,
		loader: loader,
		set:    set,
	}
}

func (render *Render) AddTemplates(box packr.Box) {
	render.loader.boxes = append(render.loader.boxes, box)
}

func (render *Render) AddContextFunc(f ContextFunc) {
	render.contextFuncs = append(render.contextFuncs, f)
}

func (render *Render) AddFlash(w http.ResponseWriter, r *http.Request, flash Flash) error {
	session, err := render.store.Get(r, SessionName)
	if err != nil {
		return errors.Wrap(err, "could not get session")
	}
	session.AddFlash(flash)
	return errors.Wrap(session.Save(r, w), "could not save session")
}

func (render *Render) flashes(w http.ResponseWriter, r *http.Request) []Flash {
	session, err := render.store.Get(r, SessionName)
	if err != nil {
		return nil
	}

	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	// Flashes() consumes the messages, persist the removal.
	if err := session.Save(r, w); err != nil {
		render.log.WithError(err).Error("could not save session after reading flashes")
	}

	flashes := make([]Flash, 0, len(raw))
	for _, item := range raw {
		if flash, ok := item.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}

func (render *Render) Template(w http.ResponseWriter, r *http.Request, name string, ctx Context) {
	if ctx == nil {
		ctx = Context{}
	}
	for _, f := range render.contextFuncs {
		f(r, ctx)
	}
	ctx["flashes"] = render.flashes(w, r)

	template, err := render.set.FromCache(name)
	if err != nil {
		render.Error(w, r, errors.Wrapf(err, "could not load template %s", name))
		return
	}

	if err := template.ExecuteWriter(pongo2.Context(ctx), w); err != nil {
		render.log.WithError(err).Errorf("could not execute template %s", name)
	}
}

func (render *Render) Error(w http.ResponseWriter, r *http.Request, err error) {
	render.log.WithError(err).Errorf("error handling %s %s", r.Method, r.URL.Path)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (render *Render) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Not Found", http.StatusNotFound)
}

func (render *Render) Forbidden(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// RedirectBack redirects to the referring page, falling back to the
// homepage when the request has no referer.
func RedirectBack(w http.ResponseWriter, r *http.Request) {
	to := r.Referer()
	if to == "" {
		to = "/"
	}
	http.Redirect(w, r, to, http.StatusFound)
}
