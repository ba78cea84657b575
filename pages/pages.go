package pages

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jinzhu/gorm"

	"github.com/pupjourney/pupjourney-go/auth"
	"github.com/pupjourney/pupjourney-go/models"
	"github.com/pupjourney/pupjourney-go/render"
)

type Pages struct {
	DB     *gorm.DB
	render *render.Render
	auth   *auth.Auth

	pets      *models.PetStore
	checkIns  *models.CheckInStore
	bookmarks *models.BookmarksListStore
}

func New(db *gorm.DB, r *render.Render, a *auth.Auth) *Pages {
	return &Pages{
		DB:        db,
		render:    r,
		auth:      a,
		pets:      models.NewPetStore(db),
		checkIns:  models.NewCheckInStore(db),
		bookmarks: models.NewBookmarksListStore(db),
	}
}

func (c *Pages) Register(r chi.Router) {
	r.Get("/", c.HomeHandler)
	r.Get("/dashboard", c.DashboardHandler)
}

func (c *Pages) HomeHandler(w http.ResponseWriter, r *http.Request) {
	context := render.Context{}

	if user, ok := auth.CurrentUser(r.Context()); ok {
		pets, err := c.pets.ByUser(user.ID)
		if err != nil {
			c.render.Error(w, r, err)
			return
		}
		context["pets"] = pets
	}

	c.render.Template(w, r, "homepage.html", context)
}

func (c *Pages) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to view your dashboard.")
	if !ok {
		return
	}

	pets, err := c.pets.ByUser(user.ID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	checkIns, err := c.checkIns.ByUser(user.ID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	lists, err := c.bookmarks.ByUser(user.ID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	context := render.Context{
		"pets":            pets,
		"check_ins":       checkIns,
		"bookmarks_lists": lists,
	}

	c.render.Template(w, r, "dashboard.html", context)
}
