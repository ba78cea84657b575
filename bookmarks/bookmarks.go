package bookmarks

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/pupjourney/pupjourney-go/auth"
	"github.com/pupjourney/pupjourney-go/models"
	"github.com/pupjourney/pupjourney-go/render"
)

type Bookmarks struct {
	DB     *gorm.DB
	render *render.Render
	auth   *auth.Auth

	lists *models.BookmarksListStore
	hikes *models.HikeStore
}

func New(db *gorm.DB, r *render.Render, a *auth.Auth) *Bookmarks {
	return &Bookmarks{
		DB:     db,
		render: r,
		auth:   a,
		lists:  models.NewBookmarksListStore(db),
		hikes:  models.NewHikeStore(db),
	}
}

func (c *Bookmarks) Register(r chi.Router) {
	r.Get("/bookmarks", c.ListHandler)
	r.Post("/add-bookmarks-list", c.AddListHandler)
	r.Post("/edit-bookmarks-list", c.EditListHandler)
	r.Post("/delete-bookmarks-list", c.DeleteListHandler)
	r.Post("/add-hike", c.AddHikeHandler)
	r.Post("/remove-hike", c.RemoveHikeHandler)
}

type listView struct {
	List  models.BookmarksList
	Hikes []models.Hike
}

func (c *Bookmarks) ListHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to view your bookmarks.")
	if !ok {
		return
	}

	lists, err := c.lists.ByUser(user.ID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	views := make([]listView, 0, len(lists))
	for _, list := range lists {
		hikes, err := c.lists.HikesInList(list.ID)
		if err != nil {
			c.render.Error(w, r, err)
			return
		}
		views = append(views, listView{List: list, Hikes: hikes})
	}

	context := render.Context{
		"bookmarks_lists": views,
	}

	c.render.Template(w, r, "all_bookmarks.html", context)
}

// nameTaken reports whether any user already has a list with the name.
// List names are unique across the whole store.
func (c *Bookmarks) nameTaken(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	_, found, err := c.lists.ByName(name)
	if err != nil {
		c.render.Error(w, r, err)
		return false, false
	}
	return found, true
}

func (c *Bookmarks) AddListHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to add a bookmarks list.")
	if !ok {
		return
	}

	name := r.FormValue("bookmarks_list_name")

	taken, ok := c.nameTaken(w, r, name)
	if !ok {
		return
	}
	if taken {
		c.flashAndRedirect(w, r, render.FlashError("A bookmarks list with that name already exists."), "/bookmarks")
		return
	}

	list := models.BookmarksList{
		Name:   name,
		UserID: user.ID,
	}
	if err := c.lists.Create(&list); err != nil {
		if _, ok := errors.Cause(err).(govalidator.Errors); ok {
			c.flashAndRedirect(w, r, render.FlashError("Please enter a name for your bookmarks list."), "/bookmarks")
			return
		}
		c.render.Error(w, r, err)
		return
	}

	c.flashAndRedirect(w, r, render.FlashInfo(fmt.Sprintf("Success! %s has been added to your bookmarks.", list.Name)), "/bookmarks")
}

// ownedList loads a list by form field and verifies ownership.
func (c *Bookmarks) ownedList(w http.ResponseWriter, r *http.Request, user models.User, field string) (models.BookmarksList, bool) {
	var list models.BookmarksList

	id, err := strconv.Atoi(r.FormValue(field))
	if err != nil {
		c.render.NotFound(w, r)
		return list, false
	}

	list, found, err := c.lists.ByID(uint(id))
	if err != nil {
		c.render.Error(w, r, err)
		return list, false
	}
	if !found {
		c.render.NotFound(w, r)
		return list, false
	}
	if list.UserID != user.ID {
		c.render.Forbidden(w, r)
		return list, false
	}

	return list, true
}

func (c *Bookmarks) EditListHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to edit a bookmarks list.")
	if !ok {
		return
	}

	list, ok := c.ownedList(w, r, user, "edit")
	if !ok {
		return
	}

	name := r.FormValue("bookmarks_list_name")
	if name == "" {
		c.flashAndRedirectBack(w, r, render.FlashError("Please enter a name for your bookmarks list."))
		return
	}
	if name != list.Name {
		taken, ok := c.nameTaken(w, r, name)
		if !ok {
			return
		}
		if taken {
			c.flashAndRedirectBack(w, r, render.FlashError("A bookmarks list with that name already exists."))
			return
		}
	}

	if err := c.lists.Rename(&list, name); err != nil {
		c.render.Error(w, r, err)
		return
	}

	c.flashAndRedirectBack(w, r, render.FlashInfo(fmt.Sprintf("Success! Your bookmarks list has been renamed to %s.", name)))
}

func (c *Bookmarks) DeleteListHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to delete a bookmarks list.")
	if !ok {
		return
	}

	list, ok := c.ownedList(w, r, user, "delete")
	if !ok {
		return
	}

	if err := c.lists.Delete(&list); err != nil {
		c.render.Error(w, r, err)
		return
	}

	c.flashAndRedirectBack(w, r, render.FlashInfo(fmt.Sprintf("Success! Your %s has been deleted.", list.Name)))
}

func (c *Bookmarks) AddHikeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to bookmark a hike.")
	if !ok {
		return
	}

	hikeID, err := strconv.Atoi(r.FormValue("hike_id"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}
	hike, found, err := c.hikes.ByID(uint(hikeID))
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if !found {
		c.render.NotFound(w, r)
		return
	}

	name := r.FormValue("bookmarks_list_name")
	if name == "" {
		c.flashAndRedirect(w, r, render.FlashError("Please enter a name for your bookmarks list."), fmt.Sprintf("/hikes/%d", hike.ID))
		return
	}

	// Link into the user's existing list with this name, or create a
	// new list seeded with the hike.
	list, found, err := c.lists.ByUserAndName(user.ID, name)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if !found {
		taken, ok := c.nameTaken(w, r, name)
		if !ok {
			return
		}
		if taken {
			c.flashAndRedirect(w, r, render.FlashError("A bookmarks list with that name already exists."), fmt.Sprintf("/hikes/%d", hike.ID))
			return
		}

		list = models.BookmarksList{
			Name:   name,
			UserID: user.ID,
		}
		if err := c.lists.Create(&list); err != nil {
			c.render.Error(w, r, err)
			return
		}
	}

	if err := c.lists.AddHike(list.ID, hike.ID); err != nil {
		c.render.Error(w, r, err)
		return
	}

	flash := render.FlashInfo(fmt.Sprintf("A bookmark to %s has been added to your %s bookmark list.", hike.Name, list.Name))
	c.flashAndRedirect(w, r, flash, fmt.Sprintf("/hikes/%d", hike.ID))
}

func (c *Bookmarks) RemoveHikeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to remove a hike from your bookmarks.")
	if !ok {
		return
	}

	hikeID, err := strconv.Atoi(r.FormValue("hike_id"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}
	hike, found, err := c.hikes.ByID(uint(hikeID))
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if !found {
		c.render.NotFound(w, r)
		return
	}

	list, ok := c.ownedList(w, r, user, "bookmarks_list_id")
	if !ok {
		return
	}

	if err := c.lists.RemoveHike(list.ID, hike.ID); err != nil {
		c.render.Error(w, r, err)
		return
	}

	c.flashAndRedirectBack(w, r, render.FlashInfo(fmt.Sprintf("Success! %s has been removed from %s.", hike.Name, list.Name)))
}

func (c *Bookmarks) flashAndRedirect(w http.ResponseWriter, r *http.Request, flash render.Flash, to string) {
	if err := c.render.AddFlash(w, r, flash); err != nil {
		c.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, to, http.StatusFound)
}

func (c *Bookmarks) flashAndRedirectBack(w http.ResponseWriter, r *http.Request, flash render.Flash) {
	if err := c.render.AddFlash(w, r, flash); err != nil {
		c.render.Error(w, r, err)
		return
	}
	render.RedirectBack(w, r)
}
