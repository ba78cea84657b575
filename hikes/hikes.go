package hikes

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/pupjourney/pupjourney-go/auth"
	"github.com/pupjourney/pupjourney-go/models"
	"github.com/pupjourney/pupjourney-go/render"
)

type Hikes struct {
	DB     *gorm.DB
	render *render.Render
	auth   *auth.Auth

	hikes     *models.HikeStore
	comments  *models.CommentStore
	pets      *models.PetStore
	checkIns  *models.CheckInStore
	bookmarks *models.BookmarksListStore
}

func New(db *gorm.DB, r *render.Render, a *auth.Auth) *Hikes {
	return &Hikes{
		DB:        db,
		render:    r,
		auth:      a,
		hikes:     models.NewHikeStore(db),
		comments:  models.NewCommentStore(db),
		pets:      models.NewPetStore(db),
		checkIns:  models.NewCheckInStore(db),
		bookmarks: models.NewBookmarksListStore(db),
	}
}

func (c *Hikes) Register(r chi.Router) {
	r.Get("/hikes", c.ListHandler)
	r.Get("/hikes/search", c.SearchHandler)
	r.Get("/hikes/{hikeID:[0-9]+}", c.ViewHandler)
	r.Post("/hikes/{hikeID:[0-9]+}/comments", c.CommentHandler)
	r.Post("/edit-comment", c.EditCommentHandler)
	r.Post("/delete-comment", c.DeleteCommentHandler)
}

func (c *Hikes) ListHandler(w http.ResponseWriter, r *http.Request) {
	hikes, err := c.hikes.All()
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	options, err := c.hikes.FilterOptions()
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	context := render.Context{
		"hikes":   hikes,
		"options": options,
	}

	c.render.Template(w, r, "all_hikes.html", context)
}

func (c *Hikes) SearchHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	search := models.HikeSearch{
		Keyword:    params.Get("keyword"),
		Difficulty: params.Get("difficulty"),
		LeashRule:  params.Get("leash_rule"),
		Area:       params.Get("area"),
		City:       params.Get("city"),
		State:      params.Get("state"),
		Parking:    params.Get("parking"),
	}

	for param, target := range map[string]**float64{
		"length_min": &search.MinLength,
		"length_max": &search.MaxLength,
	} {
		value := params.Get(param)
		if value == "" {
			continue
		}
		length, err := strconv.ParseFloat(value, 64)
		if err != nil {
			c.render.Error(w, r, errors.Wrapf(err, "invalid %s", param))
			return
		}
		*target = &length
	}

	hikes, err := c.hikes.Search(search)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	options, err := c.hikes.FilterOptions()
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	context := render.Context{
		"hikes":   hikes,
		"options": options,
		"search":  search,
	}

	c.render.Template(w, r, "all_hikes.html", context)
}

func (c *Hikes) ViewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "hikeID"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}

	hike, found, err := c.hikes.ByID(uint(id))
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if !found {
		c.render.NotFound(w, r)
		return
	}

	comments, err := c.comments.ByHike(hike.ID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	context := render.Context{
		"hike":      hike,
		"resources": hike.SplitResources(),
		"comments":  comments,
	}

	if user, ok := auth.CurrentUser(r.Context()); ok {
		pets, err := c.pets.ByUser(user.ID)
		if err != nil {
			c.render.Error(w, r, err)
			return
		}

		checkIns, err := c.checkIns.ByUserAndHike(user.ID, hike.ID)
		if err != nil {
			c.render.Error(w, r, err)
			return
		}

		lists, err := c.bookmarks.ByUser(user.ID)
		if err != nil {
			c.render.Error(w, r, err)
			return
		}

		listsWithHike, err := c.bookmarks.ByUserAndHike(user.ID, hike.ID)
		if err != nil {
			c.render.Error(w, r, err)
			return
		}

		context["pets"] = pets
		context["check_ins"] = checkIns
		context["bookmarks_lists"] = lists
		context["bookmarks_lists_with_hike"] = listsWithHike
	}

	c.render.Template(w, r, "hike_details.html", context)
}

func (c *Hikes) CommentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to add a comment.")
	if !ok {
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "hikeID"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}

	hike, found, err := c.hikes.ByID(uint(id))
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if !found {
		c.render.NotFound(w, r)
		return
	}

	comment := models.Comment{
		HikeID: hike.ID,
		UserID: user.ID,
		Body:   r.FormValue("body"),
	}

	if err := c.comments.Create(&comment); err != nil {
		if _, ok := errors.Cause(err).(govalidator.Errors); ok {
			if err := c.render.AddFlash(w, r, render.FlashError("Please enter a comment.")); err != nil {
				c.render.Error(w, r, err)
				return
			}
			http.Redirect(w, r, fmt.Sprintf("/hikes/%d", hike.ID), http.StatusFound)
			return
		}
		c.render.Error(w, r, err)
		return
	}

	if err := c.render.AddFlash(w, r, render.FlashInfo("Your comment has been added.")); err != nil {
		c.render.Error(w, r, err)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/hikes/%d", hike.ID), http.StatusFound)
}

func (c *Hikes) EditCommentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to edit a comment.")
	if !ok {
		return
	}

	id, err := strconv.Atoi(r.FormValue("edit"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}

	comment, found, err := c.comments.ByID(uint(id))
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if !found {
		c.render.NotFound(w, r)
		return
	}
	if comment.UserID != user.ID {
		c.render.Forbidden(w, r)
		return
	}

	now := time.Now()
	comment.Body = r.FormValue("body")
	comment.Edited = true
	comment.EditedAt = &now

	if err := c.comments.Save(&comment); err != nil {
		if _, ok := errors.Cause(err).(govalidator.Errors); ok {
			if err := c.render.AddFlash(w, r, render.FlashError("Please enter a comment.")); err != nil {
				c.render.Error(w, r, err)
				return
			}
			render.RedirectBack(w, r)
			return
		}
		c.render.Error(w, r, err)
		return
	}

	if err := c.render.AddFlash(w, r, render.FlashInfo("Your comment has been updated.")); err != nil {
		c.render.Error(w, r, err)
		return
	}

	render.RedirectBack(w, r)
}

func (c *Hikes) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to delete a comment.")
	if !ok {
		return
	}

	id, err := strconv.Atoi(r.FormValue("delete"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}

	comment, found, err := c.comments.ByID(uint(id))
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if !found {
		c.render.NotFound(w, r)
		return
	}
	if comment.UserID != user.ID {
		c.render.Forbidden(w, r)
		return
	}

	if err := c.comments.Delete(&comment); err != nil {
		c.render.Error(w, r, err)
		return
	}

	if err := c.render.AddFlash(w, r, render.FlashInfo("Success! Your comment has been deleted.")); err != nil {
		c.render.Error(w, r, err)
		return
	}

	render.RedirectBack(w, r)
}
