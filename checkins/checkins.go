package checkins

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/jinzhu/gorm"
	jsoniter "github.com/json-iterator/go"

	"github.com/pupjourney/pupjourney-go/auth"
	"github.com/pupjourney/pupjourney-go/models"
	"github.com/pupjourney/pupjourney-go/render"
)

const dateFormat = "2006-01-02"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type CheckIns struct {
	DB     *gorm.DB
	render *render.Render
	auth   *auth.Auth

	checkIns *models.CheckInStore
	hikes    *models.HikeStore
	pets     *models.PetStore
}

func New(db *gorm.DB, r *render.Render, a *auth.Auth) *CheckIns {
	return &CheckIns{
		DB:       db,
		render:   r,
		auth:     a,
		checkIns: models.NewCheckInStore(db),
		hikes:    models.NewHikeStore(db),
		pets:     models.NewPetStore(db),
	}
}

func (c *CheckIns) Register(r chi.Router) {
	r.Post("/check-in", c.AddHandler)
	r.Post("/edit-check-in", c.EditHandler)
	r.Post("/delete-check-in", c.DeleteHandler)
	r.Get("/check-ins-by-user.json", c.ByUserJSONHandler)
	r.Get("/check-ins-by-pets.json", c.ByPetsJSONHandler)
}

// applyOptional fills the optional check-in fields from the form,
// leaving blank submissions untouched. Existing values can therefore
// not be cleared through edit.
func (c *CheckIns) applyOptional(w http.ResponseWriter, r *http.Request, checkIn *models.CheckIn) bool {
	for field, target := range map[string]**time.Time{
		"date_started":   &checkIn.DateStarted,
		"date_completed": &checkIn.DateCompleted,
	} {
		value := r.FormValue(field)
		if value == "" {
			continue
		}
		date, err := time.Parse(dateFormat, value)
		if err != nil {
			c.flashAndRedirectBack(w, r, render.FlashError("Please enter dates as YYYY-MM-DD."))
			return false
		}
		*target = &date
	}

	for field, target := range map[string]**float64{
		"miles_completed": &checkIn.MilesCompleted,
		"total_time":      &checkIn.TotalTime,
	} {
		value := r.FormValue(field)
		if value == "" {
			continue
		}
		number, err := strconv.ParseFloat(value, 64)
		if err != nil {
			c.flashAndRedirectBack(w, r, render.FlashError("Please enter miles and time as numbers."))
			return false
		}
		*target = &number
	}

	return true
}

func (c *CheckIns) AddHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to check in.")
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

	petID, err := strconv.Atoi(r.FormValue("pet_id"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}
	pet, found, err := c.pets.ByID(uint(petID))
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if !found {
		c.render.NotFound(w, r)
		return
	}
	if pet.UserID != user.ID {
		c.render.Forbidden(w, r)
		return
	}

	dateHiked, err := time.Parse(dateFormat, r.FormValue("date_hiked"))
	if err != nil {
		c.flashAndRedirectBack(w, r, render.FlashError("Please enter the hike date as YYYY-MM-DD."))
		return
	}

	checkIn := models.CheckIn{
		HikeID:    hike.ID,
		PetID:     pet.ID,
		DateHiked: dateHiked,
	}
	if !c.applyOptional(w, r, &checkIn) {
		return
	}

	if err := c.checkIns.Create(&checkIn); err != nil {
		c.render.Error(w, r, err)
		return
	}

	flash := render.FlashInfo(fmt.Sprintf("Success! %s has been checked into %s.", pet.Name, hike.Name))
	if err := c.render.AddFlash(w, r, flash); err != nil {
		c.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/hikes/%d", hike.ID), http.StatusFound)
}

// owned loads a check-in and verifies it belongs to one of the user's
// pets.
func (c *CheckIns) owned(w http.ResponseWriter, r *http.Request, user models.User, id uint) (models.CheckIn, bool) {
	checkIn, found, err := c.checkIns.ByID(id)
	if err != nil {
		c.render.Error(w, r, err)
		return checkIn, false
	}
	if !found {
		c.render.NotFound(w, r)
		return checkIn, false
	}

	pet, found, err := c.pets.ByID(checkIn.PetID)
	if err != nil {
		c.render.Error(w, r, err)
		return checkIn, false
	}
	if !found || pet.UserID != user.ID {
		c.render.Forbidden(w, r)
		return checkIn, false
	}

	return checkIn, true
}

func (c *CheckIns) EditHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to edit a check in.")
	if !ok {
		return
	}

	id, err := strconv.Atoi(r.FormValue("check_in_id"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}

	checkIn, ok := c.owned(w, r, user, uint(id))
	if !ok {
		return
	}

	if value := r.FormValue("date_hiked"); value != "" {
		dateHiked, err := time.Parse(dateFormat, value)
		if err != nil {
			c.flashAndRedirectBack(w, r, render.FlashError("Please enter the hike date as YYYY-MM-DD."))
			return
		}
		checkIn.DateHiked = dateHiked
	}
	if !c.applyOptional(w, r, &checkIn) {
		return
	}

	if err := c.checkIns.Save(&checkIn); err != nil {
		c.render.Error(w, r, err)
		return
	}

	c.flashAndRedirectBack(w, r, render.FlashInfo("Success! Your check in has been updated."))
}

func (c *CheckIns) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to delete a check in.")
	if !ok {
		return
	}

	id, err := strconv.Atoi(r.FormValue("delete"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}

	checkIn, ok := c.owned(w, r, user, uint(id))
	if !ok {
		return
	}

	hike, _, err := c.hikes.ByID(checkIn.HikeID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	pet, _, err := c.pets.ByID(checkIn.PetID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	if err := c.checkIns.Delete(&checkIn); err != nil {
		c.render.Error(w, r, err)
		return
	}

	flash := render.FlashInfo(fmt.Sprintf("Success! Check in at %s by %s has been deleted.", hike.Name, pet.Name))
	c.flashAndRedirectBack(w, r, flash)
}

type checkInJSON struct {
	CheckInID      uint       `json:"check_in_id"`
	HikeID         uint       `json:"hike_id"`
	HikeName       string     `json:"hike_name"`
	PetID          uint       `json:"pet_id"`
	PetName        string     `json:"pet_name"`
	DateHiked      time.Time  `json:"date_hiked"`
	DateStarted    *time.Time `json:"date_started"`
	DateCompleted  *time.Time `json:"date_completed"`
	MilesCompleted *float64   `json:"miles_completed"`
	TotalTime      *float64   `json:"total_time"`
}

func (c *CheckIns) ByUserJSONHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		c.render.Forbidden(w, r)
		return
	}

	checkIns, err := c.checkIns.ByUser(user.ID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	payload := make([]checkInJSON, 0, len(checkIns))
	for _, checkIn := range checkIns {
		payload = append(payload, checkInJSON{
			CheckInID:      checkIn.ID,
			HikeID:         checkIn.HikeID,
			HikeName:       checkIn.Hike.Name,
			PetID:          checkIn.PetID,
			PetName:        checkIn.Pet.Name,
			DateHiked:      checkIn.DateHiked,
			DateStarted:    checkIn.DateStarted,
			DateCompleted:  checkIn.DateCompleted,
			MilesCompleted: checkIn.MilesCompleted,
			TotalTime:      checkIn.TotalTime,
		})
	}

	c.writeJSON(w, r, payload)
}

type petTotalsJSON struct {
	PetID      uint    `json:"pet_id"`
	PetName    string  `json:"pet_name"`
	CheckIns   int     `json:"check_ins"`
	TotalMiles float64 `json:"total_miles"`
	TotalTime  float64 `json:"total_time"`
}

func (c *CheckIns) ByPetsJSONHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		c.render.Forbidden(w, r)
		return
	}

	pets, err := c.pets.ByUser(user.ID)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}

	payload := make([]petTotalsJSON, 0, len(pets))
	for _, pet := range pets {
		checkIns, err := c.checkIns.ByPet(pet.ID)
		if err != nil {
			c.render.Error(w, r, err)
			return
		}

		totals := petTotalsJSON{
			PetID:    pet.ID,
			PetName:  pet.Name,
			CheckIns: len(checkIns),
		}
		for _, checkIn := range checkIns {
			if checkIn.MilesCompleted != nil {
				totals.TotalMiles += *checkIn.MilesCompleted
			}
			if checkIn.TotalTime != nil {
				totals.TotalTime += *checkIn.TotalTime
			}
		}
		payload = append(payload, totals)
	}

	c.writeJSON(w, r, payload)
}

func (c *CheckIns) writeJSON(w http.ResponseWriter, r *http.Request, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		c.render.Error(w, r, err)
	}
}

func (c *CheckIns) flashAndRedirectBack(w http.ResponseWriter, r *http.Request, flash render.Flash) {
	if err := c.render.AddFlash(w, r, flash); err != nil {
		c.render.Error(w, r, err)
		return
	}
	render.RedirectBack(w, r)
}
