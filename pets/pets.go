package pets

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/jinzhu/gorm"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/pupjourney/pupjourney-go/auth"
	"github.com/pupjourney/pupjourney-go/files"
	"github.com/pupjourney/pupjourney-go/models"
	"github.com/pupjourney/pupjourney-go/render"
)

const maxImageSize = 20 * 1024 * 1024

const birthdayFormat = "2006-01-02"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Pets struct {
	DB      *gorm.DB
	render  *render.Render
	auth    *auth.Auth
	storage files.Storage

	pets     *models.PetStore
	checkIns *models.CheckInStore
}

func New(db *gorm.DB, r *render.Render, a *auth.Auth, storage files.Storage) *Pets {
	return &Pets{
		DB:       db,
		render:   r,
		auth:     a,
		storage:  storage,
		pets:     models.NewPetStore(db),
		checkIns: models.NewCheckInStore(db),
	}
}

func (c *Pets) Register(r chi.Router) {
	r.Post("/add-pet", c.AddHandler)
	r.Post("/edit-pet", c.EditHandler)
	r.Post("/delete-pet", c.DeleteHandler)
	r.Get("/pets.json", c.JSONHandler)
}

// formImage uploads the submitted image file, if any. ok is false when
// no file was submitted.
func (c *Pets) formImage(w http.ResponseWriter, r *http.Request) (files.Image, bool, error) {
	file, handler, err := r.FormFile("my_file")
	if err == http.ErrMissingFile || err == http.ErrNotMultipart {
		return files.Image{}, false, nil
	}
	if err != nil {
		return files.Image{}, false, errors.Wrap(err, "could not read image file")
	}
	defer file.Close()

	image, err := c.storage.Upload(file, handler.Filename)
	if err != nil {
		return files.Image{}, false, err
	}
	return image, true, nil
}

func (c *Pets) AddHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to add a pet profile.")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	r.ParseMultipartForm(maxImageSize)

	pet := models.Pet{
		UserID: user.ID,
		Name:   r.FormValue("pet_name"),
	}

	if gender := r.FormValue("gender"); gender != "" {
		pet.Gender = &gender
	}
	if breed := r.FormValue("breed"); breed != "" {
		pet.Breed = &breed
	}
	if value := r.FormValue("birthday"); value != "" {
		birthday, err := time.Parse(birthdayFormat, value)
		if err != nil {
			c.flashAndRedirect(w, r, render.FlashError("Please enter the birthday as YYYY-MM-DD."))
			return
		}
		pet.Birthday = &birthday
	}

	image, uploaded, err := c.formImage(w, r)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if uploaded {
		pet.ImageURL = &image.URL
		pet.ImageID = &image.ID
	}

	if err := c.pets.Create(&pet); err != nil {
		c.render.Error(w, r, err)
		return
	}

	c.flashAndRedirect(w, r, render.FlashInfo("Success! "+pet.Name+" profile has been added."))
}

func (c *Pets) EditHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to edit a pet profile.")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	r.ParseMultipartForm(maxImageSize)

	id, err := strconv.Atoi(r.FormValue("edit"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}

	pet, found, err := c.pets.ByID(uint(id))
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

	// Submitted fields replace stored values; blank fields keep them.
	if name := r.FormValue("pet_name"); name != "" {
		pet.Name = name
	}
	if gender := r.FormValue("gender"); gender != "" {
		pet.Gender = &gender
	}
	if breed := r.FormValue("breed"); breed != "" {
		pet.Breed = &breed
	}
	if value := r.FormValue("birthday"); value != "" {
		birthday, err := time.Parse(birthdayFormat, value)
		if err != nil {
			c.flashAndRedirect(w, r, render.FlashError("Please enter the birthday as YYYY-MM-DD."))
			return
		}
		pet.Birthday = &birthday
	}

	image, uploaded, err := c.formImage(w, r)
	if err != nil {
		c.render.Error(w, r, err)
		return
	}
	if uploaded {
		if pet.ImageID != nil {
			if err := c.storage.Delete(*pet.ImageID); err != nil {
				c.render.Error(w, r, err)
				return
			}
		}
		pet.ImageURL = &image.URL
		pet.ImageID = &image.ID
	}

	if err := c.pets.Save(&pet); err != nil {
		c.render.Error(w, r, err)
		return
	}

	c.flashAndRedirect(w, r, render.FlashInfo("Success! "+pet.Name+" profile has been updated."))
}

func (c *Pets) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := c.auth.RequireUser(w, r, "You must log in to delete a pet profile.")
	if !ok {
		return
	}

	id, err := strconv.Atoi(r.FormValue("delete"))
	if err != nil {
		c.render.NotFound(w, r)
		return
	}

	pet, found, err := c.pets.ByID(uint(id))
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

	if pet.ImageID != nil {
		if err := c.storage.Delete(*pet.ImageID); err != nil {
			c.render.Error(w, r, err)
			return
		}
	}

	if err := c.checkIns.DeleteByPet(pet.ID); err != nil {
		c.render.Error(w, r, err)
		return
	}

	if err := c.pets.Delete(&pet); err != nil {
		c.render.Error(w, r, err)
		return
	}

	c.flashAndRedirect(w, r, render.FlashInfo("Success! "+pet.Name+" profile has been deleted."))
}

type petJSON struct {
	PetID    uint       `json:"pet_id"`
	UserID   uint       `json:"user_id"`
	PetName  string     `json:"pet_name"`
	Gender   *string    `json:"gender"`
	Birthday *time.Time `json:"birthday"`
	Breed    *string    `json:"breed"`
	ImageURL *string    `json:"pet_imgURL"`
}

func (c *Pets) JSONHandler(w http.ResponseWriter, r *http.Request) {
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

	payload := make([]petJSON, 0, len(pets))
	for _, pet := range pets {
		payload = append(payload, petJSON{
			PetID:    pet.ID,
			UserID:   pet.UserID,
			PetName:  pet.Name,
			Gender:   pet.Gender,
			Birthday: pet.Birthday,
			Breed:    pet.Breed,
			ImageURL: pet.ImageURL,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		c.render.Error(w, r, err)
	}
}

func (c *Pets) flashAndRedirect(w http.ResponseWriter, r *http.Request, flash render.Flash) {
	if err := c.render.AddFlash(w, r, flash); err != nil {
		c.render.Error(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
