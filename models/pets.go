package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Pet struct {
	Model
	UserID   uint       `valid:"-"`
	Name     string     `gorm:"column:pet_name" valid:"required"`
	Gender   *string    `valid:"-"`
	Birthday *time.Time `valid:"-"`
	Breed    *string    `valid:"-"`
	ImageURL *string    `valid:"-"`
	ImageID  *string    `valid:"-"`
}

type PetStore struct {
	DB *gorm.DB
}

func NewPetStore(db *gorm.DB) *PetStore {
	return &PetStore{DB: db}
}

func (s *PetStore) Create(pet *Pet) error {
	return errors.Wrap(s.DB.Create(pet).Error, "could not create pet")
}

func (s *PetStore) ByID(id uint) (Pet, bool, error) {
	var pet Pet
	query := s.DB.First(&pet, id)
	if query.RecordNotFound() {
		return pet, false, nil
	}
	return pet, true, errors.Wrap(query.Error, "could not get pet")
}

func (s *PetStore) ByUser(userID uint) ([]Pet, error) {
	var pets []Pet
	query := s.DB.Where("user_id = ?", userID).Order("pet_name").Find(&pets)
	return pets, errors.Wrap(query.Error, "could not get pets for user")
}

func (s *PetStore) Save(pet *Pet) error {
	return errors.Wrap(s.DB.Save(pet).Error, "could not save pet")
}

func (s *PetStore) Delete(pet *Pet) error {
	return errors.Wrap(s.DB.Delete(pet).Error, "could not delete pet")
}
