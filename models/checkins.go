package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type CheckIn struct {
	Model
	HikeID         uint       `valid:"-"`
	PetID          uint       `valid:"-"`
	Hike           Hike       `valid:"-"`
	Pet            Pet        `valid:"-"`
	DateHiked      time.Time  `valid:"-"`
	DateStarted    *time.Time `valid:"-"`
	DateCompleted  *time.Time `valid:"-"`
	MilesCompleted *float64   `valid:"-"`
	TotalTime      *float64   `valid:"-"`
}

type CheckInStore struct {
	DB *gorm.DB
}

func NewCheckInStore(db *gorm.DB) *CheckInStore {
	return &CheckInStore{DB: db}
}

func (s *CheckInStore) Create(checkIn *CheckIn) error {
	return errors.Wrap(s.DB.Create(checkIn).Error, "could not create check in")
}

func (s *CheckInStore) ByID(id uint) (CheckIn, bool, error) {
	var checkIn CheckIn
	query := s.DB.First(&checkIn, id)
	if query.RecordNotFound() {
		return checkIn, false, nil
	}
	return checkIn, true, errors.Wrap(query.Error, "could not get check in")
}

// ByUser returns check-ins across all pets owned by the user, most
// recent hike date first.
func (s *CheckInStore) ByUser(userID uint) ([]CheckIn, error) {
	var checkIns []CheckIn
	query := s.DB.Preload("Hike").Preload("Pet").
		Joins("JOIN pets ON pets.id = check_ins.pet_id").
		Where("pets.user_id = ?", userID).
		Order("date_hiked desc").
		Find(&checkIns)
	return checkIns, errors.Wrap(query.Error, "could not get check ins for user")
}

func (s *CheckInStore) ByUserAndHike(userID, hikeID uint) ([]CheckIn, error) {
	var checkIns []CheckIn
	query := s.DB.Preload("Pet").
		Joins("JOIN pets ON pets.id = check_ins.pet_id").
		Where("pets.user_id = ? AND check_ins.hike_id = ?", userID, hikeID).
		Order("date_hiked desc").
		Find(&checkIns)
	return checkIns, errors.Wrap(query.Error, "could not get check ins for user and hike")
}

func (s *CheckInStore) ByPet(petID uint) ([]CheckIn, error) {
	var checkIns []CheckIn
	query := s.DB.Preload("Hike").
		Where("pet_id = ?", petID).
		Order("date_hiked desc").
		Find(&checkIns)
	return checkIns, errors.Wrap(query.Error, "could not get check ins for pet")
}

func (s *CheckInStore) Save(checkIn *CheckIn) error {
	return errors.Wrap(s.DB.Save(checkIn).Error, "could not save check in")
}

func (s *CheckInStore) Delete(checkIn *CheckIn) error {
	return errors.Wrap(s.DB.Delete(checkIn).Error, "could not delete check in")
}

// DeleteByPet removes all check-ins for a pet. Used when a pet profile
// is deleted, so no check-in is left pointing at a missing pet.
func (s *CheckInStore) DeleteByPet(petID uint) error {
	query := s.DB.Where("pet_id = ?", petID).Delete(CheckIn{})
	return errors.Wrap(query.Error, "could not delete check ins for pet")
}
