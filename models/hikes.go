package models

import (
	"strings"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Hike struct {
	Model
	Name        string  `gorm:"column:hike_name" valid:"required"`
	Difficulty  *string `valid:"-"`
	LeashRule   *string `valid:"-"`
	Description *string `gorm:"type:text" valid:"-"`
	Features    *string `valid:"-"`
	Address     string  `gorm:"type:text" valid:"required"`
	Area        *string `valid:"-"`
	Length      *float64 `valid:"-"`
	Parking     *string `valid:"-"`
	Resources   *string `gorm:"type:text" valid:"-"`
	ImageURL    *string `valid:"-"`
}

// SplitResources splits the comma-separated resource links for display.
func (h Hike) SplitResources() []string {
	if h.Resources == nil {
		return nil
	}
	return strings.Split(*h.Resources, ",")
}

// HikeSearch holds independently optional filter criteria. Empty values
// are not applied; supplied values are combined with AND.
type HikeSearch struct {
	Keyword    string
	Difficulty string
	LeashRule  string
	Area       string
	City       string
	State      string
	Parking    string
	MinLength  *float64
	MaxLength  *float64
}

// HikeFilterOptions are the distinct values offered by the catalog
// filter form.
type HikeFilterOptions struct {
	Difficulties []string
	LeashRules   []string
	Areas        []string
	Parking      []string
}

type HikeStore struct {
	DB *gorm.DB
}

func NewHikeStore(db *gorm.DB) *HikeStore {
	return &HikeStore{DB: db}
}

func (s *HikeStore) Create(hike *Hike) error {
	return errors.Wrap(s.DB.Create(hike).Error, "could not create hike")
}

func (s *HikeStore) ByID(id uint) (Hike, bool, error) {
	var hike Hike
	query := s.DB.First(&hike, id)
	if query.RecordNotFound() {
		return hike, false, nil
	}
	return hike, true, errors.Wrap(query.Error, "could not get hike")
}

func (s *HikeStore) All() ([]Hike, error) {
	var hikes []Hike
	query := s.DB.Order("hike_name").Find(&hikes)
	return hikes, errors.Wrap(query.Error, "could not get hikes")
}

func (s *HikeStore) Count() (int, error) {
	var count int
	query := s.DB.Model(&Hike{}).Count(&count)
	return count, errors.Wrap(query.Error, "could not count hikes")
}

func contains(value string) string {
	return "%" + strings.ToLower(value) + "%"
}

func (s *HikeStore) Search(search HikeSearch) ([]Hike, error) {
	query := s.DB.Model(&Hike{}).Order("hike_name")

	if search.Keyword != "" {
		kw := contains(search.Keyword)
		query = query.Where("LOWER(hike_name) LIKE ? OR LOWER(description) LIKE ?", kw, kw)
	}
	if search.Difficulty != "" {
		query = query.Where("difficulty = ?", search.Difficulty)
	}
	if search.LeashRule != "" {
		query = query.Where("leash_rule = ?", search.LeashRule)
	}
	if search.Area != "" {
		query = query.Where("area = ?", search.Area)
	}
	if search.City != "" {
		query = query.Where("LOWER(address) LIKE ?", contains(search.City))
	}
	if search.State != "" {
		query = query.Where("LOWER(address) LIKE ?", contains(search.State))
	}
	if search.Parking != "" {
		query = query.Where("LOWER(parking) LIKE ?", contains(search.Parking))
	}
	if search.MinLength != nil {
		query = query.Where("length >= ?", *search.MinLength)
	}
	if search.MaxLength != nil {
		query = query.Where("length <= ?", *search.MaxLength)
	}

	var hikes []Hike
	if err := query.Find(&hikes).Error; err != nil {
		return nil, errors.Wrap(err, "could not search hikes")
	}
	return hikes, nil
}

func (s *HikeStore) FilterOptions() (HikeFilterOptions, error) {
	options := HikeFilterOptions{}

	columns := []struct {
		name   string
		target *[]string
	}{
		{"difficulty", &options.Difficulties},
		{"leash_rule", &options.LeashRules},
		{"area", &options.Areas},
		{"parking", &options.Parking},
	}
	for _, column := range columns {
		query := s.DB.Model(&Hike{}).
			Where(column.name + " IS NOT NULL").
			Order(column.name).
			Pluck("DISTINCT "+column.name, column.target)
		if query.Error != nil {
			return options, errors.Wrapf(query.Error, "could not get %s options", column.name)
		}
	}

	return options, nil
}
