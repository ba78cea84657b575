// Package seed loads the hike catalog. Hikes are never writable
// through end-user routes; this is the only path that creates them.
package seed

import (
	"github.com/gobuffalo/packr"
	"github.com/jinzhu/gorm"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/pupjourney/pupjourney-go/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type hikeData struct {
	HikeName    string   `json:"hike_name"`
	Area        string   `json:"area"`
	Difficulty  string   `json:"difficulty"`
	LeashRule   string   `json:"leash_rule"`
	Description string   `json:"description"`
	Features    string   `json:"features"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Miles       *float64 `json:"miles"`
	Parking     string   `json:"parking"`
	Resources   string   `json:"resources"`
	ImageURL    string   `json:"hike_imgURL"`
}

// fullAddress joins the fixture's address, city and state into the
// single address column the search filters match against.
func fullAddress(entry hikeData) string {
	address := entry.Address
	if entry.City != "" {
		address += ", " + entry.City
	}
	if entry.State != "" {
		address += ", " + entry.State
	}
	return address
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// Hikes seeds the hike catalog from the embedded fixture. It is a
// no-op when hikes already exist.
func Hikes(db *gorm.DB, box packr.Box) error {
	hikes := models.NewHikeStore(db)

	count, err := hikes.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var data []hikeData
	if err := json.Unmarshal(box.Bytes("hikes.json"), &data); err != nil {
		return errors.Wrap(err, "could not decode hikes fixture")
	}

	for _, entry := range data {
		hike := models.Hike{
			Name:        entry.HikeName,
			Area:        optional(entry.Area),
			Difficulty:  optional(entry.Difficulty),
			LeashRule:   optional(entry.LeashRule),
			Description: optional(entry.Description),
			Features:    optional(entry.Features),
			Address:     fullAddress(entry),
			Length:      entry.Miles,
			Parking:     optional(entry.Parking),
			Resources:   optional(entry.Resources),
			ImageURL:    optional(entry.ImageURL),
		}
		if err := hikes.Create(&hike); err != nil {
			return err
		}
	}

	return nil
}
