package models

import (
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

// Model is the base for all entities. Unlike gorm.Model it has no
// DeletedAt, so every delete is a hard delete.
type Model struct {
	ID        uint `gorm:"primary_key"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Setup migrates the schema and installs the validation callback.
func Setup(db *gorm.DB) error {
	db.Callback().Create().Before("gorm:before_create").Register("validations:validate", validate)
	db.Callback().Update().Before("gorm:before_update").Register("validations:validate", validate)

	query := db.AutoMigrate(
		&User{},
		&Pet{},
		&Hike{},
		&Comment{},
		&CheckIn{},
		&BookmarksList{},
		&HikeBookmark{},
	)
	if query.Error != nil {
		return errors.Wrap(query.Error, "could not migrate models")
	}

	return nil
}

func validate(scope *gorm.Scope) {
	if _, err := govalidator.ValidateStruct(scope.Value); err != nil {
		scope.Err(err)
	}
}
