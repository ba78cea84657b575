package models

import (
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type User struct {
	Model
	FullName string `valid:"required"`
	Email    string `gorm:"unique_index" valid:"required,email"`
	Password string `valid:"required"`
}

type UserStore struct {
	DB *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{DB: db}
}

func (s *UserStore) Create(user *User) error {
	return errors.Wrap(s.DB.Create(user).Error, "could not create user")
}

func (s *UserStore) ByID(id uint) (User, bool, error) {
	var user User
	query := s.DB.First(&user, id)
	if query.RecordNotFound() {
		return user, false, nil
	}
	return user, true, errors.Wrap(query.Error, "could not get user")
}

func (s *UserStore) ByEmail(email string) (User, bool, error) {
	var user User
	query := s.DB.Where("email = ?", email).First(&user)
	if query.RecordNotFound() {
		return user, false, nil
	}
	return user, true, errors.Wrap(query.Error, "could not get user by email")
}
