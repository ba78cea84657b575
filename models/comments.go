package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type Comment struct {
	Model
	HikeID   uint       `valid:"-"`
	UserID   uint       `valid:"-"`
	User     User       `valid:"-"`
	Body     string     `gorm:"type:text" valid:"required"`
	Edited   bool       `valid:"-"`
	EditedAt *time.Time `valid:"-"`
}

type CommentStore struct {
	DB *gorm.DB
}

func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{DB: db}
}

func (s *CommentStore) Create(comment *Comment) error {
	return errors.Wrap(s.DB.Create(comment).Error, "could not create comment")
}

func (s *CommentStore) ByID(id uint) (Comment, bool, error) {
	var comment Comment
	query := s.DB.First(&comment, id)
	if query.RecordNotFound() {
		return comment, false, nil
	}
	return comment, true, errors.Wrap(query.Error, "could not get comment")
}

func (s *CommentStore) ByHike(hikeID uint) ([]Comment, error) {
	var comments []Comment
	query := s.DB.Preload("User").
		Where("hike_id = ?", hikeID).
		Order("created_at").
		Find(&comments)
	return comments, errors.Wrap(query.Error, "could not get comments for hike")
}

func (s *CommentStore) Save(comment *Comment) error {
	return errors.Wrap(s.DB.Save(comment).Error, "could not save comment")
}

func (s *CommentStore) Delete(comment *Comment) error {
	return errors.Wrap(s.DB.Delete(comment).Error, "could not delete comment")
}
