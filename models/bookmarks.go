package models

import (
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

type BookmarksList struct {
	Model
	Name   string `gorm:"unique_index" valid:"required"`
	UserID uint   `valid:"-"`
}

// HikeBookmark is the join row linking a hike into a bookmarks list.
// Uniqueness of the (hike, list) pair is not enforced by the schema.
type HikeBookmark struct {
	Model
	HikeID          uint `valid:"-"`
	BookmarksListID uint `valid:"-"`
}

type BookmarksListStore struct {
	DB *gorm.DB
}

func NewBookmarksListStore(db *gorm.DB) *BookmarksListStore {
	return &BookmarksListStore{DB: db}
}

func (s *BookmarksListStore) Create(list *BookmarksList) error {
	return errors.Wrap(s.DB.Create(list).Error, "could not create bookmarks list")
}

func (s *BookmarksListStore) ByID(id uint) (BookmarksList, bool, error) {
	var list BookmarksList
	query := s.DB.First(&list, id)
	if query.RecordNotFound() {
		return list, false, nil
	}
	return list, true, errors.Wrap(query.Error, "could not get bookmarks list")
}

func (s *BookmarksListStore) ByUser(userID uint) ([]BookmarksList, error) {
	var lists []BookmarksList
	query := s.DB.Where("user_id = ?", userID).Order("name").Find(&lists)
	return lists, errors.Wrap(query.Error, "could not get bookmarks lists for user")
}

func (s *BookmarksListStore) ByUserAndName(userID uint, name string) (BookmarksList, bool, error) {
	var list BookmarksList
	query := s.DB.Where("user_id = ? AND name = ?", userID, name).First(&list)
	if query.RecordNotFound() {
		return list, false, nil
	}
	return list, true, errors.Wrap(query.Error, "could not get bookmarks list by name")
}

func (s *BookmarksListStore) ByName(name string) (BookmarksList, bool, error) {
	var list BookmarksList
	query := s.DB.Where("name = ?", name).First(&list)
	if query.RecordNotFound() {
		return list, false, nil
	}
	return list, true, errors.Wrap(query.Error, "could not get bookmarks list by name")
}

// ByUserAndHike returns the user's lists that contain the hike.
func (s *BookmarksListStore) ByUserAndHike(userID, hikeID uint) ([]BookmarksList, error) {
	var lists []BookmarksList
	query := s.DB.Model(&BookmarksList{}).
		Joins("JOIN hike_bookmarks ON hike_bookmarks.bookmarks_list_id = bookmarks_lists.id").
		Where("bookmarks_lists.user_id = ? AND hike_bookmarks.hike_id = ?", userID, hikeID).
		Order("bookmarks_lists.name").
		Find(&lists)
	return lists, errors.Wrap(query.Error, "could not get bookmarks lists for hike")
}

func (s *BookmarksListStore) Rename(list *BookmarksList, name string) error {
	query := s.DB.Model(list).Update("name", name)
	return errors.Wrap(query.Error, "could not rename bookmarks list")
}

// Delete clears the list's hike associations before removing the list
// row, so no join row is left referencing a missing list.
func (s *BookmarksListStore) Delete(list *BookmarksList) error {
	query := s.DB.Where("bookmarks_list_id = ?", list.ID).Delete(HikeBookmark{})
	if query.Error != nil {
		return errors.Wrap(query.Error, "could not clear hikes from bookmarks list")
	}
	return errors.Wrap(s.DB.Delete(list).Error, "could not delete bookmarks list")
}

func (s *BookmarksListStore) AddHike(listID, hikeID uint) error {
	link := HikeBookmark{
		HikeID:          hikeID,
		BookmarksListID: listID,
	}
	return errors.Wrap(s.DB.Create(&link).Error, "could not add hike to bookmarks list")
}

func (s *BookmarksListStore) RemoveHike(listID, hikeID uint) error {
	query := s.DB.
		Where("bookmarks_list_id = ? AND hike_id = ?", listID, hikeID).
		Delete(HikeBookmark{})
	return errors.Wrap(query.Error, "could not remove hike from bookmarks list")
}

func (s *BookmarksListStore) HikesInList(listID uint) ([]Hike, error) {
	var hikes []Hike
	query := s.DB.Model(&Hike{}).
		Joins("JOIN hike_bookmarks ON hike_bookmarks.hike_id = hikes.id").
		Where("hike_bookmarks.bookmarks_list_id = ?", listID).
		Order("hikes.hike_name").
		Find(&hikes)
	return hikes, errors.Wrap(query.Error, "could not get hikes in bookmarks list")
}

// LinkCount reports how many join rows reference the list.
func (s *BookmarksListStore) LinkCount(listID uint) (int, error) {
	var count int
	query := s.DB.Model(&HikeBookmark{}).
		Where("bookmarks_list_id = ?", listID).
		Count(&count)
	return count, errors.Wrap(query.Error, "could not count hikes in bookmarks list")
}
