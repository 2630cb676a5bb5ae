package repository

import (
	"budayana_backend/internal/model"

	"gorm.io/gorm"
)

type IslandRepository struct {
	DB *gorm.DB
}

func NewIslandRepository(db *gorm.DB) *IslandRepository {
	return &IslandRepository{DB: db}
}

func (r *IslandRepository) ListOrdered() ([]model.Island, error) {
	var islands []model.Island
	err := r.DB.Order("unlock_order asc").Find(&islands).Error
	return islands, err
}

func (r *IslandRepository) ListOrderedWithStories() ([]model.Island, error) {
	var islands []model.Island
	err := r.DB.Preload("Stories", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Order("unlock_order asc").Find(&islands).Error
	return islands, err
}

// FindByIDOrSlug resolves an island by primary key or routing slug.
func (r *IslandRepository) FindByIDOrSlug(idOrSlug string, includeStories bool) (*model.Island, error) {
	q := r.DB.Where("id = ? OR slug = ?", idOrSlug, idOrSlug)
	if includeStories {
		q = q.Preload("Stories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order asc")
		})
	}
	var island model.Island
	if err := q.First(&island).Error; err != nil {
		return nil, err
	}
	return &island, nil
}
