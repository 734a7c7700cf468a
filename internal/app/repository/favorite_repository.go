package repository

import (
	"time"

	"github.com/genbyt/genbyt-backend/internal/app/model"
	apperrors "github.com/genbyt/genbyt-backend/internal/errors"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	Add(userID, listingID uint) (bool, error)
	Remove(userID, listingID uint) (bool, error)
	FindByUser(userID uint) ([]model.Favorite, error)
	Exists(userID, listingID uint) (bool, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

// Add inserts a favorite edge if the (user, listing) pair is new and moves
// the denormalized likes counter in the same transaction. The composite
// primary key is the authoritative duplicate guard.
func (r *favoriteRepository) Add(userID, listingID uint) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		fav := model.Favorite{
			UserID:    userID,
			ListingID: listingID,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&fav).Error; err != nil {
			return err
		}
		return tx.Model(&model.Listing{}).
			Where("id = ?", listingID).
			Update("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return false, nil
		}
		logger.Error("Failed to add favorite", err, map[string]interface{}{
			"user_id":    userID,
			"listing_id": listingID,
		})
		return false, err
	}

	logger.Debug("Favorite added", map[string]interface{}{
		"user_id":    userID,
		"listing_id": listingID,
	})
	return true, nil
}

func (r *favoriteRepository) Remove(userID, listingID uint) (bool, error) {
	var removed bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND listing_id = ?", userID, listingID).
			Delete(&model.Favorite{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&model.Listing{}).
			Where("id = ? AND likes_count > 0", listingID).
			Update("likes_count", gorm.Expr("likes_count - ?", 1)).Error
	})
	if err != nil {
		logger.Error("Failed to remove favorite", err, map[string]interface{}{
			"user_id":    userID,
			"listing_id": listingID,
		})
		return false, err
	}
	return removed, nil
}

func (r *favoriteRepository) FindByUser(userID uint) ([]model.Favorite, error) {
	var favorites []model.Favorite
	err := r.db.Where("user_id = ?", userID).
		Preload("Listing").
		Preload("Listing.Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		logger.Error("Failed to find favorites by user", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return favorites, nil
}

func (r *favoriteRepository) Exists(userID, listingID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
