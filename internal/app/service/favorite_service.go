package service

import (
	"errors"

	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrFavoriteNotFound = errors.New("favorite not found")

type FavoriteService interface {
	AddFavorite(userID, listingID uint) error
	RemoveFavorite(userID, listingID uint) error
	ListFavorites(userID uint) ([]model.Favorite, error)
	IsFavorited(userID, listingID uint) (bool, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	listingRepo  repository.ListingRepository
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository, listingRepo repository.ListingRepository) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		listingRepo:  listingRepo,
	}
}

// AddFavorite is idempotent: favoriting twice succeeds without bumping the
// counter again.
func (s *favoriteService) AddFavorite(userID, listingID uint) error {
	if _, err := s.listingRepo.FindByID(listingID, repository.FindOptions{}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	added, err := s.favoriteRepo.Add(userID, listingID)
	if err != nil {
		logger.Error("Failed to add favorite", err, map[string]interface{}{
			"user_id":    userID,
			"listing_id": listingID,
		})
		return err
	}
	if added {
		logger.Debug("Favorite added", map[string]interface{}{
			"user_id":    userID,
			"listing_id": listingID,
		})
	}
	return nil
}

func (s *favoriteService) RemoveFavorite(userID, listingID uint) error {
	removed, err := s.favoriteRepo.Remove(userID, listingID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrFavoriteNotFound
	}
	return nil
}

func (s *favoriteService) ListFavorites(userID uint) ([]model.Favorite, error) {
	return s.favoriteRepo.FindByUser(userID)
}

func (s *favoriteService) IsFavorited(userID, listingID uint) (bool, error) {
	return s.favoriteRepo.Exists(userID, listingID)
}
