package controller

import (
	goerrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/genbyt/genbyt-backend/internal/app/service"
	"github.com/genbyt/genbyt-backend/internal/errors"
	"github.com/genbyt/genbyt-backend/internal/middleware"
)

type FavoriteController struct {
	favoriteService service.FavoriteService
}

func NewFavoriteController(favoriteService service.FavoriteService) *FavoriteController {
	return &FavoriteController{
		favoriteService: favoriteService,
	}
}

// AddFavorite favorites a listing; favoriting twice is a no-op
// POST /api/v1/listings/:id/favorite
func (ctrl *FavoriteController) AddFavorite(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		errors.Unauthorized(c, "Authentication required")
		return
	}

	if err := ctrl.favoriteService.AddFavorite(userID, id); err != nil {
		if goerrors.Is(err, service.ErrListingNotFound) {
			errors.NotFound(c, errors.ListingNotFound, "Listing not found")
			return
		}
		log.Error("Failed to add favorite", err, map[string]interface{}{
			"listing_id": id,
			"user_id":    userID,
		})
		errors.InternalError(c, "Failed to add favorite")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing added to favorites",
	})
}

// RemoveFavorite unfavorites a listing
// DELETE /api/v1/listings/:id/favorite
func (ctrl *FavoriteController) RemoveFavorite(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		errors.Unauthorized(c, "Authentication required")
		return
	}

	if err := ctrl.favoriteService.RemoveFavorite(userID, id); err != nil {
		if goerrors.Is(err, service.ErrFavoriteNotFound) {
			errors.NotFound(c, errors.FavoriteNotFound, "Favorite not found")
			return
		}
		log.Error("Failed to remove favorite", err, map[string]interface{}{
			"listing_id": id,
			"user_id":    userID,
		})
		errors.InternalError(c, "Failed to remove favorite")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing removed from favorites",
	})
}

// ListFavorites returns the caller's favorited listings
// GET /api/v1/favorites
func (ctrl *FavoriteController) ListFavorites(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		errors.Unauthorized(c, "Authentication required")
		return
	}

	favorites, err := ctrl.favoriteService.ListFavorites(userID)
	if err != nil {
		log.Error("Failed to fetch favorites", err, map[string]interface{}{
			"user_id": userID,
		})
		errors.InternalError(c, "Failed to fetch favorites")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favorites": favorites,
		"count":     len(favorites),
	})
}
