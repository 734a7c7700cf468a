package service

import (
	"context"
	"testing"

	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteService_AddAndRemove(t *testing.T) {
	testDB, listingSvc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	listing, err := listingSvc.CreateListing(context.Background(), validInput("Wishlisted"), 1, nil)
	require.NoError(t, err)

	svc := NewFavoriteService(
		repository.NewFavoriteRepository(testDB),
		repository.NewListingRepository(testDB),
	)

	require.NoError(t, svc.AddFavorite(5, listing.ID))
	// Re-adding is a no-op, not an error.
	require.NoError(t, svc.AddFavorite(5, listing.ID))

	favorited, err := svc.IsFavorited(5, listing.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	favorites, err := svc.ListFavorites(5)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)

	require.NoError(t, svc.RemoveFavorite(5, listing.ID))
	err = svc.RemoveFavorite(5, listing.ID)
	assert.ErrorIs(t, err, ErrFavoriteNotFound)
}

func TestFavoriteService_AddFavorite_ListingNotFound(t *testing.T) {
	testDB, _, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	svc := NewFavoriteService(
		repository.NewFavoriteRepository(testDB),
		repository.NewListingRepository(testDB),
	)

	err := svc.AddFavorite(5, 9999)
	assert.ErrorIs(t, err, ErrListingNotFound)
}
