package repository

import (
	"testing"

	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupFavoriteTest(t *testing.T) (*gorm.DB, FavoriteRepository, uint) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	seedCatalogFixtures(t, testDB)
	listingRepo := NewListingRepository(testDB)
	listing, err := listingRepo.Create(basicInput("Favorited thing"), 1)
	require.NoError(t, err)

	return testDB, NewFavoriteRepository(testDB), listing.ID
}

func TestFavoriteRepository_Add_Idempotent(t *testing.T) {
	testDB, repo, listingID := setupFavoriteTest(t)
	defer db.CleanupTestDB(testDB)

	added, err := repo.Add(5, listingID)
	require.NoError(t, err)
	assert.True(t, added)

	// Favoriting twice is a no-op; the counter does not move again.
	added, err = repo.Add(5, listingID)
	require.NoError(t, err)
	assert.False(t, added)

	var listing model.Listing
	require.NoError(t, testDB.First(&listing, listingID).Error)
	assert.Equal(t, 1, listing.LikesCount)
}

func TestFavoriteRepository_Remove(t *testing.T) {
	testDB, repo, listingID := setupFavoriteTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.Add(5, listingID)
	require.NoError(t, err)

	removed, err := repo.Remove(5, listingID)
	require.NoError(t, err)
	assert.True(t, removed)

	var listing model.Listing
	require.NoError(t, testDB.First(&listing, listingID).Error)
	assert.Equal(t, 0, listing.LikesCount)

	// Removing a non-existent favorite reports false, counter unchanged.
	removed, err = repo.Remove(5, listingID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, testDB.First(&listing, listingID).Error)
	assert.Equal(t, 0, listing.LikesCount)
}

func TestFavoriteRepository_FindByUser(t *testing.T) {
	testDB, repo, listingID := setupFavoriteTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.Add(5, listingID)
	require.NoError(t, err)
	_, err = repo.Add(6, listingID)
	require.NoError(t, err)

	favorites, err := repo.FindByUser(5)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, listingID, favorites[0].ListingID)
	assert.Equal(t, "Favorited thing", favorites[0].Listing.Title)
}

func TestFavoriteRepository_Exists(t *testing.T) {
	testDB, repo, listingID := setupFavoriteTest(t)
	defer db.CleanupTestDB(testDB)

	exists, err := repo.Exists(5, listingID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.Add(5, listingID)
	require.NoError(t, err)

	exists, err = repo.Exists(5, listingID)
	require.NoError(t, err)
	assert.True(t, exists)
}
