package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/genbyt/genbyt-backend/config"
	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/internal/db"
	"github.com/genbyt/genbyt-backend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStorage is an in-memory byte store that records every save and delete
// so tests can assert on compensation behavior.
type fakeStorage struct {
	saved   []string
	deleted []string
	nextID  int
}

func (f *fakeStorage) ValidateAndSave(_ context.Context, files []storage.Upload, opts storage.SaveOptions) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if opts.MaxCount > 0 && len(files) > opts.MaxCount {
		return nil, fmt.Errorf("%w: too many files", storage.ErrInvalidUpload)
	}
	urls := make([]string, 0, len(files))
	for range files {
		f.nextID++
		url := fmt.Sprintf("/uploads/fake-%d.jpg", f.nextID)
		f.saved = append(f.saved, url)
		urls = append(urls, url)
	}
	return urls, nil
}

func (f *fakeStorage) Delete(_ context.Context, urls []string) {
	f.deleted = append(f.deleted, urls...)
}

func upload(name string) storage.Upload {
	return storage.Upload{Filename: name, ContentType: "image/jpeg", Data: []byte("fake")}
}

func setupServiceTest(t *testing.T) (*gorm.DB, ListingService, *fakeStorage) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	require.NoError(t, testDB.Create(&model.Category{Name: "Furniture"}).Error)
	require.NoError(t, testDB.Create(&model.Location{City: "København", Zip: "1000"}).Error)

	store := &fakeStorage{}
	listingRepo := repository.NewListingRepository(testDB)
	svc := NewListingService(listingRepo, store, config.UploadConfig{
		MaxFilesPerListing: 10,
		MaxBytesPerFile:    5 * 1024 * 1024,
	}, nil)
	return testDB, svc, store
}

func validInput(title string) repository.CreateListingInput {
	amount := 15000.0
	currency := "DKK"
	return repository.CreateListingInput{
		Title:         title,
		Description:   "Solid piece",
		CategoryID:    1,
		Condition:     model.ConditionGood,
		Quantity:      1,
		PriceAmount:   &amount,
		PriceCurrency: &currency,
		Status:        model.StatusActive,
		LocationID:    1,
	}
}

func TestListingService_CreateListing(t *testing.T) {
	testDB, svc, store := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	listing, err := svc.CreateListing(context.Background(), validInput("Teak desk"), 7, []storage.Upload{
		upload("a.jpg"), upload("b.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), listing.SellerID)
	assert.Len(t, listing.Media, 2)
	assert.Len(t, store.saved, 2)
	assert.Empty(t, store.deleted)
}

func TestListingService_CreateListing_Validation(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()

	input := validInput("  ")
	_, err := svc.CreateListing(ctx, input, 1, nil)
	assert.ErrorIs(t, err, ErrTitleRequired)

	input = validInput("Bad condition")
	input.Condition = "mint"
	_, err = svc.CreateListing(ctx, input, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidCondition)

	// Only draft and active are allowed at creation.
	input = validInput("Born paused")
	input.Status = model.StatusPaused
	_, err = svc.CreateListing(ctx, input, 1, nil)
	assert.ErrorIs(t, err, ErrInvalidInitialState)
}

func TestListingService_CreateListing_CompensatesStorage(t *testing.T) {
	testDB, svc, store := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	// Negative quantity passes service defaults and fails in the
	// repository, after the bytes were written.
	input := validInput("Doomed listing")
	input.Quantity = -5

	_, err := svc.CreateListing(context.Background(), input, 1, []storage.Upload{upload("a.jpg")})
	require.Error(t, err)

	// The written bytes were compensated away.
	assert.Equal(t, store.saved, store.deleted)
	require.Len(t, store.deleted, 1)
}

func TestListingService_GetListingByID_Visibility(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()

	input := validInput("Hidden draft")
	input.Status = model.StatusDraft
	draft, err := svc.CreateListing(ctx, input, 1, nil)
	require.NoError(t, err)

	// Owner sees their draft.
	got, err := svc.GetListingByID(ctx, draft.ID, uintPtr(1), false)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	// Strangers and guests do not.
	_, err = svc.GetListingByID(ctx, draft.ID, uintPtr(2), false)
	assert.ErrorIs(t, err, ErrListingNotFound)
	_, err = svc.GetListingByID(ctx, draft.ID, nil, false)
	assert.ErrorIs(t, err, ErrListingNotFound)

	// Admins see everything.
	_, err = svc.GetListingByID(ctx, draft.ID, uintPtr(2), true)
	assert.NoError(t, err)
}

func TestListingService_GetListingByID_RecordsView(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, validInput("Viewed item"), 1, nil)
	require.NoError(t, err)

	// The owner's own fetch never counts as a view.
	got, err := svc.GetListingByID(ctx, listing.ID, uintPtr(1), false)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ViewsCount)

	// A non-owner fetch records one view, repeat fetches do not.
	got, err = svc.GetListingByID(ctx, listing.ID, uintPtr(2), false)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewsCount)

	got, err = svc.GetListingByID(ctx, listing.ID, uintPtr(2), false)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewsCount)
}

// seenCache reports every pair as already seen.
type seenCache struct{ marks int }

func (c *seenCache) Seen(context.Context, uint, uint) bool { return true }
func (c *seenCache) Mark(context.Context, uint, uint)      { c.marks++ }

func TestListingService_RecordView_CacheShortCircuit(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	require.NoError(t, testDB.Create(&model.Category{Name: "Furniture"}).Error)
	require.NoError(t, testDB.Create(&model.Location{City: "København", Zip: "1000"}).Error)

	cache := &seenCache{}
	listingRepo := repository.NewListingRepository(testDB)
	svc := NewListingService(listingRepo, &fakeStorage{}, config.UploadConfig{MaxFilesPerListing: 10}, cache)

	listing, err := svc.CreateListing(context.Background(), validInput("Cached views"), 1, nil)
	require.NoError(t, err)

	recorded, err := svc.RecordViewIfEligible(context.Background(), listing.ID, 2)
	require.NoError(t, err)
	assert.False(t, recorded)
	assert.Zero(t, cache.marks)
}

func TestListingService_UpdateListing_Authorization(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, validInput("Guarded"), 1, nil)
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.UpdateListing(ctx, listing.ID, repository.ListingPatch{Title: &title}, 2, false, nil)
	assert.ErrorIs(t, err, ErrListingAccessDenied)

	// Admins may update any listing.
	_, err = svc.UpdateListing(ctx, listing.ID, repository.ListingPatch{Title: &title}, 2, true, nil)
	assert.NoError(t, err)

	_, err = svc.UpdateListing(ctx, 9999, repository.ListingPatch{Title: &title}, 1, false, nil)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestListingService_UpdateListing_SoldRouting(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, validInput("Sellable"), 1, nil)
	require.NoError(t, err)

	// status=sold mixed with other fields is rejected outright.
	sold := model.StatusSold
	title := "Renamed"
	_, err = svc.UpdateListing(ctx, listing.ID, repository.ListingPatch{Status: &sold, Title: &title}, 1, false, nil)
	assert.ErrorIs(t, err, ErrSoldPatchNotExclusive)

	// A pure status=sold patch routes through the archive path.
	updated, err := svc.UpdateListing(ctx, listing.ID, repository.ListingPatch{Status: &sold}, 1, false, nil)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, updated.Status)
	assert.NotNil(t, updated.SoldAt)

	var archiveCount int64
	require.NoError(t, testDB.Model(&model.SoldArchive{}).Count(&archiveCount).Error)
	assert.Equal(t, int64(1), archiveCount)
}

func TestListingService_UpdateListing_SoldWithoutPrice(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	input := validInput("Priceless")
	input.PriceAmount = nil
	input.PriceCurrency = nil
	listing, err := svc.CreateListing(ctx, input, 1, nil)
	require.NoError(t, err)

	sold := model.StatusSold
	_, err = svc.UpdateListing(ctx, listing.ID, repository.ListingPatch{Status: &sold}, 1, false, nil)
	assert.ErrorIs(t, err, ErrMissingPrice)
}

func TestListingService_UpdateListing_CompensatesStorage(t *testing.T) {
	testDB, svc, store := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, validInput("Sold and locked"), 1, nil)
	require.NoError(t, err)
	_, err = svc.MarkListingSold(listing.ID, 1, false, nil)
	require.NoError(t, err)

	// Sold listings reject activation; the bytes written for the failed
	// update must be compensated away.
	active := model.StatusActive
	_, err = svc.UpdateListing(ctx, listing.ID, repository.ListingPatch{Status: &active}, 1, false,
		[]storage.Upload{upload("late.jpg")})
	assert.ErrorIs(t, err, ErrInvalidStatusChange)
	assert.Equal(t, store.saved, store.deleted)
}

func TestListingService_UpdateListing_PurgesReplacedMedia(t *testing.T) {
	testDB, svc, store := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, validInput("Photo swap"), 1, []storage.Upload{
		upload("a.jpg"), upload("b.jpg"),
	})
	require.NoError(t, err)
	require.Len(t, listing.Media, 2)

	keep := []uint{listing.Media[1].ID}
	updated, err := svc.UpdateListing(ctx, listing.ID, repository.ListingPatch{KeepMediaIDs: &keep}, 1, false, nil)
	require.NoError(t, err)
	require.Len(t, updated.Media, 1)

	// The dropped asset's bytes were purged after commit.
	assert.Equal(t, []string{listing.Media[0].URL}, store.deleted)
}

func TestListingService_MarkListingSold_Twice(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	listing, err := svc.CreateListing(context.Background(), validInput("One off"), 1, nil)
	require.NoError(t, err)

	_, err = svc.MarkListingSold(listing.ID, 1, false, nil)
	require.NoError(t, err)

	_, err = svc.MarkListingSold(listing.ID, 1, false, nil)
	assert.ErrorIs(t, err, ErrListingAlreadySold)
}

func TestListingService_ToggleListingStatus(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	listing, err := svc.CreateListing(context.Background(), validInput("Toggler"), 1, nil)
	require.NoError(t, err)

	toggled, err := svc.ToggleListingStatus(listing.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaused, toggled.Status)

	toggled, err = svc.ToggleListingStatus(listing.ID, 1, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, toggled.Status)

	_, err = svc.MarkListingSold(listing.ID, 1, false, nil)
	require.NoError(t, err)

	_, err = svc.ToggleListingStatus(listing.ID, 1, false)
	assert.ErrorIs(t, err, ErrListingAlreadySold)
}

func TestListingService_DeleteListing_OwnerOnly(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, validInput("Removable"), 1, nil)
	require.NoError(t, err)

	err = svc.DeleteListing(listing.ID, 2)
	assert.ErrorIs(t, err, ErrListingAccessDenied)

	require.NoError(t, svc.DeleteListing(listing.ID, 1))

	_, err = svc.GetListingByID(ctx, listing.ID, nil, false)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestListingService_ForceDeleteListing(t *testing.T) {
	testDB, svc, store := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	listing, err := svc.CreateListing(ctx, validInput("Purged"), 1, []storage.Upload{upload("a.jpg")})
	require.NoError(t, err)

	require.NoError(t, svc.ForceDeleteListing(ctx, listing.ID))
	assert.Equal(t, store.saved, store.deleted)

	// A second hard delete reports not found.
	err = svc.ForceDeleteListing(ctx, listing.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestListingService_SearchListings(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	_, err := svc.CreateListing(ctx, validInput("Walnut dresser"), 1, nil)
	require.NoError(t, err)

	results, err := svc.SearchListings("walnut", 0, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = svc.SearchListings(strings.Repeat("a", 101), 0, 10)
	assert.ErrorIs(t, err, ErrSearchTermTooLong)
}

func TestListingService_SearchTermMultibyte(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	// 100 multibyte runes are within the cap even though the byte
	// length is double.
	_, err := svc.SearchListings(strings.Repeat("æ", 100), 0, 10)
	assert.NoError(t, err)

	_, err = svc.SearchListings(strings.Repeat("æ", 101), 0, 10)
	assert.ErrorIs(t, err, ErrSearchTermTooLong)

	// Truncation cuts on a rune boundary, never mid-sequence.
	sanitized := sanitizeSearchTerm(strings.Repeat("æ", 150))
	assert.True(t, utf8.ValidString(sanitized))
	assert.Equal(t, 100, utf8.RuneCountInString(sanitized))
}

func TestListingService_ListListings_UnprivilegedSeesActiveOnly(t *testing.T) {
	testDB, svc, _ := setupServiceTest(t)
	defer db.CleanupTestDB(testDB)

	ctx := context.Background()
	_, err := svc.CreateListing(ctx, validInput("Active one"), 1, nil)
	require.NoError(t, err)

	input := validInput("Draft one")
	input.Status = model.StatusDraft
	_, err = svc.CreateListing(ctx, input, 1, nil)
	require.NoError(t, err)

	// Guests only see the active catalog, even with a status filter.
	draft := model.StatusDraft
	listings, total, err := svc.ListListings(ListQuery{Status: &draft}, false)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Active one", listings[0].Title)
	assert.Equal(t, int64(1), total)

	// Privileged callers can filter on any status.
	listings, total, err = svc.ListListings(ListQuery{Status: &draft}, true)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Draft one", listings[0].Title)
	assert.Equal(t, int64(1), total)
}

func uintPtr(v uint) *uint { return &v }
