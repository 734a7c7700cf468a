package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/genbyt/genbyt-backend/config"
	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/internal/storage"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingAccessDenied = errors.New("listing access denied")
	ErrMissingPrice        = errors.New("listing must have a price to be marked as sold")
	ErrListingAlreadySold  = errors.New("listing is already sold")
	ErrInvalidStatusChange = errors.New("invalid status change")
	ErrInvalidCondition    = errors.New("invalid listing condition")
	ErrInvalidInitialState = errors.New("a listing must be created as draft or active")
	ErrTitleRequired       = errors.New("listing title is required")
	ErrSearchTermTooLong   = errors.New("search term is too long (maximum 100 characters)")
	// ErrSoldPatchNotExclusive rejects an update that combines status=sold
	// with other mutable fields; marking sold snapshots the listing as it
	// is, so the caller must split the calls.
	ErrSoldPatchNotExclusive = errors.New("a sold status change cannot be combined with other changes")
)

const maxSearchTermLength = 100

// ViewCache is an optional pre-check for already-recorded view pairs,
// saving a round trip to the store. It is an optimization only: the
// storage-level unique constraint remains the source of truth.
type ViewCache interface {
	Seen(ctx context.Context, listingID, viewerID uint) bool
	Mark(ctx context.Context, listingID, viewerID uint)
}

// ListQuery is the caller-facing filter/sort/pagination surface.
type ListQuery struct {
	Category   string
	MinPrice   *float64
	MaxPrice   *float64
	LocationID *uint
	Condition  string
	Status     *model.ListingStatus
	Search     string
	Sort       repository.ListingSort
	Skip       int
	Limit      int
}

type ListingService interface {
	CreateListing(ctx context.Context, input repository.CreateListingInput, sellerID uint, files []storage.Upload) (*model.Listing, error)
	GetListingByID(ctx context.Context, id uint, viewerID *uint, isAdmin bool) (*model.Listing, error)
	ListListings(query ListQuery, privileged bool) ([]model.Listing, int64, error)
	ListBySeller(sellerID uint, skip, limit int) ([]model.Listing, int64, error)
	GetRecentListings(limit int) ([]model.Listing, error)
	SearchListings(term string, skip, limit int) ([]model.Listing, error)
	UpdateListing(ctx context.Context, id uint, patch repository.ListingPatch, actorID uint, isAdmin bool, files []storage.Upload) (*model.Listing, error)
	MarkListingSold(id uint, actorID uint, isAdmin bool, buyerID *uint) (*model.Listing, error)
	ToggleListingStatus(id uint, actorID uint, isAdmin bool) (*model.Listing, error)
	DeleteListing(id uint, actorID uint) error
	ForceDeleteListing(ctx context.Context, id uint) error
	RecordViewIfEligible(ctx context.Context, listingID, viewerID uint) (bool, error)
}

type listingService struct {
	listingRepo repository.ListingRepository
	store       storage.Storage
	upload      config.UploadConfig
	viewCache   ViewCache
}

func NewListingService(listingRepo repository.ListingRepository, store storage.Storage, upload config.UploadConfig, viewCache ViewCache) ListingService {
	return &listingService{
		listingRepo: listingRepo,
		store:       store,
		upload:      upload,
		viewCache:   viewCache,
	}
}

func (s *listingService) saveOptions() storage.SaveOptions {
	return storage.SaveOptions{
		MaxCount:        s.upload.MaxFilesPerListing,
		MaxBytesPerFile: s.upload.MaxBytesPerFile,
	}
}

func (s *listingService) CreateListing(ctx context.Context, input repository.CreateListingInput, sellerID uint, files []storage.Upload) (*model.Listing, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if !model.IsValidCondition(input.Condition) {
		return nil, ErrInvalidCondition
	}
	if input.Status == "" {
		input.Status = model.StatusActive
	}
	if input.Status != model.StatusDraft && input.Status != model.StatusActive {
		return nil, ErrInvalidInitialState
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	// Bytes are written before the rows that link them; a failed
	// transaction triggers compensating byte deletion.
	savedURLs, err := s.store.ValidateAndSave(ctx, files, s.saveOptions())
	if err != nil {
		return nil, err
	}
	input.MediaURLs = savedURLs

	logger.Info("Creating new listing", map[string]interface{}{
		"title":     input.Title,
		"seller_id": sellerID,
		"media":     len(savedURLs),
	})

	listing, err := s.listingRepo.Create(input, sellerID)
	if err != nil {
		if len(savedURLs) > 0 {
			s.store.Delete(ctx, savedURLs)
		}
		logger.Error("Failed to create listing", err, map[string]interface{}{
			"title":     input.Title,
			"seller_id": sellerID,
		})
		return nil, err
	}

	logger.Info("Listing created successfully", map[string]interface{}{
		"listing_id": listing.ID,
		"seller_id":  sellerID,
	})
	return listing, nil
}

// GetListingByID loads a listing with full details, applying visibility
// rules: non-owners only see active or sold listings and never tombstoned
// ones. Fetching as an authenticated non-owner records a view.
func (s *listingService) GetListingByID(ctx context.Context, id uint, viewerID *uint, isAdmin bool) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(id, repository.FindOptions{IncludeDeleted: true, LoadDetails: true})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		logger.Error("Failed to fetch listing", err, map[string]interface{}{
			"listing_id": id,
		})
		return nil, err
	}

	isOwner := viewerID != nil && *viewerID == listing.SellerID
	if !isOwner && !isAdmin {
		if listing.DeletedAt.Valid {
			return nil, ErrListingNotFound
		}
		if listing.Status != model.StatusActive && listing.Status != model.StatusSold {
			return nil, ErrListingNotFound
		}
	}

	if viewerID != nil && !isOwner && !listing.DeletedAt.Valid {
		recorded, err := s.RecordViewIfEligible(ctx, id, *viewerID)
		if err != nil {
			logger.Warn("Failed to record listing view", map[string]interface{}{
				"listing_id": id,
				"viewer_id":  *viewerID,
				"error":      err.Error(),
			})
		} else if recorded {
			listing.ViewsCount++
		}
	}
	return listing, nil
}

func (s *listingService) ListListings(query ListQuery, privileged bool) ([]model.Listing, int64, error) {
	filter := repository.ListingFilter{
		Category:   query.Category,
		MinPrice:   query.MinPrice,
		MaxPrice:   query.MaxPrice,
		LocationID: query.LocationID,
		Condition:  query.Condition,
		Status:     query.Status,
		Search:     sanitizeSearchTerm(query.Search),
		SortBy:     query.Sort,
	}

	// Unprivileged callers only browse the active catalog.
	if !privileged {
		active := model.StatusActive
		filter.Status = &active
	}

	// Relevance ranking needs something to rank against.
	if filter.SortBy == repository.SortRelevance && filter.Search == "" {
		filter.SortBy = repository.SortNewest
	}

	listings, err := s.listingRepo.FindWithFilter(filter, query.Skip, query.Limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.listingRepo.CountWithFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	logger.Debug("Listings listed", map[string]interface{}{
		"count": len(listings),
		"total": total,
	})
	return listings, total, nil
}

func (s *listingService) ListBySeller(sellerID uint, skip, limit int) ([]model.Listing, int64, error) {
	return s.listingRepo.FindBySeller(sellerID, skip, limit)
}

func (s *listingService) GetRecentListings(limit int) ([]model.Listing, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.listingRepo.FindRecent(limit)
}

// SearchListings caps and sanitizes the term before it reaches the
// repository's search predicate.
func (s *listingService) SearchListings(term string, skip, limit int) ([]model.Listing, error) {
	trimmed := strings.TrimSpace(term)
	if utf8.RuneCountInString(trimmed) > maxSearchTermLength {
		return nil, ErrSearchTermTooLong
	}

	active := model.StatusActive
	filter := repository.ListingFilter{
		Status: &active,
		Search: html.EscapeString(trimmed),
		SortBy: repository.SortRelevance,
	}
	return s.listingRepo.FindWithFilter(filter, skip, limit)
}

func sanitizeSearchTerm(term string) string {
	trimmed := strings.TrimSpace(term)
	// Truncate by runes so a multibyte character is never split into
	// invalid UTF-8.
	if runes := []rune(trimmed); len(runes) > maxSearchTermLength {
		trimmed = string(runes[:maxSearchTermLength])
	}
	return html.EscapeString(trimmed)
}

func (s *listingService) UpdateListing(ctx context.Context, id uint, patch repository.ListingPatch, actorID uint, isAdmin bool, files []storage.Upload) (*model.Listing, error) {
	listing, err := s.loadForActor(id, actorID, isAdmin)
	if err != nil {
		return nil, err
	}

	if patch.Condition != nil && !model.IsValidCondition(*patch.Condition) {
		return nil, ErrInvalidCondition
	}

	// A sold transition snapshots the listing as it currently is; it
	// cannot be combined with other mutations in the same call.
	if patch.Status != nil && *patch.Status == model.StatusSold {
		if patch.HasNonStatusChanges() || len(files) > 0 {
			return nil, ErrSoldPatchNotExclusive
		}
		if !listing.HasPrice() {
			return nil, ErrMissingPrice
		}
		return s.markSold(id, nil)
	}

	savedURLs, err := s.store.ValidateAndSave(ctx, files, s.saveOptions())
	if err != nil {
		return nil, err
	}

	updated, deletedURLs, err := s.listingRepo.Update(id, patch, savedURLs)
	if err != nil {
		// The transaction rolled back; the bytes written above would
		// be orphaned without compensating deletion.
		if len(savedURLs) > 0 {
			s.store.Delete(ctx, savedURLs)
		}
		switch {
		case errors.Is(err, repository.ErrInvalidTransition):
			return nil, ErrInvalidStatusChange
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrListingNotFound
		default:
			logger.Error("Failed to update listing", err, map[string]interface{}{
				"listing_id": id,
				"actor_id":   actorID,
			})
			return nil, err
		}
	}

	// Byte deletion for replaced media happens only after the commit, so
	// a rollback can never leave rows pointing at deleted bytes.
	if len(deletedURLs) > 0 {
		s.store.Delete(ctx, deletedURLs)
	}

	logger.Info("Listing updated successfully", map[string]interface{}{
		"listing_id": id,
		"actor_id":   actorID,
	})
	return updated, nil
}

func (s *listingService) MarkListingSold(id uint, actorID uint, isAdmin bool, buyerID *uint) (*model.Listing, error) {
	listing, err := s.loadForActor(id, actorID, isAdmin)
	if err != nil {
		return nil, err
	}
	if !listing.HasPrice() {
		return nil, ErrMissingPrice
	}
	return s.markSold(id, buyerID)
}

func (s *listingService) markSold(id uint, buyerID *uint) (*model.Listing, error) {
	listing, err := s.listingRepo.MarkSold(id, buyerID)
	switch {
	case errors.Is(err, repository.ErrNoPrice):
		return nil, ErrMissingPrice
	case errors.Is(err, repository.ErrAlreadySold):
		return nil, ErrListingAlreadySold
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrListingNotFound
	case err != nil:
		return nil, err
	}
	return listing, nil
}

// ToggleListingStatus flips an active listing to paused and a paused or
// draft listing to active.
func (s *listingService) ToggleListingStatus(id uint, actorID uint, isAdmin bool) (*model.Listing, error) {
	listing, err := s.loadForActor(id, actorID, isAdmin)
	if err != nil {
		return nil, err
	}
	if listing.Status == model.StatusSold {
		return nil, ErrListingAlreadySold
	}

	next := model.StatusActive
	if listing.Status == model.StatusActive {
		next = model.StatusPaused
	}

	updated, _, err := s.listingRepo.Update(id, repository.ListingPatch{Status: &next}, nil)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, ErrInvalidStatusChange
		}
		return nil, err
	}
	return updated, nil
}

// DeleteListing is the owner-only soft delete: the row is tombstoned, its
// price history and media rows untouched.
func (s *listingService) DeleteListing(id uint, actorID uint) error {
	listing, err := s.listingRepo.FindByID(id, repository.FindOptions{})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}
	if listing.SellerID != actorID {
		logger.Warn("Listing delete forbidden", map[string]interface{}{
			"listing_id": id,
			"actor_id":   actorID,
			"seller_id":  listing.SellerID,
		})
		return ErrListingAccessDenied
	}

	deleted, err := s.listingRepo.SoftDelete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrListingNotFound
	}

	logger.Info("Listing soft deleted", map[string]interface{}{
		"listing_id": id,
		"actor_id":   actorID,
	})
	return nil
}

// ForceDeleteListing is the privileged hard delete: dependent rows go first
// in one transaction, then the media bytes are purged best-effort.
func (s *listingService) ForceDeleteListing(ctx context.Context, id uint) error {
	mediaURLs, err := s.listingRepo.HardDelete(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	if len(mediaURLs) > 0 {
		s.store.Delete(ctx, mediaURLs)
	}

	logger.Info("Listing force deleted", map[string]interface{}{
		"listing_id":  id,
		"media_count": len(mediaURLs),
	})
	return nil
}

// RecordViewIfEligible records a view unless the viewer owns the listing.
// The optional cache short-circuits repeat viewers; the repository's unique
// constraint remains authoritative.
func (s *listingService) RecordViewIfEligible(ctx context.Context, listingID, viewerID uint) (bool, error) {
	listing, err := s.listingRepo.FindByID(listingID, repository.FindOptions{})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrListingNotFound
		}
		return false, err
	}
	if listing.SellerID == viewerID {
		return false, nil
	}

	if s.viewCache != nil && s.viewCache.Seen(ctx, listingID, viewerID) {
		return false, nil
	}

	recorded, err := s.listingRepo.RecordView(listingID, viewerID)
	if err != nil {
		return false, err
	}
	if s.viewCache != nil {
		s.viewCache.Mark(ctx, listingID, viewerID)
	}
	return recorded, nil
}

func (s *listingService) loadForActor(id uint, actorID uint, isAdmin bool) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(id, repository.FindOptions{IncludeDeleted: isAdmin})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !isAdmin && listing.SellerID != actorID {
		logger.Warn("Listing mutation forbidden", map[string]interface{}{
			"listing_id": id,
			"actor_id":   actorID,
			"seller_id":  listing.SellerID,
		})
		return nil, ErrListingAccessDenied
	}
	return listing, nil
}
