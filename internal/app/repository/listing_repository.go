package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/genbyt/genbyt-backend/internal/app/model"
	apperrors "github.com/genbyt/genbyt-backend/internal/errors"
	"github.com/genbyt/genbyt-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrPriceFieldsMismatch is returned when exactly one of amount/currency
	// is provided. The pair is both-or-neither.
	ErrPriceFieldsMismatch = errors.New("price amount and currency must be set together")
	// ErrNoPrice is returned by MarkSold for a listing without a price.
	ErrNoPrice = errors.New("listing has no price set")
	// ErrAlreadySold is returned when a sold listing is marked sold again.
	ErrAlreadySold = errors.New("listing is already sold")
	// ErrInvalidTransition is returned for a status change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNegativeQuantity is returned when a write would set quantity < 0.
	ErrNegativeQuantity = errors.New("quantity must not be negative")
)

type ListingSort string

const (
	SortNewest    ListingSort = "newest"
	SortOldest    ListingSort = "oldest"
	SortPriceLow  ListingSort = "price_low"
	SortPriceHigh ListingSort = "price_high"
	SortTitle     ListingSort = "title"
	SortRelevance ListingSort = "relevance"
)

// ListingFilter is the single predicate set shared by FindWithFilter and
// CountWithFilter. All predicates combine with AND semantics.
type ListingFilter struct {
	Category   string  // category-name substring
	MinPrice   *float64
	MaxPrice   *float64
	LocationID *uint
	Condition  string // condition substring
	Status     *model.ListingStatus
	Search     string // free text over title+description, pre-sanitized
	SortBy     ListingSort
}

// CreateListingInput carries everything the create transaction writes.
// MediaURLs must already be saved in the media store.
type CreateListingInput struct {
	Title         string
	Description   string
	CategoryID    uint
	Condition     model.ListingCondition
	Quantity      int
	PriceAmount   *float64
	PriceCurrency *string
	Status        model.ListingStatus
	LocationID    uint
	WidthCM       *float64
	HeightCM      *float64
	DepthCM       *float64
	WeightKG      *float64
	TermIDs       map[model.TermKind][]uint
	MediaURLs     []string
}

// ListingPatch applies only the provided (non-nil) fields. A TermIDs entry
// replaces that vocabulary's joins clear-then-set; KeepMediaIDs, when
// present, deletes media rows outside the set.
type ListingPatch struct {
	Title         *string
	Description   *string
	CategoryID    *uint
	Condition     *model.ListingCondition
	Quantity      *int
	PriceAmount   *float64
	PriceCurrency *string
	Status        *model.ListingStatus
	LocationID    *uint
	WidthCM       *float64
	HeightCM      *float64
	DepthCM       *float64
	WeightKG      *float64
	TermIDs       map[model.TermKind][]uint
	KeepMediaIDs  *[]uint
}

// HasNonStatusChanges reports whether the patch touches anything besides the
// status field. Used to reject sold patches mixed with other mutations.
func (p ListingPatch) HasNonStatusChanges() bool {
	return p.Title != nil || p.Description != nil || p.CategoryID != nil ||
		p.Condition != nil || p.Quantity != nil || p.PriceAmount != nil ||
		p.PriceCurrency != nil || p.LocationID != nil || p.WidthCM != nil ||
		p.HeightCM != nil || p.DepthCM != nil || p.WeightKG != nil ||
		p.TermIDs != nil || p.KeepMediaIDs != nil
}

// FindOptions controls FindByID scope and eager loading.
type FindOptions struct {
	IncludeDeleted bool
	LoadDetails    bool
}

// CatalogStatistics summarizes the listing collection.
type CatalogStatistics struct {
	TotalListings  int64   `json:"total_listings"`
	ActiveListings int64   `json:"active_listings"`
	SoldListings   int64   `json:"sold_listings"`
	ConversionRate float64 `json:"conversion_rate"`
	Revenue        float64 `json:"revenue_from_sold_listings"`
}

type ListingRepository interface {
	Create(input CreateListingInput, sellerID uint) (*model.Listing, error)
	FindByID(id uint, opts FindOptions) (*model.Listing, error)
	FindWithFilter(filter ListingFilter, skip, limit int) ([]model.Listing, error)
	CountWithFilter(filter ListingFilter) (int64, error)
	FindBySeller(sellerID uint, skip, limit int) ([]model.Listing, int64, error)
	FindRecent(limit int) ([]model.Listing, error)
	Update(id uint, patch ListingPatch, newMediaURLs []string) (*model.Listing, []string, error)
	MarkSold(id uint, buyerID *uint) (*model.Listing, error)
	SoftDelete(id uint) (bool, error)
	HardDelete(id uint) ([]string, error)
	RecordView(listingID, viewerID uint) (bool, error)
	Statistics() (CatalogStatistics, error)
	ListSoldArchive() ([]model.SoldArchive, error)
	ReconcileCounters() error
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func validatePricePair(amount *float64, currency *string) error {
	if (amount == nil) != (currency == nil) {
		return ErrPriceFieldsMismatch
	}
	return nil
}

func (r *listingRepository) Create(input CreateListingInput, sellerID uint) (*model.Listing, error) {
	if err := validatePricePair(input.PriceAmount, input.PriceCurrency); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	listing := &model.Listing{
		SellerID:      sellerID,
		Title:         input.Title,
		Description:   input.Description,
		CategoryID:    input.CategoryID,
		Condition:     input.Condition,
		Quantity:      input.Quantity,
		PriceAmount:   input.PriceAmount,
		PriceCurrency: input.PriceCurrency,
		Status:        input.Status,
		LocationID:    input.LocationID,
		WidthCM:       input.WidthCM,
		HeightCM:      input.HeightCM,
		DepthCM:       input.DepthCM,
		WeightKG:      input.WeightKG,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(listing).Error; err != nil {
			return err
		}

		// Initial ledger entry when the listing is created with a price.
		if listing.HasPrice() {
			entry := model.PriceHistory{
				ListingID: listing.ID,
				Amount:    *listing.PriceAmount,
				Currency:  *listing.PriceCurrency,
				ChangedAt: time.Now().UTC(),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}

		if err := replaceTermJoins(tx, listing.ID, input.TermIDs); err != nil {
			return err
		}

		for i, url := range input.MediaURLs {
			asset := model.MediaAsset{
				ListingID: listing.ID,
				URL:       url,
				SortOrder: i,
			}
			if err := tx.Create(&asset).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to create listing in database", err, map[string]interface{}{
			"title":     input.Title,
			"seller_id": sellerID,
		})
		return nil, err
	}

	logger.Debug("Listing created in database", map[string]interface{}{
		"listing_id": listing.ID,
		"seller_id":  sellerID,
	})
	return r.FindByID(listing.ID, FindOptions{LoadDetails: true})
}

func (r *listingRepository) baseQuery(loadDetails bool) *gorm.DB {
	query := r.db.Model(&model.Listing{}).
		Preload("Category").
		Preload("Location").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		})
	if loadDetails {
		query = query.
			Preload("PriceChanges", func(db *gorm.DB) *gorm.DB {
				return db.Order("changed_at ASC, id ASC")
			}).
			Preload("Terms.Term")
	}
	return query
}

func (r *listingRepository) FindByID(id uint, opts FindOptions) (*model.Listing, error) {
	query := r.baseQuery(opts.LoadDetails)
	if opts.IncludeDeleted {
		query = query.Unscoped()
	}

	var listing model.Listing
	if err := query.First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// applyFilter is the single place the predicate set is built. Both
// FindWithFilter and CountWithFilter go through it; adding a predicate to
// one but not the other is a correctness bug, not an approximation.
func applyFilter(query *gorm.DB, filter ListingFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.
			Joins("JOIN categories ON categories.id = listings.category_id").
			Where("LOWER(categories.name) LIKE ?", "%"+strings.ToLower(filter.Category)+"%")
	}
	if filter.MinPrice != nil {
		query = query.Where("listings.price_amount >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("listings.price_amount <= ?", *filter.MaxPrice)
	}
	if filter.LocationID != nil {
		query = query.Where("listings.location_id = ?", *filter.LocationID)
	}
	if filter.Condition != "" {
		query = query.Where("LOWER(listings.condition) LIKE ?", "%"+strings.ToLower(filter.Condition)+"%")
	}
	if filter.Status != nil {
		query = query.Where("listings.status = ?", *filter.Status)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(listings.title) LIKE ? OR LOWER(listings.description) LIKE ?", like, like)
	}
	return query
}

func applySorting(query *gorm.DB, filter ListingFilter) *gorm.DB {
	switch filter.SortBy {
	case SortOldest:
		return query.Order("listings.created_at ASC")
	case SortPriceLow:
		// Unpriced listings sort last under both price orders.
		return query.Order("listings.price_amount IS NULL").
			Order("listings.price_amount ASC")
	case SortPriceHigh:
		return query.Order("listings.price_amount IS NULL").
			Order("listings.price_amount DESC")
	case SortTitle:
		return query.Order("listings.title ASC")
	case SortRelevance:
		if filter.Search != "" {
			like := "%" + strings.ToLower(filter.Search) + "%"
			// Rank and recency tiebreak live in one ORDER BY expression:
			// chaining a separate Order() would merge into this clause and
			// drop the CASE ranking.
			rank := clause.OrderBy{Expression: clause.Expr{
				SQL: "CASE WHEN LOWER(listings.title) LIKE ? THEN 2 " +
					"WHEN LOWER(listings.description) LIKE ? THEN 1 ELSE 0 END DESC, " +
					"listings.created_at DESC",
				Vars:               []interface{}{like, like},
				WithoutParentheses: true,
			}}
			return query.Clauses(rank)
		}
		return query.Order("listings.created_at DESC")
	case SortNewest:
		fallthrough
	default:
		return query.Order("listings.created_at DESC")
	}
}

func (r *listingRepository) FindWithFilter(filter ListingFilter, skip, limit int) ([]model.Listing, error) {
	query := applyFilter(r.baseQuery(false), filter)
	query = applySorting(query, filter)

	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var listings []model.Listing
	if err := query.Find(&listings).Error; err != nil {
		logger.Error("Failed to find listings with filter", err, map[string]interface{}{
			"category": filter.Category,
			"search":   filter.Search,
			"sort_by":  filter.SortBy,
		})
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) CountWithFilter(filter ListingFilter) (int64, error) {
	var count int64
	query := applyFilter(r.db.Model(&model.Listing{}), filter)
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to count listings with filter", err, nil)
		return 0, err
	}
	return count, nil
}

func (r *listingRepository) FindBySeller(sellerID uint, skip, limit int) ([]model.Listing, int64, error) {
	var listings []model.Listing
	query := r.baseQuery(false).
		Where("listings.seller_id = ?", sellerID).
		Order("listings.created_at DESC")
	if skip > 0 {
		query = query.Offset(skip)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.Model(&model.Listing{}).
		Where("seller_id = ?", sellerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *listingRepository) FindRecent(limit int) ([]model.Listing, error) {
	active := model.StatusActive
	return r.FindWithFilter(ListingFilter{Status: &active, SortBy: SortNewest}, 0, limit)
}

func (r *listingRepository) Update(id uint, patch ListingPatch, newMediaURLs []string) (*model.Listing, []string, error) {
	var deletedMediaURLs []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Tombstoned listings stay updatable through the owner/admin path.
		var listing model.Listing
		if err := tx.Unscoped().First(&listing, id).Error; err != nil {
			return err
		}

		// Price change goes through the ledger: append only if the
		// (amount, currency) pair actually changed.
		if patch.PriceAmount != nil || patch.PriceCurrency != nil {
			newAmount := listing.PriceAmount
			newCurrency := listing.PriceCurrency
			if patch.PriceAmount != nil {
				newAmount = patch.PriceAmount
			}
			if patch.PriceCurrency != nil {
				newCurrency = patch.PriceCurrency
			}
			if err := validatePricePair(newAmount, newCurrency); err != nil {
				return err
			}
			if err := recordPriceIfChanged(tx, &listing, newAmount, newCurrency); err != nil {
				return err
			}
			listing.PriceAmount = newAmount
			listing.PriceCurrency = newCurrency
		}

		if patch.Status != nil && *patch.Status != listing.Status {
			if !model.CanTransition(listing.Status, *patch.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, listing.Status, *patch.Status)
			}
			listing.Status = *patch.Status
			if *patch.Status == model.StatusSold {
				now := time.Now().UTC()
				listing.SoldAt = &now
			}
		}

		if patch.TermIDs != nil {
			if err := replaceTermJoins(tx, listing.ID, patch.TermIDs); err != nil {
				return err
			}
		}

		urls, err := applyMediaPatch(tx, listing.ID, patch.KeepMediaIDs, newMediaURLs)
		if err != nil {
			return err
		}
		deletedMediaURLs = urls

		if patch.Title != nil {
			listing.Title = *patch.Title
		}
		if patch.Description != nil {
			listing.Description = *patch.Description
		}
		if patch.CategoryID != nil {
			listing.CategoryID = *patch.CategoryID
		}
		if patch.Condition != nil {
			listing.Condition = *patch.Condition
		}
		if patch.Quantity != nil {
			if *patch.Quantity < 0 {
				return ErrNegativeQuantity
			}
			listing.Quantity = *patch.Quantity
		}
		if patch.LocationID != nil {
			listing.LocationID = *patch.LocationID
		}
		if patch.WidthCM != nil {
			listing.WidthCM = patch.WidthCM
		}
		if patch.HeightCM != nil {
			listing.HeightCM = patch.HeightCM
		}
		if patch.DepthCM != nil {
			listing.DepthCM = patch.DepthCM
		}
		if patch.WeightKG != nil {
			listing.WeightKG = patch.WeightKG
		}

		listing.UpdatedAt = time.Now().UTC()
		return tx.Unscoped().Omit("Category", "Location", "Media", "PriceChanges", "Terms").
			Save(&listing).Error
	})
	if err != nil {
		logger.Error("Failed to update listing in database", err, map[string]interface{}{
			"listing_id": id,
		})
		return nil, nil, err
	}

	updated, err := r.FindByID(id, FindOptions{IncludeDeleted: true, LoadDetails: true})
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("Listing updated in database", map[string]interface{}{
		"listing_id":    id,
		"deleted_media": len(deletedMediaURLs),
		"new_media":     len(newMediaURLs),
	})
	return updated, deletedMediaURLs, nil
}

// recordPriceIfChanged appends a ledger entry when the new pair differs from
// the listing's current pair. The entry's ordering key is (changed_at, id);
// the auto-increment id breaks timestamp collisions between concurrent
// updates.
func recordPriceIfChanged(tx *gorm.DB, listing *model.Listing, newAmount *float64, newCurrency *string) error {
	if newAmount == nil {
		return nil
	}
	if listing.PriceAmount != nil && listing.PriceCurrency != nil &&
		*listing.PriceAmount == *newAmount && *listing.PriceCurrency == *newCurrency {
		return nil
	}
	entry := model.PriceHistory{
		ListingID: listing.ID,
		Amount:    *newAmount,
		Currency:  *newCurrency,
		ChangedAt: time.Now().UTC(),
	}
	return tx.Create(&entry).Error
}

// applyMediaPatch deletes rows outside keepIDs (returning their URLs for
// post-commit byte cleanup), appends newURLs after the current max sort
// order, then resequences the survivors to a contiguous 0..n-1.
func applyMediaPatch(tx *gorm.DB, listingID uint, keepIDs *[]uint, newURLs []string) ([]string, error) {
	var deletedURLs []string

	if keepIDs != nil {
		keep := make(map[uint]bool, len(*keepIDs))
		for _, id := range *keepIDs {
			keep[id] = true
		}

		var current []model.MediaAsset
		if err := tx.Where("listing_id = ?", listingID).Find(&current).Error; err != nil {
			return nil, err
		}
		for _, asset := range current {
			if !keep[asset.ID] {
				deletedURLs = append(deletedURLs, asset.URL)
				if err := tx.Delete(&model.MediaAsset{}, asset.ID).Error; err != nil {
					return nil, err
				}
			}
		}
	}

	if len(newURLs) > 0 {
		var maxSort int
		row := tx.Model(&model.MediaAsset{}).
			Where("listing_id = ?", listingID).
			Select("COALESCE(MAX(sort_order), -1)").
			Row()
		if err := row.Scan(&maxSort); err != nil {
			return nil, err
		}
		for i, url := range newURLs {
			asset := model.MediaAsset{
				ListingID: listingID,
				URL:       url,
				SortOrder: maxSort + 1 + i,
			}
			if err := tx.Create(&asset).Error; err != nil {
				return nil, err
			}
		}
	}

	if keepIDs != nil || len(newURLs) > 0 {
		if err := resequenceMedia(tx, listingID); err != nil {
			return nil, err
		}
	}
	return deletedURLs, nil
}

// resequenceMedia closes the gaps deletions leave so sort orders are
// contiguous from 0 at every commit boundary.
func resequenceMedia(tx *gorm.DB, listingID uint) error {
	var assets []model.MediaAsset
	if err := tx.Where("listing_id = ?", listingID).
		Order("sort_order ASC, id ASC").
		Find(&assets).Error; err != nil {
		return err
	}
	for i, asset := range assets {
		if asset.SortOrder == i {
			continue
		}
		if err := tx.Model(&model.MediaAsset{}).
			Where("id = ?", asset.ID).
			Update("sort_order", i).Error; err != nil {
			return err
		}
	}
	return nil
}

// replaceTermJoins applies clear-then-set per vocabulary kind. Kinds absent
// from termIDs are untouched.
func replaceTermJoins(tx *gorm.DB, listingID uint, termIDs map[model.TermKind][]uint) error {
	for kind, ids := range termIDs {
		err := tx.Where(
			"listing_id = ? AND term_id IN (SELECT id FROM terms WHERE kind = ?)",
			listingID, kind,
		).Delete(&model.ListingTerm{}).Error
		if err != nil {
			return err
		}
		for _, termID := range ids {
			join := model.ListingTerm{ListingID: listingID, TermID: termID}
			if err := tx.Create(&join).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// MarkSold runs the archive snapshot and the status flip as one indivisible
// transaction. A guarded UPDATE (status <> sold) is the concurrency gate:
// the loser of a concurrent race rolls back its archive row.
func (r *listingRepository) MarkSold(id uint, buyerID *uint) (*model.Listing, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		if err := tx.First(&listing, id).Error; err != nil {
			return err
		}
		if listing.Status == model.StatusSold {
			return ErrAlreadySold
		}
		if !listing.HasPrice() {
			return ErrNoPrice
		}

		now := time.Now().UTC()
		archive := model.SoldArchive{
			ListingID:     &listing.ID,
			BuyerID:       buyerID,
			Title:         listing.Title,
			CategoryID:    listing.CategoryID,
			LocationID:    listing.LocationID,
			PriceAmount:   listing.PriceAmount,
			PriceCurrency: listing.PriceCurrency,
			SoldAt:        now,
		}
		if err := tx.Create(&archive).Error; err != nil {
			return err
		}

		result := tx.Model(&model.Listing{}).
			Where("id = ? AND status <> ?", id, model.StatusSold).
			Updates(map[string]interface{}{
				"status":     model.StatusSold,
				"sold_at":    now,
				"updated_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// A concurrent transaction won the flip.
			return ErrAlreadySold
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNoPrice) && !errors.Is(err, ErrAlreadySold) && !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to mark listing sold", err, map[string]interface{}{
				"listing_id": id,
			})
		}
		return nil, err
	}

	logger.Info("Listing marked sold", map[string]interface{}{
		"listing_id": id,
	})
	return r.FindByID(id, FindOptions{LoadDetails: true})
}

func (r *listingRepository) SoftDelete(id uint) (bool, error) {
	now := time.Now().UTC()
	result := r.db.Model(&model.Listing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": now,
			"updated_at": now,
		})
	if result.Error != nil {
		logger.Error("Failed to soft delete listing", result.Error, map[string]interface{}{
			"listing_id": id,
		})
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	logger.Debug("Listing soft deleted", map[string]interface{}{
		"listing_id": id,
	})
	return true, nil
}

// HardDelete removes the listing and every dependent row in one
// transaction and returns the media URLs for the caller to purge from the
// byte store after this call returns. Sold-archive rows survive with their
// listing reference nulled.
func (r *listingRepository) HardDelete(id uint) ([]string, error) {
	var mediaURLs []string

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		if err := tx.Unscoped().First(&listing, id).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.MediaAsset{}).
			Where("listing_id = ?", id).
			Pluck("url", &mediaURLs).Error; err != nil {
			return err
		}

		dependents := []interface{}{
			&model.ListingTerm{},
			&model.PriceHistory{},
			&model.MediaAsset{},
			&model.ListingView{},
			&model.Favorite{},
		}
		for _, dep := range dependents {
			if err := tx.Where("listing_id = ?", id).Delete(dep).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&model.SoldArchive{}).
			Where("listing_id = ?", id).
			Update("listing_id", nil).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&model.Listing{}, id).Error
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to hard delete listing", err, map[string]interface{}{
				"listing_id": id,
			})
		}
		return nil, err
	}

	logger.Info("Listing hard deleted", map[string]interface{}{
		"listing_id":  id,
		"media_count": len(mediaURLs),
	})
	return mediaURLs, nil
}

// RecordView inserts a view edge only if the (listing, viewer) pair is new.
// The unique index is the authoritative guard; the pre-check just avoids a
// doomed insert. The denormalized counter moves in the same transaction as
// the edge.
func (r *listingRepository) RecordView(listingID, viewerID uint) (bool, error) {
	var existing int64
	err := r.db.Model(&model.ListingView{}).
		Where("listing_id = ? AND viewer_id = ?", listingID, viewerID).
		Count(&existing).Error
	if err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		view := model.ListingView{
			ListingID: listingID,
			ViewerID:  viewerID,
			ViewedAt:  time.Now().UTC(),
		}
		if err := tx.Create(&view).Error; err != nil {
			return err
		}
		return tx.Model(&model.Listing{}).
			Where("id = ?", listingID).
			Update("views_count", gorm.Expr("views_count + ?", 1)).Error
	})
	if err != nil {
		// A concurrent first view hitting the unique index is a benign
		// duplicate, not an error.
		if apperrors.IsUniqueViolation(err) {
			return false, nil
		}
		logger.Error("Failed to record listing view", err, map[string]interface{}{
			"listing_id": listingID,
			"viewer_id":  viewerID,
		})
		return false, err
	}
	return true, nil
}

func (r *listingRepository) Statistics() (CatalogStatistics, error) {
	var stats CatalogStatistics

	if err := r.db.Model(&model.Listing{}).Count(&stats.TotalListings).Error; err != nil {
		return stats, err
	}
	if err := r.db.Model(&model.Listing{}).
		Where("status = ?", model.StatusSold).
		Count(&stats.SoldListings).Error; err != nil {
		return stats, err
	}
	stats.ActiveListings = stats.TotalListings - stats.SoldListings

	var revenue *float64
	if err := r.db.Model(&model.Listing{}).
		Where("status = ?", model.StatusSold).
		Select("SUM(price_amount)").
		Scan(&revenue).Error; err != nil {
		return stats, err
	}
	if revenue != nil {
		stats.Revenue = *revenue
	}
	if stats.TotalListings > 0 {
		stats.ConversionRate = float64(stats.SoldListings) / float64(stats.TotalListings) * 100
	}
	return stats, nil
}

func (r *listingRepository) ListSoldArchive() ([]model.SoldArchive, error) {
	var records []model.SoldArchive
	if err := r.db.Order("sold_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ReconcileCounters recomputes the denormalized view/like counters from the
// edge tables. The transactional counters are authoritative in the normal
// path; this is the scheduled safety net.
func (r *listingRepository) ReconcileCounters() error {
	err := r.db.Exec(`
		UPDATE listings SET
			views_count = (SELECT COUNT(*) FROM listing_views WHERE listing_views.listing_id = listings.id),
			likes_count = (SELECT COUNT(*) FROM favorites WHERE favorites.listing_id = listings.id)
	`).Error
	if err != nil {
		logger.Error("Failed to reconcile listing counters", err)
		return err
	}
	logger.Debug("Listing counters reconciled", nil)
	return nil
}

