package controller

import (
	goerrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/internal/app/repository"
	"github.com/genbyt/genbyt-backend/internal/app/service"
	"github.com/genbyt/genbyt-backend/internal/errors"
	"github.com/genbyt/genbyt-backend/internal/middleware"
	"github.com/genbyt/genbyt-backend/internal/storage"
)

type ListingController struct {
	listingService service.ListingService
}

func NewListingController(listingService service.ListingService) *ListingController {
	return &ListingController{
		listingService: listingService,
	}
}

// ListListings returns the filtered, sorted catalog page
// GET /api/v1/listings
func (ctrl *ListingController) ListListings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	query := service.ListQuery{
		Category:  c.Query("category"),
		Condition: c.Query("condition"),
		Search:    c.Query("search"),
		Sort:      repository.ListingSort(c.DefaultQuery("sort", "newest")),
		Skip:      parseIntQuery(c, "skip", 0),
		Limit:     parseIntQuery(c, "limit", 20),
	}
	if v := c.Query("min_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			query.MinPrice = &f
		}
	}
	if v := c.Query("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			query.MaxPrice = &f
		}
	}
	if v := c.Query("location_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			locationID := uint(id)
			query.LocationID = &locationID
		}
	}
	if v := c.Query("status"); v != "" {
		status := model.ListingStatus(v)
		query.Status = &status
	}

	listings, total, err := ctrl.listingService.ListListings(query, middleware.IsAdmin(c))
	if err != nil {
		log.Error("Failed to fetch listings", err, nil)
		errors.InternalError(c, "Failed to fetch listings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
		"total":    total,
	})
}

// GetRecentListings returns the newest active listings
// GET /api/v1/listings/recent
func (ctrl *ListingController) GetRecentListings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit := parseIntQuery(c, "limit", 10)
	listings, err := ctrl.listingService.GetRecentListings(limit)
	if err != nil {
		log.Error("Failed to fetch recent listings", err, nil)
		errors.InternalError(c, "Failed to fetch recent listings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// SearchListings runs a sanitized full-text search over active listings
// GET /api/v1/listings/search?q=
func (ctrl *ListingController) SearchListings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	term := c.Query("q")
	skip := parseIntQuery(c, "skip", 0)
	limit := parseIntQuery(c, "limit", 20)

	listings, err := ctrl.listingService.SearchListings(term, skip, limit)
	if err != nil {
		if goerrors.Is(err, service.ErrSearchTermTooLong) {
			errors.BadRequest(c, errors.ValidationTooLong, err.Error())
			return
		}
		log.Error("Failed to search listings", err, map[string]interface{}{
			"term": term,
		})
		errors.InternalError(c, "Failed to search listings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
	})
}

// GetMyListings returns the authenticated seller's listings, all statuses
// GET /api/v1/listings/my
func (ctrl *ListingController) GetMyListings(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		errors.Unauthorized(c, "Authentication required")
		return
	}

	skip := parseIntQuery(c, "skip", 0)
	limit := parseIntQuery(c, "limit", 20)

	listings, total, err := ctrl.listingService.ListBySeller(userID, skip, limit)
	if err != nil {
		log.Error("Failed to fetch seller listings", err, map[string]interface{}{
			"seller_id": userID,
		})
		errors.InternalError(c, "Failed to fetch listings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"count":    len(listings),
		"total":    total,
	})
}

// GetListingByID returns one listing with full details
// GET /api/v1/listings/:id
func (ctrl *ListingController) GetListingByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var viewerID *uint
	if userID, authed := middleware.CurrentUserID(c); authed {
		viewerID = &userID
	}

	listing, err := ctrl.listingService.GetListingByID(c.Request.Context(), id, viewerID, middleware.IsAdmin(c))
	if err != nil {
		ctrl.respondListingError(c, err, id)
		return
	}

	log.Debug("Listing fetched successfully", map[string]interface{}{
		"listing_id": listing.ID,
	})
	c.JSON(http.StatusOK, gin.H{
		"listing": listing,
	})
}

// CreateListing creates a listing from a multipart form, images included
// POST /api/v1/listings
func (ctrl *ListingController) CreateListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		errors.Unauthorized(c, "Authentication required")
		return
	}

	input, err := parseCreateForm(c)
	if err != nil {
		log.Warn("Invalid listing creation request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	files, err := parseUploads(c)
	if err != nil {
		errors.BadRequest(c, errors.UploadInvalidFile, err.Error())
		return
	}

	listing, err := ctrl.listingService.CreateListing(c.Request.Context(), input, userID, files)
	if err != nil {
		ctrl.respondListingError(c, err, 0)
		return
	}

	log.Info("Listing created successfully", map[string]interface{}{
		"listing_id": listing.ID,
		"seller_id":  userID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"listing": listing,
	})
}

// UpdateListing applies a partial update from a multipart form
// PUT /api/v1/listings/:id
func (ctrl *ListingController) UpdateListing(c *gin.Context) {
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

	patch, err := parsePatchForm(c)
	if err != nil {
		log.Warn("Invalid listing update request", map[string]interface{}{
			"listing_id": id,
			"error":      err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	files, err := parseUploads(c)
	if err != nil {
		errors.BadRequest(c, errors.UploadInvalidFile, err.Error())
		return
	}

	listing, err := ctrl.listingService.UpdateListing(c.Request.Context(), id, patch, userID, middleware.IsAdmin(c), files)
	if err != nil {
		ctrl.respondListingError(c, err, id)
		return
	}

	log.Info("Listing updated successfully", map[string]interface{}{
		"listing_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"listing": listing,
	})
}

type markSoldRequest struct {
	BuyerID *uint `json:"buyer_id"`
}

// MarkListingSold marks a listing sold and archives its snapshot
// POST /api/v1/listings/:id/sold
func (ctrl *ListingController) MarkListingSold(c *gin.Context) {
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

	var req markSoldRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.BadRequest(c, errors.ValidationInvalidInput, "Invalid request data")
			return
		}
	}

	listing, err := ctrl.listingService.MarkListingSold(id, userID, middleware.IsAdmin(c), req.BuyerID)
	if err != nil {
		ctrl.respondListingError(c, err, id)
		return
	}

	log.Info("Listing marked sold", map[string]interface{}{
		"listing_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"listing": listing,
	})
}

// ToggleListingStatus flips a listing between active and paused
// POST /api/v1/listings/:id/toggle-status
func (ctrl *ListingController) ToggleListingStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		errors.Unauthorized(c, "Authentication required")
		return
	}

	listing, err := ctrl.listingService.ToggleListingStatus(id, userID, middleware.IsAdmin(c))
	if err != nil {
		ctrl.respondListingError(c, err, id)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing": listing,
	})
}

// DeleteListing soft-deletes the caller's listing
// DELETE /api/v1/listings/:id
func (ctrl *ListingController) DeleteListing(c *gin.Context) {
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

	if err := ctrl.listingService.DeleteListing(id, userID); err != nil {
		ctrl.respondListingError(c, err, id)
		return
	}

	log.Info("Listing deleted", map[string]interface{}{
		"listing_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Listing deleted successfully",
	})
}

// ForceDeleteListing permanently removes a listing and its media (Admin only)
// DELETE /api/v1/listings/:id/force
func (ctrl *ListingController) ForceDeleteListing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := ctrl.listingService.ForceDeleteListing(c.Request.Context(), id); err != nil {
		ctrl.respondListingError(c, err, id)
		return
	}

	log.Info("Listing permanently deleted", map[string]interface{}{
		"listing_id": id,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Listing permanently deleted",
	})
}

func (ctrl *ListingController) respondListingError(c *gin.Context, err error, listingID uint) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case goerrors.Is(err, service.ErrListingNotFound):
		errors.NotFound(c, errors.ListingNotFound, "Listing not found")
	case goerrors.Is(err, service.ErrListingAccessDenied):
		errors.RespondWithError(c, http.StatusForbidden, errors.AuthzOwnerOnly, "You do not have permission to modify this listing")
	case goerrors.Is(err, service.ErrMissingPrice):
		errors.BadRequest(c, errors.ListingMissingPrice, "Listing must have a price to be marked as sold")
	case goerrors.Is(err, service.ErrListingAlreadySold):
		errors.Conflict(c, errors.ListingAlreadySold, "Listing is already sold")
	case goerrors.Is(err, service.ErrSoldPatchNotExclusive):
		errors.BadRequest(c, errors.ListingSoldPatchMixed, "A sold status change cannot be combined with other changes")
	case goerrors.Is(err, service.ErrInvalidStatusChange):
		errors.BadRequest(c, errors.ListingInvalidTransition, "Invalid status change")
	case goerrors.Is(err, service.ErrInvalidCondition),
		goerrors.Is(err, service.ErrInvalidInitialState),
		goerrors.Is(err, service.ErrTitleRequired):
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
	case goerrors.Is(err, repository.ErrPriceFieldsMismatch):
		errors.BadRequest(c, errors.ValidationPriceMismatch, "Price amount and currency must be provided together")
	case goerrors.Is(err, repository.ErrNegativeQuantity):
		errors.BadRequest(c, errors.ValidationInvalidRange, "Quantity must not be negative")
	case goerrors.Is(err, storage.ErrInvalidUpload):
		errors.BadRequest(c, errors.UploadInvalidFile, err.Error())
	default:
		log.Error("Listing operation failed", err, map[string]interface{}{
			"listing_id": listingID,
		})
		errors.InternalError(c, "Internal server error")
	}
}

// ==================== form parsing helpers ====================

func parseIDParam(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		errors.BadRequest(c, errors.ValidationInvalidID, "Invalid listing ID")
		return 0, false
	}
	return uint(id), true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseCreateForm(c *gin.Context) (repository.CreateListingInput, error) {
	input := repository.CreateListingInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Condition:   model.ListingCondition(c.PostForm("condition")),
		Status:      model.ListingStatus(c.PostForm("status")),
	}

	categoryID, err := formUint(c, "category_id")
	if err != nil {
		return input, err
	}
	if categoryID != nil {
		input.CategoryID = *categoryID
	}
	locationID, err := formUint(c, "location_id")
	if err != nil {
		return input, err
	}
	if locationID != nil {
		input.LocationID = *locationID
	}

	if quantity, err := formInt(c, "quantity"); err != nil {
		return input, err
	} else if quantity != nil {
		input.Quantity = *quantity
	}

	if input.PriceAmount, err = formFloat(c, "price_amount"); err != nil {
		return input, err
	}
	if v := c.PostForm("price_currency"); v != "" {
		currency := strings.ToUpper(v)
		input.PriceCurrency = &currency
	}

	if input.WidthCM, err = formFloat(c, "width_cm"); err != nil {
		return input, err
	}
	if input.HeightCM, err = formFloat(c, "height_cm"); err != nil {
		return input, err
	}
	if input.DepthCM, err = formFloat(c, "depth_cm"); err != nil {
		return input, err
	}
	if input.WeightKG, err = formFloat(c, "weight_kg"); err != nil {
		return input, err
	}

	input.TermIDs, err = parseTermIDs(c)
	return input, err
}

func parsePatchForm(c *gin.Context) (repository.ListingPatch, error) {
	var patch repository.ListingPatch

	if v, present := c.GetPostForm("title"); present {
		patch.Title = &v
	}
	if v, present := c.GetPostForm("description"); present {
		patch.Description = &v
	}
	if v, present := c.GetPostForm("condition"); present {
		condition := model.ListingCondition(v)
		patch.Condition = &condition
	}
	if v, present := c.GetPostForm("status"); present {
		status := model.ListingStatus(v)
		patch.Status = &status
	}

	var err error
	if patch.CategoryID, err = formUint(c, "category_id"); err != nil {
		return patch, err
	}
	if patch.LocationID, err = formUint(c, "location_id"); err != nil {
		return patch, err
	}
	if patch.Quantity, err = formInt(c, "quantity"); err != nil {
		return patch, err
	}
	if patch.PriceAmount, err = formFloat(c, "price_amount"); err != nil {
		return patch, err
	}
	if v, present := c.GetPostForm("price_currency"); present {
		currency := strings.ToUpper(v)
		patch.PriceCurrency = &currency
	}
	if patch.WidthCM, err = formFloat(c, "width_cm"); err != nil {
		return patch, err
	}
	if patch.HeightCM, err = formFloat(c, "height_cm"); err != nil {
		return patch, err
	}
	if patch.DepthCM, err = formFloat(c, "depth_cm"); err != nil {
		return patch, err
	}
	if patch.WeightKG, err = formFloat(c, "weight_kg"); err != nil {
		return patch, err
	}
	if patch.TermIDs, err = parseTermIDs(c); err != nil {
		return patch, err
	}

	if v, present := c.GetPostForm("keep_image_ids"); present {
		ids, err := parseUintList(v)
		if err != nil {
			return patch, err
		}
		patch.KeepMediaIDs = &ids
	}
	return patch, nil
}

// parseTermIDs reads the optional color_ids/material_ids/tag_ids fields as
// comma-separated ID lists. A present-but-empty field clears that kind.
func parseTermIDs(c *gin.Context) (map[model.TermKind][]uint, error) {
	fields := map[model.TermKind]string{
		model.TermKindColor:    "color_ids",
		model.TermKindMaterial: "material_ids",
		model.TermKindTag:      "tag_ids",
	}

	var termIDs map[model.TermKind][]uint
	for kind, field := range fields {
		v, present := c.GetPostForm(field)
		if !present {
			continue
		}
		ids, err := parseUintList(v)
		if err != nil {
			return nil, err
		}
		if termIDs == nil {
			termIDs = make(map[model.TermKind][]uint)
		}
		termIDs[kind] = ids
	}
	return termIDs, nil
}

func parseUintList(value string) ([]uint, error) {
	ids := []uint{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func formUint(c *gin.Context, key string) (*uint, error) {
	v, present := c.GetPostForm(key)
	if !present || v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil, err
	}
	id := uint(n)
	return &id, nil
}

func formInt(c *gin.Context, key string) (*int, error) {
	v, present := c.GetPostForm(key)
	if !present || v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func formFloat(c *gin.Context, key string) (*float64, error) {
	v, present := c.GetPostForm(key)
	if !present || v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// parseUploads reads the multipart "images" files into memory.
func parseUploads(c *gin.Context) ([]storage.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Not a multipart request; no files attached.
		return nil, nil
	}

	headers := form.File["images"]
	if len(headers) == 0 {
		return nil, nil
	}

	uploads := make([]storage.Upload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader) (storage.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return storage.Upload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return storage.Upload{}, err
	}

	return storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
