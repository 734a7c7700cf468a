package errors

// Error code constants returned to API clients.
// Format: CATEGORY_SPECIFIC_DETAIL; the frontend maps codes to messages.

const (
	// ==================== Authentication / authorization ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"
	AuthzForbidden   = "AUTHZ_FORBIDDEN"
	AuthzOwnerOnly   = "AUTHZ_OWNER_ONLY"
	AuthzAdminOnly   = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationTooLong       = "VALIDATION_TOO_LONG"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationPriceMismatch = "VALIDATION_PRICE_MISMATCH"

	// ==================== Listings ====================
	ListingNotFound          = "LISTING_NOT_FOUND"
	ListingMissingPrice      = "LISTING_MISSING_PRICE"
	ListingAlreadySold       = "LISTING_ALREADY_SOLD"
	ListingInvalidTransition = "LISTING_INVALID_TRANSITION"
	ListingSoldPatchMixed    = "LISTING_SOLD_PATCH_MIXED"

	// ==================== Favorites ====================
	FavoriteAlreadyExists = "FAVORITE_ALREADY_EXISTS"
	FavoriteNotFound      = "FAVORITE_NOT_FOUND"

	// ==================== Uploads / media ====================
	UploadInvalidFile   = "UPLOAD_INVALID_FILE"
	UploadStorageFailed = "UPLOAD_STORAGE_FAILED"

	// ==================== Resources / storage ====================
	ResourceNotFound    = "RESOURCE_NOT_FOUND"
	ResourceConflict    = "RESOURCE_CONFLICT"
	InternalServerError = "INTERNAL_SERVER_ERROR"
)
