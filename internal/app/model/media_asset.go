package model

import "time"

// MediaAsset is one image reference attached to a listing. The backing bytes
// live in the media store; rows and bytes are kept consistent by the listing
// service's write-before-link / delete-after-commit ordering.
type MediaAsset struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ListingID uint      `gorm:"not null;index:ix_media_listing_sort" json:"listing_id"`
	URL       string    `gorm:"type:varchar(1024);not null;uniqueIndex" json:"url"`
	AltText   *string   `gorm:"type:varchar(255)" json:"alt_text"`
	SortOrder int       `gorm:"not null;default:0;index:ix_media_listing_sort" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (MediaAsset) TableName() string {
	return "media_assets"
}
