package model

import "time"

// ListingView records that a specific viewer has seen a specific listing.
// The composite unique index is the authoritative guard against duplicate
// views under concurrency; application pre-checks are optimizations only.
type ListingView struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ListingID uint      `gorm:"not null;uniqueIndex:ux_listing_views_pair" json:"listing_id"`
	ViewerID  uint      `gorm:"not null;uniqueIndex:ux_listing_views_pair" json:"viewer_id"`
	ViewedAt  time.Time `json:"viewed_at"`
}

func (ListingView) TableName() string {
	return "listing_views"
}
