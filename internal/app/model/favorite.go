package model

import "time"

// Favorite is a user's bookmark of a listing, unique per (user, listing).
type Favorite struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	ListingID uint      `gorm:"primaryKey;index" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`

	Listing Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
}

func (Favorite) TableName() string {
	return "favorites"
}
