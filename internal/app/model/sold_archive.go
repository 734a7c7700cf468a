package model

import "time"

// SoldArchive is an immutable snapshot of a sale taken at the instant the
// listing transitioned to sold. It survives listing hard-deletion: the
// cascade nulls ListingID instead of removing the row.
type SoldArchive struct {
	ID        uint  `gorm:"primarykey" json:"id"`
	ListingID *uint `gorm:"index" json:"listing_id"`
	BuyerID   *uint `json:"buyer_id"`

	Title      string `gorm:"type:varchar(200);not null" json:"title"`
	CategoryID uint   `gorm:"not null" json:"category_id"`
	LocationID uint   `gorm:"not null" json:"location_id"`

	PriceAmount   *float64 `gorm:"type:numeric(12,2)" json:"price_amount"`
	PriceCurrency *string  `gorm:"type:varchar(3)" json:"price_currency"`

	SoldAt time.Time `gorm:"not null" json:"sold_at"`
}

func (SoldArchive) TableName() string {
	return "sold_archive"
}
