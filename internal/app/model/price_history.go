package model

import "time"

// PriceHistory is an immutable record of a past price for a listing.
// Rows are appended only when the price actually changed and are never
// updated; the auto-increment ID breaks ties between entries sharing a
// ChangedAt timestamp so the ledger stays totally ordered.
type PriceHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ListingID uint      `gorm:"not null;index:ix_price_history_listing_time" json:"listing_id"`
	Amount    float64   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency  string    `gorm:"type:varchar(3);not null" json:"currency"`
	ChangedAt time.Time `gorm:"not null;index:ix_price_history_listing_time" json:"changed_at"`
}

func (PriceHistory) TableName() string {
	return "price_history"
}
