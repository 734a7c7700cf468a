package model

import (
	"time"

	"gorm.io/gorm"
)

type ListingCondition string

const (
	ConditionNew         ListingCondition = "new"
	ConditionLikeNew     ListingCondition = "like_new"
	ConditionGood        ListingCondition = "good"
	ConditionFair        ListingCondition = "fair"
	ConditionNeedsRepair ListingCondition = "needs_repair"
)

type ListingStatus string

const (
	StatusDraft  ListingStatus = "draft"
	StatusActive ListingStatus = "active"
	StatusPaused ListingStatus = "paused"
	StatusSold   ListingStatus = "sold"
)

// ValidConditions lists every accepted listing condition.
var ValidConditions = []ListingCondition{
	ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionNeedsRepair,
}

// Listing is a sellable marketplace item. DeletedAt is a tombstone orthogonal
// to Status: a soft-deleted listing keeps its last status but is excluded
// from default queries.
type Listing struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	SellerID    uint             `gorm:"not null;index" json:"seller_id"`
	Title       string           `gorm:"type:varchar(200);not null;index" json:"title"`
	Description string           `gorm:"type:text;not null" json:"description"`
	CategoryID  uint             `gorm:"not null;index" json:"category_id"`
	Condition   ListingCondition `gorm:"type:varchar(20);not null" json:"condition"`
	Quantity    int              `gorm:"not null;default:1;check:quantity >= 0" json:"quantity"`

	// Price fields are both-or-neither; enforced in the repository and by a
	// check constraint on Postgres.
	PriceAmount   *float64 `gorm:"type:numeric(12,2)" json:"price_amount"`
	PriceCurrency *string  `gorm:"type:varchar(3)" json:"price_currency"`

	Status     ListingStatus `gorm:"type:varchar(10);not null;default:'active';index" json:"status"`
	LocationID uint          `gorm:"not null;index" json:"location_id"`

	WidthCM  *float64 `gorm:"type:numeric(8,2)" json:"width_cm"`
	HeightCM *float64 `gorm:"type:numeric(8,2)" json:"height_cm"`
	DepthCM  *float64 `gorm:"type:numeric(8,2)" json:"depth_cm"`
	WeightKG *float64 `gorm:"type:numeric(10,3)" json:"weight_kg"`

	// Denormalized counters, maintained in the same transaction as the
	// corresponding edge insert/delete.
	ViewsCount int `gorm:"not null;default:0" json:"views_count"`
	LikesCount int `gorm:"not null;default:0" json:"likes_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	SoldAt    *time.Time     `json:"sold_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category     Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Location     Location       `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Media        []MediaAsset   `gorm:"foreignKey:ListingID" json:"media,omitempty"`
	PriceChanges []PriceHistory `gorm:"foreignKey:ListingID" json:"price_changes,omitempty"`
	Terms        []ListingTerm  `gorm:"foreignKey:ListingID" json:"terms,omitempty"`
}

func (Listing) TableName() string {
	return "listings"
}

// HasPrice reports whether both price fields are set.
func (l *Listing) HasPrice() bool {
	return l.PriceAmount != nil && l.PriceCurrency != nil
}

// IsValidCondition reports whether c is an accepted condition value.
func IsValidCondition(c ListingCondition) bool {
	for _, v := range ValidConditions {
		if c == v {
			return true
		}
	}
	return false
}

// CanTransition reports whether the status axis allows moving from one
// status to another. Sold is terminal.
func CanTransition(from, to ListingStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusDraft:
		return to == StatusActive || to == StatusSold
	case StatusActive:
		return to == StatusPaused || to == StatusSold
	case StatusPaused:
		return to == StatusActive || to == StatusSold
	case StatusSold:
		return false
	}
	return false
}
