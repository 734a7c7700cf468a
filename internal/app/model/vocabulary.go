package model

import "time"

type TermKind string

const (
	TermKindColor    TermKind = "color"
	TermKindMaterial TermKind = "material"
	TermKindTag      TermKind = "tag"
)

// Term is one value of a controlled vocabulary (color, material or tag).
// The three vocabularies share a single table shape, discriminated by Kind.
type Term struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Kind      TermKind  `gorm:"type:varchar(20);not null;uniqueIndex:ux_terms_kind_name" json:"kind"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_terms_kind_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Term) TableName() string {
	return "terms"
}

// ListingTerm attaches a vocabulary term to a listing.
type ListingTerm struct {
	ListingID uint `gorm:"primaryKey" json:"listing_id"`
	TermID    uint `gorm:"primaryKey;index" json:"term_id"`

	Term Term `gorm:"foreignKey:TermID" json:"term,omitempty"`
}

func (ListingTerm) TableName() string {
	return "listing_terms"
}
