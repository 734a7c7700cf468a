package model

// Category is a reference vocabulary maintained outside this core; listings
// point at it by id and the catalog filter joins on its name.
type Category struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
}

func (Category) TableName() string {
	return "categories"
}
