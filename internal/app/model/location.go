package model

// Location is a reference vocabulary maintained outside this core.
type Location struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	City string `gorm:"type:varchar(100);not null" json:"city"`
	Zip  string `gorm:"type:varchar(10)" json:"zip"`
}

func (Location) TableName() string {
	return "locations"
}
