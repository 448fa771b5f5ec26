package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// CourseModule is one entry of a course's premium content.
type CourseModule struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
	URL   string `json:"url"`
}

// CourseContent describes the paywalled part of a course.
type CourseContent struct {
	Modules []CourseModule `json:"modules"`
}

// Course is read-only here; it is maintained by the authoring surface.
type Course struct {
	ID          string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Title       string `gorm:"column:title;type:varchar(256);not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
	ImageURL    string `gorm:"column:image_url;type:varchar(1024)" json:"image_url"`
	// Price is in major currency units.
	Price     float64                           `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Content   datatypes.JSONType[CourseContent] `gorm:"column:content;type:jsonb;default:'{}'" json:"content"`
	CreatedAt time.Time                         `json:"created_at"`
	UpdatedAt time.Time                         `json:"updated_at"`
}

func (Course) TableName() string {
	return "course"
}

// UnitAmount converts the price into currency minor units.
func (c *Course) UnitAmount() int64 {
	return int64(math.Round(c.Price * 100))
}
