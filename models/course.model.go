package models

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title        string `json:"title"`
	Description  string `json:"description"`
	Author       string `json:"author"`
	Duration     int64  `json:"duration" gorm:"default:0"`     // duration in hours
	Status       string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	PriceCents   int64  `json:"price_cents" gorm:"default:0"`  // 0 = free course
	Currency     string `json:"currency" gorm:"default:'USD'"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsPublished  bool   `json:"is_published" gorm:"default:false"`
	IsDeleted    bool   `gorm:"default:false"`
}

// IsFree reports whether the course can be enrolled without payment.
func (c *Course) IsFree() bool {
	return c.PriceCents == 0
}

// CourseModule represents a section/module within a course
type CourseModule struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"` // Module order in course
	IsDeleted   bool   `gorm:"default:false"`
}

// Lesson represents playable content within a module
type Lesson struct {
	gorm.Model
	CourseID        uint   `json:"course_id" gorm:"index;not null"`
	ModuleID        uint   `json:"module_id" gorm:"index;not null"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ContentType     string `json:"content_type" gorm:"default:'VIDEO'"` // VIDEO, TEXT
	VideoURL        string `json:"video_url"`                           // For VIDEO type
	TextContent     string `json:"text_content" gorm:"type:text"`       // For TEXT type
	DurationSeconds int    `json:"duration_seconds" gorm:"default:0"`
	OrderIndex      int    `json:"order_index" gorm:"default:0"` // Order within module
	IsPublished     bool   `json:"is_published" gorm:"default:false"`
	IsDeleted       bool   `gorm:"default:false"`
}
