package model

import "time"

// Annotation is a user note anchored to a rectangle on a page.
type Annotation struct {
	ID         uint `gorm:"primaryKey"`
	PDFID      uint `gorm:"column:pdf_id;index:idx_annotations_pdf_page;not null"`
	PageNumber int  `gorm:"index:idx_annotations_pdf_page;not null"`
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Content    string
	Type       string `gorm:"default:note"`
	Color      string `gorm:"default:#FFFF00"`
	CreatedAt  time.Time
}

func (Annotation) TableName() string {
	return "annotations"
}
