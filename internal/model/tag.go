package model

import "time"

// Tag labels documents. Tags relate to PDF files many-to-many via PDFTag.
type Tag struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	Color     string `gorm:"default:#808080"`
	CreatedAt time.Time
}

func (Tag) TableName() string {
	return "tags"
}

type PDFTag struct {
	PDFID     uint `gorm:"column:pdf_id;primaryKey"`
	TagID     uint `gorm:"primaryKey"`
	CreatedAt time.Time

	PDF PDFFile `gorm:"foreignKey:PDFID;constraint:OnDelete:CASCADE"`
	Tag Tag     `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

func (PDFTag) TableName() string {
	return "pdf_tags"
}
