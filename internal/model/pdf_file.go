package model

import (
	"time"
)

// PDFFile is the metadata row for one processed PDF document. Pages, images,
// OCR text, annotations and tag links hang off it and are removed with it.
type PDFFile struct {
	ID           uint   `gorm:"primaryKey"`
	FileName     string `gorm:"index;not null"`
	FilePath     string `gorm:"index;not null"`
	CreatedAt    time.Time
	LastAccessed time.Time `gorm:"index"`

	Pages       []Page       `gorm:"foreignKey:PDFID;constraint:OnDelete:CASCADE"`
	Images      []Image      `gorm:"foreignKey:PDFID;constraint:OnDelete:CASCADE"`
	OCRTexts    []OCRText    `gorm:"foreignKey:PDFID;constraint:OnDelete:CASCADE"`
	Annotations []Annotation `gorm:"foreignKey:PDFID;constraint:OnDelete:CASCADE"`
}

func (PDFFile) TableName() string {
	return "pdf_files"
}
