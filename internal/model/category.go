package model

import "time"

// Category organizes documents hierarchically. ParentID is nil for roots.
// The parent chain must stay acyclic; the store enforces this on writes.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	ParentID  *uint
	CreatedAt time.Time

	Parent *Category `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE"`
}

func (Category) TableName() string {
	return "categories"
}

type PDFCategory struct {
	PDFID      uint `gorm:"column:pdf_id;primaryKey"`
	CategoryID uint `gorm:"primaryKey"`
	CreatedAt  time.Time

	PDF      PDFFile  `gorm:"foreignKey:PDFID;constraint:OnDelete:CASCADE"`
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (PDFCategory) TableName() string {
	return "pdf_categories"
}
