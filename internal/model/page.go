package model

// Page holds the text extracted from one PDF page. PageNumber is 1-based and
// unique within a file.
type Page struct {
	ID         uint `gorm:"primaryKey"`
	PDFID      uint `gorm:"column:pdf_id;uniqueIndex:idx_pages_pdf_page;not null"`
	PageNumber int  `gorm:"uniqueIndex:idx_pages_pdf_page;not null"`
	Text       string
}

func (Page) TableName() string {
	return "pages"
}
