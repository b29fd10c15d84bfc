package model

// OCRText holds text recognized from an image on a page.
type OCRText struct {
	ID         uint `gorm:"primaryKey"`
	PDFID      uint `gorm:"column:pdf_id;index:idx_ocr_pdf_page;not null"`
	PageNumber int  `gorm:"index:idx_ocr_pdf_page;not null"`
	OCRText    string
}

func (OCRText) TableName() string {
	return "ocr_text"
}
