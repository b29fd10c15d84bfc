package model

// Image records an embedded image extracted from a page. The payload itself
// is not persisted, only enough to name it for OCR bookkeeping and previews.
type Image struct {
	ID         uint   `gorm:"primaryKey"`
	PDFID      uint   `gorm:"column:pdf_id;uniqueIndex:idx_images_pdf_page_name;not null"`
	PageNumber int    `gorm:"uniqueIndex:idx_images_pdf_page_name;not null"`
	ImageName  string `gorm:"uniqueIndex:idx_images_pdf_page_name;not null"`
	ImageExt   string
}

func (Image) TableName() string {
	return "images"
}
