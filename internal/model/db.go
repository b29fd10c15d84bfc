package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ftsColumns is the exact column set both FTS tables must expose. Search
// queries project these columns; a mismatch here is what produced the
// historical "no such column" failures, so VerifySchema treats any deviation
// as a rebuild trigger.
var ftsColumns = []string{"pdf_id", "page_number", "content", "source"}

// ErrFTSUnavailable means the sqlite build lacks the fts5 module. The
// go-sqlite3 driver only includes it behind the sqlite_fts5 build tag, so a
// stock build must still migrate and serve substring search.
var ErrFTSUnavailable = errors.New("sqlite fts5 module unavailable, build with -tags sqlite_fts5 to enable full-text search")

func isFTSModuleError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such module: fts5")
}

// HasFTS reports whether the full-text tables exist in this database.
func HasFTS(db *gorm.DB) bool {
	return isSQLite(db) && db.Migrator().HasTable("fts_content")
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&PDFFile{},
		&Page{},
		&Image{},
		&OCRText{},
		&Annotation{},
		&Tag{},
		&Category{},
		&PDFTag{},
		&PDFCategory{},
	); err != nil {
		return err
	}

	if !isSQLite(db) {
		return nil
	}

	if err := createFTS(db); err != nil {
		if isFTSModuleError(err) {
			logrus.Warnf("%v", ErrFTSUnavailable)
			return nil
		}
		return err
	}

	return createTriggers(db)
}

func isSQLite(db *gorm.DB) bool {
	return db.Dialector.Name() == "sqlite"
}

func createFTS(db *gorm.DB) error {
	for _, table := range []string{"fts_content", "fts_ocr"} {
		stmt := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts5(
			pdf_id UNINDEXED,
			page_number UNINDEXED,
			content,
			source UNINDEXED,
			tokenize='porter unicode61'
		)`, table)
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// createTriggers keeps the FTS tables in sync with the base rows. Inserts,
// updates and deletes on pages and ocr_text are mirrored synchronously.
func createTriggers(db *gorm.DB) error {
	stmts := []string{
		`CREATE TRIGGER IF NOT EXISTS pages_ai AFTER INSERT ON pages BEGIN
			INSERT INTO fts_content(pdf_id, page_number, content, source)
			VALUES (new.pdf_id, new.page_number, new.text, 'PDF Text');
		END`,
		`CREATE TRIGGER IF NOT EXISTS pages_ad AFTER DELETE ON pages BEGIN
			DELETE FROM fts_content WHERE pdf_id = old.pdf_id AND page_number = old.page_number;
		END`,
		`CREATE TRIGGER IF NOT EXISTS pages_au AFTER UPDATE ON pages BEGIN
			UPDATE fts_content SET content = new.text
			WHERE pdf_id = old.pdf_id AND page_number = old.page_number;
		END`,
		`CREATE TRIGGER IF NOT EXISTS ocr_text_ai AFTER INSERT ON ocr_text BEGIN
			INSERT INTO fts_ocr(pdf_id, page_number, content, source)
			VALUES (new.pdf_id, new.page_number, new.ocr_text, 'OCR Text');
		END`,
		`CREATE TRIGGER IF NOT EXISTS ocr_text_ad AFTER DELETE ON ocr_text BEGIN
			DELETE FROM fts_ocr WHERE pdf_id = old.pdf_id AND page_number = old.page_number;
		END`,
		`CREATE TRIGGER IF NOT EXISTS ocr_text_au AFTER UPDATE ON ocr_text BEGIN
			UPDATE fts_ocr SET content = new.ocr_text
			WHERE pdf_id = old.pdf_id AND page_number = old.page_number;
		END`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// VerifySchema checks that the base tables and FTS structures exist with the
// expected columns, rebuilding the FTS side when they do not. Safe to run on
// every startup and from the periodic index check job.
func VerifySchema(db *gorm.DB) error {
	for _, table := range []string{"pdf_files", "pages", "images", "ocr_text", "annotations", "tags", "categories"} {
		if !db.Migrator().HasTable(table) {
			return fmt.Errorf("missing table %q, run migrate first", table)
		}
	}

	if !isSQLite(db) {
		return nil
	}

	for _, table := range []string{"fts_content", "fts_ocr"} {
		ok, err := ftsTableMatches(db, table)
		if err != nil {
			return err
		}
		if !ok {
			logrus.Warnf("fts table %s missing or column set changed, rebuilding", table)
			if err := RebuildFTS(db); err != nil {
				if isFTSModuleError(err) {
					logrus.Warnf("%v", ErrFTSUnavailable)
					return nil
				}
				return err
			}
			return nil
		}
	}

	return nil
}

func ftsTableMatches(db *gorm.DB, table string) (bool, error) {
	type columnInfo struct {
		Name string
	}
	var cols []columnInfo
	if err := db.Raw(fmt.Sprintf("PRAGMA table_info(%s)", table)).Scan(&cols).Error; err != nil {
		return false, err
	}
	if len(cols) != len(ftsColumns) {
		return false, nil
	}
	for i, c := range cols {
		if !strings.EqualFold(c.Name, ftsColumns[i]) {
			return false, nil
		}
	}
	return true, nil
}

// RebuildFTS drops and recreates both FTS tables and reindexes them from the
// base rows inside one transaction.
func RebuildFTS(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"fts_content", "fts_ocr"} {
			if err := tx.Exec("DROP TABLE IF EXISTS " + table).Error; err != nil {
				return err
			}
		}

		if err := createFTS(tx); err != nil {
			return err
		}

		if err := tx.Exec(`INSERT INTO fts_content(pdf_id, page_number, content, source)
			SELECT pdf_id, page_number, text, 'PDF Text' FROM pages`).Error; err != nil {
			return err
		}

		if err := tx.Exec(`INSERT INTO fts_ocr(pdf_id, page_number, content, source)
			SELECT pdf_id, page_number, ocr_text, 'OCR Text' FROM ocr_text`).Error; err != nil {
			return err
		}

		logrus.Info("rebuilt full-text index tables")
		return nil
	})
}
