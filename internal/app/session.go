// Package app wires configuration, storage, caching, OCR and the services
// into one session that commands open and close.
package app

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Ap6pack/PDF-Search-Plus/internal/cache"
	"github.com/Ap6pack/PDF-Search-Plus/internal/compress"
	"github.com/Ap6pack/PDF-Search-Plus/internal/config"
	"github.com/Ap6pack/PDF-Search-Plus/internal/jobs"
	"github.com/Ap6pack/PDF-Search-Plus/internal/ocr"
	"github.com/Ap6pack/PDF-Search-Plus/internal/service"
	"github.com/Ap6pack/PDF-Search-Plus/internal/store"
)

// Session is one fully wired application instance.
type Session struct {
	Config *config.Config
	DB     *gorm.DB
	Store  store.Store
	Cache  cache.Cache

	Generation  *service.Generation
	Ingestor    *service.Ingestor
	Searcher    *service.Searcher
	Library     *service.Library
	Tagging     *service.Tagging
	Annotations *service.Annotations
	Similarity  *service.Similarity

	memCache *cache.Memory
	executor *jobs.TaskExecutor
}

// Open builds a session from configuration. The schema is verified on every
// open so a drifted search index heals before the first query.
func Open(cnf *config.Config) (*Session, error) {
	db := config.GetDb(cnf)
	st := store.NewGormStore(db)

	if err := st.Migrate(); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	if err := st.VerifySchema(); err != nil {
		return nil, fmt.Errorf("verifying schema: %w", err)
	}

	s := &Session{
		Config:     cnf,
		DB:         db,
		Store:      st,
		Generation: &service.Generation{},
	}

	if err := s.openCache(cnf); err != nil {
		return nil, err
	}

	engine := ocr.NewTesseract(
		ocr.WithBinary(cnf.OCRBinary),
		ocr.WithLanguage(cnf.OCRLanguage),
		ocr.WithTimeout(cnf.OCRTimeout),
	)

	s.Ingestor = service.NewIngestor(st, s.Cache, s.Generation,
		service.WithEngine(engine),
		service.WithWorkers(cnf.Workers),
	)
	s.Searcher = service.NewSearcher(st, s.Cache, s.Generation)
	s.Library = service.NewLibrary(st, s.Cache)
	s.Tagging = service.NewTagging(st)
	s.Annotations = service.NewAnnotations(st)
	s.Similarity = service.NewSimilarity(st)

	return s, nil
}

func (s *Session) openCache(cnf *config.Config) error {
	switch cnf.CacheBackend {
	case "disk":
		disk, err := cache.NewDisk(cnf.CacheDir, cnf.CacheMaxBytes, cnf.CacheMaxItems, compress.NewGZip())
		if err != nil {
			return fmt.Errorf("opening disk cache: %w", err)
		}
		s.Cache = disk
	case "redis":
		r, err := cache.NewRedis(cnf.RedisAddr)
		if err != nil {
			return fmt.Errorf("opening redis cache: %w", err)
		}
		s.Cache = r
	default:
		s.memCache = cache.NewMemory(cnf.CacheTTL, cache.WithMaxEntries(cnf.CacheMaxItems))
		s.Cache = s.memCache
	}
	return nil
}

// StartJobs schedules the background maintenance tasks. Only the in-process
// cache has a memory watch; redis and disk manage their own space.
func (s *Session) StartJobs() error {
	var scheduled []jobs.CronJob
	if s.memCache != nil {
		scheduled = append(scheduled, jobs.NewMemoryWatch(s.Config.MemoryWatch, s.memCache))
	}
	scheduled = append(scheduled, jobs.NewIndexCheck(s.Config.IndexCheck, s.Store))

	s.executor = jobs.NewTaskExecutor(scheduled)
	return s.executor.Run()
}

// SearchMode resolves the configured default match mode.
func (s *Session) SearchMode() store.SearchMode {
	if s.Config.SearchMode == string(store.SearchModeFTS) {
		return store.SearchModeFTS
	}
	return store.SearchModeLike
}

func (s *Session) Close() error {
	if s.executor != nil {
		s.executor.Stop()
	}
	if closer, ok := s.Cache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logrus.Warnf("closing cache: %v", err)
		}
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
