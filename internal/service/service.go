// Package service ties the catalog, tag store and gallery together: it runs
// the load pipeline and exposes tag operations to the GUI and CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"fygallery/internal/catalog"
	"fygallery/internal/dedup"
	"fygallery/internal/gallery"
	"fygallery/internal/shuffle"
	"fygallery/internal/tagging"
)

// TagStore abstracts the tagging DB for easier testing and decoupling.
type TagStore interface {
	AddTag(src, tag string) error
	RemoveTag(src, tag string) error
	GetTags(src string) ([]string, error)
	TagsFor(srcs []string) (map[string][]string, error)
	GetImages(tag string) ([]string, error)
	GetAllTags() ([]tagging.TagWithCount, error)
	RemoveAllTagsForImage(src string) error
	DeleteOrphanedTagKey(tag string) error
	GetAllImagePaths() ([]string, error)
	Close() error
}

// CatalogFetcher abstracts the catalog loader. Load falls back to the
// built-in list and reports whether it did; Fetch reports the error instead.
type CatalogFetcher interface {
	Fetch(ctx context.Context) ([]catalog.ImageRecord, error)
	Load(ctx context.Context) ([]catalog.ImageRecord, bool)
}

// LoadResult summarizes one run of the load pipeline.
type LoadResult struct {
	Fetched  int  // records in the descriptor
	Shown    int  // records installed in the store
	Fallback bool // the built-in list was used
}

// Service is the main entry point for business logic.
type Service struct {
	Catalog  CatalogFetcher
	TagDB    TagStore // optional
	Store    *gallery.Store
	Shuffler *shuffle.Shuffler
	Logger   logrus.FieldLogger
}

// NewService constructs a new Service. tagDB may be nil.
func NewService(cat CatalogFetcher, tagDB TagStore, store *gallery.Store, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if store == nil {
		store = gallery.NewStore(nil)
	}
	return &Service{
		Catalog:  cat,
		TagDB:    tagDB,
		Store:    store,
		Shuffler: shuffle.New(),
		Logger:   log,
	}
}

// BuildRecords runs fetch, tag attachment, dedup and shuffle without
// touching the store. When the fetch fails the fallback list is returned as
// is (tagged, but neither deduplicated nor shuffled).
func (s *Service) BuildRecords(ctx context.Context) ([]catalog.ImageRecord, LoadResult) {
	records, usedFallback := s.Catalog.Load(ctx)
	if usedFallback {
		records = s.attachTags(records)
		return records, LoadResult{Shown: len(records), Fallback: true}
	}

	fetched := len(records)
	records = s.attachTags(records)
	records = dedup.Filter(records)
	records = shuffle.Permute(s.Shuffler, records)

	s.Logger.WithFields(logrus.Fields{
		"fetched": fetched,
		"shown":   len(records),
	}).Info("Gallery loaded")
	return records, LoadResult{Fetched: fetched, Shown: len(records)}
}

// LoadGallery builds the records and installs them in the store.
func (s *Service) LoadGallery(ctx context.Context) LoadResult {
	records, res := s.BuildRecords(ctx)
	s.Store.Replace(records)
	return res
}

// attachTags fills Tags from the tag store. Lookup failures leave tags empty.
func (s *Service) attachTags(records []catalog.ImageRecord) []catalog.ImageRecord {
	if s.TagDB == nil || len(records) == 0 {
		return records
	}
	srcs := make([]string, len(records))
	for i, r := range records {
		srcs[i] = r.Src
	}
	tags, err := s.TagDB.TagsFor(srcs)
	if err != nil {
		s.Logger.WithError(err).Warn("Tag lookup failed, continuing without tags")
		return records
	}
	for i := range records {
		if t, ok := tags[records[i].Src]; ok {
			records[i].Tags = t
		}
	}
	return records
}

// RefreshTags re-reads the tags of src and updates the displayed record in
// place, keeping the current order.
func (s *Service) RefreshTags(src string) error {
	if s.TagDB == nil {
		return nil
	}
	tags, err := s.TagDB.GetTags(src)
	if err != nil {
		return fmt.Errorf("reading tags for %s: %w", src, err)
	}
	current := s.Store.Current()
	changed := false
	for i := range current {
		if current[i].Src == src {
			current[i].Tags = tags
			changed = true
		}
	}
	if changed {
		s.Store.Replace(current)
	}
	return nil
}

// RefreshAllTags re-reads the tags of every displayed record, keeping the
// current order.
func (s *Service) RefreshAllTags() {
	if s.TagDB == nil {
		return
	}
	s.Store.Replace(s.attachTags(s.Store.Current()))
}

var errNoTagDB = errors.New("tag database is disabled")

func (s *Service) tagDB() (TagStore, error) {
	if s.TagDB == nil {
		return nil, errNoTagDB
	}
	return s.TagDB, nil
}

// AddTagsToImage adds one or more tags to an image.
func (s *Service) AddTagsToImage(src string, tags []string) error {
	db, err := s.tagDB()
	if err != nil {
		return err
	}
	if src == "" || len(tags) == 0 {
		return errors.New("image and tags required")
	}
	for _, tag := range tags {
		if err := db.AddTag(src, tag); err != nil {
			return err
		}
	}
	return nil
}

// RemoveTagsFromImage removes one or more tags from an image.
func (s *Service) RemoveTagsFromImage(src string, tags []string) error {
	db, err := s.tagDB()
	if err != nil {
		return err
	}
	if src == "" || len(tags) == 0 {
		return errors.New("image and tags required")
	}
	for _, tag := range tags {
		if err := db.RemoveTag(src, tag); err != nil {
			return err
		}
	}
	return nil
}

// ListTagsForImage returns all tags for a given image.
func (s *Service) ListTagsForImage(src string) ([]string, error) {
	db, err := s.tagDB()
	if err != nil {
		return nil, err
	}
	return db.GetTags(src)
}

// ListImagesForTag returns all images for a given tag.
func (s *Service) ListImagesForTag(tag string) ([]string, error) {
	db, err := s.tagDB()
	if err != nil {
		return nil, err
	}
	return db.GetImages(tag)
}

// ListAllTags returns all tags with their image counts.
func (s *Service) ListAllTags() ([]tagging.TagWithCount, error) {
	db, err := s.tagDB()
	if err != nil {
		return nil, err
	}
	return db.GetAllTags()
}

// ReplaceTag replaces oldTag with newTag across all images.
func (s *Service) ReplaceTag(oldTag, newTag string) error {
	db, err := s.tagDB()
	if err != nil {
		return err
	}
	if oldTag == "" || newTag == "" || oldTag == newTag {
		return errors.New("invalid tags")
	}
	images, err := db.GetImages(oldTag)
	if err != nil {
		return err
	}
	var firstErr error
	for _, img := range images {
		if err := db.RemoveTag(img, oldTag); err != nil {
			s.Logger.WithError(err).WithField("src", img).Warn("ReplaceTag: failed to remove old tag")
			if firstErr == nil {
				firstErr = fmt.Errorf("removing old tag '%s' from '%s': %w", oldTag, img, err)
			}
		}
		if err := db.AddTag(img, newTag); err != nil {
			s.Logger.WithError(err).WithField("src", img).Warn("ReplaceTag: failed to add new tag")
			if firstErr == nil {
				firstErr = fmt.Errorf("adding new tag '%s' to '%s': %w", newTag, img, err)
			}
		}
	}
	if err := db.DeleteOrphanedTagKey(oldTag); err != nil {
		s.Logger.WithError(err).WithField("tag", oldTag).Warn("ReplaceTag: failed to delete old tag key")
	}
	return firstErr
}

// NormalizeAllTags lowercases all tags in the DB.
func (s *Service) NormalizeAllTags() error {
	db, err := s.tagDB()
	if err != nil {
		return err
	}
	allTags, err := db.GetAllTags()
	if err != nil {
		return err
	}
	var firstErr error
	for _, info := range allTags {
		lower := strings.ToLower(info.Name)
		if lower == info.Name {
			continue
		}
		if err := s.ReplaceTag(info.Name, lower); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RemoveTagGlobally removes a tag from every image. It returns the number of
// successful removals and failures.
func (s *Service) RemoveTagGlobally(tag string) (int, int, error) {
	db, err := s.tagDB()
	if err != nil {
		return 0, 0, err
	}
	if tag == "" {
		return 0, 0, errors.New("tag cannot be empty")
	}
	images, err := db.GetImages(tag)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get images for tag '%s': %w", tag, err)
	}
	removed, failed := 0, 0
	for _, img := range images {
		if err := db.RemoveTag(img, tag); err != nil {
			s.Logger.WithError(err).WithField("src", img).Warn("Failed to remove tag")
			failed++
		} else {
			removed++
		}
	}
	return removed, failed, nil
}

// PruneTags drops tags of images that are no longer in the catalog. It fails
// when the catalog cannot be fetched.
func (s *Service) PruneTags(ctx context.Context) (int, error) {
	db, err := s.tagDB()
	if err != nil {
		return 0, err
	}
	records, err := s.Catalog.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.Src] = true
	}
	tagged, err := db.GetAllImagePaths()
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, src := range tagged {
		if known[src] {
			continue
		}
		if err := db.RemoveAllTagsForImage(src); err != nil {
			s.Logger.WithError(err).WithField("src", src).Warn("Failed to prune tags")
			continue
		}
		pruned++
	}
	return pruned, nil
}
