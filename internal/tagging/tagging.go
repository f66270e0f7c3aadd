// Package tagging stores user tags for gallery images in a BoltDB file.
// Images are identified by their asset name (the record's Src), so tags
// survive reshuffles and catalog reloads.
package tagging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	// DBFileName is the database file created inside the tag directory.
	DBFileName         = "fygallery_tags.db"
	ImagesToTagsBucket = "ImagesToTags" // image src -> tags
	TagsToImagesBucket = "TagsToImages" // tag -> image srcs
)

// ErrEmptyArgument is returned when an image or tag argument is blank.
var ErrEmptyArgument = errors.New("image and tag cannot be empty")

// TagDB manages the tagging database.
type TagDB struct {
	db  *bolt.DB
	log logrus.FieldLogger
}

// TagWithCount holds a tag name and the number of images carrying it.
type TagWithCount struct {
	Name  string
	Count int
}

// DefaultDir returns <user config dir>/fygallery, creating it if needed.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config dir: %w", err)
	}
	dir := filepath.Join(configDir, "fygallery")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// NewTagDB opens (or creates) the tag database inside dbDir. An empty dbDir
// uses DefaultDir, falling back to the working directory.
func NewTagDB(dbDir string, log logrus.FieldLogger) (*TagDB, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if dbDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			log.WithError(err).Warn("Using current directory for tag database")
			dir = "."
		}
		dbDir = dir
	}
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create tag directory %s: %w", dbDir, err)
	}

	dbPath := filepath.Join(dbDir, DBFileName)
	log.WithField("path", dbPath).Info("Using tag database")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag database %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{ImagesToTagsBucket, TagsToImagesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &TagDB{db: db, log: log}, nil
}

// Close closes the database.
func (tdb *TagDB) Close() error {
	if tdb.db != nil {
		return tdb.db.Close()
	}
	return nil
}

func encodeList(list []string) ([]byte, error) {
	return json.Marshal(list)
}

func decodeList(data []byte) ([]string, error) {
	if data == nil {
		return []string{}, nil
	}
	var list []string
	err := json.Unmarshal(data, &list)
	return list, err
}

// addToList appends item unless present. Reports whether it was added.
func addToList(list []string, item string) ([]string, bool) {
	for _, existing := range list {
		if existing == item {
			return list, false
		}
	}
	return append(list, item), true
}

func removeFromList(list []string, item string) []string {
	out := list[:0]
	for _, existing := range list {
		if existing != item {
			out = append(out, existing)
		}
	}
	return out
}

// updateList adds or removes item in the JSON list stored under key. A list
// emptied by removal is deleted. Reports whether anything changed.
func updateList(tx *bolt.Tx, bucketName, key, item string, add bool) (bool, error) {
	bucket := tx.Bucket([]byte(bucketName))
	if bucket == nil {
		return false, fmt.Errorf("bucket %s not found", bucketName)
	}

	current, err := decodeList(bucket.Get([]byte(key)))
	if err != nil {
		return false, fmt.Errorf("failed to decode list for key '%s' in bucket '%s': %w", key, bucketName, err)
	}

	var updated []string
	changed := false
	if add {
		updated, changed = addToList(current, item)
	} else {
		before := len(current)
		updated = removeFromList(current, item)
		changed = len(updated) != before
	}
	if !changed {
		return false, nil
	}

	if len(updated) == 0 {
		if err := bucket.Delete([]byte(key)); err != nil {
			return true, fmt.Errorf("failed to delete empty list for key '%s' in bucket '%s': %w", key, bucketName, err)
		}
		return true, nil
	}
	data, err := encodeList(updated)
	if err != nil {
		return true, fmt.Errorf("failed to encode list for key '%s' in bucket '%s': %w", key, bucketName, err)
	}
	if err := bucket.Put([]byte(key), data); err != nil {
		return true, fmt.Errorf("failed to store list for key '%s' in bucket '%s': %w", key, bucketName, err)
	}
	return true, nil
}

// link updates both directions of an image/tag association.
func link(tx *bolt.Tx, src, tag string, add bool) error {
	if _, err := updateList(tx, ImagesToTagsBucket, src, tag, add); err != nil {
		return fmt.Errorf("updating image->tags for '%s' with tag '%s': %w", src, tag, err)
	}
	if _, err := updateList(tx, TagsToImagesBucket, tag, src, add); err != nil {
		return fmt.Errorf("updating tag->images for '%s' with image '%s': %w", tag, src, err)
	}
	return nil
}

// AddTag associates tag with the image src.
func (tdb *TagDB) AddTag(src, tag string) error {
	if src == "" || tag == "" {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		return link(tx, src, tag, true)
	})
}

// AddTags associates several tags with src in one transaction. Blank tags
// are skipped.
func (tdb *TagDB) AddTags(src string, tags []string) error {
	if src == "" || len(tags) == 0 {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		for _, tag := range tags {
			if tag == "" {
				continue
			}
			if err := link(tx, src, tag, true); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveTag removes the association between src and tag.
func (tdb *TagDB) RemoveTag(src, tag string) error {
	if src == "" || tag == "" {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		return link(tx, src, tag, false)
	})
}

// GetTags returns the sorted tags of src.
func (tdb *TagDB) GetTags(src string) ([]string, error) {
	var tags []string
	err := tdb.db.View(func(tx *bolt.Tx) error {
		var err error
		tags, err = decodeList(tx.Bucket([]byte(ImagesToTagsBucket)).Get([]byte(src)))
		if err != nil {
			return fmt.Errorf("failed to decode tags for image %s: %w", src, err)
		}
		return nil
	})
	sort.Strings(tags)
	return tags, err
}

// TagsFor returns the tags of every src in one read transaction. Images
// without tags map to an empty slice; undecodable entries are logged and
// treated as untagged.
func (tdb *TagDB) TagsFor(srcs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(srcs))
	err := tdb.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ImagesToTagsBucket))
		for _, src := range srcs {
			tags, err := decodeList(bucket.Get([]byte(src)))
			if err != nil {
				tdb.log.WithError(err).WithField("src", src).Warn("Skipping undecodable tag list")
				tags = []string{}
			}
			sort.Strings(tags)
			out[src] = tags
		}
		return nil
	})
	return out, err
}

// GetImages returns the sorted image srcs carrying tag.
func (tdb *TagDB) GetImages(tag string) ([]string, error) {
	var images []string
	err := tdb.db.View(func(tx *bolt.Tx) error {
		var err error
		images, err = decodeList(tx.Bucket([]byte(TagsToImagesBucket)).Get([]byte(tag)))
		if err != nil {
			return fmt.Errorf("failed to decode images for tag %s: %w", tag, err)
		}
		return nil
	})
	sort.Strings(images)
	return images, err
}

// GetAllTags lists every tag with its image count, sorted by name.
func (tdb *TagDB) GetAllTags() ([]TagWithCount, error) {
	var all []TagWithCount
	err := tdb.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(TagsToImagesBucket)).ForEach(func(k, v []byte) error {
			images, err := decodeList(v)
			if err != nil {
				tdb.log.WithError(err).WithField("tag", string(k)).Warn("Skipping undecodable image list")
				return nil
			}
			all = append(all, TagWithCount{Name: string(k), Count: len(images)})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

// RemoveAllTagsForImage drops every tag of src.
func (tdb *TagDB) RemoveAllTagsForImage(src string) error {
	if src == "" {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		imgBucket := tx.Bucket([]byte(ImagesToTagsBucket))
		tags, err := decodeList(imgBucket.Get([]byte(src)))
		if err != nil {
			return fmt.Errorf("failed to decode tags for image %s: %w", src, err)
		}
		for _, tag := range tags {
			if _, err := updateList(tx, TagsToImagesBucket, tag, src, false); err != nil {
				return fmt.Errorf("failed to remove image '%s' from tag '%s': %w", src, tag, err)
			}
		}
		return imgBucket.Delete([]byte(src))
	})
}

// DeleteOrphanedTagKey removes a tag key whose image list the caller knows
// to be empty.
func (tdb *TagDB) DeleteOrphanedTagKey(tag string) error {
	if tag == "" {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(TagsToImagesBucket)).Delete([]byte(tag)); err != nil {
			return fmt.Errorf("failed to delete tag key '%s': %w", tag, err)
		}
		return nil
	})
}

// GetAllImagePaths returns every image src that has at least one tag.
func (tdb *TagDB) GetAllImagePaths() ([]string, error) {
	var srcs []string
	err := tdb.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(ImagesToTagsBucket)).ForEach(func(k, _ []byte) error {
			srcs = append(srcs, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get all image paths: %w", err)
	}
	return srcs, nil
}
