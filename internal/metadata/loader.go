package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"fygallery/internal/source"
)

// ErrMetadataLoad reports that neither fetch attempt could read the image.
var ErrMetadataLoad = errors.New("metadata load failed")

const (
	defaultCacheTTL = 30 * time.Minute
	maxImageBytes   = 64 << 20 // upper bound on bytes read per image
	maxJoinRetries  = 2
)

// Loader fetches an image and returns its formatted metadata lines. Results
// are cached per asset name and concurrent requests for one name share a
// single fetch.
type Loader struct {
	src   source.Source
	cache *cache.Cache
	group singleflight.Group
	log   logrus.FieldLogger
}

// NewLoader creates a Loader reading through src. ttl <= 0 uses the default.
func NewLoader(src source.Source, ttl time.Duration, log logrus.FieldLogger) *Loader {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{
		src:   src,
		cache: cache.New(ttl, 2*ttl),
		log:   log,
	}
}

// Fetch reads the image named name and decodes its metadata. The first
// attempt is a cross-origin read; if the image cannot be read that way it is
// fetched again without cross-origin mode and with a cache-busting parameter.
// An image that loads but carries no EXIF yields empty Fields and no error.
func (l *Loader) Fetch(ctx context.Context, name string) (Fields, error) {
	data, err := l.read(ctx, name, source.FetchOptions{CrossOrigin: true})
	if err != nil {
		if ctx.Err() != nil {
			return Fields{}, ctx.Err()
		}
		l.log.WithError(err).WithField("src", name).Debug("Cross-origin read failed, retrying")
		var retryErr error
		data, retryErr = l.read(ctx, name, source.FetchOptions{CacheBust: true})
		if retryErr != nil {
			return Fields{}, fmt.Errorf("%w: %s: %w", ErrMetadataLoad, name, errors.Join(err, retryErr))
		}
	}

	fields, err := Decode(bytes.NewReader(data))
	if err != nil {
		l.log.WithError(err).WithField("src", name).Debug("No readable EXIF")
		return Fields{}, nil
	}
	return fields, nil
}

func (l *Loader) read(ctx context.Context, name string, opts source.FetchOptions) ([]byte, error) {
	rc, err := l.src.Open(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Load returns the display lines for name. Failures are logged and produce
// an empty result; they are not cached, so a later call tries again.
func (l *Loader) Load(ctx context.Context, name string) []string {
	if v, ok := l.cache.Get(name); ok {
		return append([]string{}, v.([]string)...)
	}

	for attempt := 0; ; attempt++ {
		v, err, shared := l.group.Do(name, func() (interface{}, error) {
			fields, err := l.Fetch(ctx, name)
			if err != nil {
				return nil, err
			}
			lines := Format(fields)
			l.cache.SetDefault(name, lines)
			return lines, nil
		})
		switch {
		case err == nil:
			return append([]string{}, v.([]string)...)
		case ctx.Err() != nil:
			l.log.WithField("src", name).Debug("Metadata load cancelled")
			return []string{}
		case shared && attempt < maxJoinRetries &&
			(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			// joined a fetch whose caller gave up; start one under our own ctx
			l.group.Forget(name)
		default:
			l.log.WithError(err).WithField("src", name).Warn("Metadata unavailable")
			return []string{}
		}
	}
}
