package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"fygallery/internal/source"
)

// DefaultDescriptor is the asset name of the gallery descriptor.
const DefaultDescriptor = "images/gallery.json"

// ErrCatalogLoad reports that the descriptor could not be fetched or decoded.
var ErrCatalogLoad = errors.New("catalog load failed")

// Loader fetches the descriptor from a source and flattens it into records.
type Loader struct {
	src        source.Source
	descriptor string
	prefix     string
	log        logrus.FieldLogger
}

// NewLoader creates a Loader. Empty descriptor and prefix take the defaults.
func NewLoader(src source.Source, descriptor, prefix string, log logrus.FieldLogger) *Loader {
	if descriptor == "" {
		descriptor = DefaultDescriptor
	}
	if prefix == "" {
		prefix = DefaultImagePrefix
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{src: src, descriptor: descriptor, prefix: prefix, log: log}
}

// Descriptor returns the asset name the loader reads.
func (l *Loader) Descriptor() string { return l.descriptor }

// Fetch reads and flattens the descriptor. All failures wrap ErrCatalogLoad.
func (l *Loader) Fetch(ctx context.Context) ([]ImageRecord, error) {
	rc, err := l.src.Open(ctx, l.descriptor, source.FetchOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogLoad, err)
	}
	defer rc.Close()

	desc, err := DecodeDescriptor(rc, FormatFor(l.descriptor))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogLoad, l.descriptor, err)
	}
	records := Flatten(desc, l.prefix)
	l.log.WithFields(logrus.Fields{
		"descriptor": l.descriptor,
		"categories": len(desc.Categories),
		"images":     len(records),
	}).Debug("catalog fetched")
	return records, nil
}

// Load returns the fetched records, or the fallback list when fetching fails.
// The boolean reports whether the fallback was used.
func (l *Loader) Load(ctx context.Context) ([]ImageRecord, bool) {
	records, err := l.Fetch(ctx)
	if err != nil {
		l.log.WithError(err).Warn("using fallback catalog")
		return Fallback(), true
	}
	return records, false
}
