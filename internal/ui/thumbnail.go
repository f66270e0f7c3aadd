package ui

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"image/png"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"github.com/nfnt/resize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"fygallery/internal/source"
)

const (
	defaultThumbnailSize    = 300
	defaultThumbnailWorkers = 4
)

// ThumbnailManager handles generation and caching of image thumbnails.
type ThumbnailManager struct {
	ctx  context.Context
	src  source.Source
	size uint
	sem  *semaphore.Weighted
	log  logrus.FieldLogger

	mu       sync.Mutex
	cache    map[string]fyne.Resource
	inflight map[string][]func(fyne.Resource)
}

// NewThumbnailManager creates a new thumbnail manager. At most workers
// thumbnails are fetched and scaled at once.
func NewThumbnailManager(ctx context.Context, src source.Source, size, workers int, log logrus.FieldLogger) *ThumbnailManager {
	if size <= 0 {
		size = defaultThumbnailSize
	}
	if workers <= 0 {
		workers = defaultThumbnailWorkers
	}
	return &ThumbnailManager{
		ctx:      ctx,
		src:      src,
		size:     uint(size),
		sem:      semaphore.NewWeighted(int64(workers)),
		log:      log,
		cache:    make(map[string]fyne.Resource),
		inflight: make(map[string][]func(fyne.Resource)),
	}
}

// imageToBytes is a helper to convert image.Image to []byte for Fyne resources.
func imageToBytes(img image.Image) []byte {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

// GetThumbnail returns the cached thumbnail for src, or a placeholder while
// it is generated. onComplete runs on the UI goroutine once it is ready.
func (tm *ThumbnailManager) GetThumbnail(src string, onComplete func(fyne.Resource)) fyne.Resource {
	tm.mu.Lock()
	if res, ok := tm.cache[src]; ok {
		tm.mu.Unlock()
		return res
	}
	waiters, running := tm.inflight[src]
	if onComplete != nil {
		tm.inflight[src] = append(waiters, onComplete)
	} else if !running {
		tm.inflight[src] = nil
	}
	tm.mu.Unlock()

	if !running {
		go tm.generate(src)
	}
	return theme.FileImageIcon()
}

// Prefetch starts generating thumbnails for srcs in order.
func (tm *ThumbnailManager) Prefetch(srcs []string) {
	for _, src := range srcs {
		tm.GetThumbnail(src, nil)
	}
}

func (tm *ThumbnailManager) generate(src string) {
	res := tm.build(src)

	tm.mu.Lock()
	waiters := tm.inflight[src]
	delete(tm.inflight, src)
	if res != nil {
		tm.cache[src] = res
	}
	tm.mu.Unlock()

	if res == nil {
		return
	}
	for _, fn := range waiters {
		fn := fn
		fyne.Do(func() { fn(res) })
	}
}

func (tm *ThumbnailManager) build(src string) fyne.Resource {
	if err := tm.sem.Acquire(tm.ctx, 1); err != nil {
		return nil
	}
	defer tm.sem.Release(1)

	rc, err := tm.src.Open(tm.ctx, src, source.FetchOptions{})
	if err != nil {
		tm.log.WithError(err).WithField("src", src).Warn("Thumbnail unavailable")
		return nil
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		tm.log.WithError(err).WithField("src", src).Warn("Thumbnail decode failed")
		return nil
	}
	thumb := resize.Thumbnail(tm.size, tm.size, img, resize.Lanczos3)
	data := imageToBytes(thumb)
	if data == nil {
		return nil
	}
	return fyne.NewStaticResource(src, data)
}
