package ui

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"fygallery/internal/catalog"
)

const (
	cardSize          = 200
	cardCaptionHeight = 36
)

// galleryGrid is the virtualized thumbnail grid. Only cells near the
// viewport exist, so thumbnails are requested as cards scroll into view.
type galleryGrid struct {
	app  *App
	grid *widget.GridWrap

	mu      sync.Mutex
	records []catalog.ImageRecord
	pending uint64 // latest render request; older delayed renders are dropped
}

func newGalleryGrid(a *App) *galleryGrid {
	g := &galleryGrid{app: a}
	g.grid = widget.NewGridWrap(
		g.length,
		func() fyne.CanvasObject {
			return newGalleryCard(fyne.NewSize(cardSize, cardSize+cardCaptionHeight), a.openCard, a.handleKeyEvent, a.handleRune)
		},
		g.update,
	)
	return g
}

func (g *galleryGrid) content() fyne.CanvasObject { return g.grid }

func (g *galleryGrid) length() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

func (g *galleryGrid) at(id widget.GridWrapItemID) (catalog.ImageRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id < 0 || id >= len(g.records) {
		return catalog.ImageRecord{}, false
	}
	return g.records[id], true
}

func (g *galleryGrid) update(id widget.GridWrapItemID, obj fyne.CanvasObject) {
	record, ok := g.at(id)
	if !ok {
		return
	}
	card := obj.(*galleryCard)
	card.bind(record)
	res := g.app.thumbs.GetThumbnail(record.Src, func(res fyne.Resource) {
		card.setThumbnail(record.Src, res)
	})
	card.setThumbnail(record.Src, res)
}

// render replaces the grid contents. A reshuffle of the same records fades
// the grid out for the configured delay before the new order appears.
func (g *galleryGrid) render(records []catalog.ImageRecord) {
	g.mu.Lock()
	g.pending++
	gen := g.pending
	fade := isReshuffle(g.records, records)
	g.mu.Unlock()

	g.app.thumbs.Prefetch(firstSrcs(records, g.app.cfg.Viewer.EagerThumbnails))

	apply := func() {
		g.mu.Lock()
		if gen != g.pending {
			g.mu.Unlock()
			return
		}
		g.records = records
		g.mu.Unlock()
		g.grid.UnselectAll()
		g.grid.Refresh()
		g.grid.ScrollToTop()
		g.grid.Show()
	}

	delay := g.app.cfg.ReshuffleFade()
	if !fade || delay <= 0 {
		fyne.Do(apply)
		return
	}
	fyne.Do(g.grid.Hide)
	time.AfterFunc(delay, func() { fyne.Do(apply) })
}

// isReshuffle reports whether next holds exactly the records of prev in a
// different order.
func isReshuffle(prev, next []catalog.ImageRecord) bool {
	if len(prev) == 0 || len(prev) != len(next) {
		return false
	}
	counts := make(map[int]int, len(prev))
	moved := false
	for i := range prev {
		counts[prev[i].ID]++
		counts[next[i].ID]--
		if prev[i].ID != next[i].ID {
			moved = true
		}
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return moved
}

func firstSrcs(records []catalog.ImageRecord, n int) []string {
	if n > len(records) {
		n = len(records)
	}
	if n <= 0 {
		return nil
	}
	srcs := make([]string, n)
	for i := 0; i < n; i++ {
		srcs[i] = records[i].Src
	}
	return srcs
}

// openCard opens the lightbox on the card's record with the full visible list.
func (a *App) openCard(record catalog.ImageRecord) {
	if err := a.ctrl.OpenRecord(record.ID); err != nil {
		a.log.WithError(err).Warn("Card no longer in the gallery")
	}
}
