// Package viewer connects the gallery store, the lightbox navigator and the
// metadata loader to whatever renders them, and owns the keyboard surface.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"fygallery/internal/catalog"
	"fygallery/internal/gallery"
	"fygallery/internal/lightbox"
	"fygallery/internal/slideshow"
)

// ErrUnknownRecord is returned when asked to open an id that is not displayed.
var ErrUnknownRecord = errors.New("record is not in the gallery")

// Presenter renders the gallery and the lightbox. Calls may come from any
// goroutine.
type Presenter interface {
	RenderGrid(records []catalog.ImageRecord)
	ShowRecord(ev lightbox.Event)
	// ShowMetadata fills the metadata panel for the record ev describes.
	// lines may be empty.
	ShowMetadata(ev lightbox.Event, lines []string)
	HideLightbox()
}

// MetadataLoader returns display lines for an asset. It never fails; an
// unreadable asset yields no lines.
type MetadataLoader interface {
	Load(ctx context.Context, name string) []string
}

// Key names a key press as the controller understands it. Letters are passed
// as typed, so "s" and "S" are distinct keys.
type Key string

const (
	KeyEscape     Key = "Escape"
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeySpace      Key = "Space"
)

// Controller drives a Presenter from the store and navigator. Create it with
// New, then Start it; Stop releases its goroutines.
type Controller struct {
	store     *gallery.Store
	nav       *lightbox.Navigator
	meta      MetadataLoader
	show      *slideshow.Manager
	presenter Presenter
	log       logrus.FieldLogger

	mu         sync.Mutex
	filter     string
	cancelMeta context.CancelFunc
	cancelRun  context.CancelFunc
	unsub      []func()
	wg         sync.WaitGroup
}

// New creates a Controller. meta and show may be nil to disable metadata and
// autoplay.
func New(store *gallery.Store, nav *lightbox.Navigator, meta MetadataLoader, show *slideshow.Manager, p Presenter, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		store:     store,
		nav:       nav,
		meta:      meta,
		show:      show,
		presenter: p,
		log:       log,
	}
}

// Start subscribes to the store and navigator, renders the current list and
// starts autoplay. It returns immediately.
func (c *Controller) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancelRun = cancel
	c.unsub = append(c.unsub,
		c.store.Subscribe(func(records []catalog.ImageRecord) {
			c.presenter.RenderGrid(gallery.FilterByTag(records, c.Filter()))
		}),
		c.nav.Subscribe(func(ev lightbox.Event) { c.onTransition(runCtx, ev) }),
	)
	c.mu.Unlock()

	c.presenter.RenderGrid(c.Visible())

	if c.show != nil {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.show.Run(runCtx, c.autoplayStep)
		}()
	}
}

// Stop unsubscribes, cancels any metadata load and waits for background work.
func (c *Controller) Stop() {
	c.mu.Lock()
	for _, u := range c.unsub {
		u()
	}
	c.unsub = nil
	if c.cancelMeta != nil {
		c.cancelMeta()
		c.cancelMeta = nil
	}
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Filter returns the active tag filter.
func (c *Controller) Filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetFilter restricts the grid to records carrying tag. An empty tag shows
// everything.
func (c *Controller) SetFilter(tag string) {
	c.mu.Lock()
	c.filter = tag
	c.mu.Unlock()
	c.presenter.RenderGrid(c.Visible())
}

// Visible returns the records the grid shows, in display order.
func (c *Controller) Visible() []catalog.ImageRecord {
	return gallery.FilterByTag(c.store.Current(), c.Filter())
}

// OpenRecord opens the lightbox on the displayed record with the given id,
// using the visible list as the navigation context.
func (c *Controller) OpenRecord(id int) error {
	record, ok := c.store.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownRecord, id)
	}
	c.Open(record, c.Visible())
	return nil
}

// Open opens the lightbox on record within list.
func (c *Controller) Open(record catalog.ImageRecord, list []catalog.ImageRecord) lightbox.Event {
	ev := c.nav.Open(record, list)
	if c.show != nil {
		c.show.ResumeAfterOperation()
	}
	return ev
}

// Navigate steps the open lightbox. It reports false if nothing moved.
func (c *Controller) Navigate(dir lightbox.Direction) bool {
	_, moved := c.nav.Navigate(dir)
	return moved
}

// Close hides the lightbox, holding autoplay until the next Open.
func (c *Controller) Close() bool {
	_, closed := c.nav.Close()
	if closed && c.show != nil {
		c.show.Pause(true)
	}
	return closed
}

// Reshuffle installs a new ordering of the gallery. An open lightbox keeps
// its own list.
func (c *Controller) Reshuffle() {
	c.store.Reshuffle()
}

// ToggleAutoplay flips autoplay and reports whether it is now playing.
func (c *Controller) ToggleAutoplay() bool {
	if c.show == nil {
		return false
	}
	playing := c.show.TogglePlayPause()
	c.log.WithField("playing", playing).Debug("Autoplay toggled")
	return playing
}

// HandleKey applies a key press and reports whether it was consumed. While
// the lightbox is open every key is consumed. While it is closed only s/S is
// handled, and not when a text input has focus.
func (c *Controller) HandleKey(k Key, textInputFocused bool) bool {
	if c.nav.State() == lightbox.Open {
		switch k {
		case KeyEscape:
			c.Close()
		case KeyArrowLeft:
			c.Navigate(lightbox.Previous)
		case KeyArrowRight:
			c.Navigate(lightbox.Next)
		case KeySpace, "p", "P":
			c.ToggleAutoplay()
		}
		return true
	}
	if textInputFocused {
		return false
	}
	if k == "s" || k == "S" {
		c.Reshuffle()
		return true
	}
	return false
}

func (c *Controller) autoplayStep() {
	if c.nav.State() == lightbox.Open {
		c.nav.Navigate(lightbox.Next)
	}
}

// onTransition runs on the goroutine that changed the navigator.
func (c *Controller) onTransition(ctx context.Context, ev lightbox.Event) {
	c.mu.Lock()
	if c.cancelMeta != nil {
		c.cancelMeta()
		c.cancelMeta = nil
	}
	if ev.Closed || c.meta == nil || ctx.Err() != nil {
		c.mu.Unlock()
		if ev.Closed {
			c.presenter.HideLightbox()
		} else {
			c.presenter.ShowRecord(ev)
		}
		return
	}
	metaCtx, cancel := context.WithCancel(ctx)
	c.cancelMeta = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	c.presenter.ShowRecord(ev)

	go func() {
		defer c.wg.Done()
		defer cancel()
		lines := c.meta.Load(metaCtx, ev.Record.Src)
		if metaCtx.Err() != nil || !c.nav.IsCurrent(ev.Generation) {
			c.log.WithFields(logrus.Fields{
				"src":        ev.Record.Src,
				"generation": ev.Generation,
			}).Debug("Dropping stale metadata")
			return
		}
		c.presenter.ShowMetadata(ev, lines)
	}()
}
