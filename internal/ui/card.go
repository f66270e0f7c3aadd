package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"fygallery/internal/catalog"
)

// galleryCard is one grid cell: thumbnail plus title. It opens the lightbox
// when tapped, or on Enter/Space while focused.
type galleryCard struct {
	widget.BaseWidget

	image   *canvas.Image
	title   *widget.Label
	focus   *canvas.Rectangle
	record  catalog.ImageRecord
	focused bool

	onOpen func(catalog.ImageRecord)
	onKey  func(*fyne.KeyEvent)
	onRune func(rune)
}

var (
	_ fyne.Tappable  = (*galleryCard)(nil)
	_ fyne.Focusable = (*galleryCard)(nil)
)

func newGalleryCard(size fyne.Size, onOpen func(catalog.ImageRecord), onKey func(*fyne.KeyEvent), onRune func(rune)) *galleryCard {
	c := &galleryCard{
		image:  canvas.NewImageFromResource(theme.FileImageIcon()),
		title:  widget.NewLabel(""),
		focus:  canvas.NewRectangle(theme.Color(theme.ColorNameFocus)),
		onOpen: onOpen,
		onKey:  onKey,
		onRune: onRune,
	}
	c.image.FillMode = canvas.ImageFillContain
	c.image.SetMinSize(fyne.NewSize(size.Width, size.Height-cardCaptionHeight))
	c.title.Truncation = fyne.TextTruncateEllipsis
	c.title.Alignment = fyne.TextAlignCenter
	c.focus.Hide()
	c.ExtendBaseWidget(c)
	return c
}

func (c *galleryCard) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(
		c.focus,
		container.NewPadded(container.NewBorder(nil, c.title, nil, nil, c.image)),
	))
}

// bind points the card at record. GridWrap recycles cards, so any
// thumbnail still loading for the previous record is ignored.
func (c *galleryCard) bind(record catalog.ImageRecord) {
	c.record = record
	c.title.SetText(record.Title)
	c.image.Resource = theme.FileImageIcon()
	c.image.Image = nil
	canvas.Refresh(c.image)
}

// setThumbnail shows res if the card still shows src.
func (c *galleryCard) setThumbnail(src string, res fyne.Resource) {
	if c.record.Src != src || res == nil {
		return
	}
	c.image.Resource = res
	canvas.Refresh(c.image)
}

// Tapped is called when the card is tapped.
func (c *galleryCard) Tapped(_ *fyne.PointEvent) {
	if c.onOpen != nil && c.record.Src != "" {
		c.onOpen(c.record)
	}
}

func (c *galleryCard) FocusGained() {
	c.focused = true
	c.focus.Show()
	c.Refresh()
}

func (c *galleryCard) FocusLost() {
	c.focused = false
	c.focus.Hide()
	c.Refresh()
}

func (c *galleryCard) TypedRune(r rune) {
	if r == ' ' {
		return // handled as KeySpace
	}
	if c.onRune != nil {
		c.onRune(r)
	}
}

func (c *galleryCard) TypedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyEnter, fyne.KeySpace:
		c.Tapped(nil)
		return
	}
	if c.onKey != nil {
		c.onKey(ev)
	}
}
