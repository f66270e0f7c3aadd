package ui

import (
	"image"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"fygallery/internal/lightbox"
	"fygallery/internal/source"
)

// lightboxView is the modal single-image view. All fields are owned by the
// UI goroutine; callers from other goroutines go through fyne.Do.
type lightboxView struct {
	app   *App
	popup *widget.PopUp
	zoom  *ZoomPanArea

	counter  *widget.Label
	title    *widget.Label
	caption  *widget.Label
	metadata *widget.Label
	prevBtn  *widget.Button
	nextBtn  *widget.Button
	tagBtn   *widget.Button

	open    bool
	current lightbox.Event
}

func newLightboxView(a *App) *lightboxView {
	l := &lightboxView{
		app:      a,
		counter:  widget.NewLabel(""),
		title:    widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		caption:  widget.NewLabel(""),
		metadata: widget.NewLabel(""),
	}
	l.zoom = NewZoomPanArea(func() { a.show.Pause(false) })
	l.caption.Wrapping = fyne.TextWrapWord
	l.metadata.TextStyle = fyne.TextStyle{Monospace: true}
	l.metadata.Hide()

	l.prevBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() { a.ctrl.Navigate(lightbox.Previous) })
	l.nextBtn = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() { a.ctrl.Navigate(lightbox.Next) })
	l.tagBtn = widget.NewButtonWithIcon("Tag...", theme.DocumentCreateIcon(), func() { a.showTagDialog(l.current.Record) })
	if a.Service.TagDB == nil {
		l.tagBtn.Hide()
	}
	playBtn := widget.NewButtonWithIcon("", theme.MediaPlayIcon(), a.toggleAutoplay)
	closeBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), func() { a.ctrl.Close() })

	top := container.NewBorder(nil, nil, l.counter, container.NewHBox(playBtn, l.tagBtn, closeBtn), l.title)
	bottom := container.NewVBox(l.caption, l.metadata)
	body := container.NewBorder(top, bottom,
		container.NewCenter(l.prevBtn),
		container.NewCenter(l.nextBtn),
		l.zoom,
	)
	backdrop := newBackdrop(func() { a.ctrl.Close() })
	l.popup = widget.NewModalPopUp(container.NewStack(backdrop, container.NewPadded(body)), a.UI.MainWin.Canvas())
	return l
}

func (l *lightboxView) isOpen() bool { return l.open }

// show presents ev. The image is swapped once it is decoded and the
// transition delay has passed, and only if ev is still the current record.
func (l *lightboxView) show(ev lightbox.Event) {
	fyne.Do(func() {
		wasOpen := l.open
		l.open = true
		l.current = ev
		l.updateChrome(ev)
		l.metadata.SetText("")
		l.metadata.Hide()
		if !wasOpen {
			l.zoom.SetImage(nil)
			l.popup.Resize(l.app.UI.MainWin.Canvas().Size())
			l.popup.Show()
		}
		l.zoom.SetDimmed(wasOpen)
		l.app.UI.MainWin.Canvas().Unfocus()
	})
	go l.load(ev)
}

func (l *lightboxView) load(ev lightbox.Event) {
	start := time.Now()
	img := l.decode(ev.Record.Src)
	if wait := l.app.cfg.TransitionDelay() - time.Since(start); wait > 0 {
		select {
		case <-time.After(wait):
		case <-l.app.ctx.Done():
			return
		}
	}
	fyne.Do(func() {
		if !l.open || l.current.Generation != ev.Generation {
			return
		}
		l.zoom.SetImage(img)
		l.zoom.SetDimmed(false)
	})
}

func (l *lightboxView) decode(src string) image.Image {
	rc, err := l.app.src.Open(l.app.ctx, src, source.FetchOptions{})
	if err != nil {
		l.app.log.WithError(err).WithField("src", src).Warn("Image unavailable")
		return nil
	}
	defer rc.Close()
	img, _, err := image.Decode(rc)
	if err != nil {
		l.app.log.WithError(err).WithField("src", src).Warn("Image decode failed")
		return nil
	}
	return img
}

func (l *lightboxView) updateChrome(ev lightbox.Event) {
	l.counter.SetText(ev.Counter())
	l.title.SetText(ev.Record.Title)
	l.caption.SetText(captionFor(ev))
	if ev.Total > 1 {
		l.prevBtn.Show()
		l.nextBtn.Show()
	} else {
		l.prevBtn.Hide()
		l.nextBtn.Hide()
	}
}

// setTags refreshes the caption after the shown record was retagged.
func (l *lightboxView) setTags(src string, tags []string) {
	if !l.open || l.current.Record.Src != src {
		return
	}
	l.current.Record.Tags = tags
	l.caption.SetText(captionFor(l.current))
}

func captionFor(ev lightbox.Event) string {
	parts := []string{}
	if ev.Record.Category != "" {
		parts = append(parts, ev.Record.Category)
	}
	if len(ev.Record.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(ev.Record.Tags, ", "))
	}
	return strings.Join(parts, "  |  ")
}

func (l *lightboxView) showMetadata(ev lightbox.Event, lines []string) {
	fyne.Do(func() {
		if !l.open || l.current.Generation != ev.Generation {
			return
		}
		if len(lines) == 0 {
			l.metadata.Hide()
			return
		}
		l.metadata.SetText(strings.Join(lines, "\n"))
		l.metadata.Show()
	})
}

func (l *lightboxView) hide() {
	fyne.Do(func() {
		l.open = false
		l.current = lightbox.Event{Index: -1, Closed: true}
		l.popup.Hide()
		l.zoom.SetImage(nil)
	})
}

// backdrop fills the lightbox behind its content and closes it when tapped.
type backdrop struct {
	widget.BaseWidget
	rect     *canvas.Rectangle
	onTapped func()
}

func newBackdrop(onTapped func()) *backdrop {
	b := &backdrop{rect: canvas.NewRectangle(theme.Color(theme.ColorNameShadow)), onTapped: onTapped}
	b.ExtendBaseWidget(b)
	return b
}

func (b *backdrop) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.rect)
}

// Tapped is called when the backdrop is tapped.
func (b *backdrop) Tapped(_ *fyne.PointEvent) {
	if b.onTapped != nil {
		b.onTapped()
	}
}
