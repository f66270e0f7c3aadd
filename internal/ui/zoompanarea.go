package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom        float32 = 0.1
	maxZoom        float32 = 10.0
	zoomScrollStep float32 = 0.1
	doubleTapZoom  float32 = 2.0 // relative to the fitted scale
)

// ZoomPanArea shows an image fitted to its size. Double-tap toggles a
// magnified view centred on the pointer; while magnified the image can be
// dragged and scrolled.
type ZoomPanArea struct {
	widget.BaseWidget

	img    image.Image
	raster *canvas.Raster

	fitZoom    float32
	zoomFactor float32
	panOffset  fyne.Position
	zoomed     bool

	isPanning    bool
	lastMousePos fyne.Position

	OnInteraction func() // called when the user zooms or pans
}

var (
	_ fyne.Widget         = (*ZoomPanArea)(nil)
	_ fyne.Scrollable     = (*ZoomPanArea)(nil)
	_ fyne.Draggable      = (*ZoomPanArea)(nil)
	_ fyne.DoubleTappable = (*ZoomPanArea)(nil)
	_ desktop.Mouseable   = (*ZoomPanArea)(nil)
)

// NewZoomPanArea creates an empty ZoomPanArea.
func NewZoomPanArea(onInteraction func()) *ZoomPanArea {
	zpa := &ZoomPanArea{zoomFactor: 1, fitZoom: 1, OnInteraction: onInteraction}
	zpa.raster = canvas.NewRaster(zpa.draw)
	zpa.ExtendBaseWidget(zpa)
	return zpa
}

// SetImage shows img fitted to the view. nil clears the area.
func (zpa *ZoomPanArea) SetImage(img image.Image) {
	zpa.img = img
	zpa.Reset()
}

// SetDimmed fades the image while the next one is loading.
func (zpa *ZoomPanArea) SetDimmed(dimmed bool) {
	if dimmed {
		zpa.raster.Translucency = 0.6
	} else {
		zpa.raster.Translucency = 0
	}
	canvas.Refresh(zpa.raster)
}

// Zoomed reports whether the magnified view is active.
func (zpa *ZoomPanArea) Zoomed() bool { return zpa.zoomed }

// Reset fits the whole image in the view and centres it.
func (zpa *ZoomPanArea) Reset() {
	zpa.zoomed = false
	zpa.panOffset = fyne.Position{}
	zpa.fitZoom = 1
	size := zpa.Size()
	if zpa.img != nil && size.Width > 0 && size.Height > 0 {
		b := zpa.img.Bounds()
		imgW, imgH := float32(b.Dx()), float32(b.Dy())
		zpa.fitZoom = size.Width / imgW
		if z := size.Height / imgH; z < zpa.fitZoom {
			zpa.fitZoom = z
		}
		zpa.panOffset.X = (size.Width - imgW*zpa.fitZoom) / 2
		zpa.panOffset.Y = (size.Height - imgH*zpa.fitZoom) / 2
	}
	zpa.zoomFactor = zpa.fitZoom
	zpa.Refresh()
}

// Resize keeps the image fitted when the lightbox changes size.
func (zpa *ZoomPanArea) Resize(size fyne.Size) {
	zpa.BaseWidget.Resize(size)
	if !zpa.zoomed {
		zpa.Reset()
	}
}

// zoomAt sets the zoom factor keeping the image point under at fixed.
func (zpa *ZoomPanArea) zoomAt(at fyne.Position, factor float32) {
	if factor < minZoom {
		factor = minZoom
	}
	if factor > maxZoom {
		factor = maxZoom
	}
	imgX := (at.X - zpa.panOffset.X) / zpa.zoomFactor
	imgY := (at.Y - zpa.panOffset.Y) / zpa.zoomFactor
	zpa.zoomFactor = factor
	zpa.panOffset.X = at.X - imgX*factor
	zpa.panOffset.Y = at.Y - imgY*factor
	zpa.Refresh()
}

func (zpa *ZoomPanArea) interacted() {
	if zpa.OnInteraction != nil {
		zpa.OnInteraction()
	}
}

// DoubleTapped toggles between the fitted and the magnified view.
func (zpa *ZoomPanArea) DoubleTapped(ev *fyne.PointEvent) {
	if zpa.img == nil {
		return
	}
	zpa.interacted()
	if zpa.zoomed {
		zpa.Reset()
		return
	}
	zpa.zoomed = true
	zpa.zoomAt(ev.Position, zpa.fitZoom*doubleTapZoom)
}

// Scrolled zooms around the centre of the view.
func (zpa *ZoomPanArea) Scrolled(ev *fyne.ScrollEvent) {
	if zpa.img == nil || ev.Scrolled.DY == 0 {
		return
	}
	zpa.interacted()
	zpa.zoomed = true
	centre := fyne.NewPos(zpa.Size().Width/2, zpa.Size().Height/2)
	if ev.Scrolled.DY > 0 {
		zpa.zoomAt(centre, zpa.zoomFactor*(1+zoomScrollStep))
	} else {
		zpa.zoomAt(centre, zpa.zoomFactor/(1+zoomScrollStep))
	}
}

// MouseDown starts panning in the magnified view.
func (zpa *ZoomPanArea) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !zpa.zoomed {
		return
	}
	zpa.interacted()
	zpa.isPanning = true
	zpa.lastMousePos = ev.Position
}

// MouseUp stops panning.
func (zpa *ZoomPanArea) MouseUp(_ *desktop.MouseEvent) {
	zpa.isPanning = false
}

// Dragged pans the magnified image.
func (zpa *ZoomPanArea) Dragged(ev *fyne.DragEvent) {
	if !zpa.isPanning {
		return
	}
	zpa.panOffset = zpa.panOffset.Add(ev.Position.Subtract(zpa.lastMousePos))
	zpa.lastMousePos = ev.Position
	zpa.Refresh()
}

// DragEnd finalizes panning.
func (zpa *ZoomPanArea) DragEnd() {
	zpa.isPanning = false
}

// draw maps every destination pixel back into the source image.
func (zpa *ZoomPanArea) draw(w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if zpa.img == nil || w <= 0 || h <= 0 {
		return dst
	}
	src := zpa.img.Bounds()
	// the raster is drawn in pixels, the offsets are in canvas units
	scale := float32(1)
	if width := zpa.Size().Width; width > 0 {
		scale = float32(w) / width
	}
	inv := 1 / (zpa.zoomFactor * scale)
	offX, offY := zpa.panOffset.X*scale, zpa.panOffset.Y*scale
	for dy := 0; dy < h; dy++ {
		sy := (float32(dy) - offY) * inv
		if sy < float32(src.Min.Y) || sy >= float32(src.Max.Y) {
			continue
		}
		for dx := 0; dx < w; dx++ {
			sx := (float32(dx) - offX) * inv
			if sx >= float32(src.Min.X) && sx < float32(src.Max.X) {
				dst.Set(dx, dy, zpa.img.At(int(sx), int(sy)))
			}
		}
	}
	return dst
}

// CreateRenderer is a Fyne lifecycle method.
func (zpa *ZoomPanArea) CreateRenderer() fyne.WidgetRenderer {
	return &zoomPanAreaRenderer{zpa: zpa}
}

type zoomPanAreaRenderer struct{ zpa *ZoomPanArea }

func (r *zoomPanAreaRenderer) Layout(size fyne.Size)        { r.zpa.raster.Resize(size) }
func (r *zoomPanAreaRenderer) MinSize() fyne.Size           { return fyne.NewSize(100, 100) }
func (r *zoomPanAreaRenderer) Refresh()                     { canvas.Refresh(r.zpa.raster) }
func (r *zoomPanAreaRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.zpa.raster} }
func (r *zoomPanAreaRenderer) Destroy()                     {}
