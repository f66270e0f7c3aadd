package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// galleryTheme wraps the user's theme with tighter padding and a darker
// lightbox backdrop.
type galleryTheme struct {
	fyne.Theme
}

var _ fyne.Theme = (*galleryTheme)(nil)

func newGalleryTheme(base fyne.Theme) fyne.Theme {
	return &galleryTheme{Theme: base}
}

func (t *galleryTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return 2
	}
	return t.Theme.Size(name)
}

func (t *galleryTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if name == theme.ColorNameShadow {
		return color.NRGBA{A: 0xd8}
	}
	return t.Theme.Color(name, variant)
}
