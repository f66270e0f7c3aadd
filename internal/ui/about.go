package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

func (a *App) showAbout() {
	img := canvas.NewImageFromResource(theme.FileImageIcon())
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(96, 96))

	version := a.version
	if version == "" {
		version = "dev"
	}
	source := a.cfg.Catalog.Source + ": " + a.cfg.Catalog.Descriptor

	var d dialog.Dialog
	ok := container.NewHBox(
		layout.NewSpacer(),
		widget.NewButton("OK", func() { d.Hide() }),
		layout.NewSpacer(),
	)
	body := container.NewVBox(
		img,
		widget.NewLabelWithStyle("fygallery", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle(fmt.Sprintf("Version %s", version), fyne.TextAlignCenter, fyne.TextStyle{}),
		widget.NewLabelWithStyle(source, fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
	)
	d = dialog.NewCustomWithoutButtons("About", container.NewBorder(nil, ok, nil, nil, body), a.UI.MainWin)
	d.Show()
}
