package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"fygallery/internal/viewer"
)

func (a *App) buildKeyboardShortcuts() {
	// ctrl+q to quit application
	a.UI.MainWin.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: a.UI.mainModKey,
	}, func(_ fyne.Shortcut) { a.app.Quit() })

	a.UI.MainWin.Canvas().SetOnTypedKey(a.handleKeyEvent)
	a.UI.MainWin.Canvas().SetOnTypedRune(a.handleRune)
}

// keyFor maps the named keys the viewer understands. Letters arrive as runes.
func keyFor(name fyne.KeyName) (viewer.Key, bool) {
	switch name {
	case fyne.KeyEscape:
		return viewer.KeyEscape, true
	case fyne.KeyLeft:
		return viewer.KeyArrowLeft, true
	case fyne.KeyRight:
		return viewer.KeyArrowRight, true
	case fyne.KeySpace:
		return viewer.KeySpace, true
	}
	return "", false
}

func (a *App) handleKeyEvent(ev *fyne.KeyEvent) {
	key, ok := keyFor(ev.Name)
	if !ok {
		return
	}
	if key == viewer.KeyEscape && !a.box.isOpen() {
		// close dialogs with esc key
		if overlays := a.UI.MainWin.Canvas().Overlays(); overlays.Top() != nil {
			overlays.Top().Hide()
		}
		return
	}
	a.dispatchKey(key)
}

func (a *App) handleRune(r rune) {
	if r == ' ' {
		return // arrives as KeySpace too
	}
	a.dispatchKey(viewer.Key(string(r)))
}

func (a *App) dispatchKey(k viewer.Key) {
	wasOpen := a.box.isOpen()
	if !a.ctrl.HandleKey(k, a.textInputFocused()) {
		return
	}
	if wasOpen && (k == viewer.KeySpace || k == "p" || k == "P") {
		a.syncAutoplayIcon(!a.show.IsPaused())
	}
}

func (a *App) textInputFocused() bool {
	switch a.UI.MainWin.Canvas().Focused().(type) {
	case *widget.Entry, *widget.SelectEntry:
		return true
	}
	return false
}

func (a *App) showShortcuts() {
	shortcuts := []string{
		"Ctrl+Q",
		"Enter / Space (on a card)",
		"S",
		"Arrow Left", "Arrow Right",
		"P or Space",
		"Esc",
		"Double click",
	}
	descriptions := []string{
		"Quit Application",
		"Open Image",
		"Reshuffle Gallery",
		"Previous Image", "Next Image",
		"Toggle Autoplay",
		"Close Image",
		"Zoom In / Out",
	}

	win := a.app.NewWindow("Keyboard Shortcuts")
	table := widget.NewTable(
		func() (int, int) { return len(descriptions) + 1, 2 }, // +1 for header row
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			isHeader := id.Row == 0
			row := id.Row - 1
			switch {
			case isHeader && id.Col == 0:
				label.SetText("Description")
			case isHeader:
				label.SetText("Shortcut")
			case id.Col == 0:
				label.SetText(descriptions[row])
			default:
				label.SetText(shortcuts[row])
			}
			label.TextStyle.Bold = isHeader
		},
	)
	table.SetColumnWidth(0, 250)
	table.SetColumnWidth(1, 250)
	win.SetContent(table)
	win.Resize(fyne.NewSize(520, 360))
	win.Show()
}
