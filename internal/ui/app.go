// Package ui is the Fyne front end of fygallery: a thumbnail grid, a modal
// lightbox and the tag views.
package ui

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"fygallery/internal/catalog"
	"fygallery/internal/config"
	"fygallery/internal/lightbox"
	"fygallery/internal/service"
	"fygallery/internal/slideshow"
	"fygallery/internal/source"
	"fygallery/internal/viewer"
)

// Deps are the collaborators the GUI is built from.
type Deps struct {
	Config   *config.Config
	Service  *service.Service
	Source   source.Source
	Metadata viewer.MetadataLoader // nil disables the metadata panel
	Logger   *logrus.Logger
	Version  string
}

// UI holds the widgets that outlive a single view.
type UI struct {
	MainWin    fyne.Window
	mainModKey fyne.KeyModifier

	toolBar     *widget.Toolbar
	pauseAction *widget.ToolbarAction
	tabs        *container.AppTabs

	statusLabel      *widget.Label
	statusLogLabel   *widget.Label
	statusLogUpBtn   *widget.Button
	statusLogDownBtn *widget.Button
}

// App represents the whole application with all its windows, widgets and functions
type App struct {
	app fyne.App
	UI  UI

	cfg     *config.Config
	Service *service.Service
	src     source.Source
	log     logrus.FieldLogger
	version string

	ctrl      *viewer.Controller
	show      *slideshow.Manager
	thumbs    *ThumbnailManager
	grid      *galleryGrid
	box       *lightboxView
	tagsView  *tagListController
	logUI     *LogUIManager
	ctx       context.Context
	cancel    context.CancelFunc
	loadingMu sync.Mutex
	loading   bool
}

var _ viewer.Presenter = (*App)(nil)

// CreateApplication builds the main window, loads the gallery in the
// background and runs the Fyne event loop until the window closes.
func CreateApplication(ctx context.Context, deps Deps) error {
	if deps.Service == nil || deps.Source == nil || deps.Config == nil {
		return fmt.Errorf("ui: config, service and source are required")
	}
	var log logrus.FieldLogger = logrus.StandardLogger()
	if deps.Logger != nil {
		log = deps.Logger
	}

	fa := app.NewWithID("io.github.fygallery")
	fa.Settings().SetTheme(newGalleryTheme(fa.Settings().Theme()))

	a := &App{
		app:     fa,
		cfg:     deps.Config,
		Service: deps.Service,
		src:     deps.Source,
		log:     log,
		version: deps.Version,
		show:    slideshow.NewManager(deps.Config.AutoplayInterval()),
	}
	a.ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	a.thumbs = NewThumbnailManager(a.ctx, deps.Source, deps.Config.Viewer.ThumbnailSize, deps.Config.Viewer.ThumbnailWorkers, log)
	a.ctrl = viewer.New(deps.Service.Store, lightbox.New(log), deps.Metadata, a.show, a, log)

	a.UI.MainWin = fa.NewWindow("fygallery")
	a.UI.MainWin.SetContent(a.buildMainUI())
	if deps.Logger != nil {
		deps.Logger.AddHook(a.logUI)
	}
	a.UI.MainWin.SetCloseIntercept(func() {
		a.log.Info("Closing main window")
		a.cancel()
		a.ctrl.Stop()
		a.UI.MainWin.Close()
	})
	a.UI.MainWin.Resize(fyne.NewSize(1280, 860))
	a.UI.MainWin.CenterOnScreen()

	a.ctrl.Start(a.ctx)
	go a.reload()

	a.UI.MainWin.ShowAndRun()
	a.ctrl.Stop()
	return nil
}

// reload runs the catalog pipeline. Concurrent calls collapse into one.
func (a *App) reload() {
	a.loadingMu.Lock()
	if a.loading {
		a.loadingMu.Unlock()
		return
	}
	a.loading = true
	a.loadingMu.Unlock()
	defer func() {
		a.loadingMu.Lock()
		a.loading = false
		a.loadingMu.Unlock()
	}()

	fyne.Do(func() { a.UI.statusLabel.SetText("Loading gallery...") })
	res := a.Service.LoadGallery(a.ctx)
	msg := fmt.Sprintf("Showing %d of %d images", res.Shown, res.Fetched)
	if res.Fallback {
		msg = fmt.Sprintf("Catalog unavailable, showing %d built-in images", res.Shown)
	}
	a.log.Info(msg)
	fyne.Do(func() { a.updateStatusBar() })
	if a.tagsView != nil {
		fyne.Do(a.tagsView.loadAndFilterTagData)
	}
}

// updateStatusBar updates the text of the status bar.
func (a *App) updateStatusBar() {
	if a.UI.statusLabel == nil {
		return
	}
	text := fmt.Sprintf("%d images", a.Service.Store.Len())
	if tag := a.ctrl.Filter(); tag != "" {
		text = fmt.Sprintf("%d of %s (Filtered: %s)", len(a.ctrl.Visible()), text, tag)
	}
	if a.show.IsPaused() {
		text += " | Autoplay off"
	} else {
		text += " | Autoplay on"
	}
	a.UI.statusLabel.SetText(text)
}

func (a *App) toggleAutoplay() {
	playing := a.ctrl.ToggleAutoplay()
	a.syncAutoplayIcon(playing)
}

func (a *App) syncAutoplayIcon(playing bool) {
	if a.UI.pauseAction != nil {
		if playing {
			a.UI.pauseAction.SetIcon(theme.MediaPauseIcon())
		} else {
			a.UI.pauseAction.SetIcon(theme.MediaPlayIcon())
		}
	}
	if a.UI.toolBar != nil {
		a.UI.toolBar.Refresh()
	}
	a.updateStatusBar()
}

// openFirst opens the lightbox on the first visible record.
func (a *App) openFirst() {
	visible := a.ctrl.Visible()
	if len(visible) == 0 {
		dialog.ShowInformation("Slideshow", "There are no images to show.", a.UI.MainWin)
		return
	}
	a.ctrl.Open(visible[0], visible)
}

func (a *App) buildToolbar() *widget.Toolbar {
	a.UI.pauseAction = widget.NewToolbarAction(theme.MediaPlayIcon(), func() {
		if a.box.isOpen() {
			a.toggleAutoplay()
			return
		}
		a.openFirst()
		if a.show.IsPaused() {
			a.toggleAutoplay()
		}
	})
	a.UI.toolBar = widget.NewToolbar(
		widget.NewToolbarAction(theme.ViewRefreshIcon(), a.ctrl.Reshuffle),
		widget.NewToolbarAction(theme.DownloadIcon(), func() { go a.reload() }),
		widget.NewToolbarAction(theme.SearchIcon(), a.showFilterDialog),
		widget.NewToolbarSeparator(),
		a.UI.pauseAction,
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.InfoIcon(), a.showShortcuts),
		widget.NewToolbarAction(theme.HelpIcon(), a.showAbout),
	)
	return a.UI.toolBar
}

func (a *App) buildStatusBar() fyne.CanvasObject {
	a.UI.statusLabel = widget.NewLabel("Ready")
	a.UI.statusLogLabel = widget.NewLabel("")
	a.UI.statusLogLabel.Truncation = fyne.TextTruncateEllipsis
	a.UI.statusLogUpBtn = widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() { a.logUI.ShowPreviousLogMessage() })
	a.UI.statusLogDownBtn = widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() { a.logUI.ShowNextLogMessage() })
	a.logUI = NewLogUIManager(a.UI.statusLogLabel, a.UI.statusLogUpBtn, a.UI.statusLogDownBtn, DefaultMaxLogMessages)
	a.logUI.UpdateLogDisplay()

	return container.NewVBox(
		widget.NewSeparator(),
		container.NewBorder(nil, nil,
			a.UI.statusLabel,
			container.NewHBox(a.UI.statusLogUpBtn, a.UI.statusLogDownBtn),
			a.UI.statusLogLabel,
		),
	)
}

func (a *App) buildMainUI() fyne.CanvasObject {
	a.UI.MainWin.SetMaster()
	// set main mod key to super on darwin hosts, else set it to ctrl
	if runtime.GOOS == "darwin" {
		a.UI.mainModKey = fyne.KeyModifierSuper
	} else {
		a.UI.mainModKey = fyne.KeyModifierControl
	}

	a.grid = newGalleryGrid(a)
	a.box = newLightboxView(a)
	status := a.buildStatusBar()
	toolbar := a.buildToolbar()

	a.UI.tabs = container.NewAppTabs(
		container.NewTabItemWithIcon("Gallery", theme.GridIcon(), a.grid.content()),
	)
	if a.Service.TagDB != nil {
		a.UI.tabs.Append(a.buildTagsTab())
	}

	a.UI.MainWin.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File",
			fyne.NewMenuItem("Reload Catalog", func() { go a.reload() }),
		),
		fyne.NewMenu("View",
			fyne.NewMenuItem("Reshuffle", a.ctrl.Reshuffle),
			fyne.NewMenuItem("Filter by Tag...", a.showFilterDialog),
			fyne.NewMenuItem("Clear Filter", func() { a.applyFilter("") }),
			fyne.NewMenuItem("Slideshow", a.openFirst),
		),
		fyne.NewMenu("Help",
			fyne.NewMenuItem("Keyboard Shortcuts", a.showShortcuts),
			fyne.NewMenuItem("About", a.showAbout),
		),
	))
	a.buildKeyboardShortcuts()

	return container.NewBorder(
		toolbar, // Top
		status,  // Bottom
		nil,
		nil,
		a.UI.tabs,
	)
}

// applyFilter restricts the grid to one tag; "" clears the filter.
func (a *App) applyFilter(tag string) {
	a.ctrl.SetFilter(tag)
	if tag == "" {
		a.log.Info("Filter cleared")
	} else {
		a.log.WithField("tag", tag).Info("Filter applied")
	}
	a.updateStatusBar()
	if a.UI.tabs != nil {
		a.UI.tabs.SelectIndex(0)
	}
}

// RenderGrid implements viewer.Presenter.
func (a *App) RenderGrid(records []catalog.ImageRecord) {
	a.grid.render(records)
	fyne.Do(a.updateStatusBar)
}

// ShowRecord implements viewer.Presenter.
func (a *App) ShowRecord(ev lightbox.Event) {
	a.box.show(ev)
}

// ShowMetadata implements viewer.Presenter.
func (a *App) ShowMetadata(ev lightbox.Event, lines []string) {
	a.box.showMetadata(ev, lines)
}

// HideLightbox implements viewer.Presenter.
func (a *App) HideLightbox() {
	a.box.hide()
	fyne.Do(func() { a.syncAutoplayIcon(!a.show.IsPaused()) })
}
